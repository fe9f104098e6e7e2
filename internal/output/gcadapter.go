package output

import (
	"sync"

	"github.com/joypados/adapter/internal/feedback"
	"github.com/joypados/adapter/internal/input"
)

// GCAdapterReportLen is one status byte plus nine bytes per port.
const GCAdapterReportLen = 1 + gcPorts*9

const (
	gcPorts        = 4
	gcReportID     = 0x21
	gcRumbleCmd    = 0x11
	gcPortStandard = 0x10 // status: standard controller present
)

// GC per-port button bits.
const (
	gcA     = 0x01
	gcB     = 0x02
	gcX     = 0x04
	gcY     = 0x08
	gcDL    = 0x10
	gcDR    = 0x20
	gcDD    = 0x40
	gcDU    = 0x80
	gcStart = 0x01
	gcZ     = 0x02
	gcR     = 0x04
	gcL     = 0x08
)

// GCAdapterMode emulates the official 4-port GameCube controller adapter:
// every input report carries the state of all four ports, and the host's
// rumble command addresses ports individually.
type GCAdapterMode struct {
	writer ReportWriter
	fb     FeedbackDispatcher

	// Port state is written from the dispatch loop and cleared from
	// transport-side detach notifications.
	mu        sync.Mutex
	ports     [gcPorts]input.OutputEvent
	connected [gcPorts]bool
}

// NewGCAdapterMode returns the GC adapter emulation mode.
func NewGCAdapterMode(writer ReportWriter, fb FeedbackDispatcher) *GCAdapterMode {
	return &GCAdapterMode{writer: writer, fb: fb}
}

func (m *GCAdapterMode) Name() string { return "gcadapter" }

// Init resets all ports to disconnected and neutral.
func (m *GCAdapterMode) Init() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.ports {
		m.ports[i] = input.Neutral()
		m.connected[i] = false
	}
}

func (m *GCAdapterMode) IsReady() bool { return m.writer.Ready() }

// SendReport updates one port and emits the whole-adapter report. The
// report is addressed to the updating player, keeping per-player routing
// downstream symmetrical with the single-port modes.
func (m *GCAdapterMode) SendReport(player int, ev input.OutputEvent) bool {
	if player < 0 || player >= gcPorts {
		return false
	}
	if !m.writer.Ready() {
		return false
	}
	m.mu.Lock()
	m.ports[player] = ev
	m.connected[player] = true

	var report [GCAdapterReportLen]byte
	report[0] = gcReportID
	for port := 0; port < gcPorts; port++ {
		off := 1 + port*9
		if !m.connected[port] {
			continue
		}
		pe := m.ports[port]
		report[off] = gcPortStandard
		report[off+1] = gcButtons1(pe.Buttons)
		report[off+2] = gcButtons2(pe.Buttons)
		report[off+3] = pe.Axes[input.AxisLX]
		report[off+4] = 255 - pe.Axes[input.AxisLY] // GC stick Y points up
		report[off+5] = pe.Axes[input.AxisRX]
		report[off+6] = 255 - pe.Axes[input.AxisRY]
		report[off+7] = triggerTo255(pe.Axes[input.AxisLT])
		report[off+8] = triggerTo255(pe.Axes[input.AxisRT])
	}
	m.mu.Unlock()
	return m.writer.WriteReport(player, report[:])
}

// PlayerDetached reverts a freed player's port to absent and neutral, so
// the next report shows the port empty instead of frozen at its last
// state.
func (m *GCAdapterMode) PlayerDetached(player int) {
	if player < 0 || player >= gcPorts {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ports[player] = input.Neutral()
	m.connected[player] = false
}

// HandleOutput parses the adapter rumble command: 0x11 followed by one
// on/off byte per port. The player argument is ignored; the command
// addresses every port.
func (m *GCAdapterMode) HandleOutput(_ int, data []byte) {
	if len(data) < 1+gcPorts || data[0] != gcRumbleCmd {
		return
	}
	for port := 0; port < gcPorts; port++ {
		var level uint8
		if data[1+port] != 0 {
			level = 255
		}
		m.fb.DispatchIndex(port, feedback.Request{
			RumbleLeft:  level,
			RumbleRight: level,
		})
	}
}

func gcButtons1(buttons uint32) byte {
	var out byte
	set := func(canonical int, bit byte) {
		if buttons&input.Bit(canonical) != 0 {
			out |= bit
		}
	}
	set(input.ButtonB1, gcA)
	set(input.ButtonB2, gcB)
	set(input.ButtonB3, gcX)
	set(input.ButtonB4, gcY)
	set(input.ButtonDL, gcDL)
	set(input.ButtonDR, gcDR)
	set(input.ButtonDD, gcDD)
	set(input.ButtonDU, gcDU)
	return out
}

func gcButtons2(buttons uint32) byte {
	var out byte
	set := func(canonical int, bit byte) {
		if buttons&input.Bit(canonical) != 0 {
			out |= bit
		}
	}
	set(input.ButtonS2, gcStart)
	set(input.ButtonR1, gcZ)
	set(input.ButtonR2, gcR)
	set(input.ButtonL2, gcL)
	return out
}
