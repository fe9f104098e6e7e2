package output

import (
	"encoding/binary"

	"github.com/joypados/adapter/internal/feedback"
	"github.com/joypados/adapter/internal/input"
)

// XInputReportLen is the fixed input report size.
const XInputReportLen = 20

// XInput output report types from the host.
const (
	xinputOutRumble = 0x00
	xinputOutLED    = 0x01
)

// XInput button bits (report bytes 2-3).
const (
	xbDpadUp    = 0x0001
	xbDpadDown  = 0x0002
	xbDpadLeft  = 0x0004
	xbDpadRight = 0x0008
	xbStart     = 0x0010
	xbBack      = 0x0020
	xbL3        = 0x0040
	xbR3        = 0x0080
	xbLB        = 0x0100
	xbRB        = 0x0200
	xbGuide     = 0x0400
	xbA         = 0x1000
	xbB         = 0x2000
	xbX         = 0x4000
	xbY         = 0x8000
)

// XInputMode emulates the Xbox 360 wired protocol: 20-byte input reports,
// rumble and LED output reports parsed back into feedback requests.
type XInputMode struct {
	writer ReportWriter
	fb     FeedbackDispatcher
}

// NewXInputMode returns the XInput emulation mode.
func NewXInputMode(writer ReportWriter, fb FeedbackDispatcher) *XInputMode {
	return &XInputMode{writer: writer, fb: fb}
}

func (m *XInputMode) Name() string { return "xinput" }

func (m *XInputMode) Init() {}

func (m *XInputMode) IsReady() bool { return m.writer.Ready() }

func (m *XInputMode) SendReport(player int, ev input.OutputEvent) bool {
	if !m.writer.Ready() {
		return false
	}
	var report [XInputReportLen]byte
	report[0] = 0x00 // message type
	report[1] = XInputReportLen

	binary.LittleEndian.PutUint16(report[2:4], xinputButtons(ev.Buttons))
	report[4] = triggerTo255(ev.Axes[input.AxisLT])
	report[5] = triggerTo255(ev.Axes[input.AxisRT])

	binary.LittleEndian.PutUint16(report[6:8], uint16(axisToS16(ev.Axes[input.AxisLX], false)))
	binary.LittleEndian.PutUint16(report[8:10], uint16(axisToS16(ev.Axes[input.AxisLY], true)))
	binary.LittleEndian.PutUint16(report[10:12], uint16(axisToS16(ev.Axes[input.AxisRX], false)))
	binary.LittleEndian.PutUint16(report[12:14], uint16(axisToS16(ev.Axes[input.AxisRY], true)))

	return m.writer.WriteReport(player, report[:])
}

// HandleOutput parses host output reports.
//
//	rumble: 00 08 00 <left> <right> 00 00 00
//	led:    01 03 <pattern>
func (m *XInputMode) HandleOutput(player int, data []byte) {
	if len(data) < 3 {
		return
	}
	switch data[0] {
	case xinputOutRumble:
		if len(data) < 5 {
			return
		}
		m.fb.DispatchIndex(player, feedback.Request{
			RumbleLeft:  data[3],
			RumbleRight: data[4],
		})
	case xinputOutLED:
		m.fb.DispatchIndex(player, feedback.Request{
			PlayerLED: ledPatternToPlayer(data[2]),
		})
	}
}

// PlayerDetached is a no-op: each player is its own stateless interface.
func (m *XInputMode) PlayerDetached(int) {}

func xinputButtons(buttons uint32) uint16 {
	var out uint16
	set := func(canonical int, bit uint16) {
		if buttons&input.Bit(canonical) != 0 {
			out |= bit
		}
	}
	set(input.ButtonB1, xbA)
	set(input.ButtonB2, xbB)
	set(input.ButtonB3, xbX)
	set(input.ButtonB4, xbY)
	set(input.ButtonL1, xbLB)
	set(input.ButtonR1, xbRB)
	set(input.ButtonS1, xbBack)
	set(input.ButtonS2, xbStart)
	set(input.ButtonL3, xbL3)
	set(input.ButtonR3, xbR3)
	set(input.ButtonDU, xbDpadUp)
	set(input.ButtonDD, xbDpadDown)
	set(input.ButtonDL, xbDpadLeft)
	set(input.ButtonDR, xbDpadRight)
	set(input.ButtonA1, xbGuide)
	return out
}

// axisToS16 expands a canonical centered sample to the signed 16-bit
// range. XInput Y axes point up, canonical Y points down, so Y flips.
func axisToS16(v uint8, flipY bool) int16 {
	d := int(v) - int(input.AxisCenter)
	if flipY {
		d = -d
	}
	s := d << 8
	if s > 32767 {
		s = 32767
	} else if s < -32768 {
		s = -32768
	}
	return int16(s)
}

// triggerTo255 maps the canonical trigger range (128 rest .. 255 full) to
// the XInput 0..255 range.
func triggerTo255(v uint8) uint8 {
	if v <= input.AxisCenter {
		return 0
	}
	d := int(v-input.AxisCenter) * 2
	if d > 255 {
		d = 255
	}
	return uint8(d)
}

// ledPatternToPlayer maps the 360 LED patterns that indicate a player
// number (blink-then-on 0x02..0x05, on 0x06..0x09) to that number.
func ledPatternToPlayer(pattern uint8) uint8 {
	switch {
	case pattern >= 0x02 && pattern <= 0x05:
		return pattern - 0x01
	case pattern >= 0x06 && pattern <= 0x09:
		return pattern - 0x05
	default:
		return 0
	}
}
