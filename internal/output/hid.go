package output

import (
	"github.com/joypados/adapter/internal/feedback"
	"github.com/joypados/adapter/internal/input"
)

// FeedbackDispatcher is the slice of the feedback manager modes need:
// routing a request to whichever device currently holds a player index.
type FeedbackDispatcher interface {
	DispatchIndex(player int, req feedback.Request)
}

// HIDReportLen is the size of the generic gamepad report.
const HIDReportLen = 10

// hat nibble values, standard HID 8-way encoding
const hatNeutral = 0x0F

// HIDMode is the generic USB HID gamepad protocol: one 10-byte report per
// player carrying the canonical buttons (d-pad folded into a hat nibble)
// and all six axes.
type HIDMode struct {
	writer ReportWriter
	fb     FeedbackDispatcher
}

// NewHIDMode returns the generic HID gamepad mode.
func NewHIDMode(writer ReportWriter, fb FeedbackDispatcher) *HIDMode {
	return &HIDMode{writer: writer, fb: fb}
}

func (m *HIDMode) Name() string { return "hid" }

func (m *HIDMode) Init() {}

func (m *HIDMode) IsReady() bool { return m.writer.Ready() }

// SendReport layout:
//
//	0-1  buttons (B1..DR, d-pad bits excluded)
//	2    hat nibble | (A1,A2 in high bits)
//	3-8  LX LY RX RY LT RT
//	9    reserved
func (m *HIDMode) SendReport(player int, ev input.OutputEvent) bool {
	if !m.writer.Ready() {
		return false
	}
	var report [HIDReportLen]byte

	// Buttons B1..R3 occupy bits 0..11 directly.
	b := ev.Buttons & 0x0FFF
	report[0] = byte(b)
	report[1] = byte(b >> 8)

	report[2] = hatFromDpad(ev.Buttons)
	if ev.Buttons&input.Bit(input.ButtonA1) != 0 {
		report[2] |= 0x10
	}
	if ev.Buttons&input.Bit(input.ButtonA2) != 0 {
		report[2] |= 0x20
	}

	for i := 0; i < input.AxisCount; i++ {
		report[3+i] = ev.Axes[i]
	}
	return m.writer.WriteReport(player, report[:])
}

// HandleOutput accepts a simple two-byte rumble report: [left, right].
func (m *HIDMode) HandleOutput(player int, data []byte) {
	if len(data) < 2 {
		return
	}
	m.fb.DispatchIndex(player, feedback.Request{
		RumbleLeft:  data[0],
		RumbleRight: data[1],
	})
}

// PlayerDetached is a no-op: the HID report carries no per-port presence.
func (m *HIDMode) PlayerDetached(int) {}

// hatFromDpad folds the four d-pad bits into the standard 8-way hat
// encoding (0 = up, clockwise, 0x0F = neutral).
func hatFromDpad(buttons uint32) byte {
	up := buttons&input.Bit(input.ButtonDU) != 0
	down := buttons&input.Bit(input.ButtonDD) != 0
	left := buttons&input.Bit(input.ButtonDL) != 0
	right := buttons&input.Bit(input.ButtonDR) != 0

	switch {
	case up && right:
		return 1
	case down && right:
		return 3
	case down && left:
		return 5
	case up && left:
		return 7
	case up:
		return 0
	case right:
		return 2
	case down:
		return 4
	case left:
		return 6
	default:
		return hatNeutral
	}
}
