package input

// Canonical button bit order. The order is load-bearing: persisted profile
// button maps are stored as per-button byte arrays indexed by these values,
// so it must never be reshuffled.
const (
	ButtonB1 = iota // south face (A / Cross)
	ButtonB2        // east face (B / Circle)
	ButtonB3        // west face (X / Square)
	ButtonB4        // north face (Y / Triangle)
	ButtonL1
	ButtonR1
	ButtonL2
	ButtonR2
	ButtonS1 // select / back / share
	ButtonS2 // start / options / menu
	ButtonL3
	ButtonR3
	ButtonDU
	ButtonDD
	ButtonDL
	ButtonDR
	ButtonA1 // home / guide
	ButtonA2 // capture

	ButtonCount
)

// ButtonMask is the set of valid canonical button bits.
const ButtonMask = uint32(1<<ButtonCount) - 1

// Bit returns the bitfield mask for one canonical button index.
func Bit(button int) uint32 {
	return 1 << uint(button)
}

// Canonical axis order, uint8 samples with 128 at rest.
const (
	AxisLX = iota
	AxisLY
	AxisRX
	AxisRY
	AxisLT
	AxisRT

	AxisCount
)

// AxisCenter is the universal centered/released axis value.
const AxisCenter uint8 = 128

var buttonNames = [ButtonCount]string{
	"b1", "b2", "b3", "b4",
	"l1", "r1", "l2", "r2",
	"s1", "s2", "l3", "r3",
	"du", "dd", "dl", "dr",
	"a1", "a2",
}

// ButtonName returns the short canonical name for a button index.
func ButtonName(button int) string {
	if button < 0 || button >= ButtonCount {
		return "?"
	}
	return buttonNames[button]
}

var axisNames = [AxisCount]string{"lx", "ly", "rx", "ry", "lt", "rt"}

// AxisName returns the short canonical name for an axis index.
func AxisName(axis int) string {
	if axis < 0 || axis >= AxisCount {
		return "?"
	}
	return axisNames[axis]
}
