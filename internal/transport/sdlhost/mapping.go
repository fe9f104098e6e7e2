package sdlhost

import "github.com/joypados/adapter/internal/input"

// AxisMapping defines how a raw SDL axis index feeds a canonical axis.
type AxisMapping struct {
	Index     int32
	Target    int // canonical axis index
	IsTrigger bool
	Invert    bool
	// For triggers: raw range. Some devices use -32768..32767, others 0..32767.
	RawMin int16
	RawMax int16
}

// ButtonMapping defines how a raw SDL button index maps to a canonical
// button bit.
type ButtonMapping struct {
	Index  int32
	Target int // canonical button index
}

// DeviceMapping holds the complete mapping for a family of devices.
type DeviceMapping struct {
	Name    string
	Axes    []AxisMapping
	Buttons []ButtonMapping
	HasHat  bool
}

var xboxMapping = &DeviceMapping{
	Name: "xbox",
	Axes: []AxisMapping{
		{Index: 0, Target: input.AxisLX},
		{Index: 1, Target: input.AxisLY},
		{Index: 2, Target: input.AxisRX},
		{Index: 3, Target: input.AxisRY},
		{Index: 4, Target: input.AxisLT, IsTrigger: true, RawMin: -32768, RawMax: 32767},
		{Index: 5, Target: input.AxisRT, IsTrigger: true, RawMin: -32768, RawMax: 32767},
	},
	Buttons: []ButtonMapping{
		{Index: 0, Target: input.ButtonB1},
		{Index: 1, Target: input.ButtonB2},
		{Index: 2, Target: input.ButtonB3},
		{Index: 3, Target: input.ButtonB4},
		{Index: 4, Target: input.ButtonL1},
		{Index: 5, Target: input.ButtonR1},
		{Index: 6, Target: input.ButtonS1},
		{Index: 7, Target: input.ButtonS2},
		{Index: 8, Target: input.ButtonL3},
		{Index: 9, Target: input.ButtonR3},
		{Index: 10, Target: input.ButtonA1},
	},
	HasHat: true,
}

var playstationMapping = &DeviceMapping{
	Name: "playstation",
	Axes: []AxisMapping{
		{Index: 0, Target: input.AxisLX},
		{Index: 1, Target: input.AxisLY},
		{Index: 2, Target: input.AxisRX},
		{Index: 3, Target: input.AxisRY},
		{Index: 4, Target: input.AxisLT, IsTrigger: true, RawMin: -32768, RawMax: 32767},
		{Index: 5, Target: input.AxisRT, IsTrigger: true, RawMin: -32768, RawMax: 32767},
	},
	Buttons: []ButtonMapping{
		{Index: 0, Target: input.ButtonB1}, // Cross
		{Index: 1, Target: input.ButtonB2}, // Circle
		{Index: 2, Target: input.ButtonB3}, // Square
		{Index: 3, Target: input.ButtonB4}, // Triangle
		{Index: 4, Target: input.ButtonS1}, // Share / Create
		{Index: 5, Target: input.ButtonA1}, // PS button
		{Index: 6, Target: input.ButtonS2}, // Options
		{Index: 7, Target: input.ButtonL3},
		{Index: 8, Target: input.ButtonR3},
		{Index: 9, Target: input.ButtonL1},  // L1
		{Index: 10, Target: input.ButtonR1}, // R1
	},
	HasHat: true,
}

var switchProMapping = &DeviceMapping{
	Name: "switch_pro",
	Axes: []AxisMapping{
		{Index: 0, Target: input.AxisLX},
		{Index: 1, Target: input.AxisLY},
		{Index: 2, Target: input.AxisRX},
		{Index: 3, Target: input.AxisRY},
	},
	Buttons: []ButtonMapping{
		{Index: 0, Target: input.ButtonB1},
		{Index: 1, Target: input.ButtonB2},
		{Index: 2, Target: input.ButtonB3},
		{Index: 3, Target: input.ButtonB4},
		{Index: 4, Target: input.ButtonL1},
		{Index: 5, Target: input.ButtonR1},
		{Index: 6, Target: input.ButtonS1},
		{Index: 7, Target: input.ButtonS2},
		{Index: 8, Target: input.ButtonL3},
		{Index: 9, Target: input.ButtonR3},
		{Index: 10, Target: input.ButtonA1},
	},
	HasHat: true,
}

var genericMapping = &DeviceMapping{
	Name: "generic",
	Axes: []AxisMapping{
		{Index: 0, Target: input.AxisLX},
		{Index: 1, Target: input.AxisLY},
		{Index: 2, Target: input.AxisRX},
		{Index: 3, Target: input.AxisRY},
		{Index: 4, Target: input.AxisLT, IsTrigger: true, RawMin: -32768, RawMax: 32767},
		{Index: 5, Target: input.AxisRT, IsTrigger: true, RawMin: -32768, RawMax: 32767},
	},
	Buttons: []ButtonMapping{
		{Index: 0, Target: input.ButtonB1},
		{Index: 1, Target: input.ButtonB2},
		{Index: 2, Target: input.ButtonB3},
		{Index: 3, Target: input.ButtonB4},
		{Index: 4, Target: input.ButtonL1},
		{Index: 5, Target: input.ButtonR1},
		{Index: 6, Target: input.ButtonS1},
		{Index: 7, Target: input.ButtonS2},
		{Index: 8, Target: input.ButtonL3},
		{Index: 9, Target: input.ButtonR3},
		{Index: 10, Target: input.ButtonA1},
	},
	HasHat: true,
}

type deviceKey struct {
	VendorID  uint16
	ProductID uint16
}

var knownDevices = map[deviceKey]*DeviceMapping{
	// Microsoft Xbox controllers
	{0x045E, 0x028E}: xboxMapping, // Xbox 360
	{0x045E, 0x02FF}: xboxMapping, // Xbox One
	{0x045E, 0x0B12}: xboxMapping, // Xbox Series X|S
	{0x045E, 0x0B13}: xboxMapping, // Xbox Series X|S (wireless)
	// Sony PlayStation controllers
	{0x054C, 0x0CE6}: playstationMapping, // DualSense
	{0x054C, 0x09CC}: playstationMapping, // DualShock 4 v2
	{0x054C, 0x05C4}: playstationMapping, // DualShock 4 v1
	// Nintendo Switch Pro Controller
	{0x057E, 0x2009}: switchProMapping,
}

// GetMapping returns the mapping for a device identified by vendor/product
// id, falling back to the generic mapping.
func GetMapping(vendorID, productID uint16) *DeviceMapping {
	key := deviceKey{VendorID: vendorID, ProductID: productID}
	if m, ok := knownDevices[key]; ok {
		return m
	}
	return genericMapping
}
