// Package input defines the canonical input event model shared by every
// transport driver and the routing core. A device driver decodes whatever
// its transport delivers (HID reports, JOCP packets, native bus frames)
// into an Event; everything downstream only ever sees Events.
package input

import "fmt"

// Transport identifies the physical/link-layer channel a device's raw
// reports arrive over.
type Transport uint8

const (
	TransportUSBHost Transport = iota
	TransportUSBLoopback
	TransportBluetooth
	TransportWiFi
	TransportNativeBus
)

func (t Transport) String() string {
	switch t {
	case TransportUSBHost:
		return "usb-host"
	case TransportUSBLoopback:
		return "usb-loopback"
	case TransportBluetooth:
		return "bluetooth"
	case TransportWiFi:
		return "wifi"
	case TransportNativeBus:
		return "native-bus"
	default:
		return "unknown"
	}
}

// DeviceKind tags which class of driver produced an event.
type DeviceKind uint8

const (
	KindGamepad DeviceKind = iota
	KindKeyboard
	KindMouse
	KindWheel
)

// SourceID uniquely identifies a physical device for the duration of its
// connection. Address is transport specific (USB device address, JOCP
// session id, ...); Instance distinguishes logical sub-devices behind one
// physical unit, e.g. the four ports of a GC adapter.
type SourceID struct {
	Transport Transport
	Address   uint16
	Instance  uint8
}

func (s SourceID) String() string {
	return fmt.Sprintf("%s/%d.%d", s.Transport, s.Address, s.Instance)
}

// Event is one immutable sample from a device.
type Event struct {
	Source    SourceID
	Kind      DeviceKind
	Buttons   uint32
	Axes      [AxisCount]uint8
	AxisCount uint8
}

// NewEvent returns an event with all axes at rest.
func NewEvent(src SourceID, kind DeviceKind) Event {
	ev := Event{Source: src, Kind: kind, AxisCount: AxisCount}
	for i := range ev.Axes {
		ev.Axes[i] = AxisCenter
	}
	return ev
}

// OutputEvent is an Event after profile remapping, expressed in the same
// canonical button/axis space. Output modes encode it into their wire
// format without consulting the profile again.
type OutputEvent struct {
	Buttons uint32
	Axes    [AxisCount]uint8
}

// Neutral returns the centered/released output event.
func Neutral() OutputEvent {
	var out OutputEvent
	for i := range out.Axes {
		out.Axes[i] = AxisCenter
	}
	return out
}
