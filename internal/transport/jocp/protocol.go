// Package jocp implements the WiFi controller transport: phones or
// dedicated WiFi pads stream JOCP packets over a WebSocket and appear to
// the core as ordinary devices. Feedback rides the same socket back.
package jocp

import (
	"encoding/json"

	"github.com/joypados/adapter/internal/input"
)

// JOCP button bits as carried on the wire.
const (
	BtnSouth uint32 = 1 << iota
	BtnEast
	BtnWest
	BtnNorth
	BtnDU
	BtnDD
	BtnDL
	BtnDR
	BtnL1
	BtnR1
	BtnL2
	BtnR2
	BtnL3
	BtnR3
	BtnStart
	BtnBack
	BtnGuide
	BtnCapture
	BtnLPaddle1
	BtnRPaddle1
)

// Packet is one JOCP message, either direction.
type Packet struct {
	Type    string `json:"type"` // "hello", "input", "feedback"
	Seq     uint16 `json:"seq,omitempty"`
	Name    string `json:"name,omitempty"`
	Vendor  uint16 `json:"vendor,omitempty"`
	Product uint16 `json:"product,omitempty"`

	Buttons uint32 `json:"buttons,omitempty"`
	LX      int16  `json:"lx,omitempty"`
	LY      int16  `json:"ly,omitempty"`
	RX      int16  `json:"rx,omitempty"`
	RY      int16  `json:"ry,omitempty"`
	LT      uint16 `json:"lt,omitempty"`
	RT      uint16 `json:"rt,omitempty"`

	RumbleLeft  uint8 `json:"rumbleLeft,omitempty"`
	RumbleRight uint8 `json:"rumbleRight,omitempty"`
	LEDRed      uint8 `json:"ledR,omitempty"`
	LEDGreen    uint8 `json:"ledG,omitempty"`
	LEDBlue     uint8 `json:"ledB,omitempty"`
	PlayerLED   uint8 `json:"playerLed,omitempty"`
}

const (
	packetHello    = "hello"
	packetInput    = "input"
	packetFeedback = "feedback"
)

// decodePacket parses one wire message.
func decodePacket(raw []byte) (Packet, bool) {
	var p Packet
	if err := json.Unmarshal(raw, &p); err != nil {
		return Packet{}, false
	}
	return p, true
}

// convertButtons maps JOCP buttons onto the canonical bitfield.
func convertButtons(jocp uint32) uint32 {
	var out uint32
	set := func(wire uint32, canonical int) {
		if jocp&wire != 0 {
			out |= input.Bit(canonical)
		}
	}
	set(BtnSouth, input.ButtonB1)
	set(BtnEast, input.ButtonB2)
	set(BtnWest, input.ButtonB3)
	set(BtnNorth, input.ButtonB4)
	set(BtnDU, input.ButtonDU)
	set(BtnDD, input.ButtonDD)
	set(BtnDL, input.ButtonDL)
	set(BtnDR, input.ButtonDR)
	set(BtnL1, input.ButtonL1)
	set(BtnR1, input.ButtonR1)
	set(BtnL2, input.ButtonL2)
	set(BtnR2, input.ButtonR2)
	set(BtnL3, input.ButtonL3)
	set(BtnR3, input.ButtonR3)
	set(BtnStart, input.ButtonS2)
	set(BtnBack, input.ButtonS1)
	set(BtnGuide, input.ButtonA1)
	set(BtnCapture, input.ButtonA2)
	// Paddles fold onto the shoulder buttons; the canonical set has no
	// dedicated paddle bits.
	set(BtnLPaddle1, input.ButtonL1)
	set(BtnRPaddle1, input.ButtonR1)
	return out
}

// convertAxis maps a signed 16-bit stick sample to the canonical 0..255
// center-128 range.
func convertAxis(v int16) uint8 {
	return uint8((int32(v) + 32768) >> 8)
}

// convertTrigger maps an unsigned 16-bit trigger to the canonical resting
// 128 .. full 255 range.
func convertTrigger(v uint16) uint8 {
	return input.AxisCenter + uint8(v>>9)
}

// eventFromPacket builds the canonical event for one INPUT packet.
func eventFromPacket(src input.SourceID, p Packet) input.Event {
	ev := input.NewEvent(src, input.KindGamepad)
	ev.Buttons = convertButtons(p.Buttons)
	ev.Axes[input.AxisLX] = convertAxis(p.LX)
	ev.Axes[input.AxisLY] = convertAxis(p.LY)
	ev.Axes[input.AxisRX] = convertAxis(p.RX)
	ev.Axes[input.AxisRY] = convertAxis(p.RY)
	ev.Axes[input.AxisLT] = convertTrigger(p.LT)
	ev.Axes[input.AxisRT] = convertTrigger(p.RT)
	return ev
}
