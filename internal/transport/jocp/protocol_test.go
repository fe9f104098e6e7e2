package jocp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joypados/adapter/internal/input"
)

func TestConvertButtons(t *testing.T) {
	cases := []struct {
		wire      uint32
		canonical int
	}{
		{BtnSouth, input.ButtonB1},
		{BtnEast, input.ButtonB2},
		{BtnWest, input.ButtonB3},
		{BtnNorth, input.ButtonB4},
		{BtnDU, input.ButtonDU},
		{BtnDR, input.ButtonDR},
		{BtnL2, input.ButtonL2},
		{BtnR3, input.ButtonR3},
		{BtnStart, input.ButtonS2},
		{BtnBack, input.ButtonS1},
		{BtnGuide, input.ButtonA1},
		{BtnCapture, input.ButtonA2},
	}
	for _, tc := range cases {
		assert.Equal(t, input.Bit(tc.canonical), convertButtons(tc.wire),
			"wire bit %#x", tc.wire)
	}

	// Paddles fold onto the shoulders.
	assert.Equal(t, input.Bit(input.ButtonL1), convertButtons(BtnLPaddle1))
	assert.Equal(t, input.Bit(input.ButtonR1), convertButtons(BtnRPaddle1))
	assert.Equal(t, input.Bit(input.ButtonL1), convertButtons(BtnL1|BtnLPaddle1))

	assert.Zero(t, convertButtons(0))
}

func TestConvertAxis(t *testing.T) {
	assert.Equal(t, uint8(128), convertAxis(0))
	assert.Equal(t, uint8(0), convertAxis(-32768))
	assert.Equal(t, uint8(255), convertAxis(32767))
	assert.Equal(t, uint8(192), convertAxis(16384))
}

func TestConvertTrigger(t *testing.T) {
	assert.Equal(t, uint8(128), convertTrigger(0))
	assert.Equal(t, uint8(255), convertTrigger(65535))
	assert.Equal(t, uint8(192), convertTrigger(32768))
}

func TestEventFromPacket(t *testing.T) {
	src := input.SourceID{Transport: input.TransportWiFi, Address: 3}
	p := Packet{
		Type:    packetInput,
		Buttons: BtnSouth | BtnStart,
		LX:      -32768,
		LY:      32767,
		LT:      65535,
	}
	ev := eventFromPacket(src, p)

	assert.Equal(t, src, ev.Source)
	assert.Equal(t, input.KindGamepad, ev.Kind)
	assert.Equal(t, input.Bit(input.ButtonB1)|input.Bit(input.ButtonS2), ev.Buttons)
	assert.Equal(t, uint8(0), ev.Axes[input.AxisLX])
	assert.Equal(t, uint8(255), ev.Axes[input.AxisLY])
	assert.Equal(t, uint8(128), ev.Axes[input.AxisRX], "untouched stick rests at center")
	assert.Equal(t, uint8(255), ev.Axes[input.AxisLT])
	assert.Equal(t, uint8(128), ev.Axes[input.AxisRT])
}

func TestDecodePacket(t *testing.T) {
	p, ok := decodePacket([]byte(`{"type":"input","seq":7,"buttons":1}`))
	require.True(t, ok)
	assert.Equal(t, packetInput, p.Type)
	assert.Equal(t, uint16(7), p.Seq)
	assert.Equal(t, uint32(1), p.Buttons)

	_, ok = decodePacket([]byte(`{`))
	assert.False(t, ok)
}
