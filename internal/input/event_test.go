package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEventRestsAtCenter(t *testing.T) {
	src := SourceID{Transport: TransportWiFi, Address: 3, Instance: 1}
	ev := NewEvent(src, KindGamepad)

	assert.Equal(t, src, ev.Source)
	assert.Zero(t, ev.Buttons)
	for i := 0; i < AxisCount; i++ {
		assert.Equal(t, AxisCenter, ev.Axes[i], AxisName(i))
	}
}

func TestNeutralOutput(t *testing.T) {
	out := Neutral()
	assert.Zero(t, out.Buttons)
	for i := 0; i < AxisCount; i++ {
		assert.Equal(t, AxisCenter, out.Axes[i])
	}
}

func TestSourceIDString(t *testing.T) {
	s := SourceID{Transport: TransportUSBHost, Address: 12, Instance: 2}
	assert.Equal(t, "usb-host/12.2", s.String())

	s = SourceID{Transport: TransportWiFi, Address: 1}
	assert.Equal(t, "wifi/1.0", s.String())
}

func TestButtonAndAxisNames(t *testing.T) {
	assert.Equal(t, "b1", ButtonName(ButtonB1))
	assert.Equal(t, "a2", ButtonName(ButtonA2))
	assert.Equal(t, "?", ButtonName(ButtonCount))
	assert.Equal(t, "rt", AxisName(AxisRT))
	assert.Equal(t, "?", AxisName(-1))
}

func TestBitMask(t *testing.T) {
	assert.Equal(t, uint32(1), Bit(ButtonB1))
	assert.Equal(t, uint32(1)<<17, Bit(ButtonA2))

	var all uint32
	for i := 0; i < ButtonCount; i++ {
		all |= Bit(i)
	}
	assert.Equal(t, ButtonMask, all)
}
