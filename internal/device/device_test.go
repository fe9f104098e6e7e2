package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joypados/adapter/internal/feedback"
	"github.com/joypados/adapter/internal/input"
)

type fakeDriver struct {
	name      string
	transport input.Transport
	reject    bool

	attached []Info
	detached []input.SourceID
	tasks    int
}

func (d *fakeDriver) Name() string { return d.name }

func (d *fakeDriver) Claims(info Info) bool {
	return info.Source.Transport == d.transport
}

func (d *fakeDriver) Attach(info Info) bool {
	if d.reject {
		return false
	}
	d.attached = append(d.attached, info)
	return true
}

func (d *fakeDriver) Process(src input.SourceID, raw []byte) (input.Event, bool) {
	return input.NewEvent(src, input.KindGamepad), true
}

func (d *fakeDriver) Task(time.Time) { d.tasks++ }

func (d *fakeDriver) Detach(src input.SourceID) {
	d.detached = append(d.detached, src)
}

// rumbleDriver additionally accepts feedback.
type rumbleDriver struct {
	fakeDriver
	feedback []feedback.Request
}

func (d *rumbleDriver) ApplyFeedback(src input.SourceID, req feedback.Request) {
	d.feedback = append(d.feedback, req)
}

func usbInfo(addr uint16) Info {
	return Info{
		Source: input.SourceID{Transport: input.TransportUSBHost, Address: addr},
		Vendor: 0x045E, Product: 0x028E, Name: "pad",
	}
}

func TestAttachClaimOrder(t *testing.T) {
	log := zap.NewNop().Sugar()
	r := NewRegistry(log)

	usb := &fakeDriver{name: "usb", transport: input.TransportUSBHost}
	wifi := &fakeDriver{name: "wifi", transport: input.TransportWiFi}
	r.Register(usb)
	r.Register(wifi)

	got := r.Attach(usbInfo(1))
	require.NotNil(t, got)
	assert.Same(t, Driver(usb), got)
	assert.Len(t, usb.attached, 1)
	assert.Empty(t, wifi.attached)
	assert.Equal(t, 1, r.AttachedCount())

	// Re-attaching the same source returns the existing claim.
	again := r.Attach(usbInfo(1))
	assert.Same(t, got, again)
	assert.Len(t, usb.attached, 1)

	// No driver claims an unknown transport.
	btInfo := Info{Source: input.SourceID{Transport: input.TransportBluetooth, Address: 2}}
	assert.Nil(t, r.Attach(btInfo))
}

func TestAttachRejectedByDriver(t *testing.T) {
	r := NewRegistry(zap.NewNop().Sugar())
	d := &fakeDriver{name: "usb", transport: input.TransportUSBHost, reject: true}
	r.Register(d)

	assert.Nil(t, r.Attach(usbInfo(1)))
	assert.Zero(t, r.AttachedCount())
}

func TestDetachRunsHookBeforeReturn(t *testing.T) {
	r := NewRegistry(zap.NewNop().Sugar())
	d := &fakeDriver{name: "usb", transport: input.TransportUSBHost}
	r.Register(d)

	var hooked []input.SourceID
	r.SetDetachHook(func(src input.SourceID) {
		hooked = append(hooked, src)
	})

	info := usbInfo(1)
	require.NotNil(t, r.Attach(info))

	r.Detach(info.Source)
	assert.Equal(t, []input.SourceID{info.Source}, d.detached)
	assert.Equal(t, []input.SourceID{info.Source}, hooked)
	assert.Zero(t, r.AttachedCount())

	// Detaching twice is harmless and does not re-run the hook.
	r.Detach(info.Source)
	assert.Len(t, hooked, 1)
}

func TestFeedbackSinkCapability(t *testing.T) {
	r := NewRegistry(zap.NewNop().Sugar())
	plain := &fakeDriver{name: "plain", transport: input.TransportUSBHost}
	rumble := &rumbleDriver{fakeDriver: fakeDriver{name: "rumble", transport: input.TransportWiFi}}
	r.Register(plain)
	r.Register(rumble)

	usbSrc := usbInfo(1).Source
	wifiSrc := input.SourceID{Transport: input.TransportWiFi, Address: 2}
	require.NotNil(t, r.Attach(usbInfo(1)))
	require.NotNil(t, r.Attach(Info{Source: wifiSrc, Name: "wifi pad"}))

	_, ok := r.FeedbackSink(usbSrc)
	assert.False(t, ok, "driver without the capability has no sink")

	sink, ok := r.FeedbackSink(wifiSrc)
	require.True(t, ok)
	sink.ApplyFeedback(wifiSrc, feedback.Request{RumbleLeft: 9})
	require.Len(t, rumble.feedback, 1)

	// Detached devices lose their sink.
	r.Detach(wifiSrc)
	_, ok = r.FeedbackSink(wifiSrc)
	assert.False(t, ok)
}

func TestTaskFansOut(t *testing.T) {
	r := NewRegistry(zap.NewNop().Sugar())
	a := &fakeDriver{name: "a"}
	b := &fakeDriver{name: "b"}
	r.Register(a)
	r.Register(b)

	r.Task(time.Now())
	r.Task(time.Now())
	assert.Equal(t, 2, a.tasks)
	assert.Equal(t, 2, b.tasks)
}
