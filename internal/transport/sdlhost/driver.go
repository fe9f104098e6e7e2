// Package sdlhost drives locally attached controllers through the SDL3
// joystick API. It is the "USB host" side of the adapter: hot-plug events
// attach devices through the device registry, polled state is packed into
// canonical events and handed to the polling loop through a router cell,
// and rumble feedback latched by the feedback manager is transmitted from
// the SDL thread.
package sdlhost

import (
	"context"
	"encoding/binary"
	"runtime"
	"sync"
	"time"

	"github.com/jupiterrider/purego-sdl3/sdl"
	"go.uber.org/zap"

	"github.com/joypados/adapter/internal/device"
	"github.com/joypados/adapter/internal/feedback"
	"github.com/joypados/adapter/internal/input"
	"github.com/joypados/adapter/internal/router"
)

const (
	pollDelayNS = 16_000_000 // ~60Hz

	hatUp    uint8 = 0x01
	hatRight uint8 = 0x02
	hatDown  uint8 = 0x04
	hatLeft  uint8 = 0x08

	// snapshotLen is the packed raw report: 4 bytes buttons LE + 6 axes.
	snapshotLen = 10

	rumbleDurationMS = 1000
)

type joystickInfo struct {
	joystick *sdl.Joystick
	mapping  *DeviceMapping
	name     string
	id       sdl.JoystickID
	src      input.SourceID
	vendor   uint16
	product  uint16
	cell     *router.Cell
}

type rumbleState struct {
	left  uint8
	right uint8
	dirty bool
}

// Driver reads gamepad input from the SDL3 joystick API. It implements
// device.Driver and the feedback sink capability.
type Driver struct {
	registry  *device.Registry
	intake    *router.Intake
	log       *zap.SugaredLogger
	joysticks map[sdl.JoystickID]*joystickInfo

	mu     sync.Mutex
	rumble map[input.SourceID]*rumbleState
}

// New returns the SDL host driver. Every opened joystick gets its own
// hand-off cell from intake, so one device's samples can never shadow
// another's between drains; attach and detach go through the registry so
// claims and disconnect notifications follow the same path as every other
// transport.
func New(registry *device.Registry, intake *router.Intake, log *zap.SugaredLogger) *Driver {
	return &Driver{
		registry:  registry,
		intake:    intake,
		log:       log,
		joysticks: make(map[sdl.JoystickID]*joystickInfo),
		rumble:    make(map[input.SourceID]*rumbleState),
	}
}

func (d *Driver) Name() string { return "sdl-gamepad" }

// Claims takes every device on the USB-host and Bluetooth transports:
// SDL presents both the same way and the mapping table sorts out vendors.
func (d *Driver) Claims(info device.Info) bool {
	return info.Source.Transport == input.TransportUSBHost ||
		info.Source.Transport == input.TransportBluetooth
}

// Attach accepts the device; the SDL loop already holds its handle.
func (d *Driver) Attach(device.Info) bool { return true }

// Detach drops any latched feedback for the device. The joystick handle
// itself is closed by the SDL loop that observed the removal.
func (d *Driver) Detach(src input.SourceID) {
	d.mu.Lock()
	delete(d.rumble, src)
	d.mu.Unlock()
}

// Task is a no-op: this driver runs its own SDL thread instead of the
// shared polling loop.
func (d *Driver) Task(time.Time) {}

// Process decodes one packed snapshot (buttons LE32 + six axis bytes)
// into a canonical event.
func (d *Driver) Process(src input.SourceID, raw []byte) (input.Event, bool) {
	if len(raw) < snapshotLen {
		return input.Event{}, false
	}
	ev := input.NewEvent(src, input.KindGamepad)
	ev.Buttons = binary.LittleEndian.Uint32(raw[0:4]) & input.ButtonMask
	for i := 0; i < input.AxisCount; i++ {
		ev.Axes[i] = raw[4+i]
	}
	return ev, true
}

// ApplyFeedback latches the desired rumble state. Actual transmission
// happens on the SDL thread's next cycle; this never blocks the caller.
func (d *Driver) ApplyFeedback(src input.SourceID, req feedback.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st, ok := d.rumble[src]
	if !ok {
		st = &rumbleState{}
		d.rumble[src] = st
	}
	if st.left != req.RumbleLeft || st.right != req.RumbleRight {
		st.left = req.RumbleLeft
		st.right = req.RumbleRight
		st.dirty = true
	}
}

// Run initializes SDL and runs the event+polling loop on the current
// thread until ctx is cancelled. Must be called from its own goroutine;
// it pins the OS thread for SDL.
func (d *Driver) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !sdl.Init(sdl.InitJoystick) {
		d.log.Errorf("SDL init failed: %s", sdl.GetError())
		return nil
	}
	defer sdl.Quit()

	d.log.Infof("SDL3 joystick subsystem initialized")

	// Pick up already-connected joysticks.
	for _, id := range sdl.GetJoysticks() {
		d.openJoystick(id)
	}

	for {
		select {
		case <-ctx.Done():
			d.closeAll()
			return nil
		default:
		}

		d.processEvents()
		d.pollState()
		d.flushRumble()
		sdl.DelayNS(pollDelayNS)
	}
}

func (d *Driver) processEvents() {
	var event sdl.Event
	for sdl.PollEvent(&event) {
		switch event.Type() {
		case sdl.EventJoystickAdded:
			d.openJoystick(event.JDevice().Which)
		case sdl.EventJoystickRemoved:
			d.removeJoystick(event.JDevice().Which)
		}
	}
}

func (d *Driver) openJoystick(instanceID sdl.JoystickID) {
	if _, exists := d.joysticks[instanceID]; exists {
		return
	}

	js := sdl.OpenJoystick(instanceID)
	if js == nil {
		d.log.Warnf("failed to open joystick %d: %s", instanceID, sdl.GetError())
		return
	}

	jsID := sdl.GetJoystickID(js)
	vendorID := sdl.GetJoystickVendor(js)
	productID := sdl.GetJoystickProduct(js)
	name := sdl.GetJoystickName(js)
	mapping := GetMapping(vendorID, productID)

	info := &joystickInfo{
		joystick: js,
		mapping:  mapping,
		name:     name,
		id:       jsID,
		src:      input.SourceID{Transport: input.TransportUSBHost, Address: uint16(jsID)},
		vendor:   vendorID,
		product:  productID,
	}

	d.log.Infof("joystick connected: %s (VID=%04X PID=%04X) mapping=%s axes=%d buttons=%d hats=%d",
		name, vendorID, productID, mapping.Name,
		sdl.GetNumJoystickAxes(js), sdl.GetNumJoystickButtons(js), sdl.GetNumJoystickHats(js))

	if !d.trackJoystick(info) {
		sdl.CloseJoystick(js)
	}
}

// trackJoystick claims the device through the registry and gives it its
// own hand-off cell.
func (d *Driver) trackJoystick(info *joystickInfo) bool {
	attached := d.registry.Attach(device.Info{
		Source: info.src, Vendor: info.vendor, Product: info.product, Name: info.name,
	})
	if attached == nil {
		return false
	}
	info.cell = d.intake.NewCell()
	d.joysticks[info.id] = info
	return true
}

// forgetJoystick unregisters the device's cell and detaches it; the SDL
// handle is closed by the caller.
func (d *Driver) forgetJoystick(info *joystickInfo) {
	delete(d.joysticks, info.id)
	d.intake.Remove(info.cell)
	d.registry.Detach(info.src)
}

func (d *Driver) removeJoystick(instanceID sdl.JoystickID) {
	info, exists := d.joysticks[instanceID]
	if !exists {
		return
	}
	d.log.Infof("joystick disconnected: %s", info.name)
	sdl.CloseJoystick(info.joystick)
	d.forgetJoystick(info)
}

func (d *Driver) closeAll() {
	for _, info := range d.joysticks {
		sdl.CloseJoystick(info.joystick)
		d.forgetJoystick(info)
	}
}

func (d *Driver) pollState() {
	for _, info := range d.joysticks {
		if !sdl.JoystickConnected(info.joystick) {
			continue
		}
		raw := d.snapshot(info)
		d.deliver(info, raw[:])
	}
}

// deliver decodes one raw snapshot and hands it to the device's own cell.
func (d *Driver) deliver(info *joystickInfo, raw []byte) {
	if ev, ok := d.Process(info.src, raw); ok {
		info.cell.Put(ev)
	}
}

// snapshot packs the joystick's current state into the driver's raw
// report form.
func (d *Driver) snapshot(info *joystickInfo) [snapshotLen]byte {
	js := info.joystick
	mapping := info.mapping

	var buttons uint32
	numButtons := sdl.GetNumJoystickButtons(js)
	for _, bm := range mapping.Buttons {
		if bm.Index >= numButtons {
			continue
		}
		if sdl.GetJoystickButton(js, bm.Index) {
			buttons |= input.Bit(bm.Target)
		}
	}

	if mapping.HasHat && sdl.GetNumJoystickHats(js) > 0 {
		hat := sdl.GetJoystickHat(js, 0)
		if hat&hatUp != 0 {
			buttons |= input.Bit(input.ButtonDU)
		}
		if hat&hatDown != 0 {
			buttons |= input.Bit(input.ButtonDD)
		}
		if hat&hatLeft != 0 {
			buttons |= input.Bit(input.ButtonDL)
		}
		if hat&hatRight != 0 {
			buttons |= input.Bit(input.ButtonDR)
		}
	}

	axes := [input.AxisCount]uint8{}
	for i := range axes {
		axes[i] = input.AxisCenter
	}
	for _, am := range mapping.Axes {
		raw := sdl.GetJoystickAxis(js, am.Index)
		var v uint8
		if am.IsTrigger {
			v = normalizeTrigger(raw, am.RawMin, am.RawMax)
		} else {
			v = normalizeAxis(raw)
			if am.Invert {
				v = 255 - v
			}
		}
		axes[am.Target] = v
	}

	var out [snapshotLen]byte
	binary.LittleEndian.PutUint32(out[0:4], buttons)
	copy(out[4:], axes[:])
	return out
}

func (d *Driver) flushRumble() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, info := range d.joysticks {
		st, ok := d.rumble[info.src]
		if !ok || !st.dirty {
			continue
		}
		low := uint16(st.left) << 8
		high := uint16(st.right) << 8
		if !sdl.RumbleJoystick(info.joystick, low, high, rumbleDurationMS) {
			d.log.Debugf("rumble not supported on %s", info.name)
		}
		st.dirty = false
	}
}

// normalizeAxis converts a raw axis value (-32768..32767) to the canonical
// 0..255 range with 128 at center.
func normalizeAxis(raw int16) uint8 {
	return uint8((int32(raw) + 32768) >> 8)
}

// normalizeTrigger converts a raw trigger value to the canonical resting
// 128 .. full 255 range.
func normalizeTrigger(raw, rawMin, rawMax int16) uint8 {
	if rawMax == rawMin {
		return input.AxisCenter
	}
	span := int32(rawMax) - int32(rawMin)
	v := (int32(raw) - int32(rawMin)) * 127 / span
	if v < 0 {
		v = 0
	} else if v > 127 {
		v = 127
	}
	return input.AxisCenter + uint8(v)
}
