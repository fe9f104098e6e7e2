// Package device defines the driver abstraction for physical controllers
// and the registry that decides which driver claims a newly attached
// device. Drivers decode transport-specific reports into canonical input
// events and optionally accept feedback; the registry tracks attachments
// so feedback can be resolved back to the owning driver.
package device

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/joypados/adapter/internal/feedback"
	"github.com/joypados/adapter/internal/input"
)

// Info describes a newly attached device for driver claiming.
type Info struct {
	Source  input.SourceID
	Vendor  uint16
	Product uint16
	Name    string
}

// Driver is one capability implementation: a decoder for a family of
// devices on some transport. Attach and Detach bracket a device's
// connection; Process turns one raw report into a canonical event;
// Task runs every polling cycle for housekeeping (timeout sweeps,
// deferred feedback transmission).
type Driver interface {
	Name() string
	Claims(info Info) bool
	Attach(info Info) bool
	Process(src input.SourceID, raw []byte) (input.Event, bool)
	Task(now time.Time)
	Detach(src input.SourceID)
}

// DetachFunc is invoked after a device detaches, before its identity can
// be reused. The router's disconnect notification is wired here.
type DetachFunc func(src input.SourceID)

// Registry holds the closed set of drivers registered at startup and the
// currently attached devices. Claim order is registration order, so a
// generic fallback driver registers last.
type Registry struct {
	mu       sync.RWMutex
	drivers  []Driver
	attached map[input.SourceID]Driver
	onDetach DetachFunc
	log      *zap.SugaredLogger
}

// NewRegistry returns an empty registry.
func NewRegistry(log *zap.SugaredLogger) *Registry {
	return &Registry{
		attached: make(map[input.SourceID]Driver),
		log:      log,
	}
}

// Register appends a driver to the claim list. Called during startup
// wiring only.
func (r *Registry) Register(d Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers = append(r.drivers, d)
}

// SetDetachHook installs the function run after every detach.
func (r *Registry) SetDetachHook(fn DetachFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onDetach = fn
}

// Attach offers a new device to the drivers in registration order and
// records the winning claim. Returns nil if no driver claims it or the
// claiming driver's Attach rejects it.
func (r *Registry) Attach(info Info) Driver {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.attached[info.Source]; ok {
		return d
	}
	for _, d := range r.drivers {
		if !d.Claims(info) {
			continue
		}
		if !d.Attach(info) {
			r.log.Warnf("driver %s rejected %s (%04X:%04X)", d.Name(), info.Source, info.Vendor, info.Product)
			return nil
		}
		r.attached[info.Source] = d
		r.log.Infof("%s claimed by %s: %s (%04X:%04X)", info.Source, d.Name(), info.Name, info.Vendor, info.Product)
		return d
	}
	r.log.Warnf("no driver claims %s (%04X:%04X)", info.Source, info.Vendor, info.Product)
	return nil
}

// Detach unmounts a device. The driver is released and the detach hook
// runs before Detach returns, so the identity is fully invalidated before
// the transport may reuse it.
func (r *Registry) Detach(src input.SourceID) {
	r.mu.Lock()
	d, ok := r.attached[src]
	if ok {
		delete(r.attached, src)
	}
	hook := r.onDetach
	r.mu.Unlock()

	if !ok {
		return
	}
	d.Detach(src)
	if hook != nil {
		hook(src)
	}
	r.log.Infof("%s detached from %s", src, d.Name())
}

// DriverFor returns the driver owning an attached device.
func (r *Registry) DriverFor(src input.SourceID) (Driver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.attached[src]
	return d, ok
}

// FeedbackSink implements feedback.SinkResolver: a device only has a sink
// if it is currently attached and its driver declares the capability.
func (r *Registry) FeedbackSink(src input.SourceID) (feedback.Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.attached[src]
	if !ok {
		return nil, false
	}
	sink, ok := d.(feedback.Sink)
	return sink, ok
}

// Task runs every registered driver's periodic task.
func (r *Registry) Task(now time.Time) {
	r.mu.RLock()
	drivers := r.drivers
	r.mu.RUnlock()
	for _, d := range drivers {
		d.Task(now)
	}
}

// AttachedCount returns the number of attached devices, assigned to a
// player slot or not. Drives the LED connected-device indicator.
func (r *Registry) AttachedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.attached)
}
