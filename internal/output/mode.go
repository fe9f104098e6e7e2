// Package output holds the emulated output protocols. Exactly one mode is
// active at a time; the router pushes transformed events into it and the
// mode encodes them into its wire format. Host-to-device traffic (rumble,
// LED reports) enters through HandleOutput and is turned into feedback
// requests.
package output

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/joypados/adapter/internal/input"
)

// ReportWriter is where a mode's wire bytes go. Ready reports whether the
// downstream side can accept reports at all (no consumer is the software
// equivalent of a host that has not enumerated the interface yet).
type ReportWriter interface {
	Ready() bool
	WriteReport(player int, report []byte) bool
}

// Mode is one emulated output protocol.
type Mode interface {
	Name() string
	// Init resets mode state to neutral. Called when the mode becomes active.
	Init()
	IsReady() bool
	// SendReport encodes and emits one transformed event for a player.
	// Returns false when the report was not accepted; the caller drops the
	// sample and moves on.
	SendReport(player int, ev input.OutputEvent) bool
	// HandleOutput consumes one host output report (rumble/LED).
	HandleOutput(player int, data []byte)
	// PlayerDetached tells the mode a player slot was freed, so modes
	// carrying per-port state report that port absent again.
	PlayerDetached(player int)
}

// Registry owns the set of available modes and the single active one.
// Switching is an administrative action; it takes effect before the next
// dispatched event.
type Registry struct {
	mu     sync.RWMutex
	modes  []Mode
	active int
	log    *zap.SugaredLogger
}

// NewRegistry returns an empty mode registry. The first registered mode
// becomes active.
func NewRegistry(log *zap.SugaredLogger) *Registry {
	return &Registry{log: log}
}

// Register adds a mode. Startup wiring only.
func (r *Registry) Register(m Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes = append(r.modes, m)
	if len(r.modes) == 1 {
		m.Init()
	}
}

// Active returns the currently active mode, or nil when none registered.
func (r *Registry) Active() Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.modes) == 0 {
		return nil
	}
	return r.modes[r.active]
}

// SetMode activates the mode with the given name.
func (r *Registry) SetMode(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.modes {
		if m.Name() == name {
			if i != r.active {
				r.active = i
				m.Init()
				r.log.Infof("output mode switched to %s", name)
			}
			return nil
		}
	}
	return errors.Errorf("unknown output mode %q", name)
}

// NextMode cycles to the next registered mode and returns it.
func (r *Registry) NextMode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.modes) == 0 {
		return nil
	}
	r.active = (r.active + 1) % len(r.modes)
	m := r.modes[r.active]
	m.Init()
	r.log.Infof("output mode switched to %s", m.Name())
	return m
}

// Names lists the registered mode names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.modes))
	for i, m := range r.modes {
		names[i] = m.Name()
	}
	return names
}

// ActiveName returns the active mode's name, or "" when none registered.
func (r *Registry) ActiveName() string {
	if m := r.Active(); m != nil {
		return m.Name()
	}
	return ""
}
