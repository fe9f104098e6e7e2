// Package leds models the adapter's status LED: a small state machine
// stepped from the polling loop. The active output mode sets the base
// color, connected devices turn it solid, and selecting a profile blinks
// its 1-based number. The rendered state is surfaced to whatever drives a
// physical or on-screen indicator.
package leds

import (
	"sync"
	"time"
)

// Color is an RGB LED color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

const (
	idleBlinkPeriod     = 500 * time.Millisecond
	indicateBlinkPeriod = 200 * time.Millisecond
)

// Service renders the LED state.
type Service struct {
	mu sync.Mutex

	color   Color
	devices int

	// profile indication: blink 1-based count, then resume
	indicateLeft int
	lastToggle   time.Time
	on           bool
}

// New returns a service with the LED off.
func New() *Service {
	return &Service{}
}

// SetColor sets the base color, normally the active output mode's color.
func (s *Service) SetColor(c Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.color = c
}

// SetConnectedDevices updates the connected-device count. The LED goes
// solid as soon as any device is attached, before player assignment.
func (s *Service) SetConnectedDevices(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = n
}

// IndicateProfile blinks the 1-based profile number.
func (s *Service) IndicateProfile(profileID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indicateLeft = (profileID + 1) * 2 // on+off per blink
	s.on = false
	s.lastToggle = time.Time{}
}

// IsIndicating reports whether a profile indication is in progress.
func (s *Service) IsIndicating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indicateLeft > 0
}

// Task steps the state machine. Call every polling cycle.
func (s *Service) Task(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indicateLeft > 0 {
		if s.lastToggle.IsZero() || now.Sub(s.lastToggle) >= indicateBlinkPeriod {
			s.on = !s.on
			s.lastToggle = now
			s.indicateLeft--
		}
		return
	}

	if s.devices > 0 {
		s.on = true
		return
	}

	// Idle: slow blink waiting for the first device.
	if s.lastToggle.IsZero() || now.Sub(s.lastToggle) >= idleBlinkPeriod {
		s.on = !s.on
		s.lastToggle = now
	}
}

// State returns the rendered color and whether the LED is lit.
func (s *Service) State() (Color, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.color, s.on
}
