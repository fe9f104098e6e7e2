package router

import (
	"sync"
	"sync/atomic"

	"github.com/joypados/adapter/internal/input"
)

// Cell is a single-producer/single-consumer hand-off holding only the
// latest sample. Producers on other goroutines (or interrupt-shaped
// callbacks) overwrite it freely; the polling loop takes whatever is
// newest. Overwriting instead of queueing is the drop-stale policy the
// router already applies everywhere else.
type Cell struct {
	latest atomic.Pointer[input.Event]
}

// Put stores ev as the newest sample, replacing any undelivered one.
func (c *Cell) Put(ev input.Event) {
	c.latest.Store(&ev)
}

// Take removes and returns the newest sample, if any.
func (c *Cell) Take() (input.Event, bool) {
	p := c.latest.Swap(nil)
	if p == nil {
		return input.Event{}, false
	}
	return *p, true
}

// Intake is the fixed set of hand-off cells the polling loop drains each
// cycle, in registration order. Per-source ordering holds because each
// producer owns one cell and the drain order never changes.
type Intake struct {
	mu    sync.Mutex
	cells []*Cell
}

// NewIntake returns an empty intake.
func NewIntake() *Intake {
	return &Intake{}
}

// NewCell registers and returns a hand-off cell for one producer.
func (in *Intake) NewCell() *Cell {
	c := &Cell{}
	in.mu.Lock()
	in.cells = append(in.cells, c)
	in.mu.Unlock()
	return c
}

// Remove unregisters a cell whose producer has gone away.
func (in *Intake) Remove(c *Cell) {
	in.mu.Lock()
	defer in.mu.Unlock()
	// Copy-on-write: Drain iterates a snapshot of the old slice.
	next := make([]*Cell, 0, len(in.cells))
	for _, have := range in.cells {
		if have != c {
			next = append(next, have)
		}
	}
	in.cells = next
}

// Drain submits every pending sample to the router, round-robin.
func (in *Intake) Drain(r *Router) {
	in.mu.Lock()
	cells := in.cells
	in.mu.Unlock()
	for _, c := range cells {
		if ev, ok := c.Take(); ok {
			r.SubmitInput(ev)
		}
	}
}
