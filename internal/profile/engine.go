package profile

import (
	"sync"

	"github.com/joypados/adapter/internal/input"
)

// MaxProfiles bounds the active set: slot 0 is the built-in default,
// the rest hold custom profiles from settings.
const MaxProfiles = 5

// Engine holds the active compiled profile set. The set is replaced
// wholesale when settings change; Transform itself is pure and
// allocation-free. The lock only guards set replacement against admin
// reads, the dispatch path is effectively uncontended.
type Engine struct {
	mu       sync.RWMutex
	profiles [MaxProfiles]*Compiled
	count    int
}

// NewEngine returns an engine holding only the built-in default profile.
func NewEngine() *Engine {
	def, err := Compile(Default())
	if err != nil {
		// The identity profile is valid by construction.
		panic(err)
	}
	e := &Engine{count: 1}
	e.profiles[0] = def
	return e
}

// Load replaces the custom profile set. Every profile must already be
// compiled, so an invalid profile can never become active. Slot 0 stays
// the built-in default.
func (e *Engine) Load(custom []*Compiled) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.count = 1
	for _, c := range custom {
		if e.count == MaxProfiles {
			break
		}
		e.profiles[e.count] = c
		e.count++
	}
}

// Count returns the number of active profiles including the default.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.count
}

// Profile returns the compiled profile for an id, falling back to the
// default for out-of-range ids so a stale per-slot selection can never
// dereference a missing profile.
func (e *Engine) Profile(id int) *Compiled {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if id < 0 || id >= e.count {
		return e.profiles[0]
	}
	return e.profiles[id]
}

// Names lists the active profile names, default first.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, e.count)
	for i := 0; i < e.count; i++ {
		names[i] = e.profiles[i].name
	}
	return names
}

// Transform applies profile id to one input event. Deterministic and free
// of side effects: identical (id, event) pairs yield identical outputs.
func (e *Engine) Transform(id int, ev input.Event) input.OutputEvent {
	return e.Profile(id).Apply(ev)
}

// Apply remaps one event through a compiled profile.
func (c *Compiled) Apply(ev input.Event) input.OutputEvent {
	var out input.OutputEvent

	buttons := cleanSOCD(ev.Buttons&input.ButtonMask, c.socdMode)
	for j := 0; j < input.ButtonCount; j++ {
		if c.buttonSources[j]&buttons != 0 {
			out.Buttons |= input.Bit(j)
		}
	}

	for j := 0; j < input.AxisCount; j++ {
		am := c.axes[j]
		v := ev.Axes[am.Source]
		if am.Invert {
			v = 255 - v
		}
		out.Axes[j] = shapeAxis(v, am.Deadzone, c.axisSens[j])
	}
	return out
}

// shapeAxis clamps samples inside the deadzone to center and scales the
// rest around center by sens/100.
func shapeAxis(v, deadzone, sens uint8) uint8 {
	d := int(v) - int(input.AxisCenter)
	if d < 0 {
		if -d <= int(deadzone) {
			return input.AxisCenter
		}
	} else if d <= int(deadzone) {
		return input.AxisCenter
	}
	if sens == 100 {
		return v
	}
	scaled := int(input.AxisCenter) + d*int(sens)/100
	if scaled < 0 {
		scaled = 0
	} else if scaled > 255 {
		scaled = 255
	}
	return uint8(scaled)
}

// cleanSOCD resolves simultaneous opposing d-pad directions.
func cleanSOCD(buttons uint32, mode uint8) uint32 {
	if mode == SOCDPassthrough {
		return buttons
	}
	ud := input.Bit(input.ButtonDU) | input.Bit(input.ButtonDD)
	lr := input.Bit(input.ButtonDL) | input.Bit(input.ButtonDR)

	if buttons&ud == ud {
		if mode == SOCDUpPriority {
			buttons &^= input.Bit(input.ButtonDD)
		} else {
			buttons &^= ud
		}
	}
	if buttons&lr == lr {
		buttons &^= lr
	}
	return buttons
}
