// Package profile holds remapping configuration and applies it to input
// events. A Profile is the user-facing table (same value space as the
// persisted settings); Compile validates it once and builds the inverted,
// output-indexed form that Transform applies per event. Dispatch-time code
// never bounds-checks: anything that could index out of range is rejected
// at compile time, before the profile can become active.
package profile

import (
	"github.com/pkg/errors"

	"github.com/joypados/adapter/internal/input"
)

// Button map entry values, shared with the persisted settings format.
const (
	MapPassthrough uint8 = 0x00
	MapDisabled    uint8 = 0xFF
)

// SOCD cleaning modes for opposing d-pad directions.
const (
	SOCDPassthrough uint8 = iota
	SOCDNeutral
	SOCDUpPriority

	socdModeCount
)

// Profile flag bits.
const (
	FlagSwapSticks uint8 = 1 << iota
	FlagInvertLY
	FlagInvertRY
)

// AxisMap selects the input axis feeding one output axis.
type AxisMap struct {
	Source   uint8
	Invert   bool
	Deadzone uint8
}

// Profile is one remapping configuration as loaded from settings.
// ButtonMap is input-indexed: ButtonMap[i] says where input button i goes
// (0 = passthrough, 1..18 = 1-based output button, 0xFF = disabled).
type Profile struct {
	Name      string
	ButtonMap [input.ButtonCount]uint8
	AxisMap   [input.AxisCount]AxisMap
	LeftSens  uint8 // 0-200, 100 = 1.0x
	RightSens uint8
	Flags     uint8
	SOCDMode  uint8
}

// Default returns the identity profile: every button passes through,
// every axis maps to itself with no deadzone and 1.0x sensitivity.
func Default() Profile {
	p := Profile{
		Name:      "default",
		LeftSens:  100,
		RightSens: 100,
		SOCDMode:  SOCDPassthrough,
	}
	for i := range p.AxisMap {
		p.AxisMap[i] = AxisMap{Source: uint8(i)}
	}
	return p
}

// Compiled is the validated, output-indexed form of a Profile.
// buttonSources[j] is the mask of input bits that drive output bit j, so
// applying the map is one AND per output button.
type Compiled struct {
	name          string
	buttonSources [input.ButtonCount]uint32
	axes          [input.AxisCount]AxisMap
	axisSens      [input.AxisCount]uint8
	socdMode      uint8
}

// Name returns the profile's display name.
func (c *Compiled) Name() string { return c.name }

// Compile validates p and builds its dispatch form.
func Compile(p Profile) (*Compiled, error) {
	c := &Compiled{name: p.Name, socdMode: p.SOCDMode}

	if p.SOCDMode >= socdModeCount {
		return nil, errors.Errorf("profile %q: unsupported socd mode %d", p.Name, p.SOCDMode)
	}

	for i, v := range p.ButtonMap {
		switch {
		case v == MapPassthrough:
			c.buttonSources[i] |= input.Bit(i)
		case v == MapDisabled:
			// Input button produces nothing.
		case int(v) <= input.ButtonCount:
			c.buttonSources[v-1] |= input.Bit(i)
		default:
			return nil, errors.Errorf("profile %q: button %s maps to invalid target %d",
				p.Name, input.ButtonName(i), v)
		}
	}

	leftSens := p.LeftSens
	rightSens := p.RightSens
	if leftSens == 0 {
		leftSens = 100
	}
	if rightSens == 0 {
		rightSens = 100
	}
	if leftSens > 200 || rightSens > 200 {
		return nil, errors.Errorf("profile %q: stick sensitivity out of range", p.Name)
	}

	for i, am := range p.AxisMap {
		if int(am.Source) >= input.AxisCount {
			return nil, errors.Errorf("profile %q: axis %s sources invalid axis %d",
				p.Name, input.AxisName(i), am.Source)
		}
		c.axes[i] = am
	}

	if p.Flags&FlagSwapSticks != 0 {
		c.axes[input.AxisLX], c.axes[input.AxisRX] = c.axes[input.AxisRX], c.axes[input.AxisLX]
		c.axes[input.AxisLY], c.axes[input.AxisRY] = c.axes[input.AxisRY], c.axes[input.AxisLY]
		leftSens, rightSens = rightSens, leftSens
	}
	if p.Flags&FlagInvertLY != 0 {
		c.axes[input.AxisLY].Invert = !c.axes[input.AxisLY].Invert
	}
	if p.Flags&FlagInvertRY != 0 {
		c.axes[input.AxisRY].Invert = !c.axes[input.AxisRY].Invert
	}

	c.axisSens = [input.AxisCount]uint8{leftSens, leftSens, rightSens, rightSens, 100, 100}
	return c, nil
}
