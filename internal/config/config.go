// Package config is the settings-loading collaborator: it reads the
// adapter's YAML settings through viper, validates them, and hands the
// core fully-compiled in-memory tables. The core never parses persisted
// formats itself; anything invalid is rejected here, before it can become
// active.
package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/joypados/adapter/internal/input"
	"github.com/joypados/adapter/internal/player"
	"github.com/joypados/adapter/internal/profile"
)

// MaxCustomProfiles matches the persisted settings layout: four custom
// profiles alongside the built-in default.
const MaxCustomProfiles = 4

// AxisConfig selects the source feeding one output axis.
type AxisConfig struct {
	Source   string `mapstructure:"source"`
	Invert   bool   `mapstructure:"invert"`
	Deadzone uint8  `mapstructure:"deadzone"`
}

// ProfileConfig is one custom profile as written in the settings file.
// Buttons maps an input button name to a target name, or "off" to disable
// it; unlisted buttons pass through.
type ProfileConfig struct {
	Name       string                `mapstructure:"name"`
	Buttons    map[string]string     `mapstructure:"buttons"`
	Axes       map[string]AxisConfig `mapstructure:"axes"`
	LeftSens   uint8                 `mapstructure:"left_sens"`
	RightSens  uint8                 `mapstructure:"right_sens"`
	SwapSticks bool                  `mapstructure:"swap_sticks"`
	InvertLY   bool                  `mapstructure:"invert_ly"`
	InvertRY   bool                  `mapstructure:"invert_ry"`
	SOCD       string                `mapstructure:"socd"`
}

// Settings is the full settings file.
type Settings struct {
	Listen       string          `mapstructure:"listen"`
	OutputMode   string          `mapstructure:"output_mode"`
	SlotProfiles []int           `mapstructure:"slot_profiles"`
	Profiles     []ProfileConfig `mapstructure:"profiles"`
}

// SetDefaults installs the defaults on a viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8080")
	v.SetDefault("output_mode", "hid")
	v.SetDefault("slot_profiles", []int{})
	v.SetDefault("profiles", []ProfileConfig{})
}

// Load parses and validates the settings held by v.
func Load(v *viper.Viper) (*Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "unmarshal settings")
	}
	if len(s.Profiles) > MaxCustomProfiles {
		return nil, errors.Errorf("at most %d custom profiles are supported, got %d",
			MaxCustomProfiles, len(s.Profiles))
	}
	if len(s.SlotProfiles) > player.MaxSlots {
		return nil, errors.Errorf("at most %d slot profile selections, got %d",
			player.MaxSlots, len(s.SlotProfiles))
	}
	for _, id := range s.SlotProfiles {
		if id < 0 || id > len(s.Profiles) {
			return nil, errors.Errorf("slot profile %d out of range (have %d profiles)",
				id, len(s.Profiles)+1)
		}
	}
	return &s, nil
}

// Watch re-reads the settings file on change and calls onChange with the
// re-validated result. Invalid edits are logged by the caller and the
// previous settings stay active.
func Watch(v *viper.Viper, onChange func(*Settings, error)) {
	v.OnConfigChange(func(fsnotify.Event) {
		s, err := Load(v)
		onChange(s, err)
	})
	v.WatchConfig()
}

// CompileProfiles turns the custom profile configs into their validated
// dispatch form.
func (s *Settings) CompileProfiles() ([]*profile.Compiled, error) {
	out := make([]*profile.Compiled, 0, len(s.Profiles))
	for i := range s.Profiles {
		c, err := compileProfile(&s.Profiles[i])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func compileProfile(pc *ProfileConfig) (*profile.Compiled, error) {
	p := profile.Default()
	p.Name = pc.Name
	if p.Name == "" {
		return nil, errors.New("profile without a name")
	}

	for from, to := range pc.Buttons {
		src, ok := buttonIndex(from)
		if !ok {
			return nil, errors.Errorf("profile %q: unknown button %q", pc.Name, from)
		}
		switch strings.ToLower(to) {
		case "off", "none":
			p.ButtonMap[src] = profile.MapDisabled
		case "":
			p.ButtonMap[src] = profile.MapPassthrough
		default:
			dst, ok := buttonIndex(to)
			if !ok {
				return nil, errors.Errorf("profile %q: unknown target button %q", pc.Name, to)
			}
			p.ButtonMap[src] = uint8(dst) + 1
		}
	}

	for name, ac := range pc.Axes {
		dst, ok := axisIndex(name)
		if !ok {
			return nil, errors.Errorf("profile %q: unknown axis %q", pc.Name, name)
		}
		src := dst
		if ac.Source != "" {
			src, ok = axisIndex(ac.Source)
			if !ok {
				return nil, errors.Errorf("profile %q: unknown source axis %q", pc.Name, ac.Source)
			}
		}
		p.AxisMap[dst] = profile.AxisMap{
			Source:   uint8(src),
			Invert:   ac.Invert,
			Deadzone: ac.Deadzone,
		}
	}

	if pc.LeftSens != 0 {
		p.LeftSens = pc.LeftSens
	}
	if pc.RightSens != 0 {
		p.RightSens = pc.RightSens
	}
	if pc.SwapSticks {
		p.Flags |= profile.FlagSwapSticks
	}
	if pc.InvertLY {
		p.Flags |= profile.FlagInvertLY
	}
	if pc.InvertRY {
		p.Flags |= profile.FlagInvertRY
	}

	switch strings.ToLower(pc.SOCD) {
	case "", "passthrough":
		p.SOCDMode = profile.SOCDPassthrough
	case "neutral":
		p.SOCDMode = profile.SOCDNeutral
	case "up-priority", "up":
		p.SOCDMode = profile.SOCDUpPriority
	default:
		// "last-win" from older firmware needs input history, which the
		// stateless transform cannot carry; reject it with the rest.
		return nil, errors.Errorf("profile %q: unsupported socd mode %q", pc.Name, pc.SOCD)
	}

	return profile.Compile(p)
}

func buttonIndex(name string) (int, bool) {
	name = strings.ToLower(name)
	for i := 0; i < input.ButtonCount; i++ {
		if input.ButtonName(i) == name {
			return i, true
		}
	}
	return 0, false
}

func axisIndex(name string) (int, bool) {
	name = strings.ToLower(name)
	for i := 0; i < input.AxisCount; i++ {
		if input.AxisName(i) == name {
			return i, true
		}
	}
	return 0, false
}
