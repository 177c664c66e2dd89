package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/drivethru/internal/game"
)

// Overrides is the YAML modes file:
//
//	menu: menu.yaml
//	modes:
//	  speedrun:
//	    duration: 8s
type Overrides struct {
	Menu  string                  `yaml:"menu"`
	Modes map[string]ModeOverride `yaml:"modes"`
}

// ModeOverride changes one mode's rules.
type ModeOverride struct {
	Duration time.Duration `yaml:"duration"`
}

// LoadOverrides reads a modes file. A relative menu path is resolved against
// the file's directory.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read modes file: %w", err)
	}

	o, err := ParseOverrides(data)
	if err != nil {
		return nil, err
	}
	if o.Menu != "" && !filepath.IsAbs(o.Menu) {
		o.Menu = filepath.Join(filepath.Dir(path), o.Menu)
	}
	return o, nil
}

// ParseOverrides decodes and validates a modes file.
func ParseOverrides(data []byte) (*Overrides, error) {
	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parse modes file: %w", err)
	}

	for name, m := range o.Modes {
		if game.ParseMode(name).String() != name {
			return nil, fmt.Errorf("modes file: unknown mode %q", name)
		}
		if m.Duration < 0 {
			return nil, fmt.Errorf("modes file: %s duration must not be negative", name)
		}
	}
	return &o, nil
}

// Durations returns the per-mode round durations set in the file.
func (o *Overrides) Durations() map[game.Mode]time.Duration {
	if o == nil {
		return nil
	}
	out := make(map[game.Mode]time.Duration, len(o.Modes))
	for name, m := range o.Modes {
		if m.Duration > 0 {
			out[game.ParseMode(name)] = m.Duration
		}
	}
	return out
}

// Profiles applies the overrides to the standard mode rules.
func (o *Overrides) Profiles() game.Profiles {
	return game.DefaultProfiles().WithDurations(o.Durations())
}
