// Package game holds the round state machine and the rules of each game mode.
package game

import (
	"strings"
	"time"

	"github.com/ayusman/drivethru/internal/deals"
	"github.com/ayusman/drivethru/internal/gesture"
)

// Mode is a game variant.
type Mode int

const (
	Default Mode = iota
	Reverse
	DoubleTrouble
	Speedrun
)

var modeNames = [...]string{
	Default:       "default",
	Reverse:       "reverse",
	DoubleTrouble: "double_trouble",
	Speedrun:      "speedrun",
}

// Modes returns every mode in menu order.
func Modes() []Mode {
	return []Mode{Default, Reverse, DoubleTrouble, Speedrun}
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return modeNames[Default]
	}
	return modeNames[m]
}

// ParseMode maps a mode name to a Mode. Unknown names select Default.
func ParseMode(s string) Mode {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if s == name {
			return Mode(i)
		}
	}
	return Default
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	*m = ParseMode(string(text))
	return nil
}

// Trigger is what submits the player's answer.
type Trigger int

const (
	// TriggerManual waits for an explicit validation request.
	TriggerManual Trigger = iota
	// TriggerWink waits for a debounced wink.
	TriggerWink
)

func (t Trigger) String() string {
	if t == TriggerWink {
		return "wink"
	}
	return "manual"
}

func (t Trigger) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Profile is everything a mode decides about a round.
type Profile struct {
	Mode      Mode
	Duration  time.Duration
	Hands     int
	Trigger   Trigger
	Range     deals.Range
	Format    deals.Format
	Notation  gesture.Notation
	CodeWidth int
}

// Profiles maps each mode to its profile.
type Profiles map[Mode]Profile

// DefaultProfiles returns the standard rules for every mode.
func DefaultProfiles() Profiles {
	return Profiles{
		Default: {
			Mode:      Default,
			Duration:  20 * time.Second,
			Hands:     1,
			Trigger:   TriggerManual,
			Range:     deals.Range{Min: 1, Max: 31},
			Format:    deals.FormatDecimal,
			Notation:  gesture.NotationBinary,
			CodeWidth: 5,
		},
		Speedrun: {
			Mode:      Speedrun,
			Duration:  10 * time.Second,
			Hands:     1,
			Trigger:   TriggerManual,
			Range:     deals.Range{Min: 1, Max: 31},
			Format:    deals.FormatDecimal,
			Notation:  gesture.NotationBinary,
			CodeWidth: 5,
		},
		DoubleTrouble: {
			Mode:      DoubleTrouble,
			Duration:  60 * time.Second,
			Hands:     2,
			Trigger:   TriggerWink,
			Range:     deals.Range{Min: 32, Max: 1023},
			Format:    deals.FormatDecimal,
			Notation:  gesture.NotationBinary,
			CodeWidth: 10,
		},
		Reverse: {
			Mode:      Reverse,
			Duration:  20 * time.Second,
			Hands:     2,
			Trigger:   TriggerWink,
			Range:     deals.Range{Min: 1, Max: 10},
			Format:    deals.FormatBinary5,
			Notation:  gesture.NotationCount,
			CodeWidth: 5,
		},
	}
}

// For returns the profile of m, falling back to the standard rules for modes
// missing from p and to Default for unknown modes.
func (p Profiles) For(m Mode) Profile {
	if m < 0 || int(m) >= len(modeNames) {
		m = Default
	}
	if prof, ok := p[m]; ok {
		return prof
	}
	return DefaultProfiles()[m]
}

// WithDurations returns a copy of p with the given round durations applied.
// Non-positive durations are ignored.
func (p Profiles) WithDurations(durations map[Mode]time.Duration) Profiles {
	out := make(Profiles, len(modeNames))
	for _, m := range Modes() {
		prof := p.For(m)
		if d, ok := durations[m]; ok && d > 0 {
			prof.Duration = d
		}
		out[m] = prof
	}
	return out
}
