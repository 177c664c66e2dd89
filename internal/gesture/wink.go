package gesture

import (
	"math"

	"github.com/ayusman/drivethru/internal/detector"
)

// Wink debounce defaults.
const (
	// EyeClosedThreshold is the eye aspect ratio below which an eye is closed.
	EyeClosedThreshold = 0.2
	// WinkRequiredFrames is how many candidate frames in a row fire a wink.
	WinkRequiredFrames = 3
	// WinkCooldownFrames is how many frames must pass after a wink before the next can fire.
	WinkCooldownFrames = 10
)

// EyeAspectRatio estimates how open an eye is from its six contour points.
// Points are scaled to pixels and truncated as the tracker reports them; with a
// non-positive width or height the normalized coordinates are used as-is.
// A contour with no horizontal extent is reported as open.
func EyeAspectRatio(eye [detector.EyePoints]detector.Point2D, width, height int) float64 {
	var px [detector.EyePoints][2]float64
	for i, p := range eye {
		if width > 0 && height > 0 {
			px[i] = [2]float64{math.Trunc(p.X * float64(width)), math.Trunc(p.Y * float64(height))}
		} else {
			px[i] = [2]float64{p.X, p.Y}
		}
	}

	a := math.Hypot(px[1][0]-px[5][0], px[1][1]-px[5][1])
	b := math.Hypot(px[2][0]-px[4][0], px[2][1]-px[4][1])
	c := math.Hypot(px[0][0]-px[3][0], px[0][1]-px[3][1])
	if c == 0 || math.IsNaN(c) {
		return math.Inf(1)
	}
	return (a + b) / (2 * c)
}

// WinkState is the debouncer's memory between frames.
type WinkState struct {
	Counter           int  `json:"counter"`
	CooldownRemaining int  `json:"cooldown_remaining"`
	Winking           bool `json:"winking"`
}

// WinkConfig tunes a Debouncer.
type WinkConfig struct {
	Threshold      float64
	RequiredFrames int
	CooldownFrames int
}

// DefaultWinkConfig returns the standard thresholds.
func DefaultWinkConfig() WinkConfig {
	return WinkConfig{
		Threshold:      EyeClosedThreshold,
		RequiredFrames: WinkRequiredFrames,
		CooldownFrames: WinkCooldownFrames,
	}
}

// Debouncer turns a noisy per-frame "one eye closed" signal into discrete
// wink events. It is not safe for concurrent use; the session owns it.
type Debouncer struct {
	cfg   WinkConfig
	state WinkState
}

// NewDebouncer creates a Debouncer. Zero fields in cfg take their defaults.
func NewDebouncer(cfg WinkConfig) *Debouncer {
	def := DefaultWinkConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.RequiredFrames <= 0 {
		cfg.RequiredFrames = def.RequiredFrames
	}
	if cfg.CooldownFrames < 0 {
		cfg.CooldownFrames = def.CooldownFrames
	}
	return &Debouncer{cfg: cfg}
}

// Candidate reports whether exactly one eye of face is closed.
func (d *Debouncer) Candidate(face *detector.FaceLandmarks, width, height int) bool {
	if face == nil {
		return false
	}
	left := EyeAspectRatio(face.LeftEye, width, height) < d.cfg.Threshold
	right := EyeAspectRatio(face.RightEye, width, height) < d.cfg.Threshold
	return left != right
}

// Process advances the state by one frame and reports whether a wink fired on
// this frame. A nil face resets the counter.
func (d *Debouncer) Process(face *detector.FaceLandmarks, width, height int) bool {
	s := &d.state
	s.Winking = false

	if s.CooldownRemaining > 0 {
		s.CooldownRemaining--
	}

	if face == nil {
		s.Counter = 0
		return false
	}

	if !d.Candidate(face, width, height) {
		if s.Counter > 0 {
			s.Counter--
		}
		return false
	}

	s.Counter++
	if s.Counter >= d.cfg.RequiredFrames && s.CooldownRemaining == 0 {
		s.Winking = true
		s.Counter = 0
		s.CooldownRemaining = d.cfg.CooldownFrames
	}
	return s.Winking
}

// State returns a copy of the current state.
func (d *Debouncer) State() WinkState {
	return d.state
}

// Reset clears all counters.
func (d *Debouncer) Reset() {
	d.state = WinkState{}
}
