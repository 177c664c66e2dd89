package gesture

import (
	"math"
	"testing"

	"github.com/ayusman/drivethru/internal/detector"
)

const (
	frameW = 640
	frameH = 480
)

func feed(d *Debouncer, face *detector.FaceLandmarks, n int) int {
	fired := 0
	for i := 0; i < n; i++ {
		if d.Process(face, frameW, frameH) {
			fired++
		}
	}
	return fired
}

func TestEyeAspectRatio(t *testing.T) {
	open := detector.OpenFace()
	winking := detector.WinkingFace()

	t.Run("open eye is above threshold", func(t *testing.T) {
		if ear := EyeAspectRatio(open.LeftEye, frameW, frameH); ear < EyeClosedThreshold {
			t.Errorf("open EAR = %f, want >= %f", ear, EyeClosedThreshold)
		}
	})

	t.Run("closed eye is below threshold", func(t *testing.T) {
		if ear := EyeAspectRatio(winking.LeftEye, frameW, frameH); ear >= EyeClosedThreshold {
			t.Errorf("closed EAR = %f, want < %f", ear, EyeClosedThreshold)
		}
	})

	t.Run("normalized coordinates without frame size", func(t *testing.T) {
		ear := EyeAspectRatio(open.LeftEye, 0, 0)
		if math.Abs(ear-0.375) > 1e-9 {
			t.Errorf("normalized EAR = %f, want 0.375", ear)
		}
	})

	t.Run("zero width contour counts as open", func(t *testing.T) {
		var eye [detector.EyePoints]detector.Point2D
		if ear := EyeAspectRatio(eye, frameW, frameH); ear < EyeClosedThreshold {
			t.Errorf("degenerate EAR = %f, want open", ear)
		}
	})
}

func TestDebouncer_Candidate(t *testing.T) {
	d := NewDebouncer(DefaultWinkConfig())

	tests := []struct {
		name string
		face *detector.FaceLandmarks
		want bool
	}{
		{"no face", nil, false},
		{"both open", detector.OpenFace(), false},
		{"one closed", detector.WinkingFace(), true},
		{"both closed", detector.ClosedFace(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Candidate(tt.face, frameW, frameH); got != tt.want {
				t.Errorf("Candidate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDebouncer_FiresOnceAfterThreeFrames(t *testing.T) {
	d := NewDebouncer(DefaultWinkConfig())
	wink := detector.WinkingFace()

	if d.Process(wink, frameW, frameH) || d.Process(wink, frameW, frameH) {
		t.Fatal("wink fired before three candidate frames")
	}
	if !d.Process(wink, frameW, frameH) {
		t.Fatal("wink did not fire on the third candidate frame")
	}
	if !d.State().Winking {
		t.Error("State().Winking should be true on the firing frame")
	}

	d.Process(detector.OpenFace(), frameW, frameH)
	if d.State().Winking {
		t.Error("Winking should drop on the next frame")
	}
}

func TestDebouncer_ShortCandidateRunDecays(t *testing.T) {
	d := NewDebouncer(DefaultWinkConfig())

	fired := feed(d, detector.WinkingFace(), 2) + feed(d, detector.OpenFace(), 5)

	if fired != 0 {
		t.Errorf("expected no winks, got %d", fired)
	}
	if d.State().Counter != 0 {
		t.Errorf("counter = %d, want 0 after decay", d.State().Counter)
	}
}

func TestDebouncer_CooldownHolds(t *testing.T) {
	d := NewDebouncer(DefaultWinkConfig())
	wink := detector.WinkingFace()

	if feed(d, wink, 3) != 1 {
		t.Fatal("expected first wink to fire")
	}

	if fired := feed(d, wink, 9); fired != 0 {
		t.Fatalf("expected cooldown to suppress 9 frames, got %d winks", fired)
	}
	if !d.Process(wink, frameW, frameH) {
		t.Error("expected the 10th candidate after a wink to fire")
	}
}

func TestDebouncer_SustainedWinkFiresPeriodically(t *testing.T) {
	d := NewDebouncer(DefaultWinkConfig())

	if fired := feed(d, detector.WinkingFace(), 33); fired != 4 {
		t.Errorf("expected 4 winks over 33 frames, got %d", fired)
	}
}

func TestDebouncer_NoFaceResetsCounter(t *testing.T) {
	d := NewDebouncer(DefaultWinkConfig())
	wink := detector.WinkingFace()

	feed(d, wink, 2)
	d.Process(nil, frameW, frameH)

	if d.State().Counter != 0 {
		t.Fatalf("counter = %d, want 0 after a frame without a face", d.State().Counter)
	}
	if feed(d, wink, 2) != 0 {
		t.Error("wink fired before three fresh candidates")
	}
}

func TestDebouncer_BlinkIsNotAWink(t *testing.T) {
	d := NewDebouncer(DefaultWinkConfig())

	if fired := feed(d, detector.ClosedFace(), 10); fired != 0 {
		t.Errorf("blink fired %d winks", fired)
	}
}

func TestDebouncer_Reset(t *testing.T) {
	d := NewDebouncer(DefaultWinkConfig())
	feed(d, detector.WinkingFace(), 5)

	d.Reset()

	if d.State() != (WinkState{}) {
		t.Errorf("State() = %+v, want zero", d.State())
	}
}

func TestNewDebouncer_Defaults(t *testing.T) {
	d := NewDebouncer(WinkConfig{})
	if feed(d, detector.WinkingFace(), 3) != 1 {
		t.Error("zero config should use three required frames")
	}
}
