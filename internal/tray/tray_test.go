package tray

import (
	"testing"

	"github.com/ayusman/drivethru/internal/game"
)

func TestTray_Callbacks(t *testing.T) {
	t.Run("mode click forwards the mode", func(t *testing.T) {
		tr := New(game.Default)
		var got game.Mode = -1
		tr.OnMode(func(m game.Mode) { got = m })

		tr.handleMode(game.Speedrun)

		if got != game.Speedrun {
			t.Errorf("callback mode = %v, want speedrun", got)
		}
		if tr.Mode() != game.Speedrun {
			t.Errorf("Mode() = %v, want speedrun", tr.Mode())
		}
	})

	t.Run("pause toggles", func(t *testing.T) {
		tr := New(game.Default)
		var states []bool
		tr.OnPause(func(p bool) { states = append(states, p) })

		tr.handlePause()
		tr.handlePause()

		if len(states) != 2 || !states[0] || states[1] {
			t.Errorf("pause states = %v, want [true false]", states)
		}
		if tr.IsPaused() {
			t.Error("expected tray to be resumed")
		}
	})

	t.Run("open without callback is a no-op", func(t *testing.T) {
		New(game.Default).handleOpen()
	})
}

func TestTray_Resolved(t *testing.T) {
	tests := []struct {
		name string
		res  game.Resolution
		want string
	}{
		{"correct", game.Resolution{Outcome: game.Correct, Score: 4}, "Last: correct, score 4"},
		{"timed out", game.Resolution{Outcome: game.TimedOut, Score: 2}, "Last: timed out, final score 2"},
		{"new high score", game.Resolution{Outcome: game.Incorrect, Score: 7, NewHighScore: true}, "Last: incorrect, final score 7 (new high score)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(game.Default)
			tr.Resolved(tt.res)
			if got := tr.LastOutcome(); got != tt.want {
				t.Errorf("LastOutcome() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("follows the resolved mode", func(t *testing.T) {
		tr := New(game.Default)
		tr.Resolved(game.Resolution{Mode: game.Reverse, Outcome: game.Correct})
		if tr.Mode() != game.Reverse {
			t.Errorf("Mode() = %v, want reverse", tr.Mode())
		}
	})

	t.Run("implements RoundObserver", func(t *testing.T) {
		var _ game.RoundObserver = (*Tray)(nil)
	})
}

func TestModeTitle(t *testing.T) {
	if got := modeTitle(game.DoubleTrouble); got != "Double Trouble" {
		t.Errorf("modeTitle() = %q", got)
	}
	if got := lastTitle(""); got != "Last: none" {
		t.Errorf("lastTitle() = %q", got)
	}
}
