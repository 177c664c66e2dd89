package main

import "testing"

func TestPick(t *testing.T) {
	sounds := Config{Correct: "c", Incorrect: "i", TimedOut: "t", HighScore: "h"}

	tests := []struct {
		name string
		res  Resolution
		want string
	}{
		{"correct", Resolution{Outcome: "correct"}, "c"},
		{"new high score", Resolution{Outcome: "correct", NewHighScore: true}, "h"},
		{"incorrect", Resolution{Outcome: "incorrect"}, "i"},
		{"timed out", Resolution{Outcome: "timed_out"}, "t"},
		{"unknown", Resolution{Outcome: "shrug"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pick(sounds, &tt.res); got != tt.want {
				t.Errorf("pick() = %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("high score falls back to correct", func(t *testing.T) {
		got := pick(Config{Correct: "c"}, &Resolution{Outcome: "correct", NewHighScore: true})
		if got != "c" {
			t.Errorf("pick() = %q, want c", got)
		}
	})
}

func TestMerge(t *testing.T) {
	got := merge(Config{Correct: "a", Incorrect: "b"}, Config{Incorrect: "z"})
	if got.Correct != "a" || got.Incorrect != "z" {
		t.Errorf("merge() = %+v", got)
	}
}
