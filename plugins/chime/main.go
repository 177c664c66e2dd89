// Package main provides a plugin that plays a sound when a round ends.
// It uses afplay on macOS and paplay on Linux.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// dryRunEnv makes the plugin report the sound it would play without playing it.
const dryRunEnv = "CHIME_DRY_RUN"

// Request represents the input from the plugin executor.
type Request struct {
	Event      string          `json:"event"`
	Resolution *Resolution     `json:"resolution"`
	Config     json.RawMessage `json:"config"`
}

// Resolution is the subset of a resolved round the plugin reads.
type Resolution struct {
	Outcome      string `json:"outcome"`
	Score        int    `json:"score"`
	NewHighScore bool   `json:"new_high_score"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config overrides the sound file for each outcome.
type Config struct {
	Correct   string `json:"correct"`
	Incorrect string `json:"incorrect"`
	TimedOut  string `json:"timed_out"`
	HighScore string `json:"high_score"`
}

var defaultSounds = map[string]Config{
	"darwin": {
		Correct:   "/System/Library/Sounds/Glass.aiff",
		Incorrect: "/System/Library/Sounds/Basso.aiff",
		TimedOut:  "/System/Library/Sounds/Funk.aiff",
		HighScore: "/System/Library/Sounds/Hero.aiff",
	},
	"linux": {
		Correct:   "/usr/share/sounds/freedesktop/stereo/complete.oga",
		Incorrect: "/usr/share/sounds/freedesktop/stereo/dialog-error.oga",
		TimedOut:  "/usr/share/sounds/freedesktop/stereo/alarm-clock-elapsed.oga",
		HighScore: "/usr/share/sounds/freedesktop/stereo/bell.oga",
	},
}

var players = map[string]string{
	"darwin": "afplay",
	"linux":  "paplay",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if req.Event != "resolved" || req.Resolution == nil {
		writeErrorResponse(fmt.Sprintf("unsupported event: %s", req.Event))
		return
	}

	sounds := defaultSounds[runtime.GOOS]
	if len(req.Config) > 0 {
		var override Config
		if err := json.Unmarshal(req.Config, &override); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
		sounds = merge(sounds, override)
	}

	sound := pick(sounds, req.Resolution)
	if sound == "" {
		writeErrorResponse(fmt.Sprintf("no sound for outcome %q", req.Resolution.Outcome))
		return
	}

	if os.Getenv(dryRunEnv) == "" {
		if err := play(sound); err != nil {
			writeErrorResponse(fmt.Sprintf("play %s: %v", sound, err))
			return
		}
	}

	data, _ := json.Marshal(map[string]string{"sound": sound})
	json.NewEncoder(os.Stdout).Encode(Response{Success: true, Data: data})
}

func merge(base, override Config) Config {
	if override.Correct != "" {
		base.Correct = override.Correct
	}
	if override.Incorrect != "" {
		base.Incorrect = override.Incorrect
	}
	if override.TimedOut != "" {
		base.TimedOut = override.TimedOut
	}
	if override.HighScore != "" {
		base.HighScore = override.HighScore
	}
	return base
}

// pick chooses the sound for a resolution. A new high score wins over a plain correct answer.
func pick(sounds Config, r *Resolution) string {
	switch r.Outcome {
	case "correct":
		if r.NewHighScore && sounds.HighScore != "" {
			return sounds.HighScore
		}
		return sounds.Correct
	case "incorrect":
		return sounds.Incorrect
	case "timed_out":
		return sounds.TimedOut
	}
	return ""
}

func play(sound string) error {
	player, ok := players[runtime.GOOS]
	if !ok {
		return fmt.Errorf("no audio player for %s", runtime.GOOS)
	}
	output, err := exec.Command(player, sound).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}
