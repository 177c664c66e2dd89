package detector

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrTrackerUnavailable is returned when no landmark tracking backend can be started.
var ErrTrackerUnavailable = errors.New("landmark tracker unavailable")

// Tracker defines the interface for landmark tracking implementations.
type Tracker interface {
	// Detect analyzes a video frame and returns the hands and face it found.
	// An observation with no hands and a nil face is a valid result.
	Detect(frame *gocv.Mat) (Observation, error)

	// Reconfigure rebuilds the tracking session for a new hand limit.
	Reconfigure(maxHands int) error

	// Close releases any resources held by the tracker.
	Close() error
}

// Config holds configuration options for landmark tracking.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// Face enables face mesh tracking for wink detection.
	Face bool
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		Face:            true,
	}
}
