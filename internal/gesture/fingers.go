// Package gesture turns per-frame landmark geometry into the symbols the game
// compares: finger states, encoded codes and wink events.
package gesture

import (
	"fmt"
	"strings"

	"github.com/ayusman/drivethru/internal/detector"
)

// Finger indexes a FingerStates vector.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

// ThumbThreshold is the minimum vertical separation between the thumb tip and
// IP joint, in normalized frame units, for the thumb to count as raised.
const ThumbThreshold = 0.045

// FingerStates holds one up/down flag per finger in thumb, index, middle, ring,
// pinky order.
type FingerStates [NumFingers]bool

// Extractor decides which fingers of one hand are raised.
// Implementations are pure and report a finger as down when its landmarks are
// missing.
type Extractor interface {
	Extract(hand *detector.HandLandmarks) FingerStates
}

// fingerJoints maps each non-thumb finger to its PIP and tip landmark indices.
var fingerJoints = [NumFingers][2]int{
	Index:  {detector.IndexPIP, detector.IndexTip},
	Middle: {detector.MiddlePIP, detector.MiddleTip},
	Ring:   {detector.RingPIP, detector.RingTip},
	Pinky:  {detector.PinkyPIP, detector.PinkyTip},
}

// ProximalPolicy compares every fingertip with its own joint only.
type ProximalPolicy struct{}

func (ProximalPolicy) Extract(hand *detector.HandLandmarks) FingerStates {
	var s FingerStates
	if hand == nil {
		return s
	}
	p := &hand.Points

	// Thumb motion is lateral to the palm so the test is a magnitude, not a direction.
	diff := p[detector.ThumbTip].Y - p[detector.ThumbIP].Y
	if diff < 0 {
		diff = -diff
	}
	s[Thumb] = diff > ThumbThreshold

	for f := Index; f < NumFingers; f++ {
		pip, tip := fingerJoints[f][0], fingerJoints[f][1]
		s[f] = p[tip].Y < p[pip].Y
	}
	return s
}

// TallestPolicy only raises a finger whose tip is also the highest of all tips.
// The thumb additionally has to be bent outwards at the IP joint.
type TallestPolicy struct{}

// minThumbAngle is the MCP-IP-tip angle, in degrees, an extended thumb exceeds.
const minThumbAngle = 90

func (TallestPolicy) Extract(hand *detector.HandLandmarks) FingerStates {
	var s FingerStates
	if hand == nil {
		return s
	}
	p := &hand.Points

	tip := p[detector.ThumbTip]
	if tip.Y < p[detector.ThumbIP].Y &&
		detector.JointAngle(p[detector.ThumbMCP], p[detector.ThumbIP], tip) > minThumbAngle {
		s[Thumb] = true
		for f := Index; f < NumFingers; f++ {
			if !(tip.Y < p[fingerJoints[f][0]].Y) {
				s[Thumb] = false
				break
			}
		}
	}

	tips := [NumFingers]float64{Thumb: tip.Y}
	for f := Index; f < NumFingers; f++ {
		tips[f] = p[fingerJoints[f][1]].Y
	}

	for f := Index; f < NumFingers; f++ {
		if !(tips[f] < p[fingerJoints[f][0]].Y) {
			continue
		}
		tallest := true
		for o := Thumb; o < NumFingers; o++ {
			if o != f && !(tips[f] < tips[o]) {
				tallest = false
				break
			}
		}
		s[f] = tallest
	}
	return s
}

// Policy names accepted by ParsePolicy.
const (
	PolicyProximal = "proximal"
	PolicyTallest  = "tallest"
)

// ParsePolicy returns the extractor registered under name. An empty name
// selects the proximal policy.
func ParsePolicy(name string) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyProximal:
		return ProximalPolicy{}, nil
	case PolicyTallest:
		return TallestPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown finger policy %q", name)
	}
}
