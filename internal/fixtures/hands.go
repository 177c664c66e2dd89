// Package fixtures builds tracker observations that show a given answer.
package fixtures

import (
	"github.com/ayusman/drivethru/internal/deals"
	"github.com/ayusman/drivethru/internal/detector"
)

// HandsFor returns hands showing code across width bits, leftmost hand first.
// Each hand carries five bits with the thumb as the least significant.
func HandsFor(code, width int) []detector.HandLandmarks {
	bin := deals.FormatBinary(code, width)
	var hands []detector.HandLandmarks
	for i := 0; i < len(bin); i += 5 {
		var up [5]bool
		for f := 0; f < 5; f++ {
			up[f] = bin[i+4-f] == '1'
		}
		hands = append(hands, detector.HandPose(0.25+0.5*float64(i/5), up))
	}
	return hands
}

// CountHands returns two hands with n fingers raised in total, filling the
// left hand first. n is clamped to 0..10.
func CountHands(n int) []detector.HandLandmarks {
	if n < 0 {
		n = 0
	}
	if n > 10 {
		n = 10
	}

	var left, right [5]bool
	for f := 0; f < n; f++ {
		if f < 5 {
			left[f] = true
		} else {
			right[f-5] = true
		}
	}
	return []detector.HandLandmarks{
		detector.HandPose(0.25, left),
		detector.HandPose(0.75, right),
	}
}
