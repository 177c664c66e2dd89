package gesture

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/ayusman/drivethru/internal/detector"
)

// ErrInvalidDisplay is returned by ParseDisplay for strings that are not five binary digits.
var ErrInvalidDisplay = errors.New("display must be five binary digits")

// Bits renders the states thumb first, 1 meaning raised.
func (s FingerStates) Bits() string {
	var b strings.Builder
	b.Grow(int(NumFingers))
	for _, up := range s {
		if up {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Display renders the states pinky first, matching the bit order of target
// codes: the thumb is the least significant bit.
func (s FingerStates) Display() string {
	bits := []byte(s.Bits())
	for i, j := 0, len(bits)-1; i < j; i, j = i+1, j-1 {
		bits[i], bits[j] = bits[j], bits[i]
	}
	return string(bits)
}

// Count returns the number of raised fingers.
func (s FingerStates) Count() int {
	n := 0
	for _, up := range s {
		if up {
			n++
		}
	}
	return n
}

// ParseDisplay is the inverse of Display.
func ParseDisplay(display string) (FingerStates, error) {
	var s FingerStates
	if len(display) != int(NumFingers) {
		return s, ErrInvalidDisplay
	}
	for i := 0; i < len(display); i++ {
		f := NumFingers - 1 - Finger(i)
		switch display[i] {
		case '1':
			s[f] = true
		case '0':
		default:
			return FingerStates{}, ErrInvalidDisplay
		}
	}
	return s, nil
}

// ObservedCode is the finger states of every hand in one frame, ordered left
// to right in the image. It is rebuilt from scratch on every frame.
type ObservedCode []FingerStates

// Encode extracts the finger states of each hand. At most maxHands hands are
// kept, in detection order; zero or less keeps them all. It returns nil when
// there are no hands or when any kept hand is missing landmarks, so a partial
// frame never produces a partial code.
func Encode(hands []detector.HandLandmarks, ex Extractor, maxHands int) ObservedCode {
	if len(hands) == 0 {
		return nil
	}
	if maxHands > 0 && len(hands) > maxHands {
		hands = hands[:maxHands]
	}
	if ex == nil {
		ex = ProximalPolicy{}
	}
	for i := range hands {
		if !hands[i].Complete() {
			return nil
		}
	}

	order := make([]int, len(hands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return hands[order[a]].Points[detector.Wrist].X < hands[order[b]].Points[detector.Wrist].X
	})

	code := make(ObservedCode, len(hands))
	for i, idx := range order {
		code[i] = ex.Extract(&hands[idx])
	}
	return code
}

// Notation selects how an ObservedCode is shown to the player.
type Notation int

const (
	// NotationBinary shows each hand as a five digit binary string.
	NotationBinary Notation = iota
	// NotationCount shows the number of raised fingers.
	NotationCount
)

func (n Notation) String() string {
	if n == NotationCount {
		return "count"
	}
	return "binary"
}

// Display renders the code for the player. Binary notation separates hands
// with a space. Count notation sums exactly two hands into one number and
// otherwise lists each hand's count. An empty code renders as "".
func (c ObservedCode) Display(n Notation) string {
	if len(c) == 0 {
		return ""
	}

	parts := make([]string, len(c))
	switch n {
	case NotationCount:
		if len(c) == 2 {
			return strconv.Itoa(c.FingerTotal())
		}
		for i, s := range c {
			parts[i] = strconv.Itoa(s.Count())
		}
	default:
		for i, s := range c {
			parts[i] = s.Display()
		}
	}
	return strings.Join(parts, " ")
}

// Binary concatenates every hand's display string with no separator.
func (c ObservedCode) Binary() string {
	var b strings.Builder
	for _, s := range c {
		b.WriteString(s.Display())
	}
	return b.String()
}

// FingerTotal sums raised fingers across every hand.
func (c ObservedCode) FingerTotal() int {
	total := 0
	for _, s := range c {
		total += s.Count()
	}
	return total
}
