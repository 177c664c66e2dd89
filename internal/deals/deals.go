// Package deals generates the daily deals board and the customer orders drawn
// from it.
package deals

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// DealCount is how many deals the board shows.
const DealCount = 5

// orderHistory is how many recent orders PickOrder avoids repeating.
const orderHistory = 2

// codeBits is the width of a single-hand code.
const codeBits = 5

// ErrInvalidBinary is returned by BinaryToDecimal for non-binary input.
var ErrInvalidBinary = errors.New("invalid binary string")

// Range is an inclusive code range.
type Range struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// Size returns how many values the range holds.
func (r Range) Size() int {
	if r.Max < r.Min {
		return 0
	}
	return r.Max - r.Min + 1
}

// Contains reports whether v lies in the range.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Format selects how deal codes are labelled on the board.
type Format int

const (
	// FormatDecimal labels codes in base 10.
	FormatDecimal Format = iota
	// FormatBinary5 labels codes as five zero-padded binary digits.
	FormatBinary5
)

func (f Format) String() string {
	if f == FormatBinary5 {
		return "binary5"
	}
	return "decimal"
}

// Label renders code in the format.
func (f Format) Label(code int) string {
	if f == FormatBinary5 {
		return DecimalToBinary5(code)
	}
	return strconv.Itoa(code)
}

// Deal is one row of the board.
type Deal struct {
	Item  string `json:"item"`
	Code  int    `json:"code"`
	Label string `json:"label"`
}

// Generator draws deals and orders. It is not safe for concurrent use.
type Generator struct {
	rng     *rand.Rand
	menu    []string
	history []int
}

// NewGenerator creates a Generator. A nil rng is seeded from the clock and an
// empty menu falls back to the built-in catalog.
func NewGenerator(rng *rand.Rand, menu []string) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if len(menu) == 0 {
		menu = DefaultMenu()
	}
	return &Generator{rng: rng, menu: menu}
}

// Deals returns a fresh board: distinct codes from r, each paired with a menu
// item. Items are distinct unless the menu has fewer than DealCount entries.
func (g *Generator) Deals(r Range, f Format) []Deal {
	n := DealCount
	if r.Size() < n {
		n = r.Size()
	}
	if n == 0 {
		return nil
	}

	codes := g.sample(r.Min, r.Size(), n)

	items := make([]string, n)
	if len(g.menu) < DealCount {
		for i := range items {
			items[i] = g.menu[g.rng.Intn(len(g.menu))]
		}
	} else {
		for i, idx := range g.rng.Perm(len(g.menu))[:n] {
			items[i] = g.menu[idx]
		}
	}

	deals := make([]Deal, n)
	for i := range deals {
		deals[i] = Deal{Item: items[i], Code: codes[i], Label: f.Label(codes[i])}
	}
	return deals
}

// sample draws k distinct integers from [base, base+size) without building the whole range.
func (g *Generator) sample(base, size, k int) []int {
	seen := make(map[int]struct{}, k)
	out := make([]int, 0, k)
	for len(out) < k {
		v := base + g.rng.Intn(size)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// PickOrder chooses the deal the next customer orders, avoiding the codes of
// the last two orders. When the board has no more deals than the history,
// any deal may be picked. Returns false for an empty board.
func (g *Generator) PickOrder(deals []Deal) (Deal, bool) {
	if len(deals) == 0 {
		return Deal{}, false
	}

	var pick Deal
	switch {
	case len(deals) == 1:
		pick = deals[0]
	case len(deals) <= len(g.history):
		pick = deals[g.rng.Intn(len(deals))]
	default:
		fresh := make([]Deal, 0, len(deals))
		for _, d := range deals {
			if !g.recent(d.Code) {
				fresh = append(fresh, d)
			}
		}
		if len(fresh) == 0 {
			fresh = deals
		}
		pick = fresh[g.rng.Intn(len(fresh))]
	}

	g.history = append(g.history, pick.Code)
	if len(g.history) > orderHistory {
		g.history = g.history[1:]
	}
	return pick, true
}

func (g *Generator) recent(code int) bool {
	for _, c := range g.history {
		if c == code {
			return true
		}
	}
	return false
}

// History returns the codes of the most recent orders, oldest first.
func (g *Generator) History() []int {
	return append([]int(nil), g.history...)
}

// DecimalToBinary5 renders v as five binary digits. Values wider than five
// bits keep only their low five bits.
func DecimalToBinary5(v int) string {
	return FormatBinary(v&(1<<codeBits-1), codeBits)
}

// BinaryToDecimal parses a string of binary digits.
func BinaryToDecimal(s string) (int, error) {
	if s == "" || strings.Trim(s, "01") != "" {
		return 0, ErrInvalidBinary
	}
	v, err := strconv.ParseInt(s, 2, 64)
	if err != nil {
		return 0, ErrInvalidBinary
	}
	return int(v), nil
}

// FormatBinary renders v zero-padded to width binary digits. Unlike
// DecimalToBinary5 nothing is truncated.
func FormatBinary(v, width int) string {
	s := strconv.FormatInt(int64(v), 2)
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}
