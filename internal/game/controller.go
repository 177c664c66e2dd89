package game

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/drivethru/internal/deals"
	"github.com/ayusman/drivethru/internal/gesture"
)

// Phase is where a round is in its lifecycle.
type Phase int

const (
	// Idle means no order is active.
	Idle Phase = iota
	// Approaching means an order is placed but the car has not reached the window.
	Approaching
	// Awaiting means the countdown is running.
	Awaiting
	// Resolved means the round has an outcome and waits for acknowledgment.
	Resolved
)

var phaseNames = [...]string{"idle", "approaching", "awaiting", "resolved"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Outcome is how a round ended.
type Outcome int

const (
	NoOutcome Outcome = iota
	Correct
	Incorrect
	TimedOut
)

var outcomeNames = [...]string{"", "correct", "incorrect", "timed_out"}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return ""
	}
	return outcomeNames[o]
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Resolution describes a finished round.
type Resolution struct {
	RoundID      string    `json:"round_id"`
	Mode         Mode      `json:"mode"`
	Outcome      Outcome   `json:"outcome"`
	Item         string    `json:"item"`
	TrueCode     int       `json:"true_code"`
	TrueLabel    string    `json:"true_label"`
	Expected     string    `json:"expected"`
	Observed     string    `json:"observed"`
	RemainingMs  int64     `json:"remaining_ms"`
	Score        int       `json:"score"`
	NewHighScore bool      `json:"new_high_score"`
	Explanation  string    `json:"explanation"`
	ResolvedAt   time.Time `json:"resolved_at"`
}

// Config holds the controller's collaborators. Nil fields get in-process defaults.
type Config struct {
	Clock    clockwork.Clock
	Deals    *deals.Generator
	Scores   ScoreStore
	Observer RoundObserver
	Profiles Profiles
}

// Controller runs rounds: it places orders, owns the countdown and decides
// each round's outcome exactly once. It is not safe for concurrent use.
type Controller struct {
	clock    clockwork.Clock
	gen      *deals.Generator
	scores   ScoreStore
	observer RoundObserver
	profiles Profiles

	profile  Profile
	phase    Phase
	outcome  Outcome
	board    []deals.Deal
	order    Order
	observed gesture.ObservedCode

	start     time.Time
	remaining time.Duration
	paused    bool

	score     int
	highScore int
	last      *Resolution
}

// NewController creates a Controller in the Idle phase with the Default profile.
func NewController(cfg Config) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Deals == nil {
		cfg.Deals = deals.NewGenerator(nil, nil)
	}
	if cfg.Scores == nil {
		cfg.Scores = NewMemoryScores()
	}
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	if cfg.Profiles == nil {
		cfg.Profiles = DefaultProfiles()
	}

	c := &Controller{
		clock:    cfg.Clock,
		gen:      cfg.Deals,
		scores:   cfg.Scores,
		observer: cfg.Observer,
		profiles: cfg.Profiles,
	}
	c.profile = c.profiles.For(Default)
	c.remaining = c.profile.Duration
	return c
}

// SetMode switches to m and starts a fresh run: the score and countdown are
// reset, a new board is dealt and the first order is placed. It reports
// whether the number of hands the mode needs changed.
func (c *Controller) SetMode(m Mode) bool {
	prevHands := c.profile.Hands
	c.profile = c.profiles.For(m)
	c.score = 0
	c.paused = false
	c.last = nil
	c.highScore = c.scores.HighScore(c.profile.Mode)
	c.deal()
	c.placeOrder()

	log.Info().Str("mode", c.profile.Mode.String()).Int("hands", c.profile.Hands).
		Str("trigger", c.profile.Trigger.String()).Msg("mode selected")
	return c.profile.Hands != prevHands
}

// Arrive starts the countdown once the car reaches the window.
func (c *Controller) Arrive() bool {
	if c.phase != Approaching || c.paused {
		return false
	}

	c.start = c.clock.Now()
	c.remaining = c.profile.Duration
	c.highScore = c.scores.HighScore(c.profile.Mode)
	c.phase = Awaiting

	c.observer.CountdownStarted(c.order)
	return true
}

// Tick refreshes the remaining time and times the round out when it hits zero.
func (c *Controller) Tick() {
	if c.phase != Awaiting || c.paused {
		return
	}

	c.remaining = c.profile.Duration - c.clock.Since(c.start)
	if c.remaining <= 0 {
		c.remaining = 0
		c.resolve(TimedOut)
	}
}

// Observe replaces the code the player is currently showing.
func (c *Controller) Observe(code gesture.ObservedCode) {
	c.observed = code
}

// RequestValidation submits the current answer in manual-trigger modes.
// It reports whether the round was resolved; it is ignored elsewhere.
func (c *Controller) RequestValidation() bool {
	if c.profile.Trigger != TriggerManual {
		return false
	}
	return c.validate()
}

// Wink submits the current answer in wink-trigger modes.
func (c *Controller) Wink() bool {
	if c.profile.Trigger != TriggerWink {
		return false
	}
	return c.validate()
}

func (c *Controller) validate() bool {
	if c.phase != Awaiting || c.paused {
		return false
	}

	c.Tick()
	if c.phase != Awaiting {
		// The countdown ran out before the answer arrived.
		return false
	}

	if c.matches() {
		c.resolve(Correct)
	} else {
		c.resolve(Incorrect)
	}
	return true
}

// expected renders the true code the way the mode compares it.
func (c *Controller) expected() string {
	if c.profile.Notation == gesture.NotationCount {
		v, _ := deals.BinaryToDecimal(deals.DecimalToBinary5(c.order.Code))
		return strconv.Itoa(v)
	}
	return deals.FormatBinary(c.order.Code, c.profile.CodeWidth)
}

func (c *Controller) matches() bool {
	if len(c.observed) == 0 {
		return false
	}
	if c.profile.Notation == gesture.NotationCount {
		return c.expected() == strconv.Itoa(c.observed.FingerTotal())
	}
	return c.expected() == c.observed.Binary()
}

func (c *Controller) resolve(outcome Outcome) {
	c.phase = Resolved
	c.outcome = outcome

	newHigh := false
	if outcome == Correct {
		c.score++
	} else if c.score > c.highScore {
		newHigh = c.scores.ReportScore(c.profile.Mode, c.score)
		if newHigh {
			c.highScore = c.score
		}
	}

	observed := c.observed.Display(c.profile.Notation)
	r := Resolution{
		RoundID:      c.order.RoundID,
		Mode:         c.profile.Mode,
		Outcome:      outcome,
		Item:         c.order.Item,
		TrueCode:     c.order.Code,
		TrueLabel:    c.order.Label,
		Expected:     c.expected(),
		Observed:     observed,
		RemainingMs:  c.remaining.Milliseconds(),
		Score:        c.score,
		NewHighScore: newHigh,
		Explanation:  explain(c.profile, outcome, c.order.Code, observed),
		ResolvedAt:   c.clock.Now(),
	}
	c.last = &r

	log.Info().Str("round_id", r.RoundID).Str("mode", r.Mode.String()).
		Str("outcome", outcome.String()).Int("score", c.score).
		Str("expected", r.Expected).Str("observed", observed).Msg("round resolved")

	c.observer.Resolved(r)
}

// Acknowledge moves past a resolved round. After a correct answer the next
// customer orders from the same board, which is refreshed every fifth correct
// answer. After a miss the run restarts with a zero score and a new board.
func (c *Controller) Acknowledge() bool {
	if c.phase != Resolved {
		return false
	}

	if c.outcome == Correct {
		if c.score > 1 && c.score%5 == 0 {
			c.deal()
		}
	} else {
		c.score = 0
		c.deal()
	}
	c.paused = false
	c.placeOrder()
	return true
}

// Pause freezes the countdown, or the car while it is approaching.
func (c *Controller) Pause() bool {
	if c.paused || (c.phase != Approaching && c.phase != Awaiting) {
		return false
	}
	if c.phase == Awaiting {
		c.Tick()
		if c.phase != Awaiting {
			return false
		}
	}
	c.paused = true
	return true
}

// Resume restarts a paused countdown with exactly the time that was left.
func (c *Controller) Resume() bool {
	if !c.paused {
		return false
	}
	c.paused = false
	if c.phase == Awaiting {
		c.start = c.clock.Now().Add(-(c.profile.Duration - c.remaining))
	}
	return true
}

func (c *Controller) deal() {
	c.board = c.gen.Deals(c.profile.Range, c.profile.Format)
}

func (c *Controller) placeOrder() {
	c.outcome = NoOutcome
	c.remaining = c.profile.Duration
	c.start = time.Time{}

	d, ok := c.gen.PickOrder(c.board)
	if !ok {
		c.phase = Idle
		c.order = Order{}
		log.Warn().Str("mode", c.profile.Mode.String()).Msg("no deals to order from")
		return
	}

	c.order = Order{
		RoundID:  uuid.NewString(),
		Mode:     c.profile.Mode,
		Item:     d.Item,
		Code:     d.Code,
		Label:    d.Label,
		Duration: c.profile.Duration,
		PlacedAt: c.clock.Now(),
	}
	c.phase = Approaching

	log.Debug().Str("round_id", c.order.RoundID).Str("item", d.Item).Int("code", d.Code).Msg("order placed")
	c.observer.OrderPlaced(c.order)
}

func explain(p Profile, outcome Outcome, code int, observed string) string {
	reverse := p.Notation == gesture.NotationCount
	bin := deals.FormatBinary(code, p.CodeWidth)
	if reverse {
		bin = deals.DecimalToBinary5(code)
	}

	switch outcome {
	case Correct:
		if reverse {
			return fmt.Sprintf("%s(2) → %d(10)", bin, code)
		}
		return fmt.Sprintf("%d(10) → %s(2)", code, bin)
	case Incorrect:
		if observed == "" {
			return "Please show a valid code."
		}
		if reverse {
			return fmt.Sprintf("%s(2) != %s(10)", bin, observed)
		}
		return fmt.Sprintf("%s(2) != %s(2)", observed, bin)
	case TimedOut:
		return "Time is up!"
	}
	return ""
}

// Profile returns the active mode's profile.
func (c *Controller) Profile() Profile { return c.profile }

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// Paused reports whether the round is paused.
func (c *Controller) Paused() bool { return c.paused }

// Remaining returns the time left as of the last tick.
func (c *Controller) Remaining() time.Duration { return c.remaining }

// Score returns the number of consecutive correct answers in this run.
func (c *Controller) Score() int { return c.score }

// Order returns the active order.
func (c *Controller) Order() Order { return c.order }

// Board returns the current daily deals.
func (c *Controller) Board() []deals.Deal {
	return append([]deals.Deal(nil), c.board...)
}

// LastResolution returns the most recent resolution of this run, if any.
func (c *Controller) LastResolution() (Resolution, bool) {
	if c.last == nil {
		return Resolution{}, false
	}
	return *c.last, true
}

// Snapshot is a read-only view of the controller for presentation.
type Snapshot struct {
	Mode         Mode         `json:"mode"`
	Phase        Phase        `json:"phase"`
	Paused       bool         `json:"paused"`
	Hands        int          `json:"hands"`
	Trigger      Trigger      `json:"trigger"`
	RemainingMs  int64        `json:"remaining_ms"`
	DurationMs   int64        `json:"duration_ms"`
	Score        int          `json:"score"`
	HighScore    int          `json:"high_score"`
	Order        Order        `json:"order"`
	Board        []deals.Deal `json:"board"`
	Observed     string       `json:"observed"`
	Outcome      Outcome      `json:"outcome,omitempty"`
	LastResolved *Resolution  `json:"last_resolved,omitempty"`
}

// Snapshot captures the controller state.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Mode:        c.profile.Mode,
		Phase:       c.phase,
		Paused:      c.paused,
		Hands:       c.profile.Hands,
		Trigger:     c.profile.Trigger,
		RemainingMs: c.remaining.Milliseconds(),
		DurationMs:  c.profile.Duration.Milliseconds(),
		Score:       c.score,
		HighScore:   c.highScore,
		Order:       c.order,
		Board:       c.Board(),
		Observed:    c.observed.Display(c.profile.Notation),
		Outcome:     c.outcome,
	}
	if c.last != nil {
		r := *c.last
		s.LastResolved = &r
	}
	return s
}
