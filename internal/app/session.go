// Package app runs a camera session: it feeds frames through the tracker and
// recognizers into the round controller on a single goroutine.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/drivethru/internal/capture"
	"github.com/ayusman/drivethru/internal/detector"
	"github.com/ayusman/drivethru/internal/game"
	"github.com/ayusman/drivethru/internal/gesture"
)

// Loop timing defaults.
const (
	// FrameInterval is the period of the frame tick.
	FrameInterval = 30 * time.Millisecond
	// CountdownInterval is the period of the countdown tick.
	CountdownInterval = 16 * time.Millisecond
)

// ErrSessionStopped is returned when a command is sent to a session that is not running.
var ErrSessionStopped = errors.New("session is not running")

// Config holds the session's collaborators.
type Config struct {
	Camera    capture.Camera
	Tracker   detector.Tracker
	Extractor gesture.Extractor
	Game      game.Config
	Mode      game.Mode
	Lane      *game.Lane
	Wink      gesture.WinkConfig

	// FrameBudget is how long reading and detecting one frame may take before
	// the frame is dropped. Zero uses FrameInterval.
	FrameBudget time.Duration

	// Preview enables the annotated JPEG preview.
	Preview bool
}

// FrameStats counts what happened to frame ticks.
type FrameStats struct {
	Processed int64 `json:"processed"`
	Skipped   int64 `json:"skipped"`
	Dropped   int64 `json:"dropped"`
}

// Session owns one camera-enabled game screen. All game state is touched only
// from the session goroutine; other goroutines reach it through Do.
type Session struct {
	camera    capture.Camera
	tracker   detector.Tracker
	extractor gesture.Extractor
	clock     clockwork.Clock
	ctrl      *game.Controller
	lane      *game.Lane
	wink      *gesture.Debouncer
	mode      game.Mode
	budget    time.Duration
	preview   bool

	prevWink bool

	cmds chan command

	mu     sync.Mutex
	stopCh chan struct{}
	done   chan struct{}

	processed atomic.Int64
	skipped   atomic.Int64
	dropped   atomic.Int64

	previewMu  sync.RWMutex
	previewJPG []byte
}

type command struct {
	fn   func()
	done chan struct{}
}

// New creates a session. The camera and tracker are required.
func New(cfg Config) *Session {
	if cfg.Game.Clock == nil {
		cfg.Game.Clock = clockwork.NewRealClock()
	}
	if cfg.Extractor == nil {
		cfg.Extractor = gesture.ProximalPolicy{}
	}
	if cfg.Lane == nil {
		cfg.Lane = game.NewLane(game.DefaultLaneWidth, game.DefaultCarWidth)
	}
	if cfg.FrameBudget <= 0 {
		cfg.FrameBudget = FrameInterval
	}

	s := &Session{
		camera:    cfg.Camera,
		tracker:   cfg.Tracker,
		extractor: cfg.Extractor,
		clock:     cfg.Game.Clock,
		lane:      cfg.Lane,
		wink:      gesture.NewDebouncer(cfg.Wink),
		mode:      cfg.Mode,
		budget:    cfg.FrameBudget,
		preview:   cfg.Preview,
		cmds:      make(chan command),
	}

	observers := game.Observers{laneReset{lane: s.lane}}
	if cfg.Game.Observer != nil {
		observers = append(observers, cfg.Game.Observer)
	}
	cfg.Game.Observer = observers
	s.ctrl = game.NewController(cfg.Game)

	return s
}

// laneReset sends the car back to the entrance for every new order.
type laneReset struct {
	game.NopObserver
	lane *game.Lane
}

func (l laneReset) OrderPlaced(game.Order) { l.lane.Reset() }

// Start opens the camera, places the first order and starts the loop.
// Starting a running session is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopCh != nil {
		return nil
	}

	if err := s.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	s.ctrl.SetMode(s.mode)
	if err := s.tracker.Reconfigure(s.ctrl.Profile().Hands); err != nil {
		s.camera.Close()
		return fmt.Errorf("configure tracker: %w", err)
	}

	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	frames := s.clock.NewTicker(FrameInterval)
	countdown := s.clock.NewTicker(CountdownInterval)
	go s.run(ctx, s.stopCh, s.done, frames, countdown)

	log.Info().Str("mode", s.mode.String()).Msg("session started")
	return nil
}

// Stop halts both ticks together and releases the tracker and camera.
// It is safe to call more than once.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.stopCh = nil
	done := s.done
	s.mu.Unlock()

	<-done

	if err := s.tracker.Close(); err != nil {
		log.Warn().Err(err).Msg("close tracker")
	}
	if err := s.camera.Close(); err != nil {
		log.Warn().Err(err).Msg("close camera")
	}

	p := s.Stats()
	log.Info().Int64("processed", p.Processed).Int64("skipped", p.Skipped).
		Int64("dropped", p.Dropped).Msg("session stopped")
}

// Running reports whether the loop is active.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopCh != nil
}

func (s *Session) run(ctx context.Context, stop, done chan struct{}, frames, countdown clockwork.Ticker) {
	defer close(done)
	defer frames.Stop()
	defer countdown.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-frames.Chan():
			s.processFrame()
		case <-countdown.Chan():
			s.advanceCountdown()
		case cmd := <-s.cmds:
			cmd.fn()
			close(cmd.done)
		}
	}
}

// Do runs fn on the session goroutine and waits for it to finish. ctx bounds
// only the wait for the session to accept fn; once accepted, Do returns after
// fn has run so fn may write to the caller's variables.
func (s *Session) Do(ctx context.Context, fn func(c *game.Controller)) error {
	s.mu.Lock()
	stop, done := s.stopCh, s.done
	s.mu.Unlock()
	if stop == nil {
		return ErrSessionStopped
	}

	cmd := command{fn: func() { fn(s.ctrl) }, done: make(chan struct{})}
	select {
	case s.cmds <- cmd:
	case <-done:
		return ErrSessionStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	<-cmd.done
	return nil
}

// processFrame handles one frame tick. A frame that cannot be read or
// detected is skipped and leaves the previous observation in place.
func (s *Session) processFrame() {
	began := s.clock.Now()

	frame, err := s.camera.ReadFrame()
	if err != nil {
		s.skipped.Add(1)
		log.Debug().Err(err).Msg("frame read failed")
		return
	}
	defer frame.Close()

	obs, err := s.tracker.Detect(frame)
	if err != nil {
		s.skipped.Add(1)
		log.Debug().Err(err).Msg("detection failed")
		return
	}

	if s.clock.Since(began) > s.budget {
		s.dropped.Add(1)
		log.Debug().Dur("elapsed", s.clock.Since(began)).Msg("frame over budget")
		return
	}

	code := gesture.Encode(obs.Hands, s.extractor, s.ctrl.Profile().Hands)
	s.ctrl.Observe(code)

	w, h := obs.Width, obs.Height
	if w == 0 || h == 0 {
		w, h = frame.Cols(), frame.Rows()
	}
	winking := s.wink.Process(obs.Face, w, h)
	if winking && !s.prevWink {
		if s.ctrl.Wink() {
			log.Debug().Msg("wink submitted answer")
		}
	}
	s.prevWink = winking

	if s.preview {
		s.publishPreview(frame, obs, code)
	}
	s.processed.Add(1)
}

// advanceCountdown handles one countdown tick.
func (s *Session) advanceCountdown() {
	if !s.ctrl.Paused() && s.ctrl.Phase() == game.Approaching && s.lane.Advance() {
		s.ctrl.Arrive()
	}
	s.ctrl.Tick()
}

// applyMode switches modes. The tracker is rebuilt when the hand count
// changes; the wink recognizer is rebuilt on every switch into a two-hand mode
// or any hand count change.
func (s *Session) applyMode(m game.Mode) {
	s.mode = m
	changed := s.ctrl.SetMode(m)
	hands := s.ctrl.Profile().Hands
	if !changed && hands < 2 {
		return
	}

	if changed {
		if err := s.tracker.Reconfigure(hands); err != nil {
			log.Error().Err(err).Int("hands", hands).Msg("reconfigure tracker")
		}
	}
	s.wink.Reset()
	s.prevWink = false
	s.ctrl.Observe(nil)
}

// Stats returns frame counters.
func (s *Session) Stats() FrameStats {
	return FrameStats{
		Processed: s.processed.Load(),
		Skipped:   s.skipped.Load(),
		Dropped:   s.dropped.Load(),
	}
}

// Snapshot returns the controller state.
func (s *Session) Snapshot(ctx context.Context) (game.Snapshot, error) {
	var snap game.Snapshot
	err := s.Do(ctx, func(c *game.Controller) { snap = c.Snapshot() })
	return snap, err
}

// Validate submits the shown code in manual-trigger modes.
func (s *Session) Validate(ctx context.Context) (bool, error) {
	return s.boolCmd(ctx, (*game.Controller).RequestValidation)
}

// Continue acknowledges a resolved round.
func (s *Session) Continue(ctx context.Context) (bool, error) {
	return s.boolCmd(ctx, (*game.Controller).Acknowledge)
}

func (s *Session) Pause(ctx context.Context) (bool, error) {
	return s.boolCmd(ctx, (*game.Controller).Pause)
}

func (s *Session) Resume(ctx context.Context) (bool, error) {
	return s.boolCmd(ctx, (*game.Controller).Resume)
}

// SetMode switches game mode. Recognizers are rebuilt before the next frame.
func (s *Session) SetMode(ctx context.Context, m game.Mode) error {
	return s.Do(ctx, func(*game.Controller) { s.applyMode(m) })
}

// WinkState returns the debouncer state.
func (s *Session) WinkState(ctx context.Context) (gesture.WinkState, error) {
	var st gesture.WinkState
	err := s.Do(ctx, func(*game.Controller) { st = s.wink.State() })
	return st, err
}

func (s *Session) boolCmd(ctx context.Context, fn func(*game.Controller) bool) (bool, error) {
	var ok bool
	err := s.Do(ctx, func(c *game.Controller) { ok = fn(c) })
	return ok, err
}
