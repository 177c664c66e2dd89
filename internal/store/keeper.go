package store

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/drivethru/internal/game"
)

// ScoreKeeper is the game's score store for one player. Storage failures are
// logged and never reach the round logic.
type ScoreKeeper struct {
	repo   *HighScoreRepository
	player string
}

// NewScoreKeeper creates a ScoreKeeper for player.
func NewScoreKeeper(s *Store, player string) *ScoreKeeper {
	return &ScoreKeeper{repo: s.HighScores(), player: player}
}

// HighScore returns the stored high score, or 0 when none exists or loading fails.
func (k *ScoreKeeper) HighScore(mode game.Mode) int {
	h, err := k.repo.Get(k.player, mode)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Error().Err(err).Str("mode", mode.String()).Msg("load high score")
		}
		return 0
	}
	return h.Score
}

// ReportScore stores score if it is a new high score and reports whether it was.
func (k *ScoreKeeper) ReportScore(mode game.Mode, score int) bool {
	raised, err := k.repo.Raise(k.player, mode, score)
	if err != nil {
		log.Error().Err(err).Str("mode", mode.String()).Int("score", score).Msg("report high score")
		return false
	}
	if raised {
		log.Info().Str("player", k.player).Str("mode", mode.String()).Int("score", score).Msg("new high score")
	}
	return raised
}

// DefaultRecordQueue is how many resolved rounds RoundRecorder buffers.
const DefaultRecordQueue = 64

type recordJob struct {
	round   *Round
	flushed chan struct{}
}

// DefaultLeaderboardSize is the leaderboard length used when none is asked for.
const DefaultLeaderboardSize = 10

// ListHighScores returns every high score of player, best first.
func (k *ScoreKeeper) ListHighScores(_ context.Context, player string) ([]*HighScore, error) {
	return k.repo.List(player)
}

// Leaderboard returns the best n players of mode.
func (k *ScoreKeeper) Leaderboard(_ context.Context, mode game.Mode, n int) ([]LeaderboardEntry, error) {
	if n <= 0 {
		n = DefaultLeaderboardSize
	}
	return k.repo.Leaderboard(mode, n)
}

// RoundRecorder writes every resolved round to the history on a background
// worker. Rounds arriving while the queue is full are dropped.
type RoundRecorder struct {
	game.NopObserver
	repo   *RoundRepository
	player string

	mu     sync.RWMutex
	closed bool
	jobs   chan recordJob
	wg     sync.WaitGroup
}

// NewRoundRecorder creates a RoundRecorder for player and starts its worker.
// Call Close to drain and stop it.
func NewRoundRecorder(s *Store, player string) *RoundRecorder {
	r := &RoundRecorder{
		repo:   s.Rounds(),
		player: player,
		jobs:   make(chan recordJob, DefaultRecordQueue),
	}
	r.wg.Add(1)
	go r.work()
	return r
}

func (r *RoundRecorder) Resolved(res game.Resolution) {
	rd := &Round{
		ID:           res.RoundID,
		Player:       r.player,
		Mode:         res.Mode,
		Outcome:      res.Outcome.String(),
		TrueCode:     res.TrueCode,
		ObservedCode: res.Observed,
		RemainingMs:  res.RemainingMs,
		Score:        res.Score,
		NewHighScore: res.NewHighScore,
		CreatedAt:    res.ResolvedAt.UTC(),
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.jobs <- recordJob{round: rd}:
	default:
		log.Warn().Str("round_id", res.RoundID).Msg("round queue full, dropping round")
	}
}

// Flush waits until every round queued before the call has been written.
func (r *RoundRecorder) Flush() {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return
	}
	done := make(chan struct{})
	r.jobs <- recordJob{flushed: done}
	r.mu.RUnlock()
	<-done
}

// Close writes the queued rounds and stops the worker. It is safe to call more than once.
func (r *RoundRecorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *RoundRecorder) work() {
	defer r.wg.Done()
	for j := range r.jobs {
		if j.flushed != nil {
			close(j.flushed)
			continue
		}
		if err := r.repo.Create(j.round); err != nil {
			log.Error().Err(err).Str("round_id", j.round.ID).Msg("record round")
		}
	}
}
