package store

import (
	"database/sql"
	"time"

	"github.com/ayusman/drivethru/internal/game"
)

// Round is one resolved round as stored in the history.
type Round struct {
	ID           string    `json:"id"`
	Player       string    `json:"player"`
	Mode         game.Mode `json:"mode"`
	Outcome      string    `json:"outcome"`
	TrueCode     int       `json:"true_code"`
	ObservedCode string    `json:"observed_code"`
	RemainingMs  int64     `json:"remaining_ms"`
	Score        int       `json:"score"`
	NewHighScore bool      `json:"new_high_score"`
	CreatedAt    time.Time `json:"created_at"`
}

// RoundRepository stores the round history.
type RoundRepository struct {
	db *sql.DB
}

// Rounds returns the round repository for this store.
func (s *Store) Rounds() *RoundRepository {
	return &RoundRepository{db: s.db}
}

// Create inserts a round. A zero CreatedAt is set to now.
func (r *RoundRepository) Create(rd *Round) error {
	if rd.CreatedAt.IsZero() {
		rd.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(
		`INSERT INTO rounds (id, player, mode, outcome, true_code, observed_code,
		   remaining_ms, score, new_high_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rd.ID, rd.Player, rd.Mode.String(), rd.Outcome, rd.TrueCode, rd.ObservedCode,
		rd.RemainingMs, rd.Score, rd.NewHighScore, rd.CreatedAt,
	)
	return err
}

// ListRecent returns up to limit rounds of player, newest first.
func (r *RoundRepository) ListRecent(player string, limit int) ([]*Round, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(
		`SELECT id, player, mode, outcome, true_code, observed_code, remaining_ms,
		   score, new_high_score, created_at
		 FROM rounds WHERE player = ? ORDER BY created_at DESC LIMIT ?`,
		player, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []*Round
	for rows.Next() {
		rd := &Round{}
		var mode string

		err := rows.Scan(&rd.ID, &rd.Player, &mode, &rd.Outcome, &rd.TrueCode, &rd.ObservedCode,
			&rd.RemainingMs, &rd.Score, &rd.NewHighScore, &rd.CreatedAt)
		if err != nil {
			return nil, err
		}

		rd.Mode = game.ParseMode(mode)
		rounds = append(rounds, rd)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rounds, nil
}
