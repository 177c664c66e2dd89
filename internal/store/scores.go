package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ayusman/drivethru/internal/game"
)

// HighScore is the best run of one player in one mode.
type HighScore struct {
	Player    string    `json:"player"`
	Mode      game.Mode `json:"mode"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HighScoreRepository reads and writes high scores.
type HighScoreRepository struct {
	db *sql.DB
}

// HighScores returns the high score repository for this store.
func (s *Store) HighScores() *HighScoreRepository {
	return &HighScoreRepository{db: s.db}
}

// Get returns the high score of player in mode, or ErrNotFound.
func (r *HighScoreRepository) Get(player string, mode game.Mode) (*HighScore, error) {
	h := &HighScore{Player: player, Mode: mode}

	err := r.db.QueryRow(
		`SELECT score, updated_at FROM high_scores WHERE player = ? AND mode = ?`,
		player, mode.String(),
	).Scan(&h.Score, &h.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return h, nil
}

// Put stores score as the high score of player in mode, replacing any previous value.
func (r *HighScoreRepository) Put(player string, mode game.Mode, score int) error {
	_, err := r.db.Exec(
		`INSERT INTO high_scores (player, mode, score, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(player, mode) DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at`,
		player, mode.String(), score, time.Now().UTC(),
	)
	return err
}

// Raise stores score only if it beats the stored high score and reports
// whether it did.
func (r *HighScoreRepository) Raise(player string, mode game.Mode, score int) (bool, error) {
	result, err := r.db.Exec(
		`INSERT INTO high_scores (player, mode, score, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(player, mode) DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at
		 WHERE excluded.score > high_scores.score`,
		player, mode.String(), score, time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// List returns every high score of player, best first.
func (r *HighScoreRepository) List(player string) ([]*HighScore, error) {
	rows, err := r.db.Query(
		`SELECT player, mode, score, updated_at FROM high_scores
		 WHERE player = ? ORDER BY score DESC, mode`,
		player,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []*HighScore
	for rows.Next() {
		h := &HighScore{}
		var mode string

		if err := rows.Scan(&h.Player, &mode, &h.Score, &h.UpdatedAt); err != nil {
			return nil, err
		}

		h.Mode = game.ParseMode(mode)
		scores = append(scores, h)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return scores, nil
}

// LeaderboardEntry is one player's best score in a mode.
type LeaderboardEntry struct {
	Player string `json:"player"`
	Score  int    `json:"score"`
}

// Leaderboard returns the best n players of mode, best first.
func (r *HighScoreRepository) Leaderboard(mode game.Mode, n int) ([]LeaderboardEntry, error) {
	rows, err := r.db.Query(
		`SELECT player, score FROM high_scores
		 WHERE mode = ? ORDER BY score DESC, updated_at LIMIT ?`,
		mode.String(), n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Player, &e.Score); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
