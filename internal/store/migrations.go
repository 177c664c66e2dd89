package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Best score per player and mode
		`CREATE TABLE IF NOT EXISTS high_scores (
			player TEXT NOT NULL,
			mode TEXT NOT NULL,
			score INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (player, mode)
		)`,

		// One row per resolved round
		`CREATE TABLE IF NOT EXISTS rounds (
			id TEXT PRIMARY KEY,
			player TEXT NOT NULL,
			mode TEXT NOT NULL,
			outcome TEXT NOT NULL CHECK(outcome IN ('correct', 'incorrect', 'timed_out')),
			true_code INTEGER NOT NULL,
			observed_code TEXT NOT NULL DEFAULT '',
			remaining_ms INTEGER NOT NULL DEFAULT 0,
			score INTEGER NOT NULL DEFAULT 0,
			new_high_score INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_rounds_player_created ON rounds(player, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_high_scores_mode ON high_scores(mode, score)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
