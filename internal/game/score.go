package game

import "sync"

// ScoreStore keeps the best score per mode. Implementations absorb their own
// storage failures: HighScore reports 0 and ReportScore reports false.
type ScoreStore interface {
	HighScore(mode Mode) int
	// ReportScore records score and reports whether it became the new high score.
	ReportScore(mode Mode, score int) bool
}

// MemoryScores is an in-process ScoreStore.
type MemoryScores struct {
	mu     sync.Mutex
	scores map[Mode]int
}

func NewMemoryScores() *MemoryScores {
	return &MemoryScores{scores: make(map[Mode]int)}
}

func (m *MemoryScores) HighScore(mode Mode) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scores[mode]
}

func (m *MemoryScores) ReportScore(mode Mode, score int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if score <= m.scores[mode] {
		return false
	}
	m.scores[mode] = score
	return true
}
