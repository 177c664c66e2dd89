package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ayusman/drivethru/internal/game"
	"github.com/ayusman/drivethru/internal/store"
)

// Scoreboard lists stored high scores. Both the SQLite and Redis score
// backends implement it.
type Scoreboard interface {
	ListHighScores(ctx context.Context, player string) ([]*store.HighScore, error)
	Leaderboard(ctx context.Context, mode game.Mode, n int) ([]store.LeaderboardEntry, error)
}

// ScoresHandler serves GET /api/scores.
type ScoresHandler struct {
	board  Scoreboard
	player string
}

// NewScoresHandler creates a ScoresHandler listing player's high scores.
func NewScoresHandler(b Scoreboard, player string) *ScoresHandler {
	return &ScoresHandler{board: b, player: player}
}

type scoresResponse struct {
	Player string             `json:"player"`
	Scores []*store.HighScore `json:"scores"`
}

func (h *ScoresHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	player := r.URL.Query().Get("player")
	if player == "" {
		player = h.player
	}

	scores, err := h.board.ListHighScores(r.Context(), player)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list scores")
		return
	}
	if scores == nil {
		scores = []*store.HighScore{}
	}

	writeJSON(w, http.StatusOK, scoresResponse{Player: player, Scores: scores})
}

// LeaderboardHandler serves GET /api/leaderboard.
type LeaderboardHandler struct {
	board Scoreboard
}

// NewLeaderboardHandler creates a LeaderboardHandler.
func NewLeaderboardHandler(b Scoreboard) *LeaderboardHandler {
	return &LeaderboardHandler{board: b}
}

type leaderboardResponse struct {
	Mode    game.Mode                `json:"mode"`
	Entries []store.LeaderboardEntry `json:"entries"`
}

// maxLeaderboard caps the limit query parameter.
const maxLeaderboard = 100

func (h *LeaderboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit, ok := parseLimit(w, r, store.DefaultLeaderboardSize, maxLeaderboard)
	if !ok {
		return
	}
	mode := game.ParseMode(r.URL.Query().Get("mode"))

	entries, err := h.board.Leaderboard(r.Context(), mode, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load leaderboard")
		return
	}
	if entries == nil {
		entries = []store.LeaderboardEntry{}
	}

	writeJSON(w, http.StatusOK, leaderboardResponse{Mode: mode, Entries: entries})
}

// parseLimit reads the limit query parameter. It writes a 400 and reports
// false when the value is not a positive integer.
func parseLimit(w http.ResponseWriter, r *http.Request, def, ceiling int) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid limit")
		return 0, false
	}
	return min(n, ceiling), true
}

// RoundsHandler serves GET /api/rounds.
type RoundsHandler struct {
	store  *store.Store
	player string
}

// NewRoundsHandler creates a RoundsHandler listing player's recent rounds.
func NewRoundsHandler(s *store.Store, player string) *RoundsHandler {
	return &RoundsHandler{store: s, player: player}
}

type roundsResponse struct {
	Rounds []*store.Round `json:"rounds"`
}

// maxRounds caps the limit query parameter.
const maxRounds = 200

func (h *RoundsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit, ok := parseLimit(w, r, 20, maxRounds)
	if !ok {
		return
	}

	rounds, err := h.store.Rounds().ListRecent(h.player, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rounds")
		return
	}
	if rounds == nil {
		rounds = []*store.Round{}
	}

	writeJSON(w, http.StatusOK, roundsResponse{Rounds: rounds})
}
