package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/drivethru/internal/game"
	"github.com/ayusman/drivethru/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestScoresHandler(t *testing.T) {
	s := newTestStore(t)
	s.HighScores().Put("ana", game.Default, 6)
	s.HighScores().Put("bo", game.Default, 2)
	handler := NewScoresHandler(store.NewScoreKeeper(s, "ana"), "ana")

	t.Run("lists configured player", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scores", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		var resp struct {
			Player string `json:"player"`
			Scores []struct {
				Mode  string `json:"mode"`
				Score int    `json:"score"`
			} `json:"scores"`
		}
		json.NewDecoder(rec.Body).Decode(&resp)
		if resp.Player != "ana" || len(resp.Scores) != 1 || resp.Scores[0].Score != 6 || resp.Scores[0].Mode != "default" {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("player query overrides", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scores?player=bo", nil))

		var resp scoresResponse
		json.NewDecoder(rec.Body).Decode(&resp)
		if resp.Player != "bo" || len(resp.Scores) != 1 || resp.Scores[0].Score != 2 {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("unknown player gets empty list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scores?player=cy", nil))
		if got := rec.Body.String(); got != "{\"player\":\"cy\",\"scores\":[]}\n" {
			t.Errorf("unexpected body %q", got)
		}
	})

	t.Run("POST not allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scores", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}

// failingScoreboard fails every read.
type failingScoreboard struct{}

func (failingScoreboard) ListHighScores(ctx context.Context, player string) ([]*store.HighScore, error) {
	return nil, errors.New("redis down")
}

func (failingScoreboard) Leaderboard(ctx context.Context, mode game.Mode, n int) ([]store.LeaderboardEntry, error) {
	return nil, errors.New("redis down")
}

func TestScoresHandler_BackendFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	NewScoresHandler(failingScoreboard{}, "ana").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scores", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}
}

func TestLeaderboardHandler(t *testing.T) {
	s := newTestStore(t)
	s.HighScores().Put("ana", game.Reverse, 4)
	s.HighScores().Put("bo", game.Reverse, 7)
	s.HighScores().Put("cy", game.Reverse, 1)
	s.HighScores().Put("bo", game.Default, 30)
	handler := NewLeaderboardHandler(store.NewScoreKeeper(s, "ana"))

	tests := []struct {
		name    string
		query   string
		status  int
		players []string
	}{
		{"mode filter", "?mode=reverse", http.StatusOK, []string{"bo", "ana", "cy"}},
		{"limit", "?mode=reverse&limit=2", http.StatusOK, []string{"bo", "ana"}},
		{"missing mode uses default", "", http.StatusOK, []string{"bo"}},
		{"empty mode", "?mode=speedrun", http.StatusOK, []string{}},
		{"invalid limit", "?limit=lots", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard"+tt.query, nil))

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
			if tt.status != http.StatusOK {
				return
			}
			var resp leaderboardResponse
			json.NewDecoder(rec.Body).Decode(&resp)
			if resp.Entries == nil || len(resp.Entries) != len(tt.players) {
				t.Fatalf("expected %d entries, got %+v", len(tt.players), resp.Entries)
			}
			for i, p := range tt.players {
				if resp.Entries[i].Player != p {
					t.Errorf("entry %d = %s, want %s", i, resp.Entries[i].Player, p)
				}
			}
		})
	}

	t.Run("backend failure", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewLeaderboardHandler(failingScoreboard{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
		}
	})
}

func TestRoundsHandler(t *testing.T) {
	s := newTestStore(t)
	rec := store.NewRoundRecorder(s, "ana")
	for i, outcome := range []game.Outcome{game.Correct, game.Correct, game.Incorrect} {
		rec.Resolved(game.Resolution{RoundID: string(rune('a' + i)), Outcome: outcome, Score: i})
	}
	rec.Close()
	handler := NewRoundsHandler(s, "ana")

	tests := []struct {
		name   string
		query  string
		status int
		count  int
	}{
		{"default limit", "", http.StatusOK, 3},
		{"explicit limit", "?limit=2", http.StatusOK, 2},
		{"invalid limit", "?limit=zero", http.StatusBadRequest, 0},
		{"negative limit", "?limit=-1", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/rounds"+tt.query, nil))

			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, w.Code)
			}
			if tt.status != http.StatusOK {
				return
			}
			var resp roundsResponse
			json.NewDecoder(w.Body).Decode(&resp)
			if len(resp.Rounds) != tt.count {
				t.Errorf("expected %d rounds, got %d", tt.count, len(resp.Rounds))
			}
		})
	}
}
