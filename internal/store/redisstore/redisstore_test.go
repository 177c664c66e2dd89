package redisstore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/ayusman/drivethru/internal/game"
)

// newTestStore connects to REDIS_ADDR with a unique player so runs do not collide.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	player := "test-" + uuid.NewString()
	s, err := New(context.Background(), Options{Addr: addr}, player)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		ctx := context.Background()
		s.client.Del(ctx, highScoresKey(player), updatedKey(player))
		for _, m := range game.Modes() {
			s.client.ZRem(ctx, leaderboardKey(m), player)
		}
		s.Close()
	})
	return s
}

func TestStore_ScoreStore(t *testing.T) {
	s := newTestStore(t)

	var _ game.ScoreStore = s

	if got := s.HighScore(game.Default); got != 0 {
		t.Errorf("HighScore() = %d, want 0", got)
	}
	if !s.ReportScore(game.Default, 5) {
		t.Error("first report should raise the high score")
	}
	if s.ReportScore(game.Default, 5) {
		t.Error("equal score should not raise the high score")
	}
	if s.ReportScore(game.Default, 2) {
		t.Error("lower score should not raise the high score")
	}
	if got := s.HighScore(game.Default); got != 5 {
		t.Errorf("HighScore() = %d, want 5", got)
	}
	if got := s.HighScore(game.Reverse); got != 0 {
		t.Errorf("HighScore(reverse) = %d, want 0", got)
	}
}

func TestStore_Leaderboard(t *testing.T) {
	s := newTestStore(t)
	s.ReportScore(game.Speedrun, 7)

	entries, err := s.Leaderboard(context.Background(), game.Speedrun, 1000)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}

	found := false
	for _, e := range entries {
		if e.Player == s.player {
			found = true
			if e.Score != 7 {
				t.Errorf("leaderboard score = %d, want 7", e.Score)
			}
		}
	}
	if !found {
		t.Error("player missing from leaderboard")
	}
}

func TestStore_ListHighScores(t *testing.T) {
	s := newTestStore(t)
	s.ReportScore(game.Default, 3)
	s.ReportScore(game.Reverse, 8)

	scores, err := s.ListHighScores(context.Background(), s.player)
	if err != nil {
		t.Fatalf("ListHighScores() error = %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("expected 2 scores, got %d", len(scores))
	}
	if scores[0].Mode != game.Reverse || scores[0].Score != 8 || scores[1].Mode != game.Default {
		t.Errorf("unexpected order %+v, %+v", scores[0], scores[1])
	}
	if scores[0].Player != s.player || scores[0].UpdatedAt.IsZero() {
		t.Errorf("missing player or update time %+v", scores[0])
	}

	none, err := s.ListHighScores(context.Background(), "nobody-"+s.player)
	if err != nil || len(none) != 0 {
		t.Errorf("ListHighScores(unknown) = %v, %v", none, err)
	}
}

func TestKeys(t *testing.T) {
	if got := highScoresKey("ana"); got != "drivethru:highscores:ana" {
		t.Errorf("highScoresKey() = %q", got)
	}
	if got := updatedKey("ana"); got != "drivethru:highscores:ana:updated" {
		t.Errorf("updatedKey() = %q", got)
	}
	if got := leaderboardKey(game.DoubleTrouble); got != "drivethru:leaderboard:double_trouble" {
		t.Errorf("leaderboardKey() = %q", got)
	}
}

func TestNew_Unreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("dials the network")
	}
	_, err := New(context.Background(), Options{Addr: "127.0.0.1:1"}, "ana")
	if err == nil {
		t.Error("expected connection error")
	}
}
