// Package redisstore keeps high scores and per-mode leaderboards in Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/drivethru/internal/game"
	"github.com/ayusman/drivethru/internal/store"
)

// opTimeout bounds every Redis call made from the round logic.
const opTimeout = 2 * time.Second

// raiseScript sets the player's high score, its update time and leaderboard
// entry only when the new score beats the stored one. It returns 1 when it did.
var raiseScript = redis.NewScript(`
local cur = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
local score = tonumber(ARGV[2])
if score <= cur then
	return 0
end
redis.call('HSET', KEYS[1], ARGV[1], score)
redis.call('HSET', KEYS[3], ARGV[1], ARGV[4])
redis.call('ZADD', KEYS[2], score, ARGV[3])
return 1
`)

// Options configures the connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Store is a game.ScoreStore for one player.
type Store struct {
	client *redis.Client
	player string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, opts Options, player string) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}

	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("redis score store connected")
	return &Store{client: client, player: player}, nil
}

func highScoresKey(player string) string {
	return "drivethru:highscores:" + player
}

func updatedKey(player string) string {
	return "drivethru:highscores:" + player + ":updated"
}

func leaderboardKey(mode game.Mode) string {
	return "drivethru:leaderboard:" + mode.String()
}

// HighScore returns the player's best score in mode, or 0 on any failure.
func (s *Store) HighScore(mode game.Mode) int {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	score, err := s.client.HGet(ctx, highScoresKey(s.player), mode.String()).Int()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Error().Err(err).Str("mode", mode.String()).Msg("load high score")
		}
		return 0
	}
	return score
}

// ReportScore records score if it beats the player's best and reports whether it did.
func (s *Store) ReportScore(mode game.Mode, score int) bool {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	keys := []string{highScoresKey(s.player), leaderboardKey(mode), updatedKey(s.player)}
	now := time.Now().UTC().UnixMilli()
	raised, err := raiseScript.Run(ctx, s.client, keys, mode.String(), score, s.player, now).Int()
	if err != nil {
		log.Error().Err(err).Str("mode", mode.String()).Int("score", score).Msg("report high score")
		return false
	}
	return raised == 1
}

// ListHighScores returns every high score of player, best first.
func (s *Store) ListHighScores(ctx context.Context, player string) ([]*store.HighScore, error) {
	fields, err := s.client.HGetAll(ctx, highScoresKey(player)).Result()
	if err != nil {
		return nil, fmt.Errorf("read high scores: %w", err)
	}
	updated, err := s.client.HGetAll(ctx, updatedKey(player)).Result()
	if err != nil {
		return nil, fmt.Errorf("read high score times: %w", err)
	}

	scores := make([]*store.HighScore, 0, len(fields))
	for mode, v := range fields {
		score, err := strconv.Atoi(v)
		if err != nil {
			log.Warn().Str("player", player).Str("mode", mode).Str("value", v).Msg("skipping malformed high score")
			continue
		}
		h := &store.HighScore{Player: player, Mode: game.ParseMode(mode), Score: score}
		if ms, err := strconv.ParseInt(updated[mode], 10, 64); err == nil {
			h.UpdatedAt = time.UnixMilli(ms).UTC()
		}
		scores = append(scores, h)
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Mode.String() < scores[j].Mode.String()
	})
	return scores, nil
}

// Leaderboard returns the top n players of mode.
func (s *Store) Leaderboard(ctx context.Context, mode game.Mode, n int) ([]store.LeaderboardEntry, error) {
	if n <= 0 {
		n = store.DefaultLeaderboardSize
	}

	rows, err := s.client.ZRevRangeWithScores(ctx, leaderboardKey(mode), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}

	entries := make([]store.LeaderboardEntry, 0, len(rows))
	for _, z := range rows {
		player, _ := z.Member.(string)
		entries = append(entries, store.LeaderboardEntry{Player: player, Score: int(z.Score)})
	}
	return entries, nil
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.client.Close()
}
