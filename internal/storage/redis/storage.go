package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Game operations

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, gameKey(game.ID), data, s.cfg.GameTTL).Err()
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	data, err := s.client.Get(ctx, gameKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}

	var game model.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *Storage) DeleteGame(ctx context.Context, id model.GameID) error {
	return s.client.Del(ctx, gameKey(id)).Err()
}

// Leaderboard operations

func (s *Storage) SaveScore(ctx context.Context, entry *model.ScoreEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	// Use pipeline for atomic rank + entry update
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, scoresKey(), redis.Z{Score: float64(entry.Score), Member: string(entry.GameID)})
	pipe.HSet(ctx, scoreEntriesKey(), string(entry.GameID), data)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) TopScores(ctx context.Context, limit int) ([]*model.ScoreEntry, error) {
	ids, err := s.candidateIDs(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.ScoreEntry{}, nil
	}

	values, err := s.client.HMGet(ctx, scoreEntriesKey(), ids...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.ScoreEntry, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // Entry missing from the hash
		}
		var entry model.ScoreEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	model.SortScores(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	result := make([]*model.ScoreEntry, len(entries))
	for i := range entries {
		result[i] = &entries[i]
	}
	return result, nil
}

// candidateIDs returns the game IDs that could appear in the top limit.
// The sorted set only orders by points, so every member tied with the
// last place is fetched and the tie is broken after decoding.
func (s *Storage) candidateIDs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return s.client.ZRevRange(ctx, scoresKey(), 0, -1).Result()
	}

	top, err := s.client.ZRevRangeWithScores(ctx, scoresKey(), 0, int64(limit-1)).Result()
	if err != nil || len(top) == 0 {
		return nil, err
	}

	cutoff := top[len(top)-1].Score
	return s.client.ZRevRangeByScore(ctx, scoresKey(), &redis.ZRangeBy{
		Min: strconv.FormatFloat(cutoff, 'f', -1, 64),
		Max: "+inf",
	}).Result()
}
