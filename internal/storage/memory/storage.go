package memory

import (
	"context"
	"sync"

	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	games  map[model.GameID]*model.Game
	scores map[model.GameID]model.ScoreEntry
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		games:  make(map[model.GameID]*model.Game),
		scores: make(map[model.GameID]model.ScoreEntry),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Game operations

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = cloneGame(game)
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return cloneGame(game), nil
}

func (s *Storage) DeleteGame(ctx context.Context, id model.GameID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
	return nil
}

// Leaderboard operations

func (s *Storage) SaveScore(ctx context.Context, entry *model.ScoreEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[entry.GameID] = *entry
	return nil
}

func (s *Storage) TopScores(ctx context.Context, limit int) ([]*model.ScoreEntry, error) {
	s.mu.RLock()
	entries := make([]model.ScoreEntry, 0, len(s.scores))
	for _, e := range s.scores {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

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

func cloneGame(g *model.Game) *model.Game {
	c := *g
	c.Board = append([]string(nil), g.Board...)
	if g.EndedAt != nil {
		ended := *g.EndedAt
		c.EndedAt = &ended
	}
	return &c
}
