package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/blockfall/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.GameTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Game tests

func (s *StorageSuite) TestSaveAndGetGame() {
	ended := time.Date(2024, 1, 1, 12, 5, 0, 0, time.UTC)
	game := &model.Game{
		ID:         "game-1",
		PlayerName: "alice",
		Seed:       42,
		State:      model.GameStateOver,
		Width:      4,
		Height:     2,
		Board:      []string{"#GG#", "####"},
		Score:      1200,
		Lines:      4,
		Level:      1,
		Pieces:     8,
		CreatedAt:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		EndedAt:    &ended,
	}

	err := s.storage.SaveGame(s.ctx, game)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(game.Board, retrieved.Board)
	s.Equal(uint64(42), retrieved.Seed)
	s.Equal(model.GameStateOver, retrieved.State)
	s.Require().NotNil(retrieved.EndedAt)
	s.True(ended.Equal(*retrieved.EndedAt))
}

func (s *StorageSuite) TestGetGameNotFound() {
	_, err := s.storage.GetGame(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *StorageSuite) TestDeleteGame() {
	_ = s.storage.SaveGame(s.ctx, &model.Game{ID: "game-1"})

	err := s.storage.DeleteGame(s.ctx, "game-1")
	s.Require().NoError(err)

	_, err = s.storage.GetGame(s.ctx, "game-1")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *StorageSuite) TestGameTTL() {
	_ = s.storage.SaveGame(s.ctx, &model.Game{ID: "game-1"})

	s.True(s.mini.TTL(gameKey("game-1")) > 0, "Game should have TTL")

	s.mini.FastForward(2 * time.Hour)
	_, err := s.storage.GetGame(s.ctx, "game-1")
	s.ErrorIs(err, model.ErrGameNotFound)
}

// Leaderboard tests

func (s *StorageSuite) TestTopScoresRanksAndLimits() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.storage.SaveScore(s.ctx, &model.ScoreEntry{GameID: "a", PlayerName: "ann", Score: 40, CompletedAt: base})
	_ = s.storage.SaveScore(s.ctx, &model.ScoreEntry{GameID: "b", PlayerName: "bob", Score: 1200, CompletedAt: base})
	_ = s.storage.SaveScore(s.ctx, &model.ScoreEntry{GameID: "c", PlayerName: "cat", Score: 300, CompletedAt: base})

	top, err := s.storage.TopScores(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(top, 2)
	s.Equal(model.GameID("b"), top[0].GameID)
	s.Equal("bob", top[0].PlayerName)
	s.Equal(model.GameID("c"), top[1].GameID)

	all, err := s.storage.TopScores(s.ctx, 0)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *StorageSuite) TestTopScoresBreaksTiesAtCutoff() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.storage.SaveScore(s.ctx, &model.ScoreEntry{GameID: "first", Score: 100, Lines: 2, CompletedAt: base.Add(time.Hour)})
	_ = s.storage.SaveScore(s.ctx, &model.ScoreEntry{GameID: "second", Score: 100, Lines: 2, CompletedAt: base})
	_ = s.storage.SaveScore(s.ctx, &model.ScoreEntry{GameID: "third", Score: 100, Lines: 3, CompletedAt: base.Add(2 * time.Hour)})

	top, err := s.storage.TopScores(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(top, 1)
	s.Equal(model.GameID("third"), top[0].GameID)

	top, err = s.storage.TopScores(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(top, 2)
	s.Equal(model.GameID("second"), top[1].GameID)
}

func (s *StorageSuite) TestTopScoresEmpty() {
	top, err := s.storage.TopScores(s.ctx, 5)
	s.Require().NoError(err)
	s.Empty(top)
}
