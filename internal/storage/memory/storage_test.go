package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/blockfall/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

// Game tests

func (s *StorageSuite) TestSaveAndGetGame() {
	game := &model.Game{
		ID:         "game-1",
		PlayerName: "alice",
		State:      model.GameStatePlaying,
		Width:      10,
		Height:     24,
		Board:      []string{"#  #", "####"},
		Score:      40,
		CreatedAt:  time.Now(),
	}

	err := s.storage.SaveGame(s.ctx, game)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(game.PlayerName, retrieved.PlayerName)
	s.Equal(game.Board, retrieved.Board)
	s.Equal(40, retrieved.Score)
}

func (s *StorageSuite) TestSavedGameIsACopy() {
	game := &model.Game{ID: "game-1", Board: []string{"#  #"}}
	_ = s.storage.SaveGame(s.ctx, game)

	game.Board[0] = "#XX#"
	game.Score = 999

	retrieved, _ := s.storage.GetGame(s.ctx, "game-1")
	s.Equal("#  #", retrieved.Board[0])
	s.Equal(0, retrieved.Score)
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

// Leaderboard tests

func (s *StorageSuite) TestTopScoresRanksAndLimits() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_ = s.storage.SaveScore(s.ctx, &model.ScoreEntry{GameID: "a", Score: 40, CompletedAt: base})
	_ = s.storage.SaveScore(s.ctx, &model.ScoreEntry{GameID: "b", Score: 1200, CompletedAt: base})
	_ = s.storage.SaveScore(s.ctx, &model.ScoreEntry{GameID: "c", Score: 300, CompletedAt: base})

	top, err := s.storage.TopScores(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(top, 2)
	s.Equal(model.GameID("b"), top[0].GameID)
	s.Equal(model.GameID("c"), top[1].GameID)

	all, err := s.storage.TopScores(s.ctx, 0)
	s.Require().NoError(err)
	s.Len(all, 3)
}

func (s *StorageSuite) TestSaveScoreReplacesEntryForSameGame() {
	_ = s.storage.SaveScore(s.ctx, &model.ScoreEntry{GameID: "a", Score: 40})
	_ = s.storage.SaveScore(s.ctx, &model.ScoreEntry{GameID: "a", Score: 100})

	top, err := s.storage.TopScores(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(top, 1)
	s.Equal(100, top[0].Score)
}

func (s *StorageSuite) TestTopScoresEmpty() {
	top, err := s.storage.TopScores(s.ctx, 5)
	s.Require().NoError(err)
	s.Empty(top)
}
