package storage

import (
	"context"

	"github.com/mcoot/blockfall/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Game operations
	SaveGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	DeleteGame(ctx context.Context, id model.GameID) error

	// Leaderboard operations
	SaveScore(ctx context.Context, entry *model.ScoreEntry) error
	// TopScores returns at most limit entries, best first
	TopScores(ctx context.Context, limit int) ([]*model.ScoreEntry, error)
}
