package leaderboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/storage"
)

// DefaultLimit is used when a caller asks for a non-positive number of entries
const DefaultLimit = 10

// MaxLimit caps a single page of the leaderboard
const MaxLimit = 100

// Service records finished games and ranks them
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new LeaderboardService
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger.With(slog.String("component", "leaderboard")),
	}
}

// Submit records the result of a finished game
func (s *Service) Submit(ctx context.Context, entry model.ScoreEntry) error {
	if entry.GameID == "" {
		return fmt.Errorf("%w: score entry without game id", model.ErrInvalidArgument)
	}
	if entry.Score < 0 || entry.Lines < 0 {
		return fmt.Errorf("%w: negative score", model.ErrInvalidArgument)
	}

	if err := s.storage.SaveScore(ctx, &entry); err != nil {
		s.logger.Error("failed to save score",
			slog.String("game_id", string(entry.GameID)),
			slog.String("error", err.Error()),
		)
		return err
	}

	s.logger.Info("score submitted",
		slog.String("game_id", string(entry.GameID)),
		slog.String("player_name", entry.PlayerName),
		slog.Int("score", entry.Score),
		slog.Int("lines", entry.Lines),
	)
	return nil
}

// Top returns the n best entries, best first
func (s *Service) Top(ctx context.Context, n int) ([]*model.ScoreEntry, error) {
	if n <= 0 {
		n = DefaultLimit
	}
	n = min(n, MaxLimit)
	return s.storage.TopScores(ctx, n)
}

// Interface for dependency injection
type ServiceInterface interface {
	Submit(ctx context.Context, entry model.ScoreEntry) error
	Top(ctx context.Context, n int) ([]*model.ScoreEntry, error)
}

var _ ServiceInterface = (*Service)(nil)
