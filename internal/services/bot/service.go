package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/services/game"
)

// Service plays games on behalf of bot strategies
type Service struct {
	strategies map[string]Strategy
	logger     *slog.Logger
}

// NewService creates a new bot Service
func NewService(strategies map[string]Strategy, logger *slog.Logger) *Service {
	return &Service{
		strategies: strategies,
		logger:     logger.With(slog.String("component", "bot-service")),
	}
}

// Strategies returns the names of the registered strategies
func (s *Service) Strategies() []string {
	names := make([]string, 0, len(s.strategies))
	for _, name := range model.ValidBotStrategies() {
		if _, ok := s.strategies[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Autoplay steers every new piece of the session to the placement the
// strategy picks. It returns nil once the game ends or ctx is cancelled.
func (s *Service) Autoplay(ctx context.Context, session *game.Session, strategy string) error {
	strat, ok := s.strategies[strategy]
	if !ok {
		return fmt.Errorf("%w: %q", model.ErrUnknownStrategy, strategy)
	}

	logger := s.logger.With(
		slog.String("game_id", string(session.ID())),
		slog.String("strategy", strategy),
	)
	logger.Info("autoplay started")

	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	handled := -1
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok || ev.Snapshot.State.IsFinished() {
				logger.Info("autoplay finished",
					slog.Int("score", ev.Snapshot.Score),
					slog.Int("pieces", ev.Snapshot.Pieces),
				)
				return nil
			}
			if ev.Snapshot.Pieces == handled {
				continue
			}
			handled = ev.Snapshot.Pieces

			err := s.playPiece(ctx, session, strat, logger)
			switch {
			case err == nil:
			case errors.Is(err, model.ErrGameOver), errors.Is(err, model.ErrGameAbandoned), errors.Is(err, context.Canceled):
				return nil
			default:
				return err
			}
		}
	}
}

// playPiece plans and sends the commands for the current piece. It stops
// early if gravity locks the piece first.
func (s *Service) playPiece(ctx context.Context, session *game.Session, strat Strategy, logger *slog.Logger) error {
	snap := session.Snapshot()
	if snap.State.IsFinished() || snap.Active == nil {
		return nil
	}

	placement, err := strat.Choose(ctx, snap)
	if err != nil {
		logger.Warn("strategy failed, dropping in place",
			slog.String("error", err.Error()),
		)
		placement = Placement{Column: snap.Active.Col}
	}

	cmds, err := Plan(snap, placement)
	if err != nil {
		return err
	}

	for _, cmd := range cmds {
		if session.Snapshot().Pieces != snap.Pieces {
			return nil
		}
		out, err := session.Send(ctx, cmd)
		if err != nil {
			return err
		}
		if out.Locked || out.GameOver {
			return nil
		}
	}
	return nil
}

// Interface for dependency injection
type ServiceInterface interface {
	Autoplay(ctx context.Context, session *game.Session, strategy string) error
	Strategies() []string
}

var (
	_ ServiceInterface = (*Service)(nil)
	_ game.Autopilot   = (*Service)(nil)
)
