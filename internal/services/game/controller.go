package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mcoot/blockfall/internal/dependencies/clock"
	"github.com/mcoot/blockfall/internal/dependencies/random"
	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/services/leaderboard"
	"github.com/mcoot/blockfall/internal/services/scoring"
	"github.com/mcoot/blockfall/internal/services/shapes"
	"github.com/mcoot/blockfall/internal/storage"
)

const (
	idAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idLength       = 12
	maxPlayerName  = 32
	persistTimeout = 5 * time.Second
)

// Config holds settings shared by every game the controller starts
type Config struct {
	Width  int
	Height int
}

// DefaultConfig returns the standard 10x24 board
func DefaultConfig() Config {
	return Config{Width: DefaultWidth, Height: DefaultHeight}
}

// CreateOptions describes a new game
type CreateOptions struct {
	PlayerName string
	Seed       *uint64 // Random when nil
	Bot        string  // Autoplay strategy; empty for a human player
}

// Autopilot drives a session on behalf of a bot strategy
type Autopilot interface {
	Autoplay(ctx context.Context, session *Session, strategy string) error
}

type liveGame struct {
	session *Session
	cancel  context.CancelFunc

	mu     sync.Mutex
	record *model.Game
}

// Controller starts games, keeps a registry of running sessions and
// persists their progress
type Controller struct {
	storage     storage.Storage
	scoring     *scoring.Service
	leaderboard *leaderboard.Service
	clock       clock.Clock
	random      random.Random
	logger      *slog.Logger
	cfg         Config

	autopilot Autopilot

	mu    sync.RWMutex
	games map[model.GameID]*liveGame
	wg    sync.WaitGroup
}

// NewController creates a new GameController
func NewController(
	storage storage.Storage,
	scoringService *scoring.Service,
	leaderboardService *leaderboard.Service,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
	cfg Config,
) *Controller {
	if cfg.Width == 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height == 0 {
		cfg.Height = DefaultHeight
	}
	return &Controller{
		storage:     storage,
		scoring:     scoringService,
		leaderboard: leaderboardService,
		clock:       clock,
		random:      random,
		logger:      logger.With(slog.String("component", "game")),
		cfg:         cfg,
		games:       make(map[model.GameID]*liveGame),
	}
}

// SetAutopilot enables bot games
func (c *Controller) SetAutopilot(a Autopilot) {
	c.autopilot = a
}

// CreateGame starts a new game and returns its record and running session
func (c *Controller) CreateGame(ctx context.Context, opts CreateOptions) (*model.Game, *Session, error) {
	name := strings.TrimSpace(opts.PlayerName)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: player name is required", model.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(name) > maxPlayerName {
		return nil, nil, fmt.Errorf("%w: player name longer than %d characters", model.ErrInvalidArgument, maxPlayerName)
	}
	if opts.Bot != "" {
		if c.autopilot == nil || !model.IsValidBotStrategy(opts.Bot) {
			return nil, nil, fmt.Errorf("%w: %q", model.ErrUnknownStrategy, opts.Bot)
		}
	}

	var seed uint64
	if opts.Seed != nil {
		seed = *opts.Seed
	} else {
		seed = c.random.Seed()
	}

	engine, err := NewEngine(c.cfg.Width, c.cfg.Height, shapes.New(random.NewSeeded(seed)), c.scoring)
	if err != nil {
		return nil, nil, err
	}

	now := c.clock.Now()
	record := &model.Game{
		ID:         model.GameID(c.random.String(idLength, idAlphabet)),
		PlayerName: name,
		Bot:        opts.Bot,
		Seed:       seed,
		Width:      c.cfg.Width,
		Height:     c.cfg.Height,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	record.ApplySnapshot(engine.Snapshot())

	if err := c.storage.SaveGame(ctx, record); err != nil {
		c.logger.Error("failed to save game",
			slog.String("game_id", string(record.ID)),
			slog.String("error", err.Error()),
		)
		return nil, nil, err
	}

	live := &liveGame{record: record}
	live.session = NewSession(record.ID, engine, c.clock, c.scoring, c.logger, Hooks{
		OnLock:   func(snap model.Snapshot) { c.persist(live, snap) },
		OnFinish: func(snap model.Snapshot) { c.finish(live, snap) },
	})

	// Sessions outlive the request that created them
	runCtx, cancel := context.WithCancel(context.Background())
	live.cancel = cancel

	c.mu.Lock()
	c.games[record.ID] = live
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		if err := live.session.Run(runCtx); err != nil {
			c.logger.Error("session failed",
				slog.String("game_id", string(record.ID)),
				slog.String("error", err.Error()),
			)
		}
		c.mu.Lock()
		delete(c.games, record.ID)
		c.mu.Unlock()
	}()

	if opts.Bot != "" {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := c.autopilot.Autoplay(runCtx, live.session, opts.Bot); err != nil {
				c.logger.Warn("autoplay stopped",
					slog.String("game_id", string(record.ID)),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	c.logger.Info("game created",
		slog.String("game_id", string(record.ID)),
		slog.String("player_name", name),
		slog.String("bot", opts.Bot),
		slog.Int("width", c.cfg.Width),
		slog.Int("height", c.cfg.Height),
	)

	return live.snapshotRecord(), live.session, nil
}

// GetGame returns a game, live state for running games and the stored record otherwise
func (c *Controller) GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	if live, ok := c.live(gameID); ok {
		return live.currentRecord(), nil
	}
	return c.storage.GetGame(ctx, gameID)
}

// GetSnapshot returns the full state of a running game
func (c *Controller) GetSnapshot(ctx context.Context, gameID model.GameID) (model.Snapshot, error) {
	live, err := c.running(ctx, gameID)
	if err != nil {
		return model.Snapshot{}, err
	}
	return live.session.Snapshot(), nil
}

// Session returns the running session for a game
func (c *Controller) Session(ctx context.Context, gameID model.GameID) (*Session, error) {
	live, err := c.running(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return live.session, nil
}

// SendCommand applies a command to a running game and returns its outcome
func (c *Controller) SendCommand(ctx context.Context, gameID model.GameID, cmd model.Command) (Outcome, model.Snapshot, error) {
	live, err := c.running(ctx, gameID)
	if err != nil {
		return Outcome{}, model.Snapshot{}, err
	}

	out, err := live.session.Send(ctx, cmd)
	if err != nil {
		return Outcome{}, model.Snapshot{}, err
	}
	return out, live.session.Snapshot(), nil
}

// Subscribe streams events from a running game
func (c *Controller) Subscribe(ctx context.Context, gameID model.GameID) (<-chan model.Event, func(), error) {
	live, err := c.running(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	events, unsubscribe := live.session.Subscribe()
	return events, unsubscribe, nil
}

// AbandonGame stops a running game. Finished games are left untouched.
func (c *Controller) AbandonGame(ctx context.Context, gameID model.GameID) error {
	live, ok := c.live(gameID)
	if !ok {
		return c.abandonStored(ctx, gameID)
	}

	live.cancel()
	select {
	case <-live.session.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListActive returns the IDs of running games in sorted order
func (c *Controller) ListActive() []model.GameID {
	c.mu.RLock()
	ids := make([]model.GameID, 0, len(c.games))
	for id := range c.games {
		ids = append(ids, id)
	}
	c.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Shutdown abandons every running game and waits for their sessions to stop
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.RLock()
	for _, live := range c.games {
		live.cancel()
	}
	c.mu.RUnlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) live(gameID model.GameID) (*liveGame, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	live, ok := c.games[gameID]
	return live, ok
}

// running returns a live game, or the reason it cannot accept commands
func (c *Controller) running(ctx context.Context, gameID model.GameID) (*liveGame, error) {
	if live, ok := c.live(gameID); ok {
		select {
		case <-live.session.Done():
			// Ended but not yet removed from the registry
			return nil, live.session.finishedErr()
		default:
			return live, nil
		}
	}

	game, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	switch game.State {
	case model.GameStateAbandoned:
		return nil, model.ErrGameAbandoned
	case model.GameStateOver:
		return nil, model.ErrGameOver
	default:
		// Stored as playing but no session: the server restarted mid-game
		return nil, model.ErrGameAbandoned
	}
}

func (c *Controller) abandonStored(ctx context.Context, gameID model.GameID) error {
	game, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.State.IsFinished() {
		return nil // Already finished
	}

	now := c.clock.Now()
	game.State = model.GameStateAbandoned
	game.UpdatedAt = now
	game.EndedAt = &now

	c.logger.Info("game abandoned", slog.String("game_id", string(gameID)))
	return c.storage.SaveGame(ctx, game)
}

// persist runs on the session goroutine after each lock
func (c *Controller) persist(live *liveGame, snap model.Snapshot) {
	record := live.update(snap, c.clock.Now(), false)

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := c.storage.SaveGame(ctx, record); err != nil {
		c.logger.Error("failed to save game",
			slog.String("game_id", string(record.ID)),
			slog.String("error", err.Error()),
		)
	}
}

// finish runs on the session goroutine once the game ends
func (c *Controller) finish(live *liveGame, snap model.Snapshot) {
	now := c.clock.Now()
	record := live.update(snap, now, true)

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := c.storage.SaveGame(ctx, record); err != nil {
		c.logger.Error("failed to save game",
			slog.String("game_id", string(record.ID)),
			slog.String("error", err.Error()),
		)
	}

	if snap.State != model.GameStateOver {
		c.logger.Info("game abandoned", slog.String("game_id", string(record.ID)))
		return
	}

	err := c.leaderboard.Submit(ctx, model.ScoreEntry{
		GameID:      record.ID,
		PlayerName:  record.PlayerName,
		Score:       snap.Score,
		Lines:       snap.Lines,
		Level:       snap.Level,
		CompletedAt: now,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("failed to submit score",
			slog.String("game_id", string(record.ID)),
			slog.String("error", err.Error()),
		)
	}
}

// update applies a snapshot to the record and returns a copy safe to hand out
func (l *liveGame) update(snap model.Snapshot, now time.Time, ended bool) *model.Game {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record.ApplySnapshot(snap)
	l.record.UpdatedAt = now
	if ended {
		l.record.EndedAt = &now
	}
	return l.copyLocked()
}

// currentRecord returns the record with the session's latest state applied
func (l *liveGame) currentRecord() *model.Game {
	snap := l.session.Snapshot()
	l.mu.Lock()
	defer l.mu.Unlock()
	record := l.copyLocked()
	record.ApplySnapshot(snap)
	return record
}

func (l *liveGame) snapshotRecord() *model.Game {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyLocked()
}

func (l *liveGame) copyLocked() *model.Game {
	record := *l.record
	record.Board = append([]string(nil), l.record.Board...)
	if l.record.EndedAt != nil {
		ended := *l.record.EndedAt
		record.EndedAt = &ended
	}
	return &record
}

// Interface for dependency injection
type ControllerInterface interface {
	CreateGame(ctx context.Context, opts CreateOptions) (*model.Game, *Session, error)
	GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error)
	GetSnapshot(ctx context.Context, gameID model.GameID) (model.Snapshot, error)
	Session(ctx context.Context, gameID model.GameID) (*Session, error)
	SendCommand(ctx context.Context, gameID model.GameID, cmd model.Command) (Outcome, model.Snapshot, error)
	Subscribe(ctx context.Context, gameID model.GameID) (<-chan model.Event, func(), error)
	AbandonGame(ctx context.Context, gameID model.GameID) error
	ListActive() []model.GameID
}

var _ ControllerInterface = (*Controller)(nil)
