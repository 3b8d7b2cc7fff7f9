package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mcoot/blockfall/internal/api/sse"
	"github.com/mcoot/blockfall/internal/dependencies/clock"
	"github.com/mcoot/blockfall/internal/dependencies/random"
	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/services/auth"
	"github.com/mcoot/blockfall/internal/services/bot"
	"github.com/mcoot/blockfall/internal/services/game"
	"github.com/mcoot/blockfall/internal/services/leaderboard"
	"github.com/mcoot/blockfall/internal/services/scoring"
	"github.com/mcoot/blockfall/internal/storage"
	"github.com/mcoot/blockfall/internal/storage/memory"
	redisstorage "github.com/mcoot/blockfall/internal/storage/redis"
	"github.com/mcoot/blockfall/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	ScoringService     *scoring.Service
	LeaderboardService *leaderboard.Service
	GameController     *game.Controller
	BotService         *bot.Service
	AuthService        *auth.Service
	HubManager         *sse.HubManager

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
	// AuthConfig holds configuration for game tokens (optional)
	AuthConfig auth.Config
	// Game sets the board size; zero values use the 10x24 default
	Game game.Config
	// TickInterval is the gravity interval at level 1 (optional, default 1s)
	TickInterval time.Duration
	// BotScriptPath is the Lua script used by the "lua" bot (optional)
	// If empty, bot.DefaultLuaScript is used
	BotScriptPath string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, closer, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	app, err := newWithDependencies(store, clock.New(), random.New(), cfg, logger)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, err
	}
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	return app, nil
}

func newStorage(cfg Config) (storage.Storage, io.Closer, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil, nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, nil, err
		}
		return redisStore, redisStore, nil
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		sqliteStore, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sqliteStore, sqliteStore, nil
	default:
		return nil, nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) (*App, error) {
	script := bot.DefaultLuaScript
	if cfg.BotScriptPath != "" {
		b, err := os.ReadFile(cfg.BotScriptPath)
		if err != nil {
			return nil, fmt.Errorf("reading bot script: %w", err)
		}
		script = string(b)
	}
	luaStrategy, err := bot.NewLuaStrategy(model.BotStrategyLua, script)
	if err != nil {
		return nil, err
	}

	authCfg := cfg.AuthConfig
	if authCfg.TokenDuration == 0 {
		authCfg.TokenDuration = auth.DefaultConfig().TokenDuration
	}

	scoringService := scoring.New(cfg.TickInterval)
	leaderboardService := leaderboard.New(store, logger)
	gameController := game.NewController(store, scoringService, leaderboardService, clk, rnd, logger, cfg.Game)
	botService := bot.NewService(map[string]bot.Strategy{
		model.BotStrategyRandom: bot.NewRandomStrategy(rnd),
		model.BotStrategyLua:    luaStrategy,
	}, logger)
	gameController.SetAutopilot(botService)
	authService := auth.New(clk, authCfg)
	hubManager := sse.NewHubManager(gameController, logger)

	return &App{
		Storage:            store,
		Clock:              clk,
		Random:             rnd,
		ScoringService:     scoringService,
		LeaderboardService: leaderboardService,
		GameController:     gameController,
		BotService:         botService,
		AuthService:        authService,
		HubManager:         hubManager,
	}, nil
}

// Close releases the storage connection. Running games should be shut
// down first.
func (a *App) Close() error {
	a.HubManager.Close()
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
