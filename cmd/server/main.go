package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcoot/blockfall/internal/api"
	"github.com/mcoot/blockfall/internal/factory"
	"github.com/mcoot/blockfall/internal/services/auth"
	"github.com/mcoot/blockfall/internal/services/game"
	"github.com/mcoot/blockfall/internal/sshserver"
	redisstorage "github.com/mcoot/blockfall/internal/storage/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env file is fine; the environment may already be set
	_ = godotenv.Load()

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := configFromEnv(logger)
	if err != nil {
		return err
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() { _ = app.Close() }()

	router := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		Clock:              app.Clock,
		AuthService:        app.AuthService,
		GameController:     app.GameController,
		LeaderboardService: app.LeaderboardService,
		BotService:         app.BotService,
		HubManager:         app.HubManager,
	})

	serverConfig := api.DefaultServerConfig()
	if addr := os.Getenv("BLOCKFALL_ADDR"); addr != "" {
		serverConfig.Addr = addr
	}
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		errCh <- server.Start()
	}()

	var sshServer *sshserver.Server
	if addr := os.Getenv("BLOCKFALL_SSH_ADDR"); addr != "" {
		sshServer, err = sshserver.New(sshserver.Config{
			Addr:        addr,
			HostKeyPath: os.Getenv("BLOCKFALL_SSH_HOST_KEY"),
		}, app.GameController, logger)
		if err != nil {
			return err
		}
		go func() {
			errCh <- sshServer.ListenAndServe(ctx)
		}()
	}

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	var serveErr error
	select {
	case serveErr = <-errCh:
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Ending the games first closes their event streams and sockets
	errs := []error{serveErr, app.GameController.Shutdown(shutdownCtx)}
	errs = append(errs, server.Shutdown(shutdownCtx))
	if sshServer != nil {
		errs = append(errs, sshServer.Shutdown(shutdownCtx))
	}

	logger.Info("server stopped")
	return errors.Join(errs...)
}

func configFromEnv(logger *slog.Logger) (factory.Config, error) {
	cfg := factory.Config{
		Logger:        logger,
		StorageType:   os.Getenv("STORAGE_TYPE"),
		SQLitePath:    os.Getenv("SQLITE_PATH"),
		BotScriptPath: os.Getenv("BLOCKFALL_BOT_SCRIPT"),
		AuthConfig:    auth.DefaultConfig(),
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			return cfg, errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	if secret := os.Getenv("BLOCKFALL_JWT_SECRET"); secret != "" {
		cfg.AuthConfig.Secret = []byte(secret)
	} else {
		logger.Warn("BLOCKFALL_JWT_SECRET not set, tokens will not survive a restart")
	}

	if v := os.Getenv("BLOCKFALL_TICK"); v != "" {
		tick, err := time.ParseDuration(v)
		if err != nil || tick <= 0 {
			return cfg, fmt.Errorf("invalid BLOCKFALL_TICK %q", v)
		}
		cfg.TickInterval = tick
	}

	cfg.Game = game.DefaultConfig()
	var err error
	if cfg.Game.Width, err = intFromEnv("BLOCKFALL_BOARD_WIDTH", cfg.Game.Width); err != nil {
		return cfg, err
	}
	if cfg.Game.Height, err = intFromEnv("BLOCKFALL_BOARD_HEIGHT", cfg.Game.Height); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func intFromEnv(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
