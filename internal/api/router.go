package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/blockfall/internal/api/handler"
	"github.com/mcoot/blockfall/internal/api/middleware"
	"github.com/mcoot/blockfall/internal/api/sse"
	"github.com/mcoot/blockfall/internal/dependencies/clock"
	"github.com/mcoot/blockfall/internal/services/auth"
	"github.com/mcoot/blockfall/internal/services/bot"
	"github.com/mcoot/blockfall/internal/services/game"
	"github.com/mcoot/blockfall/internal/services/leaderboard"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger             *slog.Logger
	Clock              clock.Clock
	AuthService        *auth.Service
	GameController     *game.Controller
	LeaderboardService *leaderboard.Service
	BotService         *bot.Service // Optional
	HubManager         *sse.HubManager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	gameHandler := handler.NewGameHandler(cfg.GameController, cfg.AuthService, cfg.HubManager, cfg.Clock, cfg.Logger)
	scoresHandler := handler.NewScoresHandler(cfg.LeaderboardService)
	healthHandler := handler.NewHealthHandler(cfg.GameController)
	var bots handler.StrategyLister
	if cfg.BotService != nil {
		bots = cfg.BotService
	}
	botHandler := handler.NewBotHandler(bots)

	authMiddleware := middleware.GameAuth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Public game routes: anyone may watch
	api.HandleFunc("/games", gameHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}", gameHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/events", gameHandler.Events).Methods(http.MethodGet)

	// Controlling a game requires its token
	owned := api.PathPrefix("/games/{id}").Subrouter()
	owned.Use(authMiddleware)
	owned.HandleFunc("", gameHandler.Abandon).Methods(http.MethodDelete)
	owned.HandleFunc("/commands", gameHandler.Command).Methods(http.MethodPost)
	owned.HandleFunc("/ws", gameHandler.Play).Methods(http.MethodGet)

	api.HandleFunc("/scores", scoresHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/bots", botHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	return r
}
