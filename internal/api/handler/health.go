package handler

import (
	"net/http"

	"github.com/mcoot/blockfall/internal/api/response"
	"github.com/mcoot/blockfall/internal/services/game"
)

// HealthHandler reports server liveness
type HealthHandler struct {
	gameController *game.Controller
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(gameController *game.Controller) *HealthHandler {
	return &HealthHandler{gameController: gameController}
}

// Health handles GET /api/v1/health
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{
		Status:      "ok",
		ActiveGames: len(h.gameController.ListActive()),
	})
}
