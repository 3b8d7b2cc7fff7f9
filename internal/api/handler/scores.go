package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/blockfall/internal/api/response"
	"github.com/mcoot/blockfall/internal/services/leaderboard"
)

// ScoresHandler serves the leaderboard
type ScoresHandler struct {
	leaderboard *leaderboard.Service
}

// NewScoresHandler creates a new scores handler
func NewScoresHandler(leaderboard *leaderboard.Service) *ScoresHandler {
	return &ScoresHandler{leaderboard: leaderboard}
}

// List handles GET /api/v1/scores?limit=N
func (h *ScoresHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := h.leaderboard.Top(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ScoresFromModel(entries))
}
