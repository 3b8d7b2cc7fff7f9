package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/blockfall/internal/api/request"
	"github.com/mcoot/blockfall/internal/api/response"
	"github.com/mcoot/blockfall/internal/api/sse"
	"github.com/mcoot/blockfall/internal/dependencies/clock"
	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/services/auth"
	"github.com/mcoot/blockfall/internal/services/game"
)

// GameHandler handles game endpoints
type GameHandler struct {
	gameController *game.Controller
	authService    *auth.Service
	hubManager     *sse.HubManager
	clock          clock.Clock
	logger         *slog.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(
	gameController *game.Controller,
	authService *auth.Service,
	hubManager *sse.HubManager,
	clock clock.Clock,
	logger *slog.Logger,
) *GameHandler {
	return &GameHandler{
		gameController: gameController,
		authService:    authService,
		hubManager:     hubManager,
		clock:          clock,
		logger:         logger.With(slog.String("component", "api")),
	}
}

// Create handles POST /api/v1/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	// The game outlives the request that started it
	g, session, err := h.gameController.CreateGame(context.WithoutCancel(r.Context()), game.CreateOptions{
		PlayerName: req.PlayerName,
		Seed:       req.Seed,
		Bot:        req.Bot,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	token, err := h.authService.Issue(g.ID, g.PlayerName)
	if err != nil {
		h.logger.Error("failed to issue game token",
			slog.String("game_id", string(g.ID)),
			slog.String("error", err.Error()))
		_ = h.gameController.AbandonGame(context.WithoutCancel(r.Context()), g.ID)
		WriteError(w, NewInternalError())
		return
	}

	response.JSON(w, http.StatusCreated, response.CreateGameResponseFrom(g, token, session.Snapshot()))
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	g, err := h.gameController.GetGame(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.GameResponse{Game: response.GameFromModel(g)}
	if !g.State.IsFinished() {
		// The game may end between the two lookups; the record alone is then returned
		if snap, err := h.gameController.GetSnapshot(r.Context(), id); err == nil {
			live := response.StateFromSnapshot(snap)
			resp.Live = &live
		}
	}

	response.JSON(w, http.StatusOK, resp)
}

// Command handles POST /api/v1/games/{id}/commands
func (h *GameHandler) Command(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	cmd, err := decodeCommand(r.Body)
	if err != nil {
		WriteError(w, err)
		return
	}

	out, snap, err := h.gameController.SendCommand(r.Context(), id, cmd)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.CommandResponse{
		Outcome: response.OutcomeFromModel(out),
		State:   response.StateFromSnapshot(snap),
	})
}

// Abandon handles DELETE /api/v1/games/{id}
func (h *GameHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	if err := h.gameController.AbandonGame(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Events handles GET /api/v1/games/{id}/events, an SSE stream for spectators
func (h *GameHandler) Events(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	snap, err := h.gameController.GetSnapshot(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	hub, err := h.hubManager.GetOrCreateHub(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	initial, err := sse.EncodeEvent(model.Event{
		Type:      model.EventFrame,
		Timestamp: h.clock.Now(),
		GameID:    id,
		Snapshot:  snap,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	sse.ServeSSE(w, r, hub, initial)
}

// decodeCommand reads a CommandRequest. Unknown command names are reported
// as such rather than as a malformed body.
func decodeCommand(body io.Reader) (model.Command, error) {
	var req request.CommandRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, model.ErrUnknownCommand) {
			return 0, err
		}
		return 0, NewInvalidRequestError("invalid request body")
	}
	if !req.Command.Valid() {
		return 0, fmt.Errorf("%w: command is required", model.ErrUnknownCommand)
	}
	return req.Command, nil
}

func isGameEnded(err error) bool {
	return errors.Is(err, model.ErrGameOver) || errors.Is(err, model.ErrGameAbandoned)
}
