package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/mcoot/blockfall/internal/api/apierr"
	"github.com/mcoot/blockfall/internal/api/response"
	"github.com/mcoot/blockfall/internal/model"
)

// Play handles GET /api/v1/games/{id}/ws. The client sends
// {"command": "..."} messages and receives every event of the game. The
// socket is closed once the game ends.
func (h *GameHandler) Play(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	session, err := h.gameController.Session(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.logger.Warn("websocket accept failed",
			slog.String("game_id", string(id)),
			slog.String("error", err.Error()))
		return
	}
	defer func() { _ = c.Close(websocket.StatusInternalError, "closing") }()

	logger := h.logger.With(slog.String("game_id", string(id)))
	logger.Info("websocket player connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	go func() {
		defer cancel()
		for {
			_, data, err := c.Read(ctx)
			if err != nil {
				return
			}

			cmd, err := decodeCommand(bytes.NewReader(data))
			if err == nil {
				err = session.Submit(ctx, cmd)
			}
			if err != nil && !isGameEnded(err) {
				if werr := wsjson.Write(ctx, c, apierr.FromError(err)); werr != nil {
					return
				}
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				logger.Info("websocket game ended")
				_ = c.Close(websocket.StatusNormalClosure, "game ended")
				return
			}
			if err := wsjson.Write(ctx, c, response.EventFromModel(ev)); err != nil {
				logger.Info("websocket write failed", slog.String("error", err.Error()))
				return
			}
		case <-ctx.Done():
			logger.Info("websocket player disconnected")
			_ = c.Close(websocket.StatusNormalClosure, "bye")
			return
		}
	}
}
