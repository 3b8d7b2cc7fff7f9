package handler

import (
	"net/http"

	"github.com/mcoot/blockfall/internal/api/response"
)

// StrategyLister names the bot strategies games can be started with
type StrategyLister interface {
	Strategies() []string
}

// BotHandler lists bot strategies
type BotHandler struct {
	bots StrategyLister
}

// NewBotHandler creates a new bot handler. A nil lister means bots are disabled.
func NewBotHandler(bots StrategyLister) *BotHandler {
	return &BotHandler{bots: bots}
}

// List handles GET /api/v1/bots
func (h *BotHandler) List(w http.ResponseWriter, _ *http.Request) {
	strategies := []string{}
	if h.bots != nil {
		strategies = append(strategies, h.bots.Strategies()...)
	}
	response.JSON(w, http.StatusOK, response.Strategies{Strategies: strategies})
}
