package request

import "github.com/mcoot/blockfall/internal/model"

// CreateGameRequest is the request body for starting a game
type CreateGameRequest struct {
	PlayerName string  `json:"player_name"`
	Seed       *uint64 `json:"seed,omitempty"`
	Bot        string  `json:"bot,omitempty"`
}

// CommandRequest is the request body for sending a command, also used for
// websocket messages
type CommandRequest struct {
	Command model.Command `json:"command"`
}
