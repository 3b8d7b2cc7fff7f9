package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventFrame         EventType = "frame"          // State changed and should be redrawn
	EventPieceLocked   EventType = "piece_locked"   // Active piece committed to the board
	EventLinesCleared  EventType = "lines_cleared"  // One or more rows cleared
	EventGameOver      EventType = "game_over"      // Game ended normally
	EventGameAbandoned EventType = "game_abandoned" // Game stopped from outside
)

// Event is published by a running game after each applied command
type Event struct {
	Type      EventType
	Timestamp time.Time
	GameID    GameID
	Snapshot  Snapshot
	Payload   any // Type-specific data
}

// LinesClearedPayload contains data for lines cleared events
type LinesClearedPayload struct {
	Lines  int
	Points int
}

// GameOverPayload contains data for game over events
type GameOverPayload struct {
	Score int
	Lines int
}
