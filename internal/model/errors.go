package model

import "errors"

// Common errors used across the application
var (
	// Engine errors
	ErrInvalidArgument = errors.New("invalid argument")

	// Game errors
	ErrGameNotFound   = errors.New("game not found")
	ErrGameOver       = errors.New("game is over")
	ErrGameAbandoned  = errors.New("game has been abandoned")
	ErrUnknownCommand = errors.New("unknown command")

	// Auth errors
	ErrInvalidToken = errors.New("invalid or expired game token")

	// Bot errors
	ErrUnknownStrategy = errors.New("unknown bot strategy")
	ErrStrategyFailed  = errors.New("bot strategy failed")
)
