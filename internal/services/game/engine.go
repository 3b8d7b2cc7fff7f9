package game

import (
	"fmt"

	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/services/scoring"
	"github.com/mcoot/blockfall/internal/services/shapes"
)

// Default board dimensions
const (
	DefaultWidth  = 10
	DefaultHeight = 24
)

// Outcome describes the effect of one applied command
type Outcome struct {
	Command  model.Command
	Moved    bool // The active shape moved or rotated
	Locked   bool // The active shape was placed and a new one spawned
	Cleared  int  // Rows cleared by the lock
	Points   int  // Points awarded for the cleared rows
	GameOver bool
}

// Engine is the single-game state machine. It is not safe for concurrent
// use; Session serializes access to it.
type Engine struct {
	board   *model.Board
	factory shapes.FactoryInterface
	scoring *scoring.Service

	active *model.Shape
	next   *model.Shape

	score    int
	lines    int
	pieces   int
	finished bool
	state    model.GameState
}

// NewEngine creates a game on an empty width x height board and spawns the first piece
func NewEngine(width, height int, factory shapes.FactoryInterface, scoring *scoring.Service) (*Engine, error) {
	board, err := model.NewBoard(width, height)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		board:   board,
		factory: factory,
		scoring: scoring,
		state:   model.GameStatePlaying,
	}
	e.next = e.spawn()
	e.promote()

	if !e.board.Fits(e.active) {
		e.state = model.GameStateOver
	}
	return e, nil
}

// Apply runs one command. An illegal move is rolled back; a blocked
// Down locks the active shape, clears lines and spawns the next piece.
func (e *Engine) Apply(cmd model.Command) (Outcome, error) {
	switch e.state {
	case model.GameStateOver:
		return Outcome{}, model.ErrGameOver
	case model.GameStateAbandoned:
		return Outcome{}, model.ErrGameAbandoned
	}
	if !validCommand(cmd) {
		return Outcome{}, fmt.Errorf("%w: %d", model.ErrUnknownCommand, uint8(cmd))
	}

	out := Outcome{Command: cmd, Moved: cmd != model.CommandFinish}
	e.apply(cmd)

	if !e.board.Fits(e.active) {
		e.invert(cmd)
		out.Moved = false

		if cmd != model.CommandDown {
			return out, nil
		}

		e.board.Place(e.active)
		out.Locked = true
		out.Cleared = e.board.ClearCompletedLines()
		out.Points = e.scoring.Points(out.Cleared)
		e.score += out.Points
		e.lines += out.Cleared
		e.pieces++
		e.promote()
	}

	if e.finished || !e.board.Fits(e.active) {
		e.state = model.GameStateOver
		out.GameOver = true
	}
	return out, nil
}

// Abandon stops a game that is still being played
func (e *Engine) Abandon() {
	if e.state == model.GameStatePlaying {
		e.state = model.GameStateAbandoned
	}
}

// State returns the current game state
func (e *Engine) State() model.GameState {
	return e.state
}

// Level returns the current level
func (e *Engine) Level() int {
	return e.scoring.Level(e.lines)
}

// Snapshot returns an immutable copy of the game
func (e *Engine) Snapshot() model.Snapshot {
	return model.Snapshot{
		Board:  e.board.Tiles(),
		Active: model.ViewOf(e.active),
		Next:   model.ViewOf(e.next),
		Score:  e.score,
		Lines:  e.lines,
		Level:  e.Level(),
		Pieces: e.pieces,
		State:  e.state,
	}
}

func (e *Engine) promote() {
	e.active = e.next
	e.next = e.spawn()
}

func (e *Engine) spawn() *model.Shape {
	return e.factory.Next(0, e.board.Width()/2)
}
