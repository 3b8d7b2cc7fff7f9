package game

import "github.com/mcoot/blockfall/internal/model"

// apply executes a command against the active shape
func (e *Engine) apply(cmd model.Command) {
	switch cmd {
	case model.CommandLeft:
		e.active.Translate(0, -1)
	case model.CommandRight:
		e.active.Translate(0, 1)
	case model.CommandDown:
		e.active.Translate(1, 0)
	case model.CommandRotate:
		e.active.RotateClockwise()
	case model.CommandFinish:
		e.finished = true
	}
}

// invert undoes apply for the same command
func (e *Engine) invert(cmd model.Command) {
	switch cmd {
	case model.CommandLeft:
		e.active.Translate(0, 1)
	case model.CommandRight:
		e.active.Translate(0, -1)
	case model.CommandDown:
		e.active.Translate(-1, 0)
	case model.CommandRotate:
		e.active.RotateCounterClockwise()
	case model.CommandFinish:
		e.finished = false
	}
}

func validCommand(cmd model.Command) bool {
	return cmd >= model.CommandLeft && cmd <= model.CommandFinish
}
