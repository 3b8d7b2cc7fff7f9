package bot

import (
	"fmt"

	"github.com/mcoot/blockfall/internal/model"
)

// Plan turns a placement into the commands that steer the active piece of
// snap there and lock it. The moves are checked against the board, so a
// rotation or shift that would be rolled back is left out and the piece
// stops at the first obstruction. The last command is the Down that locks.
func Plan(snap model.Snapshot, p Placement) ([]model.Command, error) {
	if snap.Active == nil {
		return nil, fmt.Errorf("%w: no active piece", model.ErrInvalidArgument)
	}
	board, err := model.NewBoardFromTiles(snap.Board)
	if err != nil {
		return nil, err
	}
	shape := model.NewShape(snap.Active.Mask, snap.Active.Row, snap.Active.Col)

	var cmds []model.Command

	for i := 0; i < ((p.Rotations%4)+4)%4; i++ {
		shape.RotateClockwise()
		if !board.Fits(shape) {
			shape.RotateCounterClockwise()
			break
		}
		cmds = append(cmds, model.CommandRotate)
	}

	step, cmd := 1, model.CommandRight
	if p.Column < shape.Col() {
		step, cmd = -1, model.CommandLeft
	}
	for shape.Col() != p.Column {
		shape.Translate(0, step)
		if !board.Fits(shape) {
			shape.Translate(0, -step)
			break
		}
		cmds = append(cmds, cmd)
	}

	for {
		cmds = append(cmds, model.CommandDown)
		shape.Translate(1, 0)
		if !board.Fits(shape) {
			break
		}
	}

	return cmds, nil
}
