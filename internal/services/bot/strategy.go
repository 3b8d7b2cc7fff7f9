package bot

import (
	"context"

	"github.com/mcoot/blockfall/internal/model"
)

// Placement is where a strategy wants the active piece to land
type Placement struct {
	Rotations int // Clockwise quarter turns from the spawn orientation
	Column    int // Grid column of the shape's anchor once placed
}

// Strategy defines how a bot chooses where to drop each piece
type Strategy interface {
	// Choose picks a placement for the active piece of the snapshot
	Choose(ctx context.Context, snap model.Snapshot) (Placement, error)
}
