package bot

import (
	"context"
	"fmt"

	"github.com/mcoot/blockfall/internal/dependencies/random"
	"github.com/mcoot/blockfall/internal/model"
)

// RandomStrategy picks a random rotation and a random column
type RandomStrategy struct {
	random random.Random
}

// NewRandomStrategy creates a new RandomStrategy
func NewRandomStrategy(rnd random.Random) *RandomStrategy {
	return &RandomStrategy{random: rnd}
}

// Choose returns a random rotation and a column between the walls
func (s *RandomStrategy) Choose(ctx context.Context, snap model.Snapshot) (Placement, error) {
	if len(snap.Board) == 0 || len(snap.Board[0]) < 3 {
		return Placement{}, fmt.Errorf("%w: board has no interior columns", model.ErrInvalidArgument)
	}
	interior := len(snap.Board[0]) - 2
	return Placement{
		Rotations: s.random.Intn(4),
		Column:    1 + s.random.Intn(interior),
	}, nil
}

var _ Strategy = (*RandomStrategy)(nil)
