package shapes

import (
	"github.com/mcoot/blockfall/internal/dependencies/random"
	"github.com/mcoot/blockfall/internal/model"
)

// catalog holds one canonical orientation per piece. It is never mutated;
// NewShape copies the mask it is given.
var catalog = [...][][]model.Tile{
	{
		{model.TileEmpty, model.TileBlue},
		{model.TileEmpty, model.TileBlue},
		{model.TileEmpty, model.TileBlue},
		{model.TileEmpty, model.TileBlue},
	},
	{
		{model.TileRed, model.TileEmpty},
		{model.TileRed, model.TileEmpty},
		{model.TileRed, model.TileRed},
	},
	{
		{model.TileEmpty, model.TileYellow, model.TileEmpty},
		{model.TileYellow, model.TileYellow, model.TileYellow},
	},
	{
		{model.TileGreen, model.TileGreen},
		{model.TileGreen, model.TileGreen},
	},
	{
		{model.TileOrange, model.TileOrange, model.TileEmpty},
		{model.TileEmpty, model.TileOrange, model.TileOrange},
	},
	{
		{model.TileEmpty, model.TilePink, model.TilePink},
		{model.TilePink, model.TilePink, model.TileEmpty},
	},
	{
		{model.TileEmpty, model.TileViolet},
		{model.TileEmpty, model.TileViolet},
		{model.TileViolet, model.TileViolet},
	},
}

// Factory produces randomly selected pieces from the catalog
type Factory struct {
	random random.Random
}

// New creates a Factory drawing from the given random source
func New(random random.Random) *Factory {
	return &Factory{random: random}
}

// Next returns a new randomly chosen shape anchored at the spawn position
func (f *Factory) Next(spawnRow, spawnCol int) *model.Shape {
	return NewCatalogShape(f.random.Intn(len(catalog)), spawnRow, spawnCol)
}

// CatalogSize returns the number of distinct pieces
func CatalogSize() int {
	return len(catalog)
}

// NewCatalogShape returns catalog piece i anchored at (row, col).
// It panics when i is out of range.
func NewCatalogShape(i, row, col int) *model.Shape {
	return model.NewShape(catalog[i], row, col)
}

// Interface for dependency injection
type FactoryInterface interface {
	Next(spawnRow, spawnCol int) *model.Shape
}

var _ FactoryInterface = (*Factory)(nil)
