package model

import "fmt"

// Position identifies a cell on a grid
type Position struct {
	Row int // 0-indexed from top
	Col int // 0-indexed from left
}

// Grid is a fixed-size, row-major array of tiles
type Grid struct {
	width  int
	height int
	cells  [][]Tile // cells[row][col]
}

// NewGrid creates a walled grid: the left and right columns and the bottom row
// are walls, everything else is empty
func NewGrid(width, height int) (*Grid, error) {
	if width < 1 {
		return nil, fmt.Errorf("%w: width must be greater than 0, got %d", ErrInvalidArgument, width)
	}
	if height < 1 {
		return nil, fmt.Errorf("%w: height must be greater than 0, got %d", ErrInvalidArgument, height)
	}

	g := newBlankGrid(width, height)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			if col == 0 || col == width-1 || row == height-1 {
				g.cells[row][col] = TileWall
			}
		}
	}
	return g, nil
}

// NewGridFromTiles builds a grid from existing row-major tiles. The tiles are
// copied. Wall placement is taken as given.
func NewGridFromTiles(tiles [][]Tile) (*Grid, error) {
	if len(tiles) == 0 || len(tiles[0]) == 0 {
		return nil, fmt.Errorf("%w: grid must have at least one row and column", ErrInvalidArgument)
	}
	width := len(tiles[0])
	g := newBlankGrid(width, len(tiles))
	for row, line := range tiles {
		if len(line) != width {
			return nil, fmt.Errorf("%w: row %d has width %d, expected %d", ErrInvalidArgument, row, len(line), width)
		}
		copy(g.cells[row], line)
	}
	return g, nil
}

func newBlankGrid(width, height int) *Grid {
	cells := make([][]Tile, height)
	for i := range cells {
		cells[i] = make([]Tile, width)
	}
	return &Grid{width: width, height: height, cells: cells}
}

// Width returns the number of columns
func (g *Grid) Width() int {
	return g.width
}

// Height returns the number of rows
func (g *Grid) Height() int {
	return g.height
}

// Get returns the tile at (row, col). Coordinates must be in range.
func (g *Grid) Get(row, col int) Tile {
	return g.cells[row][col]
}

func (g *Grid) set(row, col int, t Tile) {
	g.cells[row][col] = t
}

// InBounds returns true if (row, col) is inside the grid
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.height && col >= 0 && col < g.width
}

// Tiles returns a deep copy of the grid contents
func (g *Grid) Tiles() [][]Tile {
	out := make([][]Tile, g.height)
	for row := range g.cells {
		out[row] = make([]Tile, g.width)
		copy(out[row], g.cells[row])
	}
	return out
}
