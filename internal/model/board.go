package model

import "sort"

// Board owns the playing grid. All cell mutation goes through Place and
// ClearCompletedLines.
type Board struct {
	grid *Grid
}

// NewBoard creates an empty walled board
func NewBoard(width, height int) (*Board, error) {
	g, err := NewGrid(width, height)
	if err != nil {
		return nil, err
	}
	return &Board{grid: g}, nil
}

// NewBoardFromTiles creates a board holding a copy of the given tiles
func NewBoardFromTiles(tiles [][]Tile) (*Board, error) {
	g, err := NewGridFromTiles(tiles)
	if err != nil {
		return nil, err
	}
	return &Board{grid: g}, nil
}

// Width returns the number of columns
func (b *Board) Width() int {
	return b.grid.Width()
}

// Height returns the number of rows
func (b *Board) Height() int {
	return b.grid.Height()
}

// Get returns the tile at (row, col). Coordinates must be in range.
func (b *Board) Get(row, col int) Tile {
	return b.grid.Get(row, col)
}

// Tiles returns a copy of the board contents
func (b *Board) Tiles() [][]Tile {
	return b.grid.Tiles()
}

// BlockCount returns the number of coloured cells on the board
func (b *Board) BlockCount() int {
	count := 0
	for row := 0; row < b.Height(); row++ {
		for col := 0; col < b.Width(); col++ {
			if b.grid.Get(row, col).IsBlock() {
				count++
			}
		}
	}
	return count
}

// Fits returns false if any occupied cell of the shape overlaps an occupied
// board cell
func (b *Board) Fits(s *Shape) bool {
	for row := 0; row < b.Height(); row++ {
		for col := 0; col < b.Width(); col++ {
			if !b.grid.Get(row, col).IsEmpty() && !s.TileAtWorld(row, col).IsEmpty() {
				return false
			}
		}
	}
	return true
}

// Place writes every occupied cell of the shape into the board. No collision
// check is made.
func (b *Board) Place(s *Shape) {
	for row := 0; row < b.Height(); row++ {
		for col := 0; col < b.Width(); col++ {
			if t := s.TileAtWorld(row, col); !t.IsEmpty() {
				b.grid.set(row, col, t)
			}
		}
	}
}

// ClearCompletedLines empties every completed row, then lets the fragments
// left floating above the cleared rows fall as rigid shapes. It returns the
// number of rows cleared.
func (b *Board) ClearCompletedLines() int {
	completed := b.completedRows()
	if len(completed) == 0 {
		return 0
	}

	for _, row := range completed {
		for col := 0; col < b.Width(); col++ {
			if b.grid.Get(row, col) != TileWall {
				b.grid.set(row, col, TileEmpty)
			}
		}
	}

	for _, band := range bands(completed) {
		b.settleBand(band)
	}

	return len(completed)
}

// completedRows lists every non-floor row with no empty cell, top to bottom
func (b *Board) completedRows() []int {
	var rows []int
	for row := 0; row < b.Height()-1; row++ {
		if b.isRowComplete(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

func (b *Board) isRowComplete(row int) bool {
	for col := 0; col < b.Width(); col++ {
		if b.grid.Get(row, col).IsEmpty() {
			return false
		}
	}
	return true
}

// rowRange is an inclusive span of rows
type rowRange struct {
	top    int
	bottom int
}

// bands splits the rows above the lowest cleared row into the strips between
// cleared rows. Adjacent cleared rows form a single boundary. The result is
// ordered bottom band first.
func bands(cleared []int) []rowRange {
	sorted := append([]int(nil), cleared...)
	sort.Ints(sorted)

	result := []rowRange{{top: 0, bottom: sorted[0] - 1}}
	for i := 0; i < len(sorted)-1; i++ {
		if sorted[i]+1 != sorted[i+1] {
			result = append(result, rowRange{top: sorted[i] + 1, bottom: sorted[i+1] - 1})
		}
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}

// settleBand extracts each connected fragment inside the band and drops it
// onto the current board
func (b *Board) settleBand(band rowRange) {
	if band.top > band.bottom {
		return
	}

	floating := newBlankGrid(b.Width(), b.Height())
	for row := band.top; row <= band.bottom; row++ {
		for col := 0; col < b.Width(); col++ {
			floating.set(row, col, b.grid.Get(row, col))
		}
	}

	for {
		start, ok := findBlock(floating)
		if !ok {
			return
		}
		fragment := b.extractFragment(start, floating)
		b.drop(fragment)
		b.Place(fragment)
	}
}

func findBlock(g *Grid) (Position, bool) {
	for row := 0; row < g.Height(); row++ {
		for col := 0; col < g.Width(); col++ {
			if g.Get(row, col).IsBlock() {
				return Position{Row: row, Col: col}, true
			}
		}
	}
	return Position{}, false
}

// extractFragment collects the 4-connected group of blocks containing start,
// erasing each visited cell from both the floating grid and the board, and
// returns it as a shape anchored at the group's bounding box
func (b *Board) extractFragment(start Position, floating *Grid) *Shape {
	type cell struct {
		pos  Position
		tile Tile
	}

	var cells []cell
	stack := []Position{start}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !floating.InBounds(p.Row, p.Col) || !floating.Get(p.Row, p.Col).IsBlock() {
			continue
		}

		cells = append(cells, cell{pos: p, tile: floating.Get(p.Row, p.Col)})
		floating.set(p.Row, p.Col, TileEmpty)
		b.grid.set(p.Row, p.Col, TileEmpty)

		stack = append(stack,
			Position{Row: p.Row + 1, Col: p.Col},
			Position{Row: p.Row - 1, Col: p.Col},
			Position{Row: p.Row, Col: p.Col + 1},
			Position{Row: p.Row, Col: p.Col - 1},
		)
	}

	minRow, minCol := cells[0].pos.Row, cells[0].pos.Col
	maxRow, maxCol := minRow, minCol
	for _, c := range cells {
		minRow = min(minRow, c.pos.Row)
		maxRow = max(maxRow, c.pos.Row)
		minCol = min(minCol, c.pos.Col)
		maxCol = max(maxCol, c.pos.Col)
	}

	mask := make([][]Tile, maxRow-minRow+1)
	for i := range mask {
		mask[i] = make([]Tile, maxCol-minCol+1)
	}
	for _, c := range cells {
		mask[c.pos.Row-minRow][c.pos.Col-minCol] = c.tile
	}

	return &Shape{mask: mask, row: minRow, col: minCol}
}

// drop moves the shape down one row at a time until the next step would
// collide, leaving it at the last fitting offset
func (b *Board) drop(s *Shape) {
	for s.Row() < b.Height() {
		s.Translate(1, 0)
		if !b.Fits(s) {
			s.Translate(-1, 0)
			return
		}
	}
}
