package model

// Shape is a rectangular tile mask anchored at a grid position. The mask's
// local (0,0) cell sits at grid coordinate (Row, Col).
type Shape struct {
	mask [][]Tile
	row  int
	col  int
}

// NewShape creates a shape from a mask anchored at (row, col). The mask is copied.
func NewShape(mask [][]Tile, row, col int) *Shape {
	return &Shape{
		mask: copyMask(mask),
		row:  row,
		col:  col,
	}
}

// Row returns the anchor row in grid coordinates
func (s *Shape) Row() int {
	return s.row
}

// Col returns the anchor column in grid coordinates
func (s *Shape) Col() int {
	return s.col
}

// Height returns the number of mask rows
func (s *Shape) Height() int {
	return len(s.mask)
}

// Width returns the number of mask columns
func (s *Shape) Width() int {
	if len(s.mask) == 0 {
		return 0
	}
	return len(s.mask[0])
}

// Translate shifts the anchor. Validity is the board's concern.
func (s *Shape) Translate(dRow, dCol int) {
	s.row += dRow
	s.col += dCol
}

// RotateClockwise replaces the mask with its transpose with row order reversed.
// The anchor is unchanged.
func (s *Shape) RotateClockwise() {
	t := transpose(s.mask)
	n := len(t)
	rotated := make([][]Tile, n)
	for i := range t {
		rotated[i] = t[n-1-i]
	}
	s.mask = rotated
}

// RotateCounterClockwise replaces the mask with its transpose with each row
// reversed. It undoes RotateClockwise exactly.
func (s *Shape) RotateCounterClockwise() {
	t := transpose(s.mask)
	for _, line := range t {
		for i, j := 0, len(line)-1; i < j; i, j = i+1, j-1 {
			line[i], line[j] = line[j], line[i]
		}
	}
	s.mask = t
}

// TileAtWorld returns the tile covering grid coordinate (row, col), or
// TileEmpty when the coordinate is outside the shape's bounding box
func (s *Shape) TileAtWorld(row, col int) Tile {
	return s.TileAtLocal(row-s.row, col-s.col)
}

// TileAtLocal returns the mask tile at (r, c), or TileEmpty when out of range
func (s *Shape) TileAtLocal(r, c int) Tile {
	if r < 0 || r >= s.Height() || c < 0 || c >= s.Width() {
		return TileEmpty
	}
	return s.mask[r][c]
}

// Mask returns a copy of the shape's local mask
func (s *Shape) Mask() [][]Tile {
	return copyMask(s.mask)
}

// BlockCount returns the number of occupied mask cells
func (s *Shape) BlockCount() int {
	count := 0
	for _, line := range s.mask {
		for _, t := range line {
			if !t.IsEmpty() {
				count++
			}
		}
	}
	return count
}

func transpose(m [][]Tile) [][]Tile {
	if len(m) == 0 {
		return nil
	}
	height, width := len(m), len(m[0])
	t := make([][]Tile, width)
	for c := 0; c < width; c++ {
		t[c] = make([]Tile, height)
		for r := 0; r < height; r++ {
			t[c][r] = m[r][c]
		}
	}
	return t
}

func copyMask(m [][]Tile) [][]Tile {
	out := make([][]Tile, len(m))
	for i, line := range m {
		out[i] = make([]Tile, len(line))
		copy(out[i], line)
	}
	return out
}
