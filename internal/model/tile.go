package model

import "fmt"

// Tile is the state of a single grid cell
type Tile uint8

const (
	TileEmpty Tile = iota
	TileWall
	TileBlue
	TileRed
	TileYellow
	TileGreen
	TileOrange
	TilePink
	TileViolet

	tileCount
)

// Display glyphs, indexed by Tile
var displayGlyphs = [tileCount]rune{' ', '#', 'B', 'R', 'Y', 'G', 'O', 'P', 'V'}

// Fixture glyphs, indexed by Tile. These differ from the display glyphs so that
// hand-written test boards never confuse Blue with Orange.
var fixtureGlyphs = [tileCount]rune{' ', '#', 'U', 'F', 'X', 'D', 'B', 'E', 'V'}

var tileNames = [tileCount]string{"empty", "wall", "blue", "red", "yellow", "green", "orange", "pink", "violet"}

// IsEmpty returns true for the empty tile
func (t Tile) IsEmpty() bool {
	return t == TileEmpty
}

// IsBlock returns true for a coloured (piece) tile
func (t Tile) IsBlock() bool {
	return t != TileEmpty && t != TileWall && t < tileCount
}

// Glyph returns the character used to draw the tile
func (t Tile) Glyph() rune {
	if t >= tileCount {
		return '?'
	}
	return displayGlyphs[t]
}

// FixtureGlyph returns the character used for the tile in board fixtures
func (t Tile) FixtureGlyph() rune {
	if t >= tileCount {
		return '?'
	}
	return fixtureGlyphs[t]
}

func (t Tile) String() string {
	if t >= tileCount {
		return fmt.Sprintf("tile(%d)", uint8(t))
	}
	return tileNames[t]
}

// ParseTile converts a display glyph back to a Tile
func ParseTile(glyph rune) (Tile, error) {
	return lookupGlyph(&displayGlyphs, glyph)
}

// ParseFixtureTile converts a fixture glyph back to a Tile
func ParseFixtureTile(glyph rune) (Tile, error) {
	return lookupGlyph(&fixtureGlyphs, glyph)
}

func lookupGlyph(table *[tileCount]rune, glyph rune) (Tile, error) {
	for i, g := range table {
		if g == glyph {
			return Tile(i), nil
		}
	}
	return TileEmpty, fmt.Errorf("%w: unknown tile glyph %q", ErrInvalidArgument, glyph)
}
