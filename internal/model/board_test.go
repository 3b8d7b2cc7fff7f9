package model

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type BoardSuite struct {
	suite.Suite
}

func TestBoardSuite(t *testing.T) {
	suite.Run(t, new(BoardSuite))
}

func (s *BoardSuite) boardFrom(rows ...string) *Board {
	tiles, err := DecodeFixtureRows(rows)
	s.Require().NoError(err)
	board, err := NewBoardFromTiles(tiles)
	s.Require().NoError(err)
	return board
}

func (s *BoardSuite) rowsOf(board *Board) []string {
	rows := make([]string, board.Height())
	for row := 0; row < board.Height(); row++ {
		line := make([]rune, board.Width())
		for col := 0; col < board.Width(); col++ {
			line[col] = board.Get(row, col).FixtureGlyph()
		}
		rows[row] = string(line)
	}
	return rows
}

// NewBoard tests

func (s *BoardSuite) TestNewBoardWallsAndFloor() {
	for _, dims := range [][2]int{{1, 1}, {2, 3}, {10, 24}, {5, 1}, {1, 5}} {
		width, height := dims[0], dims[1]
		board, err := NewBoard(width, height)
		s.Require().NoError(err)
		s.Equal(width, board.Width())
		s.Equal(height, board.Height())

		for row := 0; row < height; row++ {
			for col := 0; col < width; col++ {
				if row == height-1 || col == 0 || col == width-1 {
					s.Equal(TileWall, board.Get(row, col), "row %d col %d of %dx%d", row, col, width, height)
				} else {
					s.Equal(TileEmpty, board.Get(row, col), "row %d col %d of %dx%d", row, col, width, height)
				}
			}
		}
	}
}

func (s *BoardSuite) TestNewBoardRejectsInvalidDimensions() {
	_, err := NewBoard(0, 10)
	s.ErrorIs(err, ErrInvalidArgument)

	_, err = NewBoard(10, 0)
	s.ErrorIs(err, ErrInvalidArgument)

	_, err = NewBoard(-3, -3)
	s.ErrorIs(err, ErrInvalidArgument)
}

func (s *BoardSuite) TestNewBoardFromTilesRejectsRaggedRows() {
	_, err := NewBoardFromTiles([][]Tile{{TileWall, TileWall}, {TileWall}})
	s.ErrorIs(err, ErrInvalidArgument)

	_, err = NewBoardFromTiles(nil)
	s.ErrorIs(err, ErrInvalidArgument)
}

// Fits and Place tests

func (s *BoardSuite) TestFitsOnEmptyBoard() {
	board, _ := NewBoard(10, 24)
	shape := NewShape([][]Tile{{TileGreen, TileGreen}, {TileGreen, TileGreen}}, 0, 4)
	s.True(board.Fits(shape))
}

func (s *BoardSuite) TestFitsRejectsWallOverlap() {
	board, _ := NewBoard(10, 24)
	shape := NewShape([][]Tile{{TileGreen, TileGreen}, {TileGreen, TileGreen}}, 0, -1)
	s.False(board.Fits(shape))

	shape = NewShape([][]Tile{{TileGreen, TileGreen}, {TileGreen, TileGreen}}, 22, 4)
	s.False(board.Fits(shape))
}

func (s *BoardSuite) TestFitsIgnoresEmptyMaskCells() {
	board := s.boardFrom(
		"#    #",
		"#X   #",
		"######",
	)
	// The occupied lower-left cell lands on the X block
	shape := NewShape([][]Tile{{TileEmpty, TileRed}, {TileRed, TileRed}}, 0, 0)
	shape.Translate(0, 1)
	s.False(board.Fits(shape))

	// Only the empty lower-left cell covers it here
	shape = NewShape([][]Tile{{TileRed, TileRed}, {TileEmpty, TileRed}}, 0, 1)
	s.True(board.Fits(shape))
}

func (s *BoardSuite) TestPlaceWritesOnlyOccupiedCells() {
	board := s.boardFrom(
		"#    #",
		"#X   #",
		"######",
	)
	shape := NewShape([][]Tile{{TileRed, TileRed}, {TileEmpty, TileRed}}, 0, 1)
	board.Place(shape)

	s.Equal([]string{
		"#FF  #",
		"#XF  #",
		"######",
	}, s.rowsOf(board))
}

// ClearCompletedLines tests

func (s *BoardSuite) TestClearWithNoCompleteRowsLeavesBoardUnchanged() {
	rows := []string{
		"#        #",
		"#  DD    #",
		"#XXXX XXX#",
		"#BBB     #",
		"##########",
	}
	board := s.boardFrom(rows...)

	s.Equal(0, board.ClearCompletedLines())
	s.Equal(rows, s.rowsOf(board))
}

func (s *BoardSuite) TestClearOneRow() {
	board := s.boardFrom(
		"#        #",
		"#  DD    #",
		"#  DD    #",
		"#XXXXXXXX#",
		"#BBB     #",
		"##########",
	)

	s.Equal(1, board.ClearCompletedLines())
	s.Equal([]string{
		"#        #",
		"#        #",
		"#  DD    #",
		"#  DD    #",
		"#BBB     #",
		"##########",
	}, s.rowsOf(board))
}

func (s *BoardSuite) TestClearTwoRows() {
	board := s.boardFrom(
		"#   D  EE#",
		"#  DDD EE#",
		"#XXXXXXXX#",
		"#XXXXXXXX#",
		"#BBB     #",
		"##########",
	)

	s.Equal(2, board.ClearCompletedLines())
	s.Equal([]string{
		"#        #",
		"#        #",
		"#   D    #",
		"#  DDD EE#",
		"#BBB   EE#",
		"##########",
	}, s.rowsOf(board))
}

func (s *BoardSuite) TestClearThreeRows() {
	board := s.boardFrom(
		"#U       #",
		"#U    FF #",
		"#UU   FF #",
		"#XXXXXXXX#",
		"#XXXXXXXX#",
		"#  DD  E #",
		"#XXXXXXXX#",
		"#BBB     #",
		"##########",
	)

	s.Equal(3, board.ClearCompletedLines())
	s.Equal([]string{
		"#        #",
		"#        #",
		"#        #",
		"#        #",
		"#U       #",
		"#U    FF #",
		"#UUDD FF #",
		"#BBB   E #",
		"##########",
	}, s.rowsOf(board))
}

func (s *BoardSuite) TestClearFourRows() {
	board := s.boardFrom(
		"#U    FF #",
		"#XXXXXXXX#",
		"#UU   FF #",
		"#XXXXXXXX#",
		"#XXXXXXXX#",
		"#XXXXXXXX#",
		"#  DD  E #",
		"#XXXXXXXX#",
		"#XXXXXXXX#",
		"#BBB     #",
		"##########",
	)

	s.Equal(6, board.ClearCompletedLines())
	s.Equal([]string{
		"#        #",
		"#        #",
		"#        #",
		"#        #",
		"#        #",
		"#        #",
		"#        #",
		"#U    FF #",
		"#UUDD FF #",
		"#BBB   E #",
		"##########",
	}, s.rowsOf(board))
}

func (s *BoardSuite) TestClearMultipleRowsMergesFragments() {
	board := s.boardFrom(
		"#U B  FF #",
		"#XXXXXXXX#",
		"#UU   FF #",
		"#XXXXXXXX#",
		"#XXXXXXXX#",
		"#XXXXXXXX#",
		"#  DD  E #",
		"#XXXXXXXX#",
		"#XXXXXXXX#",
		"#BBB  V V#",
		"##########",
	)

	s.Equal(6, board.ClearCompletedLines())
	s.Equal([]string{
		"#        #",
		"#        #",
		"#        #",
		"#        #",
		"#        #",
		"#        #",
		"#        #",
		"#U B  FF #",
		"#UUDD FF #",
		"#BBB  VEV#",
		"##########",
	}, s.rowsOf(board))
}

func (s *BoardSuite) TestClearTopRow() {
	board := s.boardFrom(
		"#XXXX#",
		"#    #",
		"#D   #",
		"######",
	)

	s.Equal(1, board.ClearCompletedLines())
	s.Equal([]string{
		"#    #",
		"#    #",
		"#D   #",
		"######",
	}, s.rowsOf(board))
}

func (s *BoardSuite) TestClearTwiceReturnsZero() {
	board := s.boardFrom(
		"#U    FF #",
		"#XXXXXXXX#",
		"#UU   FF #",
		"#XXXXXXXX#",
		"#  DD  E #",
		"#BBB     #",
		"##########",
	)

	s.Equal(2, board.ClearCompletedLines())
	s.Equal(0, board.ClearCompletedLines())
}

func (s *BoardSuite) TestClearConservesSurvivingBlocks() {
	board := s.boardFrom(
		"#U B  FF #",
		"#XXXXXXXX#",
		"#UU   FF #",
		"#XXXXXXXX#",
		"#XXXXXXXX#",
		"#XXXXXXXX#",
		"#  DD  E #",
		"#XXXXXXXX#",
		"#XXXXXXXX#",
		"#BBB  V V#",
		"##########",
	)
	before := board.BlockCount()
	width := board.Width()

	cleared := board.ClearCompletedLines()

	s.Equal(before-cleared*(width-2), board.BlockCount())
}

func (s *BoardSuite) TestClearLeavesWallsIntact() {
	board := s.boardFrom(
		"#  D #",
		"#XXXX#",
		"#XXXX#",
		"######",
	)
	board.ClearCompletedLines()

	for row := 0; row < board.Height(); row++ {
		s.Equal(TileWall, board.Get(row, 0))
		s.Equal(TileWall, board.Get(row, board.Width()-1))
	}
	for col := 0; col < board.Width(); col++ {
		s.Equal(TileWall, board.Get(board.Height()-1, col))
	}
}

func (s *BoardSuite) TestBandsMergeAdjacentRows() {
	s.Equal([]rowRange{{top: 0, bottom: 2}}, bands([]int{3}))
	s.Equal([]rowRange{{top: 5, bottom: 5}, {top: 0, bottom: 2}}, bands([]int{6, 3, 4}))
	s.Equal([]rowRange{{top: 0, bottom: -1}}, bands([]int{0, 1}))
}
