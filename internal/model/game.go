package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// GameID uniquely identifies a game
type GameID string

// GameState represents the current phase of a game
type GameState string

const (
	GameStatePlaying   GameState = "playing"   // Pieces are falling
	GameStateOver      GameState = "over"      // A new piece did not fit, or the player finished
	GameStateAbandoned GameState = "abandoned" // Stopped from outside before it ended
)

// IsFinished returns true once no further commands are accepted
func (s GameState) IsFinished() bool {
	return s == GameStateOver || s == GameStateAbandoned
}

// ShapeView is a frozen copy of a shape for rendering and transport
type ShapeView struct {
	Mask [][]Tile
	Row  int
	Col  int
}

// TileAtWorld mirrors Shape.TileAtWorld for a frozen view
func (v *ShapeView) TileAtWorld(row, col int) Tile {
	if v == nil {
		return TileEmpty
	}
	return v.TileAtLocal(row-v.Row, col-v.Col)
}

// TileAtLocal mirrors Shape.TileAtLocal for a frozen view
func (v *ShapeView) TileAtLocal(r, c int) Tile {
	if v == nil || r < 0 || r >= len(v.Mask) || c < 0 || c >= len(v.Mask[r]) {
		return TileEmpty
	}
	return v.Mask[r][c]
}

// ViewOf freezes a shape
func ViewOf(s *Shape) *ShapeView {
	if s == nil {
		return nil
	}
	return &ShapeView{Mask: s.Mask(), Row: s.Row(), Col: s.Col()}
}

// Snapshot is an immutable picture of a game at one instant
type Snapshot struct {
	Board  [][]Tile
	Active *ShapeView
	Next   *ShapeView
	Score  int
	Lines  int
	Level  int
	Pieces int // Number of pieces locked so far
	State  GameState
}

// Game is the persisted record of a game
type Game struct {
	ID         GameID
	PlayerName string
	Bot        string // Empty for human-controlled games
	Seed       uint64
	State      GameState
	Width      int
	Height     int
	Board      []string // Rows of display glyphs
	Score      int
	Lines      int
	Level      int
	Pieces     int
	CreatedAt  time.Time
	UpdatedAt  time.Time
	EndedAt    *time.Time
}

// ApplySnapshot copies the progress of a snapshot into the record
func (g *Game) ApplySnapshot(s Snapshot) {
	g.State = s.State
	g.Board = EncodeRows(s.Board)
	g.Score = s.Score
	g.Lines = s.Lines
	g.Level = s.Level
	g.Pieces = s.Pieces
}

// ScoreEntry is one line of the leaderboard
type ScoreEntry struct {
	GameID      GameID
	PlayerName  string
	Score       int
	Lines       int
	Level       int
	CompletedAt time.Time
}

// RanksAbove orders entries by score, then lines, then earliest completion
func (e ScoreEntry) RanksAbove(other ScoreEntry) bool {
	if e.Score != other.Score {
		return e.Score > other.Score
	}
	if e.Lines != other.Lines {
		return e.Lines > other.Lines
	}
	return e.CompletedAt.Before(other.CompletedAt)
}

// SortScores sorts entries best first
func SortScores(entries []ScoreEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RanksAbove(entries[j])
	})
}

// EncodeRows renders tiles as rows of display glyphs
func EncodeRows(tiles [][]Tile) []string {
	rows := make([]string, len(tiles))
	for i, line := range tiles {
		var sb strings.Builder
		for _, t := range line {
			sb.WriteRune(t.Glyph())
		}
		rows[i] = sb.String()
	}
	return rows
}

// DecodeRows parses rows of display glyphs
func DecodeRows(rows []string) ([][]Tile, error) {
	return decodeRows(rows, ParseTile)
}

// DecodeFixtureRows parses rows of fixture glyphs
func DecodeFixtureRows(rows []string) ([][]Tile, error) {
	return decodeRows(rows, ParseFixtureTile)
}

func decodeRows(rows []string, parse func(rune) (Tile, error)) ([][]Tile, error) {
	tiles := make([][]Tile, len(rows))
	for i, row := range rows {
		line := make([]Tile, 0, len(row))
		for _, r := range row {
			t, err := parse(r)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			line = append(line, t)
		}
		tiles[i] = line
	}
	return tiles, nil
}
