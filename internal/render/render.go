// Package render draws game snapshots as text for terminals and logs.
package render

import (
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/mcoot/blockfall/internal/model"
)

const (
	offset        = "      "
	previewWidth  = 4
	previewHeight = 4
)

// Options controls how a frame is drawn
type Options struct {
	Color     bool   // Wrap tiles in ANSI colour codes
	ShowLevel bool   // Add a level line under the score
	Newline   string // Line separator used by String; "\n" when empty
}

var palette = map[model.Tile]*color.Color{
	model.TileWall:   color.New(color.FgHiBlack),
	model.TileBlue:   color.New(color.FgBlue, color.Bold),
	model.TileRed:    color.New(color.FgRed, color.Bold),
	model.TileYellow: color.New(color.FgYellow, color.Bold),
	model.TileGreen:  color.New(color.FgGreen, color.Bold),
	model.TileOrange: color.New(color.FgHiRed),
	model.TilePink:   color.New(color.FgHiMagenta, color.Bold),
	model.TileViolet: color.New(color.FgMagenta),
}

func init() {
	// Colour is chosen per frame by Options, not by terminal detection
	for _, c := range palette {
		c.EnableColor()
	}
}

// Frame draws a snapshot as lines of text: the score header, the board with
// the active piece overlaid, the next piece beside the board and a closing
// message once the game has ended.
func Frame(snap model.Snapshot, opts Options) []string {
	lines := []string{
		"",
		offset + "Score: " + strconv.Itoa(snap.Score),
		offset + "Completed lines: " + strconv.Itoa(snap.Lines),
	}
	if opts.ShowLevel {
		lines = append(lines, offset+"Level: "+strconv.Itoa(snap.Level))
	}
	lines = append(lines, "")

	preview := previewLines(snap.Next, opts)

	for row := range snap.Board {
		var sb strings.Builder
		sb.WriteString(offset)
		for col := range snap.Board[row] {
			tile := snap.Active.TileAtWorld(row, col)
			if tile == model.TileEmpty {
				tile = snap.Board[row][col]
			}
			sb.WriteString(glyph(tile, opts))
		}
		if row < len(preview) {
			sb.WriteString(offset)
			sb.WriteString(preview[row])
		}
		lines = append(lines, sb.String())
	}

	if snap.State.IsFinished() {
		lines = append(lines,
			"",
			offset+"GAME OVER",
			offset+"Thanks for playing!",
		)
	}

	return lines
}

// String draws a frame as a single string
func String(snap model.Snapshot, opts Options) string {
	nl := opts.Newline
	if nl == "" {
		nl = "\n"
	}
	return strings.Join(Frame(snap, opts), nl) + nl
}

func previewLines(next *model.ShapeView, opts Options) []string {
	border := strings.Repeat("#", previewWidth+4)
	lines := []string{"Next:", border}

	for r := 0; r < previewHeight; r++ {
		var sb strings.Builder
		sb.WriteString("# ")
		for c := 0; c < previewWidth; c++ {
			sb.WriteString(glyph(next.TileAtLocal(r, c), opts))
		}
		sb.WriteString(" #")
		lines = append(lines, sb.String())
	}

	return append(lines, border)
}

func glyph(t model.Tile, opts Options) string {
	g := string(t.Glyph())
	if !opts.Color {
		return g
	}
	if c, ok := palette[t]; ok {
		return c.Sprint(g)
	}
	return g
}
