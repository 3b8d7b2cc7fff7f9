package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mcoot/blockfall/internal/api/response"
	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/render"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.CreateGameResponse:
		o.printCreated(v)
	case response.GameResponse:
		o.printGame(v)
	case response.CommandResponse:
		o.printCommand(v)
	case response.Scores:
		o.printScores(v)
	case response.Strategies:
		o.printStrategies(v)
	case response.Health:
		o.printHealth(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printCreated(c response.CreateGameResponse) {
	o.printGameRecord(c.Game)
	fmt.Fprintf(o.w, "Token: %s\n", c.Token)
	fmt.Fprintf(o.w, "Expires: %s\n", c.ExpiresAt.Format("2006-01-02 15:04:05"))
	o.printState(c.Live)
}

func (o *Output) printGame(g response.GameResponse) {
	o.printGameRecord(g.Game)
	if g.Live != nil {
		o.printState(*g.Live)
	} else if len(g.Game.Board) > 0 {
		fmt.Fprintln(o.w)
		for _, row := range g.Game.Board {
			fmt.Fprintln(o.w, row)
		}
	}
}

func (o *Output) printGameRecord(g response.Game) {
	fmt.Fprintf(o.w, "Game: %s\n", g.ID)
	fmt.Fprintf(o.w, "Player: %s\n", g.PlayerName)
	if g.Bot != "" {
		fmt.Fprintf(o.w, "Bot: %s\n", g.Bot)
	}
	fmt.Fprintf(o.w, "State: %s\n", g.State)
	fmt.Fprintf(o.w, "Seed: %d\n", g.Seed)
	fmt.Fprintf(o.w, "Score: %d (lines %d, level %d, pieces %d)\n", g.Score, g.Lines, g.Level, g.Pieces)
}

func (o *Output) printCommand(c response.CommandResponse) {
	out := c.Outcome
	switch {
	case out.GameOver:
		fmt.Fprintf(o.w, "%s: game over\n", out.Command)
	case out.Cleared > 0:
		fmt.Fprintf(o.w, "%s: cleared %d lines for %d points\n", out.Command, out.Cleared, out.Points)
	case out.Locked:
		fmt.Fprintf(o.w, "%s: piece locked\n", out.Command)
	case out.Moved:
		fmt.Fprintf(o.w, "%s: moved\n", out.Command)
	default:
		fmt.Fprintf(o.w, "%s: blocked\n", out.Command)
	}
	o.printState(c.State)
}

// printState renders a live state the way the terminal client draws it
func (o *Output) printState(s response.State) {
	snap, err := s.Snapshot()
	if err != nil {
		fmt.Fprintf(o.w, "State: %s\n", s.State)
		return
	}
	fmt.Fprint(o.w, render.String(snap, render.Options{ShowLevel: true}))
}

func (o *Output) printScores(s response.Scores) {
	if len(s.Scores) == 0 {
		fmt.Fprintln(o.w, "No scores yet")
		return
	}
	fmt.Fprintf(o.w, "%-4s %-32s %8s %6s %5s\n", "RANK", "PLAYER", "SCORE", "LINES", "LEVEL")
	for _, e := range s.Scores {
		fmt.Fprintf(o.w, "%-4d %-32s %8d %6d %5d\n", e.Rank, e.PlayerName, e.Score, e.Lines, e.Level)
	}
}

func (o *Output) printStrategies(s response.Strategies) {
	fmt.Fprintln(o.w, "Bot strategies:")
	for _, name := range s.Strategies {
		fmt.Fprintf(o.w, "  - %s\n", name)
	}
}

func (o *Output) printHealth(h response.Health) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Active games: %d\n", h.ActiveGames)
}

func isFinished(state string) bool {
	return model.GameState(state).IsFinished()
}
