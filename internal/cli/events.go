package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/blockfall/internal/api/response"
	"github.com/mcoot/blockfall/internal/render"
)

func newEventsCmd() *cobra.Command {
	var (
		jsonOutput bool
		board      bool
	)

	cmd := &cobra.Command{
		Use:   "events <id>",
		Short: "Stream SSE events from a game",
		Long: `Connect to the game's SSE endpoint and stream events in real-time.

Events include:
  - connected: Stream opened
  - frame: Board or active piece changed
  - piece_locked: Active piece committed to the board
  - lines_cleared: Rows cleared and scored
  - game_over: Game ended
  - game_abandoned: Game was abandoned

The stream ends with the game. Press Ctrl+C to disconnect earlier.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			printer := &eventPrinter{w: cmd.OutOrStdout(), json: jsonOutput, board: board}
			return streamEvents(ctx, args[0], printer)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().BoolVar(&board, "board", false, "Draw the board for every event")

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

func streamEvents(ctx context.Context, gameID string, printer *eventPrinter) error {
	url := fmt.Sprintf("%s/api/v1/games/%s/events", client.BaseURL(), gameID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	httpClient := &http.Client{
		Timeout: 0, // No timeout for SSE
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if !printer.json {
		fmt.Fprintf(printer.w, "Connected to game %s\n", gameID)
	}

	// Parse SSE stream
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case strings.HasPrefix(line, ":"):
			// Keepalive comment
		case line == "":
			if currentEvent != "" {
				printer.print(currentEvent, strings.Join(dataLines, "\n"))
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if !printer.json {
		fmt.Fprintln(printer.w, "Disconnected")
	}
	return nil
}

type eventPrinter struct {
	w     io.Writer
	json  bool
	board bool
}

func (p *eventPrinter) print(event, data string) {
	now := time.Now()

	if p.json {
		jsonData, _ := json.Marshal(SSEEvent{Time: now, Event: event, Data: data})
		fmt.Fprintln(p.w, string(jsonData))
		return
	}

	var ev response.Event
	if err := json.Unmarshal([]byte(data), &ev); err != nil || ev.Type == "" {
		fmt.Fprintf(p.w, "[%s] %s: %s\n", now.Format("2006-01-02 15:04:05"), event, data)
		return
	}

	summary := fmt.Sprintf("score %d, lines %d, level %d", ev.State.Score, ev.State.Lines, ev.State.Level)
	if ev.Cleared > 0 {
		summary += fmt.Sprintf(", cleared %d for %d points", ev.Cleared, ev.Points)
	}
	fmt.Fprintf(p.w, "[%s] %s: %s\n", ev.Timestamp.Format("2006-01-02 15:04:05"), event, summary)

	if p.board {
		if snap, err := ev.State.Snapshot(); err == nil {
			fmt.Fprint(p.w, render.String(snap, render.Options{}))
		}
	}
}
