package terminal

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/render"
)

const (
	clearScreen = "\x1b[2J"
	cursorHome  = "\x1b[H"
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"

	// escapeDelay is how long a lone escape waits for the rest of a sequence
	escapeDelay = 50 * time.Millisecond
)

var errGameEnded = errors.New("game ended")

// Game is the part of a running session a terminal needs
type Game interface {
	Subscribe() (<-chan model.Event, func())
	Submit(ctx context.Context, cmd model.Command) error
}

// Play redraws the game on out after every change and feeds keys read from
// in to it. It returns once the game has ended and its final frame has been
// drawn, when ctx is cancelled, or when in is exhausted.
func Play(ctx context.Context, game Game, in io.Reader, out io.Writer, opts render.Options) error {
	if opts.Newline == "" {
		// Raw terminals do not translate \n into a carriage return
		opts.Newline = "\r\n"
	}

	events, unsubscribe := game.Subscribe()
	defer unsubscribe()

	inputDone := make(chan error, 1)
	go func() { inputDone <- readKeys(ctx, game, in) }()

	if _, err := io.WriteString(out, hideCursor+clearScreen); err != nil {
		return err
	}
	defer func() { _, _ = io.WriteString(out, showCursor) }()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-inputDone:
			if errors.Is(err, errGameEnded) {
				// Keep drawing until the final frame arrives
				inputDone = nil
				continue
			}
			return err

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := io.WriteString(out, cursorHome+render.String(ev.Snapshot, opts)); err != nil {
				return err
			}
			if ev.Type == model.EventGameOver || ev.Type == model.EventGameAbandoned {
				return nil
			}
		}
	}
}

type chunk struct {
	data []byte
	err  error
}

func readKeys(ctx context.Context, game Game, in io.Reader) error {
	chunks := make(chan chunk)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			buf := make([]byte, 64)
			n, err := in.Read(buf)
			select {
			case chunks <- chunk{data: buf[:n], err: err}:
			case <-quit:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	var dec keyDecoder
	var escTimeout <-chan time.Time
	for {
		var cmds []model.Command
		var readErr error
		select {
		case <-ctx.Done():
			return nil
		case <-escTimeout:
			// Nothing completed the escape, so it was a bare key press
			cmds = dec.flush()
		case c := <-chunks:
			cmds = dec.feed(c.data)
			if c.err != nil {
				cmds = append(cmds, dec.flush()...)
				readErr = c.err
			}
		}

		escTimeout = nil
		if dec.waiting() {
			escTimeout = time.After(escapeDelay)
		}

		for _, cmd := range cmds {
			if subErr := game.Submit(ctx, cmd); subErr != nil {
				switch {
				case errors.Is(subErr, model.ErrGameOver), errors.Is(subErr, model.ErrGameAbandoned):
					return errGameEnded
				case ctx.Err() != nil:
					return nil
				}
				return subErr
			}
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}
