package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"os/user"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mcoot/blockfall/internal/factory"
	"github.com/mcoot/blockfall/internal/model"
	"github.com/mcoot/blockfall/internal/render"
	"github.com/mcoot/blockfall/internal/services/game"
	"github.com/mcoot/blockfall/internal/terminal"
)

const shutdownTimeout = 5 * time.Second

func newPlayCmd() *cobra.Command {
	var (
		name    string
		seed    uint64
		bot     string
		width   int
		height  int
		tick    time.Duration
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a local game in this terminal",
		Long: `Play a game in this terminal without a server.

Keys: arrows, h/j/k/l or w/a/s/d move and rotate the piece, space drops
it one row, q, Esc or Ctrl-C finishes the game.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := factory.New(factory.Config{
				Game:         game.Config{Width: width, Height: height},
				TickInterval: tick,
			})
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			opts := game.CreateOptions{PlayerName: name, Bot: bot}
			if cmd.Flags().Changed("seed") {
				opts.Seed = &seed
			}
			_, session, err := app.GameController.CreateGame(ctx, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			playErr := playInTerminal(ctx, session, cmd.InOrStdin(), out, !noColor)

			// Abandons the game if it is still running
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := app.GameController.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if playErr != nil {
				return playErr
			}

			printFinal(out, session.Snapshot())
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", defaultPlayerName(), "Player name")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for the piece sequence (random when unset)")
	cmd.Flags().StringVar(&bot, "bot", "", "Let a bot strategy play instead")
	cmd.Flags().IntVar(&width, "width", game.DefaultWidth, "Board width including walls")
	cmd.Flags().IntVar(&height, "height", game.DefaultHeight, "Board height including the floor")
	cmd.Flags().DurationVar(&tick, "tick", time.Second, "Gravity interval at level 1")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colours")

	return cmd
}

func newGamePlayCmd() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "play <id>",
		Short: "Play a server game in this terminal",
		Long: `Connect to a running server game over its websocket and play it in
this terminal. Uses the saved token unless --token is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			remote, err := dialGame(ctx, client.BaseURL(), client.Token(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := playInTerminal(ctx, remote, cmd.InOrStdin(), out, !noColor); err != nil {
				return err
			}
			if err := remote.Err(); err != nil {
				return err
			}

			if snap, ok := remote.Last(); ok {
				printFinal(out, snap)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colours")

	return cmd
}

// playInTerminal switches a terminal stdin to raw mode for the length of
// the game. Colour is only used when out is a terminal.
func playInTerminal(ctx context.Context, g terminal.Game, in io.Reader, out io.Writer, color bool) error {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("failed to enter raw mode: %w", err)
		}
		defer func() { _ = term.Restore(int(f.Fd()), state) }()
	}

	f, ok := out.(*os.File)
	opts := render.Options{
		Color:     color && ok && term.IsTerminal(int(f.Fd())),
		ShowLevel: true,
	}
	return terminal.Play(ctx, g, in, out, opts)
}

func printFinal(out io.Writer, snap model.Snapshot) {
	fmt.Fprintf(out, "\nFinal score: %d (lines %d, level %d, pieces %d)\n",
		snap.Score, snap.Lines, snap.Level, snap.Pieces)
}

func defaultPlayerName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "player"
}
