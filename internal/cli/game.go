package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/blockfall/internal/api/request"
	"github.com/mcoot/blockfall/internal/api/response"
	"github.com/mcoot/blockfall/internal/model"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Server game commands",
	}

	cmd.AddCommand(newGameStartCmd())
	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameCommandCmd())
	cmd.AddCommand(newGameAbandonCmd())
	cmd.AddCommand(newGamePlayCmd())

	return cmd
}

func newGameStartCmd() *cobra.Command {
	var (
		name string
		seed uint64
		bot  string
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new game on the server",
		Long: `Start a new game on the server and save its token to the token file,
so later "game cmd", "game play" and "game abandon" calls can use it.

Pass --bot to let a strategy play the game instead; list strategies with
"blockfall bots".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.CreateGameRequest{PlayerName: name, Bot: bot}
			if cmd.Flags().Changed("seed") {
				req.Seed = &seed
			}

			var result response.CreateGameResponse
			if err := client.Post("/api/v1/games", req, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			client.SetToken(result.Token)

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", defaultPlayerName(), "Player name")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for the piece sequence (random when unset)")
	cmd.Flags().StringVar(&bot, "bot", "", "Bot strategy to play the game")

	return cmd
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a game's record and live state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.GameResponse

			if err := client.Get(fmt.Sprintf("/api/v1/games/%s", args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newGameCommandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cmd <id> <command>...",
		Short: "Send commands to a game",
		Long: `Send one or more commands to a running game, in order.

Commands: left, right, down, rotate, finish.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID := args[0]
			out := NewOutput(cfg.Output, cmd.OutOrStdout())

			commands := make([]model.Command, 0, len(args)-1)
			for _, name := range args[1:] {
				c, err := model.ParseCommand(name)
				if err != nil {
					return err
				}
				commands = append(commands, c)
			}

			for _, c := range commands {
				var result response.CommandResponse
				path := fmt.Sprintf("/api/v1/games/%s/commands", gameID)
				if err := client.Post(path, request.CommandRequest{Command: c}, &result); err != nil {
					return err
				}
				out.Print(result)
				if isFinished(result.State.State) {
					break
				}
			}
			return nil
		},
	}
}

func newGameAbandonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abandon <id>",
		Short: "Abandon a running game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(fmt.Sprintf("/api/v1/games/%s", args[0])); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage("Game abandoned")
			return nil
		},
	}
}
