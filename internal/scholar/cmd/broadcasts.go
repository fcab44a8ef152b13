// Copyright © 2025 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/briandowns/spinner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"laptudirm.com/x/scholar/pkg/broadcast"
	"laptudirm.com/x/scholar/pkg/game"
	"laptudirm.com/x/scholar/pkg/pgn"
	"laptudirm.com/x/scholar/pkg/settings"
	"laptudirm.com/x/scholar/pkg/ui"
)

func Broadcasts() *cobra.Command {
	command := &cobra.Command{
		Use:   "broadcasts",
		Short: "Follow live tournament broadcasts from Lichess",

		Long: heredoc.Doc(`
			Broadcasts lists the official Lichess tournament relays, shows
			the games of a round, and follows a single game live, printing
			the board whenever new moves arrive.
		`),
	}

	command.AddCommand(broadcastsList())
	command.AddCommand(broadcastsRound())
	command.AddCommand(broadcastsFollow())

	return command
}

func broadcastsList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the official broadcasts and their rounds",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			working := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
			working.Suffix = " fetching broadcasts"
			working.Start()

			listing, err := broadcast.NewClient().Broadcasts()
			working.Stop()
			if err != nil {
				return err
			}

			for _, entry := range listing {
				fmt.Printf("%s (%s)\n", entry.Name, entry.ID)
				for _, round := range entry.Rounds {
					fmt.Printf("  %s (%s)\n", round.Name, round.ID)
				}
			}

			return nil
		},
	}
}

func broadcastsRound() *cobra.Command {
	return &cobra.Command{
		Use:   "round <round-id>",
		Short: "List the games of a broadcast round",
		Args:  cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			working := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
			working.Suffix = " fetching round " + args[0]
			working.Start()

			games, err := broadcast.NewClient().RoundGames(args[0], game.ChessOracle{})
			working.Stop()
			if err != nil {
				return err
			}

			for i, g := range games {
				fmt.Printf("  %d. %s [%s]\n", i+1, g.Title(), g.Tag("Result"))
			}

			return nil
		},
	}
}

func broadcastsFollow() *cobra.Command {
	return &cobra.Command{
		Use:   "follow <round-id> <game-id>",
		Short: "Follow one broadcast game live",
		Args:  cobra.ExactArgs(2),

		Long: heredoc.Doc(`
			Follow streams a broadcast game, printing the updated board and
			move list whenever the relay publishes new moves. Interrupt with
			Ctrl-C to stop following.
		`),

		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := settings.Load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			updates, err := broadcast.NewClient().StreamGame(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			oracle := game.ChessOracle{}
			var nav *game.Navigator

			for snapshot := range updates {
				fresh, err := pgn.Decode(snapshot, oracle)
				if err != nil {
					logrus.Warnf("broadcasts: bad snapshot: %s", err)
					continue
				}

				if nav == nil {
					nav = game.NewNavigator(fresh, oracle)
					fmt.Printf("Following %s\n", fresh.Title())
				} else {
					// Keep the cursor on the followed line while the tree
					// underneath is replaced.
					nav.Game().Tags = fresh.Tags
					nav.Regraft(fresh.Tree)
				}

				// Jump to the latest move of the main line.
				for nav.Advance(0) == nil {
				}

				tree := nav.Tree()
				if config.ShowBoard {
					if board, err := ui.Board(tree.SetupFEN, tree.MovePath()); err == nil {
						fmt.Print(board)
					}
				}

				if indicator, err := ui.MoveIndicator(tree.SetupFEN, tree.MovePath()); err == nil {
					fmt.Println(indicator)
				}

				if last := nav.Current(); last.SAN != "" {
					fmt.Printf("Last move: %s\n", last.SAN)
				}
			}

			return nil
		},
	}
}
