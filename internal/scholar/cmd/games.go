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
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"laptudirm.com/x/scholar/pkg/game"
	"laptudirm.com/x/scholar/pkg/settings"
	"laptudirm.com/x/scholar/pkg/storage"
)

func Games() *cobra.Command {
	command := &cobra.Command{
		Use:   "games",
		Short: "Manage the games stored in a PGN file",

		Long: heredoc.Doc(`
			Games lists, adds and removes the games of a PGN collection.
			The collection defaults to the configured default PGN file.
		`),
	}

	command.PersistentFlags().StringP("file", "f", "", "PGN File to Operate On")

	command.AddCommand(gamesList())
	command.AddCommand(gamesAdd())
	command.AddCommand(gamesRemove())

	return command
}

// openCollection resolves the target PGN file from the --file flag or the
// configured default and loads it.
func openCollection(cmd *cobra.Command) (*storage.Manager, settings.Settings, error) {
	config, err := settings.Load()
	if err != nil {
		return nil, config, err
	}

	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		path = filepath.Join(config.PGNDirectory, config.DefaultPGN)
	}

	manager, err := storage.Open(path, game.ChessOracle{})
	return manager, config, err
}

func gamesList() *cobra.Command {
	command := &cobra.Command{
		Use:   "list",
		Short: "List the games in the collection",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			manager, config, err := openCollection(cmd)
			if err != nil {
				return err
			}

			page, _ := cmd.Flags().GetInt("page")
			perPage := config.GamesPerPage
			if perPage <= 0 {
				perPage = len(manager.Games)
			}

			start := (page - 1) * perPage
			if start < 0 || start >= len(manager.Games) {
				if len(manager.Games) == 0 {
					fmt.Printf("%s: no games\n", manager.Path)
					return nil
				}

				return fmt.Errorf("games: no page %d", page)
			}

			end := start + perPage
			if end > len(manager.Games) {
				end = len(manager.Games)
			}

			fmt.Printf("%s (%d games):\n", manager.Path, len(manager.Games))
			for i := start; i < end; i++ {
				g := manager.Games[i]
				fmt.Printf("  %d. %s [%s] %d moves\n",
					i+1, g.Title(), g.Tag("Result"), mainLineLength(g))
			}

			return nil
		},
	}

	command.Flags().IntP("page", "p", 1, "Page of the Listing to Show")
	return command
}

func gamesAdd() *cobra.Command {
	command := &cobra.Command{
		Use:   "add",
		Short: "Add a new empty game to the collection",
		Args:  cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := openCollection(cmd)
			if err != nil {
				return err
			}

			white, _ := cmd.Flags().GetString("white")
			black, _ := cmd.Flags().GetString("black")
			result, _ := cmd.Flags().GetString("result")
			event, _ := cmd.Flags().GetString("event")

			g := manager.Add(white, black, result, event)
			if err := manager.Save(); err != nil {
				return err
			}

			fmt.Printf("added %s as game %d\n", g.Title(), len(manager.Games))
			return nil
		},
	}

	command.Flags().StringP("white", "w", "", "Name of the White Player")
	command.Flags().StringP("black", "b", "", "Name of the Black Player")
	command.Flags().StringP("result", "r", "*", "Result of the Game")
	command.Flags().StringP("event", "e", "", "Name of the Event")

	return command
}

func gamesRemove() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <number>",
		Short: "Remove a game from the collection",
		Args:  cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := openCollection(cmd)
			if err != nil {
				return err
			}

			number, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("games: invalid game number %q", args[0])
			}

			if err := manager.Remove(number - 1); err != nil {
				return err
			}

			if err := manager.Save(); err != nil {
				return err
			}

			fmt.Printf("removed game %d from %s\n", number, manager.Path)
			return nil
		},
	}
}

// mainLineLength counts the plies of the game's main line.
func mainLineLength(g *game.Game) int {
	length := 0
	for node := g.Tree.Root; len(node.Children) > 0; node = node.Children[0] {
		length++
	}

	return length
}
