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
	"strconv"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"laptudirm.com/x/scholar/pkg/settings"
)

func Settings() *cobra.Command {
	command := &cobra.Command{
		Use:   "settings",
		Short: "Show and change scholar's configuration",

		Long: heredoc.Doc(`
			Settings manages the configuration file. Without a subcommand it
			prints the current configuration; set changes a single value and
			writes the file back.
		`),

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := settings.Load()
			if err != nil {
				return err
			}

			fmt.Printf("settings file: %s\n\n", settings.File)
			fmt.Printf("engine-path:    %s\n", config.EnginePath)
			fmt.Printf("engine-lines:   %d\n", config.EngineLines)
			fmt.Printf("engine-threads: %d\n", config.EngineThreads)
			fmt.Printf("engine-hash-mb: %d\n", config.EngineHashMB)
			fmt.Printf("masters-moves:  %d\n", config.MastersMoves)
			fmt.Printf("show-board:     %t\n", config.ShowBoard)
			fmt.Printf("games-per-page: %d\n", config.GamesPerPage)
			fmt.Printf("pgn-directory:  %s\n", config.PGNDirectory)
			fmt.Printf("default-pgn:    %s\n", config.DefaultPGN)

			return nil
		},
	}

	command.AddCommand(settingsSet())
	return command
}

func settingsSet() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Change one configuration value",
		Args:  cobra.ExactArgs(2),

		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := settings.Load()
			if err != nil {
				return err
			}

			if err := apply(&config, args[0], args[1]); err != nil {
				return err
			}

			if err := config.Save(); err != nil {
				return err
			}

			fmt.Printf("set %s to %s\n", args[0], args[1])
			return nil
		},
	}
}

func apply(config *settings.Settings, name, value string) error {
	switch name {
	case "engine-path":
		config.EnginePath = value
	case "pgn-directory":
		config.PGNDirectory = value
	case "default-pgn":
		config.DefaultPGN = value

	case "engine-lines", "engine-threads", "engine-hash-mb",
		"masters-moves", "games-per-page":
		number, err := strconv.Atoi(value)
		if err != nil || number <= 0 {
			return fmt.Errorf("settings: %s needs a positive number, got %q", name, value)
		}

		switch name {
		case "engine-lines":
			config.EngineLines = number
		case "engine-threads":
			config.EngineThreads = number
		case "engine-hash-mb":
			config.EngineHashMB = number
		case "masters-moves":
			config.MastersMoves = number
		case "games-per-page":
			config.GamesPerPage = number
		}

	case "show-board":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("settings: show-board needs true or false, got %q", value)
		}
		config.ShowBoard = enabled

	default:
		return fmt.Errorf("settings: no setting named %q", name)
	}

	return nil
}
