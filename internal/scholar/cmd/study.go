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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/briandowns/spinner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"laptudirm.com/x/scholar/pkg/engine"
	"laptudirm.com/x/scholar/pkg/game"
	"laptudirm.com/x/scholar/pkg/masters"
	"laptudirm.com/x/scholar/pkg/pgn"
	"laptudirm.com/x/scholar/pkg/settings"
	"laptudirm.com/x/scholar/pkg/storage"
	"laptudirm.com/x/scholar/pkg/study"
	"laptudirm.com/x/scholar/pkg/ui"
)

func Study() *cobra.Command {
	command := &cobra.Command{
		Use:   "study [pgn-file]",
		Short: "Browse and annotate a game with engine and database overlays",
		Args:  cobra.MaximumNArgs(1),

		Long: heredoc.Doc(`
			Study opens a game from a PGN file and walks its move tree from
			the terminal. Every position change re-points the analysis
			engine and the masters database overlay at the new position.

			Moves may be entered in SAN (Nf3) or UCI (g1f3). Entering a
			move that is already in the tree follows it; a new move is
			added as a variation. An empty command follows the main line.
		`),

		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := settings.Load()
			if err != nil {
				return err
			}

			path := filepath.Join(config.PGNDirectory, config.DefaultPGN)
			if len(args) > 0 {
				path = args[0]
			}

			oracle := game.ChessOracle{}
			manager, err := storage.Open(path, oracle)
			if err != nil {
				return err
			}

			number, _ := cmd.Flags().GetInt("game")
			if number > 0 {
				if err := manager.Select(number - 1); err != nil {
					return err
				}
			}

			if len(manager.Games) == 0 {
				manager.Add("", "", "*", "")
				logrus.Infof("%s has no games, starting a fresh one", path)
			}

			session := startEngine(config)
			if session != nil {
				defer func() {
					if err := session.Shutdown(); err != nil {
						logrus.Error(err)
					}
				}()
			}

			return studyGame(manager, session, config)
		},
	}

	command.Flags().IntP("game", "g", 0, "Game Number Within the PGN File")
	return command
}

var commandHelp = heredoc.Doc(`
	<move>      play a move (SAN or UCI), following it if already in the tree
	<number>    advance into variation number N
	<enter>     follow the main line
	b           go back one move
	v           list the variations from here
	p           promote the current move to the main line
	D           delete the current move and everything after it
	c <text>    comment the current move
	e           show the engine evaluation and masters statistics
	l           list the legal moves
	r           read the board as a piece listing
	pgn         print the game as PGN
	s           save the file
	q           quit (q! discards unsaved changes)
`)

// startEngine launches the configured analysis engine. Failure to do so is
// not fatal: the study session continues navigation-only.
func startEngine(config settings.Settings) *engine.Session {
	working := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	working.Suffix = " starting " + config.EnginePath
	working.Start()
	defer working.Stop()

	session, err := engine.Start(engine.Config{
		Name:    filepath.Base(config.EnginePath),
		Cmd:     config.EnginePath,
		Threads: config.EngineThreads,
		HashMB:  config.EngineHashMB,
	})

	if err != nil {
		logrus.Warnf("analysis unavailable: %s", err)
		return nil
	}

	return session
}

func studyGame(manager *storage.Manager, session *engine.Session, config settings.Settings) error {
	g := manager.Games[manager.Current]
	nav := game.NewNavigator(g, game.ChessOracle{})

	var analyzer study.Analyzer
	if session != nil {
		analyzer = session
	}

	controller := study.NewController(nav, analyzer, masters.NewClient(), config.EngineLines)
	if err := controller.OnPositionChange(); err != nil {
		logrus.Warn(err)
	}

	fmt.Printf("Studying %s [%s]\n", g.Title(), g.Tag("Result"))
	render(nav, config)

	input := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("scholar> ")
		if !input.Scan() {
			return nil
		}

		command := strings.TrimSpace(input.Text())
		verb, rest, _ := strings.Cut(command, " ")

		moved := false
		switch verb {
		case "q", "quit":
			if nav.Dirty() {
				fmt.Println("unsaved changes, use 's' to save or 'q!' to discard")
				continue
			}
			return nil

		case "q!":
			return nil

		case "s", "save":
			if err := manager.Save(); err != nil {
				logrus.Error(err)
				continue
			}
			nav.MarkSaved()
			fmt.Printf("saved to %s\n", manager.Path)

		case "b", "back":
			nav.Retreat()
			moved = true

		case "v", "variations":
			for i, node := range nav.Variations() {
				fmt.Printf("  %d. %s%s\n", i+1, node.SAN, commentSuffix(node))
			}

		case "p", "promote":
			nav.PromoteVariation()
			fmt.Println("variation promoted to main line")

		case "D", "delete":
			if err := nav.DeleteFromHere(); err != nil {
				fmt.Println(err)
				continue
			}
			moved = true

		case "c", "comment":
			nav.SetComment(rest)

		case "r", "read":
			readBoard(nav)

		case "l", "legal":
			showLegalMoves(nav)

		case "e", "eval":
			showEvaluation(nav, controller, config)

		case "pgn":
			dumpPGN(manager)

		case "h", "?", "help":
			fmt.Print(commandHelp)

		case "":
			if err := nav.Advance(0); err != nil {
				fmt.Println("already at the end of the line")
				continue
			}
			moved = true

		default:
			moved = playOrAdvance(nav, command)
		}

		if moved {
			if err := controller.OnPositionChange(); err != nil {
				logrus.Warn(err)
			}
			render(nav, config)
		}
	}
}

// playOrAdvance interprets the input as a variation number first and a
// move second, reporting whether the cursor moved.
func playOrAdvance(nav *game.Navigator, input string) bool {
	if number, err := strconv.Atoi(input); err == nil {
		if err := nav.Advance(number - 1); err != nil {
			fmt.Println(err)
			return false
		}
		return true
	}

	node, err := nav.PlayMove(input)
	if err != nil {
		fmt.Println(err)
		return false
	}

	fmt.Printf("played %s\n", node.SAN)
	return true
}

func render(nav *game.Navigator, config settings.Settings) {
	tree := nav.Tree()

	if config.ShowBoard {
		board, err := ui.Board(tree.SetupFEN, tree.MovePath())
		if err == nil {
			fmt.Print(board)
		}
	}

	if indicator, err := ui.MoveIndicator(tree.SetupFEN, tree.MovePath()); err == nil {
		fmt.Println(indicator)
	}

	if comment := nav.Current().Comment; comment != "" {
		fmt.Printf("Comment: %s\n", comment)
	}

	if children := nav.Variations(); len(children) > 1 {
		names := make([]string, 0, len(children))
		for _, node := range children {
			names = append(names, node.SAN)
		}
		fmt.Printf("Variations: %s\n", strings.Join(names, ", "))
	}
}

// showEvaluation prints the current snapshot and database overlay. The
// engine keeps searching in the background, so asking again shows deeper
// results.
func showEvaluation(nav *game.Navigator, controller *study.Controller, config settings.Settings) {
	tree := nav.Tree()

	if !controller.EngineAvailable() {
		fmt.Println("engine: unavailable")
	} else {
		fmt.Printf("Analysis (%s, depth %d):\n", controller.State(), controller.Depth())
		for _, row := range ui.FormatLines(tree.SetupFEN, tree.MovePath(), controller.Snapshot()) {
			fmt.Println("  " + row)
		}
	}

	rows := ui.FormatStats(controller.Stats(), config.MastersMoves)
	if len(rows) > 0 {
		fmt.Println("Masters database:")
		for _, row := range rows {
			fmt.Println("  " + row)
		}
	}
}

func showLegalMoves(nav *game.Navigator) {
	tree := nav.Tree()

	legal, err := game.ChessOracle{}.LegalMoves(tree.SetupFEN, tree.MovePath())
	if err != nil {
		logrus.Error(err)
		return
	}

	sans, err := ui.SANMoves(tree.SetupFEN, tree.MovePath(), legal)
	if err != nil {
		logrus.Error(err)
		return
	}

	sort.Strings(sans)
	fmt.Printf("Legal moves: %s\n", strings.Join(sans, ", "))
}

func readBoard(nav *game.Navigator) {
	tree := nav.Tree()
	white, black, err := ui.Inventory(tree.SetupFEN, tree.MovePath())
	if err != nil {
		logrus.Error(err)
		return
	}

	fmt.Println("White pieces:")
	for _, piece := range white {
		fmt.Println("  " + piece)
	}

	fmt.Println("Black pieces:")
	for _, piece := range black {
		fmt.Println("  " + piece)
	}
}

func dumpPGN(manager *storage.Manager) {
	g := manager.Games[manager.Current]

	var sb strings.Builder
	if err := pgn.Encode(&sb, g); err != nil {
		logrus.Error(err)
		return
	}

	fmt.Print(sb.String())
}

func commentSuffix(node *game.Node) string {
	if node.Comment == "" {
		return ""
	}

	return " (" + node.Comment + ")"
}
