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

// Package pgn serializes move trees to portable game notation and back.
// The contract with the rest of the system is structural: sibling order,
// comments and annotation glyphs round-trip exactly.
package pgn

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"laptudirm.com/x/scholar/pkg/game"
)

const lineWidth = 79

// Encode writes one game in PGN export format: its tags in stored order, a
// blank line, then the movetext with recursive variations.
func Encode(w io.Writer, g *game.Game) error {
	for _, tag := range g.Tags {
		value := strings.ReplaceAll(tag.Value, `"`, `\"`)
		if _, err := fmt.Fprintf(w, "[%s \"%s\"]\n", tag.Name, value); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}

	tokens := movetext(g)
	return wrap(w, tokens)
}

// movetext flattens the tree into PGN tokens, main line first with each
// sibling as a parenthesised variation.
func movetext(g *game.Game) []string {
	var tokens []string
	variation(&tokens, g.Tree.Root, startPly(g.Tree.SetupFEN), false)

	result := g.Tag("Result")
	if result == "" {
		result = "*"
	}

	return append(tokens, result)
}

func variation(tokens *[]string, parent *game.Node, ply int, force bool) {
	for len(parent.Children) > 0 {
		main := parent.Children[0]
		emit(tokens, main, ply, force)
		force = main.Comment != ""

		for _, sibling := range parent.Children[1:] {
			*tokens = append(*tokens, "(")
			emit(tokens, sibling, ply, true)
			variation(tokens, sibling, ply+1, sibling.Comment != "")
			*tokens = append(*tokens, ")")
			force = true
		}

		parent = main
		ply++
	}
}

// emit writes one move with its number, glyph and comment. White moves are
// always numbered; black moves only after an interruption (variation or
// comment) or at the start of a variation.
func emit(tokens *[]string, node *game.Node, ply int, force bool) {
	number := ply/2 + 1
	switch {
	case ply%2 == 0:
		*tokens = append(*tokens, strconv.Itoa(number)+".")
	case force:
		*tokens = append(*tokens, strconv.Itoa(number)+"...")
	}

	san := node.SAN
	if san == "" {
		san = node.Move
	}
	*tokens = append(*tokens, san)

	if node.NAG != 0 {
		*tokens = append(*tokens, "$"+strconv.Itoa(node.NAG))
	}

	if node.Comment != "" {
		comment := strings.ReplaceAll(node.Comment, "}", ")")
		*tokens = append(*tokens, "{"+comment+"}")
	}
}

// startPly derives the root node's ply from a setup FEN so that move
// numbers continue from the setup position. Empty means ply 0.
func startPly(setup string) int {
	if setup == "" {
		return 0
	}

	fields := strings.Fields(setup)
	if len(fields) != 6 {
		return 0
	}

	fullmove, err := strconv.Atoi(fields[5])
	if err != nil || fullmove < 1 {
		return 0
	}

	ply := (fullmove - 1) * 2
	if fields[1] == "b" {
		ply++
	}

	return ply
}

// wrap joins tokens into lines of at most lineWidth characters.
func wrap(w io.Writer, tokens []string) error {
	line := ""
	for _, token := range tokens {
		switch {
		case line == "":
			line = token
		case len(line)+1+len(token) > lineWidth:
			if _, err := io.WriteString(w, line+"\n"); err != nil {
				return err
			}
			line = token
		default:
			line += " " + token
		}
	}

	if line != "" {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}

	return nil
}
