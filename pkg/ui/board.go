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

// Package ui renders positions and analysis results for the terminal. The
// piece inventory mirrors the original screen-reader-friendly listing: one
// piece per entry, kings first, files left to right.
package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/notnil/chess"
)

// position replays a move path on the setup position.
func position(setup string, moves []string) (*chess.Position, error) {
	pos := chess.StartingPosition()
	if setup != "" {
		option, err := chess.FEN(setup)
		if err != nil {
			return nil, err
		}

		pos = chess.NewGame(option).Position()
	}

	for _, uci := range moves {
		move, err := chess.UCINotation{}.Decode(pos, uci)
		if err != nil {
			return nil, err
		}

		pos = pos.Update(move)
	}

	return pos, nil
}

// Board returns a text diagram of the position reached by the given moves.
func Board(setup string, moves []string) (string, error) {
	pos, err := position(setup, moves)
	if err != nil {
		return "", err
	}

	return pos.Board().Draw(), nil
}

// MoveIndicator describes whose move it is, with the fullmove number.
func MoveIndicator(setup string, moves []string) (string, error) {
	pos, err := position(setup, moves)
	if err != nil {
		return "", err
	}

	number := len(moves)/2 + 1
	side := "White"
	if pos.Turn() == chess.Black {
		side = "Black"
	}

	return fmt.Sprintf("Move %d. %s to move", number, side), nil
}

var pieceOrder = map[chess.PieceType]int{
	chess.King: 0, chess.Queen: 1, chess.Rook: 2,
	chess.Bishop: 3, chess.Knight: 4, chess.Pawn: 5,
}

var pieceLetter = map[chess.PieceType]string{
	chess.King: "K", chess.Queen: "Q", chess.Rook: "R",
	chess.Bishop: "B", chess.Knight: "N", chess.Pawn: "",
}

// Inventory lists every piece of the position as "Ke1"-style entries,
// white pieces then black, each sorted king first and then by file and
// rank. Pawns are listed by square alone.
func Inventory(setup string, moves []string) (white, black []string, err error) {
	pos, err := position(setup, moves)
	if err != nil {
		return nil, nil, err
	}

	type entry struct {
		display string
		order   int
		file    chess.File
		rank    chess.Rank
	}

	var whites, blacks []entry
	board := pos.Board()

	for square := chess.A1; square <= chess.H8; square++ {
		piece := board.Piece(square)
		if piece == chess.NoPiece {
			continue
		}

		item := entry{
			display: pieceLetter[piece.Type()] + square.String(),
			order:   pieceOrder[piece.Type()],
			file:    square.File(),
			rank:    square.Rank(),
		}

		if piece.Color() == chess.White {
			whites = append(whites, item)
		} else {
			blacks = append(blacks, item)
		}
	}

	order := func(entries []entry) []string {
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].order != entries[j].order {
				return entries[i].order < entries[j].order
			}
			if entries[i].file != entries[j].file {
				return entries[i].file < entries[j].file
			}
			return entries[i].rank < entries[j].rank
		})

		listed := make([]string, 0, len(entries))
		for _, item := range entries {
			listed = append(listed, item.display)
		}

		return listed
	}

	return order(whites), order(blacks), nil
}

// SANMoves converts each candidate move of the position into SAN. Moves
// that fail to parse are shown raw.
func SANMoves(setup string, moves []string, candidates []string) ([]string, error) {
	pos, err := position(setup, moves)
	if err != nil {
		return nil, err
	}

	sans := make([]string, 0, len(candidates))
	for _, uci := range candidates {
		move, err := chess.UCINotation{}.Decode(pos, uci)
		if err != nil {
			sans = append(sans, uci)
			continue
		}

		sans = append(sans, chess.AlgebraicNotation{}.Encode(pos, move))
	}

	return sans, nil
}

// SANLine converts a UCI principal variation into SAN for display. Moves
// past the first one that fails to parse are shown raw.
func SANLine(setup string, moves []string, pv []string) string {
	pos, err := position(setup, moves)
	if err != nil {
		return strings.Join(pv, " ")
	}

	parts := make([]string, 0, len(pv))
	for i, uci := range pv {
		move, err := chess.UCINotation{}.Decode(pos, uci)
		if err != nil {
			parts = append(parts, pv[i:]...)
			break
		}

		parts = append(parts, chess.AlgebraicNotation{}.Encode(pos, move))
		pos = pos.Update(move)
	}

	return strings.Join(parts, " ")
}
