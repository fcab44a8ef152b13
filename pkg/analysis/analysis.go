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

// Package analysis carries the types flowing between an engine session and
// its consumers: requests, scored candidate lines and the aggregator which
// folds streamed partial results into a stable multi-line snapshot.
package analysis

import "fmt"

// Score is a position evaluation: either centipawns or a mate distance,
// never both. Scores are relative to the side to move, as reported on the
// engine's wire protocol.
type Score struct {
	Centipawns int

	// Mate is the number of moves to mate; negative when the side to
	// move is the one getting mated. Only meaningful when IsMate is set.
	Mate   int
	IsMate bool
}

func Centipawns(cp int) Score {
	return Score{Centipawns: cp}
}

func MateIn(moves int) Score {
	return Score{Mate: moves, IsMate: true}
}

func (score Score) String() string {
	if score.IsMate {
		if score.Mate < 0 {
			return fmt.Sprintf("-M%d", -score.Mate)
		}

		return fmt.Sprintf("M%d", score.Mate)
	}

	return fmt.Sprintf("%+.2f", float64(score.Centipawns)/100)
}

// Line is one ranked candidate line for a position. Lines are immutable:
// every engine update creates a whole new value, ordered by Freshness.
type Line struct {
	Rank  int      // 1 is the engine's best line
	Moves []string // principal variation in UCI form
	Score Score
	Depth int

	// Generation identifies the request this line answers. Freshness
	// increases with every parsed engine line and orders updates within
	// a generation.
	Generation uint64
	Freshness  uint64
}

// Request identifies a position to analyse and how many ranked lines to
// search for. The Generation is stamped by the single controller owning
// the counter; the wire protocol itself has no request ids.
type Request struct {
	SetupFEN string
	Moves    []string
	MultiPV  int

	Generation uint64
}

// UpdateKind discriminates the events streamed out of an engine session.
type UpdateKind uint8

const (
	// UpdateLine carries a new or improved candidate line.
	UpdateLine UpdateKind = iota

	// UpdateDone signals the search terminator for a generation; the
	// snapshot known at this point is final.
	UpdateDone
)

// Update is one event of a generation's result stream.
type Update struct {
	Kind       UpdateKind
	Generation uint64
	Line       Line // set for UpdateLine
}
