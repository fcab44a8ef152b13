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

package pgn

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptudirm.com/x/scholar/pkg/game"
)

func TestDecodeMainLine(t *testing.T) {
	text := `[Event "Test Match"]
[White "Anderssen"]
[Black "Kieseritzky"]
[Result "1-0"]

1. e4 e5 2. Nf3 Nc6 1-0`

	g, err := Decode(text, game.ChessOracle{})
	require.NoError(t, err)

	assert.Equal(t, "Anderssen vs Kieseritzky", g.Title())
	assert.Equal(t, "1-0", g.Tag("Result"))

	moves := []string{}
	for node := g.Tree.Root; len(node.Children) > 0; node = node.Children[0] {
		moves = append(moves, node.Children[0].Move)
	}
	assert.Equal(t, []string{"e2e4", "e7e5", "g1f3", "b8c6"}, moves)
}

func TestDecodeVariationsAndComments(t *testing.T) {
	text := `[Result "*"]

1. e4 {best by test} e5 (1... c5 2. Nf3 d6) (1... e6) 2. Nf3! Nc6 *`

	g, err := Decode(text, game.ChessOracle{})
	require.NoError(t, err)

	root := g.Tree.Root
	require.Len(t, root.Children, 1)

	e4 := root.Children[0]
	assert.Equal(t, "best by test", e4.Comment)

	// e5 is the main reply; c5 and e6 follow as variations in file order.
	require.Len(t, e4.Children, 3)
	assert.Equal(t, "e7e5", e4.Children[0].Move)
	assert.Equal(t, "c7c5", e4.Children[1].Move)
	assert.Equal(t, "e7e6", e4.Children[2].Move)

	// The c5 variation continues on its own line.
	c5 := e4.Children[1]
	require.Len(t, c5.Children, 1)
	assert.Equal(t, "g1f3", c5.Children[0].Move)
	require.Len(t, c5.Children[0].Children, 1)
	assert.Equal(t, "d7d6", c5.Children[0].Children[0].Move)

	// The suffix annotation on Nf3 becomes a numeric glyph.
	e5 := e4.Children[0]
	require.Len(t, e5.Children, 1)
	assert.Equal(t, "g1f3", e5.Children[0].Move)
	assert.Equal(t, 1, e5.Children[0].NAG)
}

func TestDecodeSetupPosition(t *testing.T) {
	text := `[FEN "8/8/8/4k3/8/4K3/4P3/8 w - - 0 40"]
[Result "*"]

40. Kd3 Kd5 41. Kc3 *`

	g, err := Decode(text, game.ChessOracle{})
	require.NoError(t, err)

	assert.Equal(t, "8/8/8/4k3/8/4K3/4P3/8 w - - 0 40", g.Tree.SetupFEN)
	require.Len(t, g.Tree.Root.Children, 1)
	assert.Equal(t, "e3d3", g.Tree.Root.Children[0].Move)
}

func TestDecodeMalformed(t *testing.T) {
	oracle := game.ChessOracle{}

	// An illegal move poisons the whole game.
	_, err := Decode("1. e5 *", oracle)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Decode("1. e4 {unterminated", oracle)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Decode("(1. e4) *", oracle)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Decode("[Bad tag]\n\n1. e4 *", oracle)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestRoundTrip(t *testing.T) {
	text := `[Event "Training"]
[White "Us"]
[Black "Them"]
[Result "*"]

1. e4 e5 (1... c5 {the sicilian} 2. Nf3) 2. Nf3 $5 Nc6 3. Bb5 {the spanish}
a6 *`

	oracle := game.ChessOracle{}
	g, err := Decode(text, oracle)
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, Encode(&sb, g))

	// Serialization preserves sibling order, comments and glyphs exactly.
	again, err := Decode(sb.String(), oracle)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(g.Tags, again.Tags))
	assert.Empty(t, cmp.Diff(g.Tree.Root, again.Tree.Root))
}

func TestEncodeNumbersBlackAfterInterruption(t *testing.T) {
	g, err := Decode("1. e4 e5 2. Nf3 (2. f4 exf4) Nc6 {solid} 3. Bb5 a6 *", game.ChessOracle{})
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, Encode(&sb, g))

	// Black's replies are renumbered after a variation and after a
	// comment, the way export format requires; uninterrupted black moves
	// carry no number.
	assert.Contains(t, sb.String(),
		"1. e4 e5 2. Nf3 (2. f4 exf4) 2... Nc6 {solid} 3. Bb5 a6 *")
}

func TestEncodeEscapesTagValues(t *testing.T) {
	g := game.New()
	g.SetTag("Event", `The "Big" One`)
	g.SetTag("Result", "*")

	var sb strings.Builder
	require.NoError(t, Encode(&sb, g))
	assert.Contains(t, sb.String(), `[Event "The \"Big\" One"]`)

	again, err := Decode(sb.String(), game.ChessOracle{})
	require.NoError(t, err)
	assert.Equal(t, `The "Big" One`, again.Tag("Event"))
}

func TestSplit(t *testing.T) {
	text := `[Event "One"]
[Result "1-0"]

1. e4 e5 1-0

[Event "Two"]
[Result "0-1"]

1. d4 d5 0-1`

	chunks := Split(text)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0], `[Event "One"]`)
	assert.Contains(t, chunks[0], "1. e4")
	assert.Contains(t, chunks[1], `[Event "Two"]`)
	assert.Contains(t, chunks[1], "1. d4")

	assert.Empty(t, Split("  \n \n"))
	assert.Len(t, Split("1. e4 *"), 1)
}

func TestSplitMalformedGameCostsOnlyItself(t *testing.T) {
	text := `[Event "Broken"]

1. e9 xx 2.

[Event "Fine"]
[Result "*"]

1. e4 *`

	chunks := Split(text)
	require.Len(t, chunks, 2)

	_, err := Decode(chunks[0], game.ChessOracle{})
	assert.Error(t, err)

	g, err := Decode(chunks[1], game.ChessOracle{})
	require.NoError(t, err)
	assert.Equal(t, "Fine", g.Tag("Event"))
}
