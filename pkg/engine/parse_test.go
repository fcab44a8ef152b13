package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptudirm.com/x/scholar/pkg/analysis"
)

func TestParseInfoLine(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		line analysis.Line
		ok   bool
	}{
		{
			name: "multipv line",
			raw:  "info depth 20 seldepth 28 multipv 2 score cp 34 nodes 12345 pv e2e4 e7e5 g1f3",
			line: analysis.Line{
				Rank: 2, Depth: 20, Score: analysis.Centipawns(34),
				Moves: []string{"e2e4", "e7e5", "g1f3"},
			},
			ok: true,
		},
		{
			name: "single pv defaults to rank one",
			raw:  "info depth 12 score cp -51 pv d2d4",
			line: analysis.Line{
				Rank: 1, Depth: 12, Score: analysis.Centipawns(-51),
				Moves: []string{"d2d4"},
			},
			ok: true,
		},
		{
			name: "mate score",
			raw:  "info depth 30 multipv 1 score mate -4 pv h7h8q",
			line: analysis.Line{
				Rank: 1, Depth: 30, Score: analysis.MateIn(-4),
				Moves: []string{"h7h8q"},
			},
			ok: true,
		},
		{
			name: "no pv",
			raw:  "info depth 5 score cp 10",
			ok:   false,
		},
		{
			name: "no score",
			raw:  "info depth 5 pv e2e4",
			ok:   false,
		},
		{
			name: "progress chatter",
			raw:  "info depth 25 currmove e2e4 currmovenumber 1",
			ok:   false,
		},
		{
			name: "not an info line",
			raw:  "bestmove e2e4 ponder e7e5",
			ok:   false,
		},
		{
			name: "truncated score",
			raw:  "info depth 5 score cp",
			ok:   false,
		},
		{
			name: "garbage depth",
			raw:  "info depth twenty score cp 3 pv e2e4",
			ok:   false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			line, ok := parseInfoLine(test.raw)
			require.Equal(t, test.ok, ok)
			if ok {
				assert.Equal(t, test.line, line)
			}
		})
	}
}

func TestIsTerminator(t *testing.T) {
	assert.True(t, isTerminator("bestmove e2e4 ponder e7e5"))
	assert.True(t, isTerminator("bestmove (none)"))
	assert.False(t, isTerminator("info depth 1 score cp 0 pv e2e4"))
	assert.False(t, isTerminator("readyok"))
}
