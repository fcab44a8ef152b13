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

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(generation uint64, rank, depth int, freshness uint64, moves ...string) Line {
	return Line{
		Rank: rank, Moves: moves, Depth: depth,
		Score: Centipawns(10 * rank), Generation: generation, Freshness: freshness,
	}
}

func TestAggregatorDropsStaleGenerations(t *testing.T) {
	agg := NewAggregator()

	agg.Begin(1, 3)
	require.True(t, agg.Apply(line(1, 1, 10, 1, "e2e4")))

	agg.Begin(2, 3)
	assert.Empty(t, agg.Snapshot(), "Begin must discard the previous generation")

	// A late line of the superseded generation never surfaces.
	assert.False(t, agg.Apply(line(1, 1, 30, 2, "e2e4")))
	assert.Empty(t, agg.Snapshot())

	assert.True(t, agg.Apply(line(2, 1, 5, 3, "d2d4")))
	snapshot := agg.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, []string{"d2d4"}, snapshot[0].Moves)
}

func TestAggregatorOrdersSnapshotByRank(t *testing.T) {
	agg := NewAggregator()
	agg.Begin(7, 3)

	// Ranks arrive out of order on the wire.
	require.True(t, agg.Apply(line(7, 2, 12, 1, "d2d4")))
	require.True(t, agg.Apply(line(7, 1, 12, 2, "e2e4")))
	require.True(t, agg.Apply(line(7, 3, 12, 3, "c2c4")))

	snapshot := agg.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, 1, snapshot[0].Rank)
	assert.Equal(t, 2, snapshot[1].Rank)
	assert.Equal(t, 3, snapshot[2].Rank)
}

func TestAggregatorSnapshotKeepsGaps(t *testing.T) {
	agg := NewAggregator()
	agg.Begin(1, 3)

	require.True(t, agg.Apply(line(1, 3, 8, 1, "c2c4")))

	// Only rank 3 has reported, so the snapshot has a single entry.
	snapshot := agg.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, 3, snapshot[0].Rank)
}

func TestAggregatorRejectsRegressions(t *testing.T) {
	agg := NewAggregator()
	agg.Begin(1, 2)

	require.True(t, agg.Apply(line(1, 1, 15, 5, "e2e4")))

	// Lower depth and non-increasing freshness both lose to the incumbent.
	assert.False(t, agg.Apply(line(1, 1, 12, 6, "e2e4")))
	assert.False(t, agg.Apply(line(1, 1, 15, 5, "e2e4")))
	assert.False(t, agg.Apply(line(1, 1, 15, 4, "e2e4")))

	// Same depth but fresher replaces.
	assert.True(t, agg.Apply(line(1, 1, 15, 6, "d2d4")))

	snapshot := agg.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, []string{"d2d4"}, snapshot[0].Moves)
}

func TestAggregatorRejectsOutOfRangeRanks(t *testing.T) {
	agg := NewAggregator()
	agg.Begin(1, 2)

	assert.False(t, agg.Apply(line(1, 0, 10, 1, "e2e4")))
	assert.False(t, agg.Apply(line(1, 3, 10, 2, "e2e4")))
}

func TestAggregatorDepth(t *testing.T) {
	agg := NewAggregator()
	agg.Begin(1, 2)

	assert.Zero(t, agg.Depth())

	require.True(t, agg.Apply(line(1, 1, 18, 1, "e2e4")))
	require.True(t, agg.Apply(line(1, 2, 16, 2, "d2d4")))
	assert.Equal(t, 18, agg.Depth())
}

func TestScoreString(t *testing.T) {
	assert.Equal(t, "+0.34", Centipawns(34).String())
	assert.Equal(t, "-1.20", Centipawns(-120).String())
	assert.Equal(t, "+0.00", Centipawns(0).String())
	assert.Equal(t, "M5", MateIn(5).String())
	assert.Equal(t, "-M3", MateIn(-3).String())
}
