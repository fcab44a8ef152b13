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

import "sync"

// Aggregator folds the streamed partial results of the live generation into
// a rank-ordered snapshot. Updates from superseded generations are dropped,
// so once a new generation has begun no stale value can ever surface.
// Snapshot reads are atomic with respect to concurrent updates.
type Aggregator struct {
	mu sync.Mutex

	generation uint64
	width      int
	lines      map[int]Line
}

func NewAggregator() *Aggregator {
	return &Aggregator{lines: make(map[int]Line)}
}

// Begin resets the aggregator for a new generation of the given multi-PV
// width. All lines of previous generations are discarded wholesale.
func (agg *Aggregator) Begin(generation uint64, width int) {
	agg.mu.Lock()
	defer agg.mu.Unlock()

	agg.generation = generation
	agg.width = width
	agg.lines = make(map[int]Line, width)
}

// Generation returns the live generation id.
func (agg *Aggregator) Generation() uint64 {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	return agg.generation
}

// Apply merges one line update into the snapshot, reporting whether it was
// accepted. Updates are dropped when they belong to another generation,
// regress in depth, or are older than the rank's current line.
func (agg *Aggregator) Apply(line Line) bool {
	agg.mu.Lock()
	defer agg.mu.Unlock()

	if line.Generation != agg.generation {
		return false
	}

	if line.Rank < 1 || (agg.width > 0 && line.Rank > agg.width) {
		return false
	}

	if known, ok := agg.lines[line.Rank]; ok {
		if line.Depth < known.Depth || line.Freshness <= known.Freshness {
			return false
		}
	}

	agg.lines[line.Rank] = line
	return true
}

// Snapshot returns the best-known lines ordered by rank. Ranks the engine
// has not reported yet are simply absent.
func (agg *Aggregator) Snapshot() []Line {
	agg.mu.Lock()
	defer agg.mu.Unlock()

	width := agg.width
	if width == 0 {
		width = len(agg.lines)
	}

	snapshot := make([]Line, 0, len(agg.lines))
	for rank := 1; rank <= width; rank++ {
		if line, ok := agg.lines[rank]; ok {
			snapshot = append(snapshot, line)
		}
	}

	return snapshot
}

// Depth returns the deepest search depth present in the snapshot.
func (agg *Aggregator) Depth() int {
	agg.mu.Lock()
	defer agg.mu.Unlock()

	depth := 0
	for _, line := range agg.lines {
		if line.Depth > depth {
			depth = line.Depth
		}
	}

	return depth
}
