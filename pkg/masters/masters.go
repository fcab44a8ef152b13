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

// Package masters looks up aggregate master-game statistics for a position
// from the Lichess opening explorer and merges them with a local engine
// evaluation snapshot for display. Lookup failures are never fatal: the
// study session simply keeps showing engine-only evaluation.
package masters

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"laptudirm.com/x/scholar/pkg/analysis"
)

var ErrLookupFailed = errors.New("masters: statistics lookup failed")

const defaultBaseURL = "https://explorer.lichess.ovh/masters"

// MoveStats is the aggregate result of one move from the looked-up
// position, counted from white's perspective. The UCI field is the move's
// identity and matches the identity space of the tree and engine lines.
type MoveStats struct {
	UCI string `json:"uci"`
	SAN string `json:"san"`

	White int `json:"white"`
	Draws int `json:"draws"`
	Black int `json:"black"`

	AverageRating int `json:"averageRating"`
}

func (stats MoveStats) Total() int {
	return stats.White + stats.Draws + stats.Black
}

type Opening struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
}

// Stats is the per-position lookup result. Moves arrive in no guaranteed
// order from the source; Lookup sorts them by total games descending.
type Stats struct {
	White int `json:"white"`
	Draws int `json:"draws"`
	Black int `json:"black"`

	Moves   []MoveStats `json:"moves"`
	Opening *Opening    `json:"opening"`
}

type Client struct {
	base string
	http *http.Client
}

func NewClient() *Client {
	return &Client{
		base: defaultBaseURL,
		http: &http.Client{Timeout: 3 * time.Second},
	}
}

// NewClientWithBase is used by the tests to point the client at a stub.
func NewClientWithBase(base string) *Client {
	client := NewClient()
	client.base = base
	return client
}

// Lookup fetches the masters statistics for the position given by its FEN.
// One request, one response; any failure is reported as ErrLookupFailed.
func (client *Client) Lookup(fen string) (*Stats, error) {
	resp, err := client.http.Get(client.base + "?fen=" + url.QueryEscape(fen))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %s", ErrLookupFailed, resp.Status)
	}

	var stats Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	sort.SliceStable(stats.Moves, func(i, j int) bool {
		return stats.Moves[i].Total() > stats.Moves[j].Total()
	})

	return &stats, nil
}

// Row is one line of the merged evaluation/statistics display. Either part
// may be missing when the sources disagree about a move.
type Row struct {
	UCI string

	Eval  *analysis.Line
	Games *MoveStats
}

// Merge joins an engine snapshot and a statistics lookup on move identity:
// each evaluation line is matched with the statistics of its first move.
// Moves present in only one source are kept unmerged, engine lines first by
// rank, then remaining database moves by total games descending.
func Merge(snapshot []analysis.Line, stats *Stats) []Row {
	rows := make([]Row, 0, len(snapshot))
	matched := make(map[string]bool)

	for i := range snapshot {
		line := &snapshot[i]
		if len(line.Moves) == 0 {
			continue
		}

		row := Row{UCI: line.Moves[0], Eval: line}
		if stats != nil {
			for j := range stats.Moves {
				if stats.Moves[j].UCI == row.UCI {
					row.Games = &stats.Moves[j]
					matched[row.UCI] = true
					break
				}
			}
		}

		rows = append(rows, row)
	}

	if stats != nil {
		for i := range stats.Moves {
			if !matched[stats.Moves[i].UCI] {
				rows = append(rows, Row{UCI: stats.Moves[i].UCI, Games: &stats.Moves[i]})
			}
		}
	}

	return rows
}
