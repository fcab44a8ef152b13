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

// Package broadcast follows live tournament relays on Lichess: listing the
// official broadcasts and their rounds, fetching a round's games and
// streaming one game's PGN as it is updated.
package broadcast

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"laptudirm.com/x/scholar/pkg/game"
	"laptudirm.com/x/scholar/pkg/pgn"
)

const defaultBaseURL = "https://lichess.org/api/broadcast"

type Round struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Broadcast struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Rounds []Round `json:"rounds"`
}

type Client struct {
	base string
	http *http.Client
}

func NewClient() *Client {
	return &Client{
		base: defaultBaseURL,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// NewClientWithBase is used by the tests to point the client at a stub.
func NewClientWithBase(base string) *Client {
	client := NewClient()
	client.base = base
	return client
}

// Broadcasts lists the official broadcasts currently on offer.
func (client *Client) Broadcasts() ([]Broadcast, error) {
	resp, err := client.http.Get(client.base)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("broadcast: listing failed: %s", resp.Status)
	}

	var listing struct {
		Official []Broadcast `json:"official"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, err
	}

	return listing.Official, nil
}

// RoundGames fetches every game of a round as a parsed game tree. Games
// that fail to parse are skipped.
func (client *Client) RoundGames(roundID string, oracle game.Oracle) ([]*game.Game, error) {
	resp, err := client.http.Get(fmt.Sprintf("%s/%s.pgn", client.base, roundID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("broadcast: round fetch failed: %s", resp.Status)
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var games []*game.Game
	for _, chunk := range pgn.Split(string(text)) {
		g, err := pgn.Decode(chunk, oracle)
		if err != nil {
			logrus.Warnf("broadcast: skipping game: %s", err)
			continue
		}

		games = append(games, g)
	}

	return games, nil
}

// StreamGame streams a game's PGN snapshots until the context is
// cancelled. Each complete PGN chunk (terminated by a blank line in the
// stream) is sent on the returned channel, which closes when the stream
// ends.
func (client *Client) StreamGame(ctx context.Context, roundID, gameID string) (<-chan string, error) {
	url := fmt.Sprintf("%s/round/%s/game/%s.pgn/stream", client.base, roundID, gameID)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	// Streaming responses get no client timeout; cancellation comes from
	// the caller's context instead.
	streaming := &http.Client{Transport: client.http.Transport}
	resp, err := streaming.Do(request)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("broadcast: stream failed: %s", resp.Status)
	}

	updates := make(chan string)
	go func() {
		defer close(updates)
		defer resp.Body.Close()

		// One snapshot is tags, a blank line, then movetext. A blank
		// line after movetext has been seen completes the snapshot.
		scanner := bufio.NewScanner(resp.Body)
		chunk, sawMovetext := "", false

		flush := func() bool {
			if chunk == "" {
				return true
			}

			select {
			case updates <- chunk:
				chunk, sawMovetext = "", false
				return true
			case <-ctx.Done():
				return false
			}
		}

		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "" && sawMovetext:
				if !flush() {
					return
				}
			case line == "":
				chunk += "\n"
			default:
				if line[0] != '[' {
					sawMovetext = true
				}
				chunk += line + "\n"
			}
		}

		flush()
	}()

	return updates, nil
}
