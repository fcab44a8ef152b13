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

// Package storage manages a collection of games backed by one PGN file on
// disk. Saving keeps a .backup copy of the previous file contents.
package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"laptudirm.com/x/scholar/pkg/game"
	"laptudirm.com/x/scholar/pkg/pgn"
)

const filePermissions = 0644

var ErrNoSuchGame = errors.New("storage: no game with the given number")

type Manager struct {
	Path  string
	Games []*game.Game

	Current int

	oracle game.Oracle
}

// Open loads the collection from the PGN file at path, creating an empty
// file when none exists. Games that fail to parse are skipped with a
// warning; one bad game never poisons the file.
func Open(path string, oracle game.Oracle) (*Manager, error) {
	manager := &Manager{Path: path, oracle: oracle}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(path, nil, filePermissions); err != nil {
			return nil, err
		}

		return manager, nil
	}

	if err := manager.Reload(); err != nil {
		return nil, err
	}

	return manager, nil
}

// Reload re-reads the PGN file, clamping the current selection if games
// disappeared.
func (manager *Manager) Reload() error {
	file, err := os.ReadFile(manager.Path)
	if err != nil {
		return err
	}

	manager.Games = nil
	for _, chunk := range pgn.Split(string(file)) {
		g, err := pgn.Decode(chunk, manager.oracle)
		if err != nil {
			logrus.Warnf("%s: skipping game: %s", manager.Path, err)
			continue
		}

		manager.Games = append(manager.Games, g)
	}

	if manager.Current >= len(manager.Games) {
		manager.Current = max(0, len(manager.Games)-1)
	}

	return nil
}

// Save writes every game back to the PGN file, first copying the previous
// contents to a .backup file.
func (manager *Manager) Save() error {
	if previous, err := os.ReadFile(manager.Path); err == nil {
		if err := os.WriteFile(manager.Path+".backup", previous, filePermissions); err != nil {
			return err
		}
	}

	var sb strings.Builder
	for i, g := range manager.Games {
		if i > 0 {
			sb.WriteString("\n")
		}

		if err := pgn.Encode(&sb, g); err != nil {
			return err
		}
	}

	return os.WriteFile(manager.Path, []byte(sb.String()), filePermissions)
}

// Add appends a new game with the standard tag roster and selects it.
func (manager *Manager) Add(white, black, result, event string) *game.Game {
	if result != "1-0" && result != "0-1" && result != "1/2-1/2" {
		result = "*"
	}

	g := game.New()
	g.SetTag("Event", event)
	g.SetTag("Date", time.Now().Format("2006.01.02"))
	g.SetTag("White", defaulted(white, "Unknown"))
	g.SetTag("Black", defaulted(black, "Unknown"))
	g.SetTag("Result", result)

	manager.Games = append(manager.Games, g)
	manager.Current = len(manager.Games) - 1

	return g
}

// Remove deletes the game at the given index, keeping the selection on the
// same game where possible.
func (manager *Manager) Remove(index int) error {
	if index < 0 || index >= len(manager.Games) {
		return ErrNoSuchGame
	}

	manager.Games = append(manager.Games[:index], manager.Games[index+1:]...)

	if manager.Current > index || manager.Current >= len(manager.Games) {
		manager.Current = max(0, manager.Current-1)
	}

	return nil
}

// Select makes the game at the given index the current one.
func (manager *Manager) Select(index int) error {
	if index < 0 || index >= len(manager.Games) {
		return ErrNoSuchGame
	}

	manager.Current = index
	return nil
}

func defaulted(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
