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

// Package settings persists the user's configuration as a YAML file in the
// scholar home directory. Environment variables override the file.
package settings

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"
)

const filePermissions = 0644

var (
	Directory = filepath.Join(xdg.Home, "scholar")
	File      = filepath.Join(Directory, "settings.yaml")
)

type Settings struct {
	EnginePath    string `yaml:"engine-path"    env:"SCHOLAR_ENGINE"`
	EngineLines   int    `yaml:"engine-lines"   env:"SCHOLAR_ENGINE_LINES"`
	EngineThreads int    `yaml:"engine-threads" env:"SCHOLAR_ENGINE_THREADS"`
	EngineHashMB  int    `yaml:"engine-hash-mb" env:"SCHOLAR_ENGINE_HASH_MB"`

	MastersMoves int  `yaml:"masters-moves" env:"SCHOLAR_MASTERS_MOVES"`
	ShowBoard    bool `yaml:"show-board"    env:"SCHOLAR_SHOW_BOARD"`
	GamesPerPage int  `yaml:"games-per-page"`

	PGNDirectory string `yaml:"pgn-directory" env:"SCHOLAR_PGN_DIR"`
	DefaultPGN   string `yaml:"default-pgn"`
}

func Default() Settings {
	return Settings{
		EnginePath:    "stockfish",
		EngineLines:   3,
		EngineThreads: 1,
		EngineHashMB:  64,
		MastersMoves:  5,
		ShowBoard:     true,
		GamesPerPage:  10,
		PGNDirectory:  Directory,
		DefaultPGN:    "games.pgn",
	}
}

// Load reads the settings file, writing the defaults first if it does not
// exist yet, and then applies any environment overrides.
func Load() (Settings, error) {
	return load(File)
}

func load(file string) (Settings, error) {
	loaded := Default()

	data, err := os.ReadFile(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := loaded.save(file); err != nil {
			return loaded, err
		}

	case err != nil:
		return loaded, err

	default:
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return loaded, err
		}
	}

	if err := env.Parse(&loaded); err != nil {
		return loaded, err
	}

	return loaded, nil
}

// Save writes the settings back to the settings file.
func (settings Settings) Save() error {
	return settings.save(File)
}

func (settings Settings) save(file string) error {
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}

	return os.WriteFile(file, data, filePermissions)
}
