package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaults(t *testing.T) {
	file := filepath.Join(t.TempDir(), "conf", "settings.yaml")

	loaded, err := load(file)
	require.NoError(t, err)
	assert.Equal(t, Default(), loaded)

	// The defaults were persisted for the user to edit.
	_, err = os.Stat(file)
	assert.NoError(t, err)

	again, err := load(file)
	require.NoError(t, err)
	assert.Equal(t, loaded, again)
}

func TestLoadReadsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "settings.yaml")

	text := "engine-path: /usr/bin/stockfish\nengine-lines: 5\nshow-board: false\n"
	require.NoError(t, os.WriteFile(file, []byte(text), 0644))

	loaded, err := load(file)
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/stockfish", loaded.EnginePath)
	assert.Equal(t, 5, loaded.EngineLines)
	assert.False(t, loaded.ShowBoard)

	// Unset keys keep their defaults.
	assert.Equal(t, Default().EngineHashMB, loaded.EngineHashMB)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(file, []byte("engine-path: from-file\n"), 0644))

	t.Setenv("SCHOLAR_ENGINE", "from-env")
	t.Setenv("SCHOLAR_ENGINE_LINES", "7")

	loaded, err := load(file)
	require.NoError(t, err)

	assert.Equal(t, "from-env", loaded.EnginePath)
	assert.Equal(t, 7, loaded.EngineLines)
}

func TestSaveRoundTrips(t *testing.T) {
	file := filepath.Join(t.TempDir(), "settings.yaml")

	wanted := Default()
	wanted.EnginePath = "/opt/engines/stockfish"
	wanted.MastersMoves = 8
	require.NoError(t, wanted.save(file))

	loaded, err := load(file)
	require.NoError(t, err)
	assert.Equal(t, wanted, loaded)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(file, []byte("engine-lines: [not a number\n"), 0644))

	_, err := load(file)
	assert.Error(t, err)
}
