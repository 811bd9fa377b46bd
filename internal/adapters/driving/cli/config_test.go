package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

func TestConfigShowCmd(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	out, err := execute("config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[chunking]")
	assert.Contains(t, out, "[embedding]")
	assert.Contains(t, out, "backend = memory")
}

func TestConfigPathCmd(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	out, err := execute("config", "path")

	require.NoError(t, err)
	assert.Contains(t, out, "config.toml")
}

func TestConfigSetCmd(t *testing.T) {
	cleanup := setupTestEnv(t)
	defer cleanup()

	t.Run("updates and persists a value", func(t *testing.T) {
		_, err := execute("config", "set", "retrieval.top_k", "8")
		require.NoError(t, err)
		assert.Equal(t, 8, settings.Retrieval.TopK)

		data, err := os.ReadFile(filepath.Join(configDir, "config.toml"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "top_k = 8")
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		_, err := execute("config", "set", "nope.nope", "1")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		_, err := execute("config", "set", "chunking.overlap", "100000")
		require.Error(t, err)
	})

	t.Run("rejects non-numeric value for numeric key", func(t *testing.T) {
		_, err := execute("config", "set", "retrieval.top_k", "lots")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "(not set)", maskAPIKey(""))
	assert.Equal(t, "****", maskAPIKey("ab"))
	assert.Equal(t, "****6789", maskAPIKey("sk-123456789"))
}
