package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

func TestSettingsStore_LoadMissingFileReturnsDefaults(t *testing.T) {
	store, err := NewSettingsStore(t.TempDir())
	require.NoError(t, err)

	settings, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), *settings)
}

func TestSettingsStore_SaveLoadRoundTrip(t *testing.T) {
	store, err := NewSettingsStore(t.TempDir())
	require.NoError(t, err)

	settings := domain.DefaultSettings()
	settings.Chunking.Size = 500
	settings.Chunking.Overlap = 100
	settings.Embedding.Provider = domain.AIProviderOpenAI
	settings.Embedding.Model = "text-embedding-3-small"
	settings.Embedding.APIKey = "sk-test"
	settings.Embedding.Dimensions = 1536
	settings.Generation.Timeout = 2 * time.Minute
	settings.Retry.BaseDelay = 250 * time.Millisecond
	settings.Storage.Backend = domain.StorageMemory

	require.NoError(t, store.Save(&settings))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, settings, *got)
}

func TestSettingsStore_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSettingsStore(dir)
	require.NoError(t, err)

	partial := "[chunking]\nsize = 256\noverlap = 32\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(partial), 0600))

	got, err := store.Load()
	require.NoError(t, err)

	defaults := domain.DefaultSettings()
	assert.Equal(t, 256, got.Chunking.Size)
	assert.Equal(t, 32, got.Chunking.Overlap)
	assert.Equal(t, defaults.Embedding.Model, got.Embedding.Model)
	assert.Equal(t, defaults.Retrieval.TopK, got.Retrieval.TopK)
}

func TestSettingsStore_InvalidDuration(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSettingsStore(dir)
	require.NoError(t, err)

	bad := "[generation]\ntimeout = \"soon\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(bad), 0600))

	_, err = store.Load()
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSettingsStore_SavePermissions(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSettingsStore(dir)
	require.NoError(t, err)

	settings := domain.DefaultSettings()
	require.NoError(t, store.Save(&settings))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
