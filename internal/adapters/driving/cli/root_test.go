package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestEnv points the CLI at a temporary config directory with the
// in-memory storage backend and resets wired services between tests.
func setupTestEnv(t *testing.T) func() {
	t.Helper()

	dir := t.TempDir()
	config := `
[storage]
backend = "memory"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(config), 0o600))

	originalConfigDir := configDir
	configDir = dir

	return func() {
		configDir = originalConfigDir
		resetServices()
		rootCmd.SetArgs(nil)
	}
}

// resetServices clears the wired services so the next Execute rebuilds
// them from scratch.
func resetServices() {
	if orchestrator != nil {
		orchestrator.Close() //nolint:errcheck
	}
	settings = nil
	settingsStore = nil
	sqliteStore = nil
	docStore = nil
	convoStore = nil
	vectorIndex = nil
	conversationService = nil
	embeddingService = nil
	generationService = nil
	orchestrator = nil
	chatService = nil
}

// execute runs the root command with args and captures its output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
