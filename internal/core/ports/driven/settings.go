package driven

import "github.com/archivist-labs/parley-cli/internal/core/domain"

// SettingsStore persists application configuration.
type SettingsStore interface {
	// Load reads the stored settings, filling unset fields with defaults.
	// A missing store yields the defaults.
	Load() (*domain.Settings, error)

	// Save persists the settings.
	Save(settings *domain.Settings) error

	// Path returns a human-readable location of the store.
	Path() string
}
