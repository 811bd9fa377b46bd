// Package file provides TOML-backed configuration storage under the
// parley config directory.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
)

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

// SettingsStore is a file-based implementation of driven.SettingsStore
// using TOML. Settings are stored in config.toml within the parley
// config directory.
type SettingsStore struct {
	mu       sync.Mutex
	filePath string
}

// fileSettings mirrors domain.Settings with TOML field names. Durations
// are stored as strings ("500ms", "2m") so the file stays hand-editable.
type fileSettings struct {
	Chunking struct {
		Size    int `toml:"size"`
		Overlap int `toml:"overlap"`
	} `toml:"chunking"`
	Embedding struct {
		Provider          string  `toml:"provider"`
		Model             string  `toml:"model"`
		BaseURL           string  `toml:"base_url,omitempty"`
		APIKey            string  `toml:"api_key,omitempty"`
		Dimensions        int     `toml:"dimensions"`
		BatchSize         int     `toml:"batch_size"`
		RequestsPerSecond float64 `toml:"requests_per_second"`
	} `toml:"embedding"`
	Generation struct {
		Provider  string `toml:"provider"`
		Model     string `toml:"model"`
		BaseURL   string `toml:"base_url,omitempty"`
		APIKey    string `toml:"api_key,omitempty"`
		MaxTokens int    `toml:"max_tokens"`
		Timeout   string `toml:"timeout"`
	} `toml:"generation"`
	Retrieval struct {
		TopK           int     `toml:"top_k"`
		ScoreThreshold float64 `toml:"score_threshold"`
		ContextBudget  int     `toml:"context_budget"`
	} `toml:"retrieval"`
	Retry struct {
		MaxAttempts int    `toml:"max_attempts"`
		BaseDelay   string `toml:"base_delay"`
	} `toml:"retry"`
	Ingest struct {
		Workers int `toml:"workers"`
	} `toml:"ingest"`
	Storage struct {
		Backend string `toml:"backend"`
		DataDir string `toml:"data_dir,omitempty"`
	} `toml:"storage"`
}

// NewSettingsStore creates a new TOML-based settings store.
// If configDir is empty, defaults to ~/.parley.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".parley")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &SettingsStore{
		filePath: filepath.Join(configDir, "config.toml"),
	}, nil
}

// Load reads settings from the TOML file. Fields absent from the file
// keep their default values; a missing file yields the defaults.
func (s *SettingsStore) Load() (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := domain.DefaultSettings()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &settings, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	fs := toFileSettings(settings)
	if err := toml.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	loaded, err := fromFileSettings(fs)
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

// Save persists the settings with restricted file permissions, since the
// file may carry API keys.
func (s *SettingsStore) Save(settings *domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(toFileSettings(*settings))
	if err != nil {
		return fmt.Errorf("serialising config: %w", err)
	}

	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}

// toFileSettings converts domain settings to their file representation.
func toFileSettings(settings domain.Settings) fileSettings {
	var fs fileSettings

	fs.Chunking.Size = settings.Chunking.Size
	fs.Chunking.Overlap = settings.Chunking.Overlap

	fs.Embedding.Provider = string(settings.Embedding.Provider)
	fs.Embedding.Model = settings.Embedding.Model
	fs.Embedding.BaseURL = settings.Embedding.BaseURL
	fs.Embedding.APIKey = settings.Embedding.APIKey
	fs.Embedding.Dimensions = settings.Embedding.Dimensions
	fs.Embedding.BatchSize = settings.Embedding.BatchSize
	fs.Embedding.RequestsPerSecond = settings.Embedding.RequestsPerSecond

	fs.Generation.Provider = string(settings.Generation.Provider)
	fs.Generation.Model = settings.Generation.Model
	fs.Generation.BaseURL = settings.Generation.BaseURL
	fs.Generation.APIKey = settings.Generation.APIKey
	fs.Generation.MaxTokens = settings.Generation.MaxTokens
	fs.Generation.Timeout = settings.Generation.Timeout.String()

	fs.Retrieval.TopK = settings.Retrieval.TopK
	fs.Retrieval.ScoreThreshold = settings.Retrieval.ScoreThreshold
	fs.Retrieval.ContextBudget = settings.Retrieval.ContextBudget

	fs.Retry.MaxAttempts = settings.Retry.MaxAttempts
	fs.Retry.BaseDelay = settings.Retry.BaseDelay.String()

	fs.Ingest.Workers = settings.Ingest.Workers

	fs.Storage.Backend = string(settings.Storage.Backend)
	fs.Storage.DataDir = settings.Storage.DataDir

	return fs
}

// fromFileSettings converts the file representation back to domain settings.
func fromFileSettings(fs fileSettings) (*domain.Settings, error) {
	genTimeout, err := time.ParseDuration(fs.Generation.Timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid generation timeout %q",
			domain.ErrInvalidConfig, fs.Generation.Timeout)
	}
	baseDelay, err := time.ParseDuration(fs.Retry.BaseDelay)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid retry base delay %q",
			domain.ErrInvalidConfig, fs.Retry.BaseDelay)
	}

	return &domain.Settings{
		Chunking: domain.ChunkingSettings{
			Size:    fs.Chunking.Size,
			Overlap: fs.Chunking.Overlap,
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          domain.AIProvider(fs.Embedding.Provider),
			Model:             fs.Embedding.Model,
			BaseURL:           fs.Embedding.BaseURL,
			APIKey:            fs.Embedding.APIKey,
			Dimensions:        fs.Embedding.Dimensions,
			BatchSize:         fs.Embedding.BatchSize,
			RequestsPerSecond: fs.Embedding.RequestsPerSecond,
		},
		Generation: domain.GenerationSettings{
			Provider:  domain.AIProvider(fs.Generation.Provider),
			Model:     fs.Generation.Model,
			BaseURL:   fs.Generation.BaseURL,
			APIKey:    fs.Generation.APIKey,
			MaxTokens: fs.Generation.MaxTokens,
			Timeout:   genTimeout,
		},
		Retrieval: domain.RetrievalSettings{
			TopK:           fs.Retrieval.TopK,
			ScoreThreshold: fs.Retrieval.ScoreThreshold,
			ContextBudget:  fs.Retrieval.ContextBudget,
		},
		Retry: domain.RetrySettings{
			MaxAttempts: fs.Retry.MaxAttempts,
			BaseDelay:   baseDelay,
		},
		Ingest: domain.IngestSettings{
			Workers: fs.Ingest.Workers,
		},
		Storage: domain.StorageSettings{
			Backend: domain.StorageBackend(fs.Storage.Backend),
			DataDir: fs.Storage.DataDir,
		},
	}, nil
}
