package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API (generation only).
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// StorageBackend selects the metadata store implementation.
type StorageBackend string

// Available storage backends.
const (
	// StorageMemory keeps documents and conversations in process memory.
	StorageMemory StorageBackend = "memory"

	// StorageSQLite persists to a SQLite database under the data directory.
	StorageSQLite StorageBackend = "sqlite"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	return b == StorageMemory || b == StorageSQLite
}

// ChunkingSettings configures how documents are split.
type ChunkingSettings struct {
	// Size is the window size in characters.
	Size int

	// Overlap is the number of characters shared by consecutive chunks.
	Overlap int
}

// Validate checks the chunking invariants: size > 0, 0 <= overlap < size.
func (s ChunkingSettings) Validate() error {
	if s.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, s.Size)
	}
	if s.Overlap < 0 || s.Overlap >= s.Size {
		return fmt.Errorf("%w: chunk overlap must be in [0, size), got overlap=%d size=%d",
			ErrInvalidConfig, s.Overlap, s.Size)
	}
	return nil
}

// EmbeddingSettings configures the embedding provider.
type EmbeddingSettings struct {
	// Provider selects the backing service.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL overrides the provider API base URL.
	BaseURL string

	// APIKey authenticates cloud providers.
	APIKey string

	// Dimensions is the expected vector width. Fixed per index instance.
	Dimensions int

	// BatchSize bounds how many texts are sent per external call.
	BatchSize int

	// RequestsPerSecond bounds the call rate to the provider.
	RequestsPerSecond float64
}

// Validate checks the embedding configuration.
func (s EmbeddingSettings) Validate() error {
	if !s.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, s.Provider)
	}
	if s.Provider == AIProviderAnthropic {
		return fmt.Errorf("%w: anthropic does not provide an embedding API", ErrInvalidConfig)
	}
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return fmt.Errorf("%w: provider %s requires an API key", ErrInvalidConfig, s.Provider)
	}
	if s.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding dimensions must be positive, got %d",
			ErrInvalidConfig, s.Dimensions)
	}
	if s.BatchSize <= 0 {
		return fmt.Errorf("%w: embedding batch size must be positive, got %d",
			ErrInvalidConfig, s.BatchSize)
	}
	return nil
}

// GenerationSettings configures the answer-generation provider.
type GenerationSettings struct {
	// Provider selects the backing service.
	Provider AIProvider

	// Model is the generation model name.
	Model string

	// BaseURL overrides the provider API base URL.
	BaseURL string

	// APIKey authenticates cloud providers.
	APIKey string

	// MaxTokens bounds answer length.
	MaxTokens int

	// Timeout bounds a single generation call.
	Timeout time.Duration
}

// Validate checks the generation configuration.
func (s GenerationSettings) Validate() error {
	if !s.Provider.IsValid() {
		return fmt.Errorf("%w: unknown generation provider %q", ErrInvalidConfig, s.Provider)
	}
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return fmt.Errorf("%w: provider %s requires an API key", ErrInvalidConfig, s.Provider)
	}
	return nil
}

// RetrievalSettings configures similarity retrieval and context assembly.
type RetrievalSettings struct {
	// TopK is the number of chunks to retrieve per query.
	TopK int

	// ScoreThreshold excludes hits scoring below it. Zero disables the cutoff.
	ScoreThreshold float64

	// ContextBudget bounds the assembled context size in characters.
	ContextBudget int
}

// Validate checks the retrieval configuration.
func (s RetrievalSettings) Validate() error {
	if s.TopK <= 0 {
		return fmt.Errorf("%w: retrieval k must be positive, got %d", ErrInvalidConfig, s.TopK)
	}
	if s.ScoreThreshold < 0 || s.ScoreThreshold > 1 {
		return fmt.Errorf("%w: score threshold must be in [0, 1], got %g",
			ErrInvalidConfig, s.ScoreThreshold)
	}
	if s.ContextBudget <= 0 {
		return fmt.Errorf("%w: context budget must be positive, got %d",
			ErrInvalidConfig, s.ContextBudget)
	}
	return nil
}

// RetrySettings configures the retry policy for external service calls.
type RetrySettings struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int

	// BaseDelay is the first retry delay; subsequent delays double.
	BaseDelay time.Duration
}

// Validate checks the retry configuration.
func (s RetrySettings) Validate() error {
	if s.MaxAttempts <= 0 {
		return fmt.Errorf("%w: retry attempts must be positive, got %d",
			ErrInvalidConfig, s.MaxAttempts)
	}
	if s.BaseDelay <= 0 {
		return fmt.Errorf("%w: retry base delay must be positive, got %s",
			ErrInvalidConfig, s.BaseDelay)
	}
	return nil
}

// IngestSettings configures the ingestion worker pool.
type IngestSettings struct {
	// Workers is the number of documents processed in parallel.
	Workers int
}

// Validate checks the ingestion configuration.
func (s IngestSettings) Validate() error {
	if s.Workers <= 0 {
		return fmt.Errorf("%w: ingest workers must be positive, got %d",
			ErrInvalidConfig, s.Workers)
	}
	return nil
}

// StorageSettings configures metadata persistence.
type StorageSettings struct {
	// Backend selects the store implementation.
	Backend StorageBackend

	// DataDir is where the sqlite backend keeps its database.
	DataDir string
}

// Validate checks the storage configuration.
func (s StorageSettings) Validate() error {
	if !s.Backend.IsValid() {
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, s.Backend)
	}
	return nil
}

// Settings is the full application configuration, validated at startup.
type Settings struct {
	Chunking   ChunkingSettings
	Embedding  EmbeddingSettings
	Generation GenerationSettings
	Retrieval  RetrievalSettings
	Retry      RetrySettings
	Ingest     IngestSettings
	Storage    StorageSettings
}

// Validate checks every section. Invalid combinations fail startup rather
// than failing silently per-document.
func (s Settings) Validate() error {
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	if err := s.Embedding.Validate(); err != nil {
		return err
	}
	if err := s.Generation.Validate(); err != nil {
		return err
	}
	if err := s.Retrieval.Validate(); err != nil {
		return err
	}
	if err := s.Retry.Validate(); err != nil {
		return err
	}
	if err := s.Ingest.Validate(); err != nil {
		return err
	}
	return s.Storage.Validate()
}

// DefaultSettings returns a working local-first configuration.
func DefaultSettings() Settings {
	return Settings{
		Chunking: ChunkingSettings{
			Size:    1000,
			Overlap: 200,
		},
		Embedding: EmbeddingSettings{
			Provider:          AIProviderOllama,
			Model:             "nomic-embed-text",
			Dimensions:        768,
			BatchSize:         16,
			RequestsPerSecond: 8,
		},
		Generation: GenerationSettings{
			Provider:  AIProviderOllama,
			Model:     "llama3.2",
			MaxTokens: 1024,
			Timeout:   120 * time.Second,
		},
		Retrieval: RetrievalSettings{
			TopK:          5,
			ContextBudget: 4000,
		},
		Retry: RetrySettings{
			MaxAttempts: 3,
			BaseDelay:   500 * time.Millisecond,
		},
		Ingest: IngestSettings{
			Workers: 4,
		},
		Storage: StorageSettings{
			Backend: StorageSQLite,
		},
	}
}
