package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/archivist-labs/parley-cli/internal/adapters/driven/ai"
	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change configuration.

Settings live in a TOML file (see 'parley config path'). Values changed
with 'config set' are validated before being written.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println(settingsStore.Path())
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one configuration value",
	Long: `Changes a configuration value and writes the file.

Keys use the section.field form from the TOML file, for example:
  parley config set embedding.model nomic-embed-text
  parley config set generation.provider anthropic
  parley config set retrieval.top_k 8
  parley config set chunking.size 800`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the configured providers are reachable",
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cmd.Printf("Configuration (%s)\n\n", settingsStore.Path())

	cmd.Println("[chunking]")
	cmd.Printf("  size = %d\n", settings.Chunking.Size)
	cmd.Printf("  overlap = %d\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[embedding]")
	cmd.Printf("  provider = %s\n", settings.Embedding.Provider)
	cmd.Printf("  model = %s\n", settings.Embedding.Model)
	cmd.Printf("  dimensions = %d\n", settings.Embedding.Dimensions)
	cmd.Printf("  batch_size = %d\n", settings.Embedding.BatchSize)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  base_url = %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  api_key = %s\n", maskAPIKey(settings.Embedding.APIKey))
	}
	cmd.Println()

	cmd.Println("[generation]")
	cmd.Printf("  provider = %s\n", settings.Generation.Provider)
	cmd.Printf("  model = %s\n", settings.Generation.Model)
	cmd.Printf("  max_tokens = %d\n", settings.Generation.MaxTokens)
	cmd.Printf("  timeout = %s\n", settings.Generation.Timeout)
	if settings.Generation.BaseURL != "" {
		cmd.Printf("  base_url = %s\n", settings.Generation.BaseURL)
	}
	if settings.Generation.Provider.RequiresAPIKey() {
		cmd.Printf("  api_key = %s\n", maskAPIKey(settings.Generation.APIKey))
	}
	cmd.Println()

	cmd.Println("[retrieval]")
	cmd.Printf("  top_k = %d\n", settings.Retrieval.TopK)
	cmd.Printf("  score_threshold = %g\n", settings.Retrieval.ScoreThreshold)
	cmd.Printf("  context_budget = %d\n", settings.Retrieval.ContextBudget)
	cmd.Println()

	cmd.Println("[storage]")
	cmd.Printf("  backend = %s\n", settings.Storage.Backend)
	cmd.Println()

	cmd.Println("[ingest]")
	cmd.Printf("  workers = %d\n", settings.Ingest.Workers)
	return nil
}

//nolint:gocyclo // one case per settable key
func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	updated := *settings

	var err error
	switch key {
	case "chunking.size":
		updated.Chunking.Size, err = strconv.Atoi(value)
	case "chunking.overlap":
		updated.Chunking.Overlap, err = strconv.Atoi(value)
	case "embedding.provider":
		updated.Embedding.Provider = domain.AIProvider(value)
	case "embedding.model":
		updated.Embedding.Model = value
	case "embedding.base_url":
		updated.Embedding.BaseURL = value
	case "embedding.api_key":
		updated.Embedding.APIKey = value
	case "embedding.dimensions":
		updated.Embedding.Dimensions, err = strconv.Atoi(value)
	case "embedding.batch_size":
		updated.Embedding.BatchSize, err = strconv.Atoi(value)
	case "embedding.requests_per_second":
		updated.Embedding.RequestsPerSecond, err = strconv.ParseFloat(value, 64)
	case "generation.provider":
		updated.Generation.Provider = domain.AIProvider(value)
	case "generation.model":
		updated.Generation.Model = value
	case "generation.base_url":
		updated.Generation.BaseURL = value
	case "generation.api_key":
		updated.Generation.APIKey = value
	case "generation.max_tokens":
		updated.Generation.MaxTokens, err = strconv.Atoi(value)
	case "generation.timeout":
		updated.Generation.Timeout, err = time.ParseDuration(value)
	case "retrieval.top_k":
		updated.Retrieval.TopK, err = strconv.Atoi(value)
	case "retrieval.score_threshold":
		updated.Retrieval.ScoreThreshold, err = strconv.ParseFloat(value, 64)
	case "retrieval.context_budget":
		updated.Retrieval.ContextBudget, err = strconv.Atoi(value)
	case "retry.max_attempts":
		updated.Retry.MaxAttempts, err = strconv.Atoi(value)
	case "retry.base_delay":
		updated.Retry.BaseDelay, err = time.ParseDuration(value)
	case "ingest.workers":
		updated.Ingest.Workers, err = strconv.Atoi(value)
	case "storage.backend":
		updated.Storage.Backend = domain.StorageBackend(value)
	case "storage.data_dir":
		updated.Storage.DataDir = value
	default:
		return fmt.Errorf("%w: unknown key %q", domain.ErrInvalidConfig, key)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, key, err)
	}

	if err := updated.Validate(); err != nil {
		return err
	}
	if err := settingsStore.Save(&updated); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	*settings = updated
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	cmd.Printf("Embedding (%s, %s): ", settings.Embedding.Provider, settings.Embedding.Model)
	if svc, err := ai.CreateAndValidateEmbeddingService(settings.Embedding); err != nil {
		cmd.Printf("unavailable: %v\n", err)
	} else {
		cmd.Println("ok")
		svc.Close() //nolint:errcheck
	}

	cmd.Printf("Generation (%s, %s): ", settings.Generation.Provider, settings.Generation.Model)
	if svc, err := ai.CreateAndValidateGenerationService(settings.Generation); err != nil {
		cmd.Printf("unavailable: %v\n", err)
	} else {
		cmd.Println("ok")
		svc.Close() //nolint:errcheck
	}
	return nil
}

// maskAPIKey hides all but the last four characters of a key.
func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
