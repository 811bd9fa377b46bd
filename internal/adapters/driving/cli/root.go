// Package cli provides the parley command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archivist-labs/parley-cli/internal/adapters/driven/ai"
	configfile "github.com/archivist-labs/parley-cli/internal/adapters/driven/config/file"
	storagemem "github.com/archivist-labs/parley-cli/internal/adapters/driven/storage/memory"
	"github.com/archivist-labs/parley-cli/internal/adapters/driven/storage/sqlite"
	vectormem "github.com/archivist-labs/parley-cli/internal/adapters/driven/vector/memory"
	"github.com/archivist-labs/parley-cli/internal/chunker"
	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
	"github.com/archivist-labs/parley-cli/internal/core/services"
	"github.com/archivist-labs/parley-cli/internal/extractors"
	"github.com/archivist-labs/parley-cli/internal/logger"
)

// version is set by Execute.
var version = "dev"

var (
	verbose   bool
	configDir string
)

// Wired services. Storage-backed services are built for every command;
// AI-backed ones only on demand so listing documents never touches a
// provider.
var (
	settings      *domain.Settings
	settingsStore driven.SettingsStore

	sqliteStore *sqlite.Store
	docStore    driven.DocumentStore
	convoStore  driven.ConversationStore
	vectorIndex driven.VectorIndex

	conversationService *services.ConversationService

	embeddingService  driven.EmbeddingService
	generationService driven.GenerationService
	orchestrator      *services.IngestOrchestrator
	chatService       *services.ChatService
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Chat with your documents",
	Long: `Parley ingests local documents, indexes them for semantic
retrieval, and answers questions about them with source citations.

Documents are chunked, embedded, and indexed locally. Answers are
generated by a configurable provider (Ollama by default, so everything
can run on your own machine).`,
	SilenceUsage:      true,
	PersistentPreRunE: initRuntime,
}

// Execute runs the root command. v is the build version.
func Execute(v string) error {
	version = v
	defer shutdown()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose pipeline logging to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.parley)")
}

// initRuntime loads settings and wires the storage-backed services.
// Idempotent: a second run in the same process keeps the wired state.
func initRuntime(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if settings != nil {
		return nil
	}

	store, err := configfile.NewSettingsStore(configDir)
	if err != nil {
		return fmt.Errorf("opening settings: %w", err)
	}
	settingsStore = store

	settings, err = settingsStore.Load()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings in %s: %w", settingsStore.Path(), err)
	}

	switch settings.Storage.Backend {
	case domain.StorageSQLite:
		sqliteStore, err = sqlite.NewStore(settings.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		docStore = sqliteStore.DocumentStore()
		convoStore = sqliteStore.ConversationStore()
		vectorIndex, err = sqliteStore.VectorIndex(settings.Embedding.Dimensions)
		if err != nil {
			return fmt.Errorf("opening vector index: %w", err)
		}
	case domain.StorageMemory:
		docStore = storagemem.NewDocumentStore()
		convoStore = storagemem.NewConversationStore()
		vectorIndex, err = vectormem.New(settings.Embedding.Dimensions)
		if err != nil {
			return fmt.Errorf("creating vector index: %w", err)
		}
	default:
		return fmt.Errorf("%w: storage backend %q", domain.ErrInvalidConfig, settings.Storage.Backend)
	}

	conversationService = services.NewConversationService(convoStore)
	return nil
}

// ensureOrchestrator wires the ingestion pipeline. When ping is set the
// embedding provider is checked for reachability first.
func ensureOrchestrator(cmd *cobra.Command, ping bool) error {
	if orchestrator != nil {
		return nil
	}
	if err := ensureEmbedding(ping); err != nil {
		return err
	}

	chk, err := chunker.New(settings.Chunking.Size, settings.Chunking.Overlap)
	if err != nil {
		return err
	}

	gateway := services.NewEmbeddingGateway(embeddingService, settings.Embedding, settings.Retry)
	orchestrator = services.NewIngestOrchestrator(
		cmd.Context(),
		extractors.NewRegistry(),
		chk,
		gateway,
		vectorIndex,
		docStore,
		settings.Ingest.Workers,
	)
	return nil
}

// ensureChat wires the query pipeline. Provider outages surface per
// question as failed turns, so no ping happens here.
func ensureChat() error {
	if chatService != nil {
		return nil
	}
	if err := ensureEmbedding(false); err != nil {
		return err
	}

	var err error
	generationService, err = ai.CreateGenerationService(settings.Generation)
	if err != nil {
		return err
	}

	gateway := services.NewEmbeddingGateway(embeddingService, settings.Embedding, settings.Retry)
	chatService = services.NewChatService(
		gateway,
		services.NewRetriever(vectorIndex, docStore, settings.Retrieval.ScoreThreshold),
		services.NewContextAssembler(settings.Retrieval.ContextBudget),
		generationService,
		conversationService,
		settings.Retrieval,
		settings.Generation,
	)
	return nil
}

func ensureEmbedding(ping bool) error {
	if embeddingService != nil {
		return nil
	}
	var err error
	if ping {
		embeddingService, err = ai.CreateAndValidateEmbeddingService(settings.Embedding)
	} else {
		embeddingService, err = ai.CreateEmbeddingService(settings.Embedding)
	}
	return err
}

// shutdown releases everything initRuntime and the ensure helpers
// opened, in dependency order.
func shutdown() {
	if orchestrator != nil {
		orchestrator.Close() //nolint:errcheck
	}
	if embeddingService != nil {
		embeddingService.Close() //nolint:errcheck
	}
	if generationService != nil {
		generationService.Close() //nolint:errcheck
	}
	if vectorIndex != nil {
		vectorIndex.Close() //nolint:errcheck
	}
	if sqliteStore != nil {
		sqliteStore.Close() //nolint:errcheck
	}
}
