package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarise the index",
	Long:  `Prints a per-state summary of all ingested documents.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	docs, err := docStore.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	counts := make(map[domain.DocumentStatus]int)
	chunks := 0
	for i := range docs {
		counts[docs[i].Status]++
		chunks += len(docs[i].ChunkIDs)
	}

	cmd.Printf("Documents: %d (%d chunks indexed)\n", len(docs), chunks)
	for _, status := range []domain.DocumentStatus{
		domain.StatusUploaded,
		domain.StatusExtracting,
		domain.StatusChunking,
		domain.StatusEmbedding,
		domain.StatusIndexed,
		domain.StatusFailed,
	} {
		if counts[status] > 0 {
			cmd.Printf("  %s: %d\n", status, counts[status])
		}
	}

	for i := range docs {
		if docs[i].Status == domain.StatusFailed {
			cmd.Printf("  failed: %s (%s)\n", docs[i].Filename, docs[i].FailureReason)
		}
	}
	return nil
}
