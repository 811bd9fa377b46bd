package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

var ingestAsync bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest documents into the index",
	Long: `Reads the given files, extracts their text, and indexes them for
retrieval. Supported formats: plain text, Markdown, and PDF.

Re-ingesting a file that was already indexed replaces its previous
content under the same document identifier.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestAsync, "async", false, "queue the files without waiting for indexing")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := ensureOrchestrator(cmd, true); err != nil {
		return fmt.Errorf("embedding provider: %w", err)
	}

	ctx := cmd.Context()
	ids := make([]string, 0, len(args))

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		id, err := orchestrator.Ingest(ctx, filepath.Base(path), data)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		ids = append(ids, id)
		cmd.Printf("Queued %s (%s)\n", filepath.Base(path), id)
	}

	if ingestAsync {
		return nil
	}

	failures := 0
	for i, id := range ids {
		doc, err := orchestrator.Wait(ctx, id)
		if err != nil {
			return fmt.Errorf("waiting for %s: %w", args[i], err)
		}
		printDocumentOutcome(cmd, doc)
		if doc.Status == domain.StatusFailed {
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d documents failed", failures, len(ids))
	}
	return nil
}

func printDocumentOutcome(cmd *cobra.Command, doc *domain.Document) {
	switch doc.Status {
	case domain.StatusIndexed:
		cmd.Printf("Indexed %s: %d chunks\n", doc.Filename, len(doc.ChunkIDs))
	case domain.StatusFailed:
		cmd.Printf("Failed %s: %s\n", doc.Filename, doc.FailureReason)
	default:
		cmd.Printf("%s: %s\n", doc.Filename, doc.Status)
	}
}
