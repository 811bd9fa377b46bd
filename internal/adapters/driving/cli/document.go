package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage indexed documents",
	Long:  `List, inspect, or remove ingested documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentStatusCmd = &cobra.Command{
	Use:   "status [doc-id]",
	Short: "Show a document's pipeline state",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentStatus,
}

var documentRemoveCmd = &cobra.Command{
	Use:   "remove [doc-id]",
	Short: "Remove a document from the index",
	Long:  `Removes the document, its chunks, and its vectors. In-flight ingestion of the document is cancelled.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentRemove,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentStatusCmd)
	documentCmd.AddCommand(documentRemoveCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	docs, err := docStore.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    File: %s\n", docs[i].Filename)
		cmd.Printf("    Status: %s\n", formatStatus(&docs[i]))
		cmd.Printf("    Ingested: %s\n", docs[i].CreatedAt.Format(time.RFC3339))
		cmd.Println()
	}
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentStatus(cmd *cobra.Command, args []string) error {
	doc, err := docStore.GetDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n", doc.ID)
	cmd.Printf("  File: %s\n", doc.Filename)
	cmd.Printf("  Status: %s\n", formatStatus(doc))
	cmd.Printf("  Chunks: %d\n", len(doc.ChunkIDs))
	cmd.Printf("  Updated: %s\n", doc.UpdatedAt.Format(time.RFC3339))
	return nil
}

func runDocumentRemove(cmd *cobra.Command, args []string) error {
	if err := ensureOrchestrator(cmd, false); err != nil {
		return err
	}

	if err := orchestrator.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove document: %w", err)
	}
	cmd.Printf("Removed %s\n", args[0])
	return nil
}

func formatStatus(doc *domain.Document) string {
	if doc.Status == domain.StatusFailed && doc.FailureReason != "" {
		return fmt.Sprintf("%s (%s)", doc.Status, doc.FailureReason)
	}
	return string(doc.Status)
}
