package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

var (
	askConversationID string
	askHideSources    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Answers a question from the indexed documents, citing the chunks the
answer drew on. Without --conversation a new conversation is started
and its identifier printed, so follow-up questions can continue it.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askConversationID, "conversation", "c", "", "conversation to continue")
	askCmd.Flags().BoolVar(&askHideSources, "no-sources", false, "do not print the source list")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensureChat(); err != nil {
		return fmt.Errorf("provider configuration: %w", err)
	}

	ctx := cmd.Context()

	conversationID := askConversationID
	if conversationID == "" {
		conv, err := conversationService.Create(ctx)
		if err != nil {
			return fmt.Errorf("starting conversation: %w", err)
		}
		conversationID = conv.ID
		cmd.Printf("Conversation: %s\n\n", conversationID)
	}

	turn, err := chatService.Ask(ctx, conversationID, args[0])
	if err != nil {
		if turn != nil && turn.State == domain.TurnFailed {
			cmd.Printf("Answer failed: %s\n", turn.FailureReason)
		}
		return err
	}

	cmd.Println(turn.Text)

	if !askHideSources && len(turn.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, c := range turn.Citations {
			cmd.Printf("  [%d] %s (%.2f)\n", c.Marker, describeCitation(ctx, c), c.Score)
		}
	}
	return nil
}

// describeCitation resolves the citation to a filename where possible,
// falling back to the raw identifiers.
func describeCitation(ctx context.Context, c domain.Citation) string {
	doc, err := docStore.GetDocument(ctx, c.DocumentID)
	if err != nil {
		return fmt.Sprintf("%s / %s", c.DocumentID, c.ChunkID)
	}
	return fmt.Sprintf("%s (chunk %s)", doc.Filename, c.ChunkID)
}

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Retrieve relevant chunks without generating an answer",
	Long: `Performs similarity retrieval and prints the matching chunks ranked
by score. Useful for inspecting what an answer would be grounded on.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default: configured top-k)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := ensureChat(); err != nil {
		return fmt.Errorf("provider configuration: %w", err)
	}

	results, err := chatService.Retrieve(cmd.Context(), args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, results[i].Chunk.ID, results[i].Score)
		cmd.Printf("      %s\n", snippet(results[i].Chunk.Text, 120))
		cmd.Println()
	}
	return nil
}

// snippet truncates text for single-line display.
func snippet(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
