package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

var conversationCmd = &cobra.Command{
	Use:     "conversation",
	Aliases: []string{"conv"},
	Short:   "Manage conversations",
	Long:    `List, show, export, or import recorded conversations.`,
}

var conversationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all conversations",
	Args:  cobra.NoArgs,
	RunE:  runConversationList,
}

var conversationShowCmd = &cobra.Command{
	Use:   "show [conversation-id]",
	Short: "Print a conversation transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationShow,
}

var exportFormat string

var conversationExportCmd = &cobra.Command{
	Use:   "export [conversation-id]",
	Short: "Export a conversation",
	Long: `Writes the conversation to stdout in the chosen format.
The JSON format round-trips through 'conversation import'.`,
	Args: cobra.ExactArgs(1),
	RunE: runConversationExport,
}

var conversationImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a conversation from a JSON export",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationImport,
}

func init() {
	conversationExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "export format: json, text, or markdown")

	conversationCmd.AddCommand(conversationListCmd)
	conversationCmd.AddCommand(conversationShowCmd)
	conversationCmd.AddCommand(conversationExportCmd)
	conversationCmd.AddCommand(conversationImportCmd)
	rootCmd.AddCommand(conversationCmd)
}

func runConversationList(cmd *cobra.Command, _ []string) error {
	convs, err := conversationService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	if len(convs) == 0 {
		cmd.Println("No conversations recorded.")
		return nil
	}

	for i := range convs {
		cmd.Printf("  %s  (started %s)\n", convs[i].ID, convs[i].CreatedAt.Format(time.RFC3339))
	}
	cmd.Printf("Total: %d conversations\n", len(convs))
	return nil
}

func runConversationShow(cmd *cobra.Command, args []string) error {
	data, err := conversationService.Export(cmd.Context(), args[0], domain.ExportText)
	if err != nil {
		return fmt.Errorf("failed to show conversation: %w", err)
	}
	cmd.Print(string(data))
	return nil
}

func runConversationExport(cmd *cobra.Command, args []string) error {
	format := domain.ExportFormat(exportFormat)
	if !format.IsValid() {
		return fmt.Errorf("%w: export format %q", domain.ErrUnsupportedFormat, exportFormat)
	}

	data, err := conversationService.Export(cmd.Context(), args[0], format)
	if err != nil {
		return fmt.Errorf("failed to export conversation: %w", err)
	}
	cmd.Print(string(data))
	return nil
}

func runConversationImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	conv, err := conversationService.Import(cmd.Context(), data)
	if err != nil {
		return fmt.Errorf("failed to import conversation: %w", err)
	}
	cmd.Printf("Imported conversation %s (%d turns)\n", conv.ID, len(conv.Turns))
	return nil
}
