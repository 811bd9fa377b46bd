package driving

import (
	"context"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

// ChatService answers questions against the indexed corpus.
type ChatService interface {
	// Ask records the question as a user turn, runs the retrieval
	// pipeline, and records the generated answer as an assistant turn
	// with citations. Generation failures are recorded as a failed
	// assistant turn and returned; cancellation records no assistant
	// turn at all.
	Ask(ctx context.Context, conversationID, question string) (*domain.Turn, error)

	// Retrieve runs similarity retrieval without generation.
	Retrieve(ctx context.Context, question string, k int) ([]domain.RetrievedChunk, error)
}

// ConversationService manages conversation logs.
type ConversationService interface {
	// Create starts a new conversation with a fresh ID and zero turns.
	Create(ctx context.Context) (*domain.Conversation, error)

	// History returns the conversation with all turns appended before
	// the call began.
	History(ctx context.Context, conversationID string) (*domain.Conversation, error)

	// List returns all conversations without turns.
	List(ctx context.Context) ([]domain.Conversation, error)

	// Export serialises the conversation in the given format.
	Export(ctx context.Context, conversationID string, format domain.ExportFormat) ([]byte, error)

	// Import reconstructs a conversation from its JSON export.
	// The turn sequence round-trips exactly.
	Import(ctx context.Context, data []byte) (*domain.Conversation, error)
}
