package driven

import (
	"context"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

// ConversationStore is append-only storage for conversation turn logs.
// Turns are read back in append order. The store never deletes
// conversations; removal is an external administrative action.
type ConversationStore interface {
	// SaveConversation creates the conversation record (zero turns).
	SaveConversation(ctx context.Context, conv *domain.Conversation) error

	// GetConversation retrieves a conversation without its turns.
	// Returns domain.ErrNotFound if absent.
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)

	// AppendTurn durably appends one turn. Atomic: the turn is fully
	// recorded or not at all.
	AppendTurn(ctx context.Context, turn *domain.Turn) error

	// GetTurns returns all turns appended before the call began,
	// in append order.
	GetTurns(ctx context.Context, conversationID string) ([]domain.Turn, error)

	// ListConversations returns all conversations without turns,
	// oldest first.
	ListConversations(ctx context.Context) ([]domain.Conversation, error)
}
