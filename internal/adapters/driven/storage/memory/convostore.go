package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory implementation of
// driven.ConversationStore. Turn logs are append-only.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]domain.Conversation
	turns         map[string][]domain.Turn // conversation ID -> append order
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[string]domain.Conversation),
		turns:         make(map[string][]domain.Turn),
	}
}

// SaveConversation creates the conversation record.
func (s *ConversationStore) SaveConversation(_ context.Context, conv *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *conv
	stored.Turns = nil
	s.conversations[conv.ID] = stored
	return nil
}

// GetConversation retrieves a conversation without its turns.
func (s *ConversationStore) GetConversation(_ context.Context, id string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &conv, nil
}

// AppendTurn appends one turn to a conversation's log.
func (s *ConversationStore) AppendTurn(_ context.Context, turn *domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[turn.ConversationID]; !ok {
		return domain.ErrNotFound
	}
	stored := *turn
	stored.Citations = append([]domain.Citation(nil), turn.Citations...)
	s.turns[turn.ConversationID] = append(s.turns[turn.ConversationID], stored)
	return nil
}

// GetTurns returns all turns for a conversation in append order.
func (s *ConversationStore) GetTurns(_ context.Context, conversationID string) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.conversations[conversationID]; !ok {
		return nil, domain.ErrNotFound
	}
	return append([]domain.Turn(nil), s.turns[conversationID]...), nil
}

// ListConversations returns all conversations, oldest first.
func (s *ConversationStore) ListConversations(_ context.Context) ([]domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Conversation, 0, len(s.conversations))
	for id := range s.conversations {
		result = append(result, s.conversations[id])
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}
