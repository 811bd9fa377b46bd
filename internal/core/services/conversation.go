package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driving"
	"github.com/archivist-labs/parley-cli/internal/logger"
)

// Ensure ConversationService implements the interface.
var _ driving.ConversationService = (*ConversationService)(nil)

// ConversationService manages append-only conversation logs.
// Appends to the same conversation are serialized (single writer at a
// time per conversation); different conversations are independent.
type ConversationService struct {
	store driven.ConversationStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewConversationService creates a conversation service.
func NewConversationService(store driven.ConversationStore) *ConversationService {
	return &ConversationService{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// Create starts a new conversation with a fresh identifier and zero turns.
func (s *ConversationService) Create(ctx context.Context) (*domain.Conversation, error) {
	conv := &domain.Conversation{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.SaveConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}
	logger.Debug("Created conversation %s", conv.ID)
	return conv, nil
}

// Append records one turn. Atomic: the turn is fully recorded or not at
// all. The turn ID and timestamp are assigned here if unset.
func (s *ConversationService) Append(ctx context.Context, turn *domain.Turn) (*domain.Turn, error) {
	if !turn.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidConfig, turn.Role)
	}

	lock := s.lockFor(turn.ConversationID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.store.GetConversation(ctx, turn.ConversationID); err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", turn.ConversationID, err)
	}

	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	if turn.State == "" {
		turn.State = domain.TurnOK
	}

	if err := s.store.AppendTurn(ctx, turn); err != nil {
		return nil, fmt.Errorf("append turn: %w", err)
	}
	return turn, nil
}

// History returns the conversation with every turn appended before the
// call began. Concurrent appends during iteration are not required to
// be visible.
func (s *ConversationService) History(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation %s: %w", conversationID, err)
	}
	turns, err := s.store.GetTurns(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get turns: %w", err)
	}
	conv.Turns = turns
	return conv, nil
}

// List returns all conversations without their turns.
func (s *ConversationService) List(ctx context.Context) ([]domain.Conversation, error) {
	return s.store.ListConversations(ctx)
}

// Export serialises the conversation. Each format is a pure function of
// the turn sequence; the JSON form round-trips through Import.
func (s *ConversationService) Export(
	ctx context.Context, conversationID string, format domain.ExportFormat,
) ([]byte, error) {
	conv, err := s.History(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	switch format {
	case domain.ExportJSON:
		return json.MarshalIndent(conv, "", "  ")
	case domain.ExportText:
		return exportText(conv), nil
	case domain.ExportMarkdown:
		return exportMarkdown(conv), nil
	default:
		return nil, fmt.Errorf("%w: export format %q", domain.ErrUnsupportedFormat, format)
	}
}

// Import reconstructs a conversation from its JSON export. The imported
// conversation keeps its identifier and exact turn sequence.
func (s *ConversationService) Import(ctx context.Context, data []byte) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnsupportedFormat, err)
	}
	if conv.ID == "" {
		return nil, fmt.Errorf("%w: conversation export missing id", domain.ErrUnsupportedFormat)
	}

	lock := s.lockFor(conv.ID)
	lock.Lock()
	defer lock.Unlock()

	record := &domain.Conversation{ID: conv.ID, CreatedAt: conv.CreatedAt}
	if err := s.store.SaveConversation(ctx, record); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}
	for i := range conv.Turns {
		turn := conv.Turns[i]
		turn.ConversationID = conv.ID
		if err := s.store.AppendTurn(ctx, &turn); err != nil {
			return nil, fmt.Errorf("append turn %d: %w", i, err)
		}
	}

	logger.Info("Imported conversation %s with %d turns", conv.ID, len(conv.Turns))
	return &conv, nil
}

// lockFor returns the writer lock for a conversation identifier.
func (s *ConversationService) lockFor(conversationID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[conversationID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[conversationID] = lock
	}
	return lock
}

// exportText renders a plain-text transcript.
func exportText(conv *domain.Conversation) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Conversation %s (%s)\n\n", conv.ID, conv.CreatedAt.Format(time.RFC3339))

	for _, turn := range conv.Turns {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turnText(turn))
		for _, c := range turn.Citations {
			fmt.Fprintf(&b, "  [%d] document %s chunk %s (%.3f)\n", c.Marker, c.DocumentID, c.ChunkID, c.Score)
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// exportMarkdown renders a Markdown transcript.
func exportMarkdown(conv *domain.Conversation) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# Conversation %s\n\n", conv.ID)
	fmt.Fprintf(&b, "Created: %s\n\n", conv.CreatedAt.Format(time.RFC3339))

	for _, turn := range conv.Turns {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", turn.Role, turnText(turn))
		if len(turn.Citations) > 0 {
			b.WriteString("Sources:\n\n")
			for _, c := range turn.Citations {
				fmt.Fprintf(&b, "- `[%d]` document `%s` chunk `%s` (score %.3f)\n",
					c.Marker, c.DocumentID, c.ChunkID, c.Score)
			}
			b.WriteString("\n")
		}
	}
	return []byte(b.String())
}

// turnText renders the turn body, marking failed turns.
func turnText(turn domain.Turn) string {
	if turn.State == domain.TurnFailed {
		return fmt.Sprintf("(failed: %s)", turn.FailureReason)
	}
	return turn.Text
}
