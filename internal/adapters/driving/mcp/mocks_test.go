package mcp

import (
	"context"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	turn      *domain.Turn
	retrieved []domain.RetrievedChunk
	err       error

	lastConversationID string
	lastQuestion       string
	lastK              int
}

func (m *mockChatService) Ask(_ context.Context, conversationID, question string) (*domain.Turn, error) {
	m.lastConversationID = conversationID
	m.lastQuestion = question
	return m.turn, m.err
}

func (m *mockChatService) Retrieve(_ context.Context, question string, k int) ([]domain.RetrievedChunk, error) {
	m.lastQuestion = question
	m.lastK = k
	return m.retrieved, m.err
}

// mockConversationService is a mock implementation of driving.ConversationService.
type mockConversationService struct {
	conversation  *domain.Conversation
	conversations []domain.Conversation
	exported      []byte
	err           error
}

func (m *mockConversationService) Create(_ context.Context) (*domain.Conversation, error) {
	return m.conversation, m.err
}

func (m *mockConversationService) History(_ context.Context, _ string) (*domain.Conversation, error) {
	return m.conversation, m.err
}

func (m *mockConversationService) List(_ context.Context) ([]domain.Conversation, error) {
	return m.conversations, m.err
}

func (m *mockConversationService) Export(_ context.Context, _ string, _ domain.ExportFormat) ([]byte, error) {
	return m.exported, m.err
}

func (m *mockConversationService) Import(_ context.Context, _ []byte) (*domain.Conversation, error) {
	return m.conversation, m.err
}

// mockIngestOrchestrator is a mock implementation of driving.IngestOrchestrator.
type mockIngestOrchestrator struct {
	document  *domain.Document
	documents []domain.Document
	id        string
	err       error
}

func (m *mockIngestOrchestrator) Ingest(_ context.Context, _ string, _ []byte) (string, error) {
	return m.id, m.err
}

func (m *mockIngestOrchestrator) Wait(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockIngestOrchestrator) Status(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockIngestOrchestrator) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockIngestOrchestrator) Remove(_ context.Context, _ string) error {
	return m.err
}
