package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil ingest service returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}})
		require.NoError(t, err)

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("parley://documents"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns documents successfully", func(t *testing.T) {
		mockIngest := &mockIngestOrchestrator{
			documents: []domain.Document{
				{ID: "doc-1", Filename: "notes.txt", Status: domain.StatusIndexed},
			},
		}

		server, err := NewServer(&Ports{Chat: &mockChatService{}, Ingest: mockIngest})
		require.NoError(t, err)

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("parley://documents"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "doc-1")
		assert.Contains(t, result.Contents[0].Text, "notes.txt")
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		mockIngest := &mockIngestOrchestrator{err: errors.New("store error")}
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Ingest: mockIngest})
		require.NoError(t, err)

		_, err = server.handleDocumentsResource(ctx, makeReadResourceRequest("parley://documents"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})
}

func TestServer_handleConversationsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil conversation service returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}})
		require.NoError(t, err)

		result, err := server.handleConversationsResource(ctx, makeReadResourceRequest("parley://conversations"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns conversations successfully", func(t *testing.T) {
		mockConvs := &mockConversationService{
			conversations: []domain.Conversation{
				{ID: "conv-1", CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
			},
		}

		server, err := NewServer(&Ports{Chat: &mockChatService{}, Conversation: mockConvs})
		require.NoError(t, err)

		result, err := server.handleConversationsResource(ctx, makeReadResourceRequest("parley://conversations"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "conv-1")
	})
}

func TestServer_handleTranscriptResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns conversation export", func(t *testing.T) {
		mockConvs := &mockConversationService{
			exported: []byte(`{"id":"conv-1","turns":[]}`),
		}

		server, err := NewServer(&Ports{Chat: &mockChatService{}, Conversation: mockConvs})
		require.NoError(t, err)

		result, err := server.handleTranscriptResource(ctx,
			makeReadResourceRequest("parley://conversations/conv-1"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "conv-1")
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("rejects malformed URI", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}, Conversation: &mockConversationService{}})
		require.NoError(t, err)

		_, err = server.handleTranscriptResource(ctx,
			makeReadResourceRequest("parley://conversations/a/b"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid conversation URI")
	})

	t.Run("nil conversation service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{Chat: &mockChatService{}})
		require.NoError(t, err)

		_, err = server.handleTranscriptResource(ctx,
			makeReadResourceRequest("parley://conversations/conv-1"))
		assert.ErrorIs(t, err, ErrMissingConversationService)
	})
}
