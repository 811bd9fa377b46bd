package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storagemem "github.com/archivist-labs/parley-cli/internal/adapters/driven/storage/memory"
	vectormem "github.com/archivist-labs/parley-cli/internal/adapters/driven/vector/memory"
	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
)

type chatHarness struct {
	chat     *ChatService
	embedder *fakeEmbedder
	genr     *fakeGenerator
	convs    *ConversationService
}

// newChatHarness seeds a tiny corpus where "what colour is the sky?"
// matches the sky chunk far better than the grass one.
func newChatHarness(t *testing.T) *chatHarness {
	t.Helper()

	embedder := newFakeEmbedder(3)
	embedder.fixed["what colour is the sky?"] = []float32{1, 0, 0}
	gateway := NewEmbeddingGateway(embedder, testEmbeddingSettings(3, 10), testRetrySettings())

	index, err := vectormem.New(3)
	require.NoError(t, err)
	docStore := storagemem.NewDocumentStore()

	require.NoError(t, docStore.SaveChunks(context.Background(), []domain.Chunk{
		{ID: "sky-0000", DocumentID: "sky", Text: "The sky is blue.", Index: 0},
		{ID: "sky-0001", DocumentID: "sky", Text: "Grass is green.", Index: 1},
	}))
	require.NoError(t, index.Insert(context.Background(), []driven.VectorEntry{
		{ChunkID: "sky-0000", DocumentID: "sky", Vector: []float32{1, 0, 0}},
		{ChunkID: "sky-0001", DocumentID: "sky", Vector: []float32{0, 1, 0}},
	}))

	genr := &fakeGenerator{answer: "The sky is blue [1]."}
	convs := newConversationService()

	return &chatHarness{
		chat: NewChatService(
			gateway,
			NewRetriever(index, docStore, 0),
			NewContextAssembler(1000),
			genr,
			convs,
			domain.RetrievalSettings{TopK: 2, ContextBudget: 1000},
			domain.GenerationSettings{MaxTokens: 256},
		),
		embedder: embedder,
		genr:     genr,
		convs:    convs,
	}
}

func (h *chatHarness) newConversation(t *testing.T) string {
	t.Helper()
	conv, err := h.convs.Create(context.Background())
	require.NoError(t, err)
	return conv.ID
}

func TestChatService_Ask(t *testing.T) {
	h := newChatHarness(t)
	id := h.newConversation(t)

	turn, err := h.chat.Ask(context.Background(), id, "what colour is the sky?")
	require.NoError(t, err)

	assert.Equal(t, domain.RoleAssistant, turn.Role)
	assert.Equal(t, domain.TurnOK, turn.State)
	assert.Equal(t, "The sky is blue [1].", turn.Text)
	require.Len(t, turn.Citations, 2)
	assert.Equal(t, "sky-0000", turn.Citations[0].ChunkID)
	assert.Equal(t, 1, turn.Citations[0].Marker)

	require.Len(t, h.genr.prompts, 1)
	assert.Contains(t, h.genr.prompts[0], "[1] The sky is blue.")
	assert.Contains(t, h.genr.prompts[0], "Question: what colour is the sky?")

	history, err := h.convs.History(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, history.Turns, 2)
	assert.Equal(t, domain.RoleUser, history.Turns[0].Role)
	assert.Equal(t, "what colour is the sky?", history.Turns[0].Text)
}

func TestChatService_AskEmptyQuestion(t *testing.T) {
	h := newChatHarness(t)
	id := h.newConversation(t)

	_, err := h.chat.Ask(context.Background(), id, "   \n\t")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	history, err := h.convs.History(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, history.Turns, "rejected questions are never recorded")
}

func TestChatService_GenerationFailureRecordsFailedTurn(t *testing.T) {
	h := newChatHarness(t)
	h.genr.err = domain.ErrGenerationUnavailable
	id := h.newConversation(t)

	turn, err := h.chat.Ask(context.Background(), id, "what colour is the sky?")
	require.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	require.NotNil(t, turn)

	assert.Equal(t, domain.TurnFailed, turn.State)
	assert.Equal(t, "Unavailable", turn.FailureReason)
	assert.Empty(t, turn.Text)

	history, err := h.convs.History(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, history.Turns, 2)
	assert.Equal(t, domain.TurnOK, history.Turns[0].State)
	assert.Equal(t, domain.TurnFailed, history.Turns[1].State)
}

func TestChatService_TimeoutReason(t *testing.T) {
	h := newChatHarness(t)
	h.genr.err = domain.ErrGenerationTimeout
	id := h.newConversation(t)

	turn, err := h.chat.Ask(context.Background(), id, "what colour is the sky?")
	require.ErrorIs(t, err, domain.ErrGenerationTimeout)
	assert.Equal(t, "Timeout", turn.FailureReason)
}

func TestChatService_CancellationRecordsNoAssistantTurn(t *testing.T) {
	h := newChatHarness(t)
	h.genr.block = true
	id := h.newConversation(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	turn, err := h.chat.Ask(ctx, id, "what colour is the sky?")
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, turn)

	history, err := h.convs.History(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, history.Turns, 1, "only the user turn survives a cancellation")
	assert.Equal(t, domain.RoleUser, history.Turns[0].Role)
}

func TestChatService_EmbeddingFailureRecordsFailedTurn(t *testing.T) {
	h := newChatHarness(t)
	h.embedder.failNext = 100
	id := h.newConversation(t)

	turn, err := h.chat.Ask(context.Background(), id, "what colour is the sky?")
	require.Error(t, err)
	require.NotNil(t, turn)
	assert.Equal(t, domain.TurnFailed, turn.State)
	assert.Equal(t, "ModelUnavailable", turn.FailureReason)
}

func TestChatService_Retrieve(t *testing.T) {
	h := newChatHarness(t)

	results, err := h.chat.Retrieve(context.Background(), "what colour is the sky?", 0)
	require.NoError(t, err)
	require.Len(t, results, 2, "k falls back to the configured top-k")
	assert.Equal(t, "sky-0000", results[0].Chunk.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}
