package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storagemem "github.com/archivist-labs/parley-cli/internal/adapters/driven/storage/memory"
	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

func newConversationService() *ConversationService {
	return NewConversationService(storagemem.NewConversationStore())
}

func TestConversationService_CreateAppendHistory(t *testing.T) {
	svc := newConversationService()
	ctx := context.Background()

	conv, err := svc.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID)
	assert.Empty(t, conv.Turns)

	user, err := svc.Append(ctx, &domain.Turn{
		ConversationID: conv.ID,
		Role:           domain.RoleUser,
		Text:           "what colour is the sky?",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, domain.TurnOK, user.State)

	_, err = svc.Append(ctx, &domain.Turn{
		ConversationID: conv.ID,
		Role:           domain.RoleAssistant,
		Text:           "Blue [1].",
		Citations:      []domain.Citation{{Marker: 1, DocumentID: "doc1", ChunkID: "doc1-0000", Score: 0.92}},
	})
	require.NoError(t, err)

	history, err := svc.History(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, history.Turns, 2)
	assert.Equal(t, domain.RoleUser, history.Turns[0].Role)
	assert.Equal(t, domain.RoleAssistant, history.Turns[1].Role)
	require.Len(t, history.Turns[1].Citations, 1)
	assert.Equal(t, "doc1-0000", history.Turns[1].Citations[0].ChunkID)
}

func TestConversationService_AppendInvalidRole(t *testing.T) {
	svc := newConversationService()
	conv, err := svc.Create(context.Background())
	require.NoError(t, err)

	_, err = svc.Append(context.Background(), &domain.Turn{
		ConversationID: conv.ID,
		Role:           "narrator",
		Text:           "once upon a time",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestConversationService_AppendToMissingConversation(t *testing.T) {
	svc := newConversationService()

	_, err := svc.Append(context.Background(), &domain.Turn{
		ConversationID: "nope",
		Role:           domain.RoleUser,
		Text:           "hello?",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationService_HistoryMissing(t *testing.T) {
	svc := newConversationService()

	_, err := svc.History(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func exportFixture(t *testing.T) (*ConversationService, string) {
	t.Helper()
	svc := newConversationService()
	ctx := context.Background()

	conv, err := svc.Create(ctx)
	require.NoError(t, err)

	_, err = svc.Append(ctx, &domain.Turn{
		ConversationID: conv.ID, Role: domain.RoleUser, Text: "why is the sky blue?",
	})
	require.NoError(t, err)
	_, err = svc.Append(ctx, &domain.Turn{
		ConversationID: conv.ID,
		Role:           domain.RoleAssistant,
		Text:           "Rayleigh scattering [1].",
		Citations:      []domain.Citation{{Marker: 1, DocumentID: "phys", ChunkID: "phys-0003", Score: 0.88}},
	})
	require.NoError(t, err)
	_, err = svc.Append(ctx, &domain.Turn{
		ConversationID: conv.ID,
		Role:           domain.RoleAssistant,
		State:          domain.TurnFailed,
		FailureReason:  "Unavailable",
	})
	require.NoError(t, err)

	return svc, conv.ID
}

func TestConversationService_ExportText(t *testing.T) {
	svc, id := exportFixture(t)

	out, err := svc.Export(context.Background(), id, domain.ExportText)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "Conversation "+id)
	assert.Contains(t, text, "user: why is the sky blue?")
	assert.Contains(t, text, "assistant: Rayleigh scattering [1].")
	assert.Contains(t, text, "[1] document phys chunk phys-0003")
	assert.Contains(t, text, "(failed: Unavailable)")
}

func TestConversationService_ExportMarkdown(t *testing.T) {
	svc, id := exportFixture(t)

	out, err := svc.Export(context.Background(), id, domain.ExportMarkdown)
	require.NoError(t, err)

	md := string(out)
	assert.Contains(t, md, "# Conversation "+id)
	assert.Contains(t, md, "## user")
	assert.Contains(t, md, "## assistant")
	assert.Contains(t, md, "Sources:")
	assert.Contains(t, md, "chunk `phys-0003`")
}

func TestConversationService_ExportUnknownFormat(t *testing.T) {
	svc, id := exportFixture(t)

	_, err := svc.Export(context.Background(), id, domain.ExportFormat("yaml"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestConversationService_ImportRoundTripsJSONExport(t *testing.T) {
	svc, id := exportFixture(t)
	ctx := context.Background()

	exported, err := svc.Export(ctx, id, domain.ExportJSON)
	require.NoError(t, err)

	restored := newConversationService()
	conv, err := restored.Import(ctx, exported)
	require.NoError(t, err)
	assert.Equal(t, id, conv.ID)

	reExported, err := restored.Export(ctx, id, domain.ExportJSON)
	require.NoError(t, err)
	assert.JSONEq(t, string(exported), string(reExported))
}

func TestConversationService_ImportRejectsGarbage(t *testing.T) {
	svc := newConversationService()

	_, err := svc.Import(context.Background(), []byte("not json"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = svc.Import(context.Background(), []byte(`{"turns": []}`))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}
