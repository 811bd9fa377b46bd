package sqlite

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "parley-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// createTestDocument saves a document to satisfy foreign key constraints.
func createTestDocument(t *testing.T, store *Store, docID string) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	doc := &domain.Document{
		ID:        docID,
		Filename:  docID + ".txt",
		Status:    domain.StatusUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.DocumentStore().SaveDocument(context.Background(), doc))
}

func TestNewStore_RunsMigrations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var version int
	row := store.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	require.NoError(t, row.Scan(&version))
	assert.GreaterOrEqual(t, version, 1)
}

func TestNewStore_Reopen(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "parley-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	createTestDocument(t, store, "doc-1")
	require.NoError(t, store.Close())

	// Second open runs no new migrations and keeps existing data.
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	doc, err := store.DocumentStore().GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1.txt", doc.Filename)
}

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	doc := &domain.Document{
		ID:        "doc-1",
		Filename:  "report.txt",
		Status:    domain.StatusIndexed,
		ChunkIDs:  []string{"doc-1-0000", "doc-1-0001"},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.DocumentStore().SaveDocument(ctx, doc))

	got, err := store.DocumentStore().GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "report.txt", got.Filename)
	assert.Equal(t, domain.StatusIndexed, got.Status)
	assert.Equal(t, []string{"doc-1-0000", "doc-1-0001"}, got.ChunkIDs)

	_, err = store.DocumentStore().GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_SaveDocumentUpsert(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	createTestDocument(t, store, "doc-1")

	doc, err := store.DocumentStore().GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.NoError(t, doc.Transition(domain.StatusExtracting))
	require.NoError(t, store.DocumentStore().SaveDocument(ctx, doc))

	got, err := store.DocumentStore().GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExtracting, got.Status)
}

func TestDocumentStore_ChunksRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	createTestDocument(t, store, "doc-1")

	chunks := []domain.Chunk{
		{ID: "doc-1-0000", DocumentID: "doc-1", Text: "alpha", StartOffset: 0, EndOffset: 5, Index: 0},
		{ID: "doc-1-0001", DocumentID: "doc-1", Text: "beta", StartOffset: 3, EndOffset: 7, Index: 1, VectorID: "doc-1-0001"},
	}
	require.NoError(t, store.DocumentStore().SaveChunks(ctx, chunks))

	got, err := store.DocumentStore().GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alpha", got[0].Text)
	assert.Equal(t, 3, got[1].StartOffset)
	assert.Equal(t, "doc-1-0001", got[1].VectorID)

	single, err := store.DocumentStore().GetChunk(ctx, "doc-1-0001")
	require.NoError(t, err)
	assert.Equal(t, "beta", single.Text)

	_, err = store.DocumentStore().GetChunk(ctx, "doc-1-9999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_SaveChunksReplaces(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	createTestDocument(t, store, "doc-1")

	first := []domain.Chunk{
		{ID: "doc-1-0000", DocumentID: "doc-1", Text: "one", Index: 0},
		{ID: "doc-1-0001", DocumentID: "doc-1", Text: "two", Index: 1},
		{ID: "doc-1-0002", DocumentID: "doc-1", Text: "three", Index: 2},
	}
	require.NoError(t, store.DocumentStore().SaveChunks(ctx, first))

	// Re-ingestion can produce fewer chunks; stale rows must go.
	second := []domain.Chunk{
		{ID: "doc-1-0000", DocumentID: "doc-1", Text: "new", Index: 0},
	}
	require.NoError(t, store.DocumentStore().SaveChunks(ctx, second))

	got, err := store.DocumentStore().GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Text)
}

func TestDocumentStore_DeleteCascadesChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	createTestDocument(t, store, "doc-1")
	require.NoError(t, store.DocumentStore().SaveChunks(ctx, []domain.Chunk{
		{ID: "doc-1-0000", DocumentID: "doc-1", Text: "x", Index: 0},
	}))

	require.NoError(t, store.DocumentStore().DeleteDocument(ctx, "doc-1"))

	_, err := store.DocumentStore().GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := store.DocumentStore().GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestConversationStore_RoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	convs := store.ConversationStore()
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, convs.SaveConversation(ctx, &domain.Conversation{ID: "conv-1", CreatedAt: now}))

	turns := []domain.Turn{
		{ID: "t1", ConversationID: "conv-1", Role: domain.RoleUser, Text: "hello", State: domain.TurnOK, CreatedAt: now},
		{ID: "t2", ConversationID: "conv-1", Role: domain.RoleAssistant, Text: "hi", State: domain.TurnOK, CreatedAt: now,
			Citations: []domain.Citation{{Marker: 1, DocumentID: "doc-1", ChunkID: "doc-1-0000", Score: 0.92}}},
		{ID: "t3", ConversationID: "conv-1", Role: domain.RoleAssistant, Text: "", State: domain.TurnFailed,
			FailureReason: "Unavailable", CreatedAt: now},
	}
	for i := range turns {
		require.NoError(t, convs.AppendTurn(ctx, &turns[i]))
	}

	got, err := convs.GetTurns(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "hello", got[0].Text)
	require.Len(t, got[1].Citations, 1)
	assert.Equal(t, "doc-1-0000", got[1].Citations[0].ChunkID)
	assert.Equal(t, domain.TurnFailed, got[2].State)
	assert.Equal(t, "Unavailable", got[2].FailureReason)

	_, err = convs.GetTurns(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationStore_AppendToMissingConversation(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	turn := &domain.Turn{ID: "t1", ConversationID: "nope", Role: domain.RoleUser, Text: "x", State: domain.TurnOK}
	err := store.ConversationStore().AppendTurn(context.Background(), turn)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVectorIndex_InsertSearchDelete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	index, err := store.VectorIndex(3)
	require.NoError(t, err)
	assert.Equal(t, 3, index.Dimensions())

	entries := []driven.VectorEntry{
		{ChunkID: "doc-1-0000", DocumentID: "doc-1", Vector: []float32{1, 0, 0}},
		{ChunkID: "doc-1-0001", DocumentID: "doc-1", Vector: []float32{0, 1, 0}},
		{ChunkID: "doc-2-0000", DocumentID: "doc-2", Vector: []float32{0.9, 0.1, 0}},
	}
	require.NoError(t, index.Insert(ctx, entries))

	hits, err := index.Search(ctx, []float32{1, 0, 0}, 2, 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "doc-1-0000", hits[0].ChunkID)
	assert.Equal(t, "doc-2-0000", hits[1].ChunkID)
	assert.Greater(t, hits[0].Score, hits[1].Score)

	require.NoError(t, index.DeleteDocument(ctx, "doc-1"))

	hits, err = index.Search(ctx, []float32{1, 0, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-2-0000", hits[0].ChunkID)
}

func TestVectorIndex_DimensionMismatch(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	index, err := store.VectorIndex(3)
	require.NoError(t, err)

	err = index.Insert(ctx, []driven.VectorEntry{
		{ChunkID: "doc-1-0000", DocumentID: "doc-1", Vector: []float32{1, 0}},
	})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = index.Search(ctx, []float32{1, 0}, 5, 0)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorIndex_PersistsAcrossReopen(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "parley-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)
	ctx := context.Background()

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	index, err := store.VectorIndex(2)
	require.NoError(t, err)
	require.NoError(t, index.Insert(ctx, []driven.VectorEntry{
		{ChunkID: "doc-1-0000", DocumentID: "doc-1", Vector: []float32{0.5, 0.5}},
	}))
	require.NoError(t, store.Close())

	store, err = NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()
	index, err = store.VectorIndex(2)
	require.NoError(t, err)

	hits, err := index.Search(ctx, []float32{0.5, 0.5}, 1, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-1-0000", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}
