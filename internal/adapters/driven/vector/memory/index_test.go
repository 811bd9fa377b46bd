package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
)

func TestNew(t *testing.T) {
	ix, err := New(4)
	require.NoError(t, err)
	assert.Equal(t, 4, ix.Dimensions())

	_, err = New(0)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestIndex_Insert_DimensionMismatch(t *testing.T) {
	ix, err := New(3)
	require.NoError(t, err)
	ctx := context.Background()

	err = ix.Insert(ctx, []driven.VectorEntry{
		{ChunkID: "doc-1-0000", DocumentID: "doc-1", Vector: []float32{1, 0, 0}},
		{ChunkID: "doc-1-0001", DocumentID: "doc-1", Vector: []float32{1, 0}},
	})
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 0, ix.Len(), "a failed batch must leave the index unchanged")
}

func TestIndex_Insert_Replaces(t *testing.T) {
	ix, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ix.Insert(ctx, []driven.VectorEntry{
		{ChunkID: "doc-1-0000", DocumentID: "doc-1", Vector: []float32{1, 0}},
	}))
	require.NoError(t, ix.Insert(ctx, []driven.VectorEntry{
		{ChunkID: "doc-1-0000", DocumentID: "doc-1", Vector: []float32{0, 1}},
	}))
	assert.Equal(t, 1, ix.Len())

	hits, err := ix.Search(ctx, []float32{0, 1}, 1, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestIndex_Search_Ranking(t *testing.T) {
	ix, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ix.Insert(ctx, []driven.VectorEntry{
		{ChunkID: "doc-1-0000", DocumentID: "doc-1", Vector: []float32{1, 0}},
		{ChunkID: "doc-1-0001", DocumentID: "doc-1", Vector: []float32{0.9, 0.1}},
		{ChunkID: "doc-2-0000", DocumentID: "doc-2", Vector: []float32{0, 1}},
	}))

	hits, err := ix.Search(ctx, []float32{1, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "doc-1-0000", hits[0].ChunkID)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score, "scores must be non-increasing")
	}
}

func TestIndex_Search_TieBreakByChunkID(t *testing.T) {
	ix, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	// Identical vectors: scores tie, order falls back to ascending chunk ID.
	require.NoError(t, ix.Insert(ctx, []driven.VectorEntry{
		{ChunkID: "doc-b-0000", DocumentID: "doc-b", Vector: []float32{1, 1}},
		{ChunkID: "doc-a-0000", DocumentID: "doc-a", Vector: []float32{1, 1}},
		{ChunkID: "doc-c-0000", DocumentID: "doc-c", Vector: []float32{1, 1}},
	}))

	hits, err := ix.Search(ctx, []float32{1, 1}, 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "doc-a-0000", hits[0].ChunkID)
	assert.Equal(t, "doc-b-0000", hits[1].ChunkID)
	assert.Equal(t, "doc-c-0000", hits[2].ChunkID)
}

func TestIndex_Search_ThresholdAndK(t *testing.T) {
	ix, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ix.Insert(ctx, []driven.VectorEntry{
		{ChunkID: "doc-1-0000", DocumentID: "doc-1", Vector: []float32{1, 0}},
		{ChunkID: "doc-1-0001", DocumentID: "doc-1", Vector: []float32{1, 1}},
		{ChunkID: "doc-1-0002", DocumentID: "doc-1", Vector: []float32{0, 1}},
	}))

	hits, err := ix.Search(ctx, []float32{1, 0}, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, hits, 2, "orthogonal vector scores 0 and is excluded")

	hits, err = ix.Search(ctx, []float32{1, 0}, 1, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = ix.Search(ctx, []float32{1, 0}, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_Search_QueryDimensionMismatch(t *testing.T) {
	ix, err := New(3)
	require.NoError(t, err)

	_, err = ix.Search(context.Background(), []float32{1, 0}, 5, 0)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestIndex_DeleteDocument(t *testing.T) {
	ix, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ix.Insert(ctx, []driven.VectorEntry{
		{ChunkID: "doc-1-0000", DocumentID: "doc-1", Vector: []float32{1, 0}},
		{ChunkID: "doc-1-0001", DocumentID: "doc-1", Vector: []float32{0, 1}},
		{ChunkID: "doc-2-0000", DocumentID: "doc-2", Vector: []float32{1, 1}},
	}))

	require.NoError(t, ix.DeleteDocument(ctx, "doc-1"))
	assert.Equal(t, 1, ix.Len())

	hits, err := ix.Search(ctx, []float32{1, 0}, 10, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "doc-2-0000", hits[0].ChunkID)

	// Deleting an unknown document is a no-op.
	assert.NoError(t, ix.DeleteDocument(ctx, "doc-404"))
}
