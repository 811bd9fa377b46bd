package driven

import "context"

// VectorIndex provides semantic similarity search over stored embeddings.
// Exactly one backing implementation is active at a time, selected by
// configuration. The similarity metric is fixed per index instance.
type VectorIndex interface {
	// Insert adds or replaces the given entries. The whole batch is
	// applied atomically with respect to Search, so a concurrent query
	// never observes a half-inserted document. Vectors whose width does
	// not match the index dimensionality fail with
	// domain.ErrDimensionMismatch and leave the index unchanged.
	Insert(ctx context.Context, entries []VectorEntry) error

	// Search returns up to k hits ranked by descending similarity score.
	// Hits scoring below threshold are excluded. Equal scores are
	// ordered by ascending chunk ID for determinism.
	Search(ctx context.Context, query []float32, k int, threshold float64) ([]VectorHit, error)

	// DeleteDocument removes every vector belonging to the document.
	// Deleting an unknown document is a no-op. Used for re-ingestion,
	// removal, and rollback of partial inserts.
	DeleteDocument(ctx context.Context, documentID string) error

	// Dimensions returns the fixed vector width of this index instance.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// VectorEntry is one vector to store.
type VectorEntry struct {
	// ChunkID identifies the chunk the vector embeds.
	ChunkID string

	// DocumentID identifies the owning document, for per-document delete.
	DocumentID string

	// Vector is the embedding. The index owns the stored copy.
	Vector []float32
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the similarity score (cosine, 0-1).
	Score float64
}
