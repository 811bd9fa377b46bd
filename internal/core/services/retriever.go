package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
	"github.com/archivist-labs/parley-cli/internal/logger"
)

// Retriever executes similarity search and resolves the hits to chunk
// records.
type Retriever struct {
	index     driven.VectorIndex
	docStore  driven.DocumentStore
	threshold float64
}

// NewRetriever creates a retriever. threshold excludes hits scoring
// below it; at zero only negative-similarity hits are cut.
func NewRetriever(index driven.VectorIndex, docStore driven.DocumentStore, threshold float64) *Retriever {
	return &Retriever{
		index:     index,
		docStore:  docStore,
		threshold: threshold,
	}
}

// Retrieve returns up to k chunks ranked by descending similarity.
// An index hit whose chunk record is gone signals index/document-store
// desynchronisation; the entry is logged and dropped and retrieval
// proceeds with the remainder rather than failing the query.
func (r *Retriever) Retrieve(ctx context.Context, queryVector []float32, k int) ([]domain.RetrievedChunk, error) {
	logger.Debug("Vector search: k=%d threshold=%g", k, r.threshold)

	hits, err := r.index.Search(ctx, queryVector, k, r.threshold)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector search: %d hits", len(hits))

	results := make([]domain.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		chunk, err := r.docStore.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Degraded retrieval: %v: index references chunk %s with no record",
					domain.ErrChunkNotFound, hit.ChunkID)
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", hit.ChunkID, err)
		}

		results = append(results, domain.RetrievedChunk{
			Chunk: *chunk,
			Score: hit.Score,
		})
	}

	return results, nil
}
