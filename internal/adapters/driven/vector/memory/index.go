// Package memory provides an in-process vector index using exact
// cosine similarity search.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry is one stored vector with its unit-norm form precomputed.
type entry struct {
	documentID string
	vector     []float32
	norm       float64
}

// Index is an in-memory vector index. Brute-force cosine similarity:
// exact results, no build step, adequate for a private corpus. The
// single RWMutex makes each Insert batch atomic with respect to Search,
// so a query never observes a half-replaced document.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	entries    map[string]entry    // chunk ID -> entry
	byDocument map[string][]string // document ID -> chunk IDs
}

// New creates an index with the given fixed dimensionality.
func New(dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: index dimensions must be positive, got %d",
			domain.ErrInvalidConfig, dimensions)
	}
	return &Index{
		dimensions: dimensions,
		entries:    make(map[string]entry),
		byDocument: make(map[string][]string),
	}, nil
}

// Insert adds or replaces the given entries as one atomic batch.
// A dimension mismatch anywhere in the batch leaves the index unchanged.
func (ix *Index) Insert(_ context.Context, entries []driven.VectorEntry) error {
	for _, e := range entries {
		if len(e.Vector) != ix.dimensions {
			return fmt.Errorf("%w: chunk %s has %d dimensions, index expects %d",
				domain.ErrDimensionMismatch, e.ChunkID, len(e.Vector), ix.dimensions)
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, e := range entries {
		vector := make([]float32, len(e.Vector))
		copy(vector, e.Vector)

		if old, ok := ix.entries[e.ChunkID]; ok && old.documentID != e.DocumentID {
			ix.removeFromDocument(old.documentID, e.ChunkID)
		}
		if _, ok := ix.entries[e.ChunkID]; !ok {
			ix.byDocument[e.DocumentID] = append(ix.byDocument[e.DocumentID], e.ChunkID)
		}

		ix.entries[e.ChunkID] = entry{
			documentID: e.DocumentID,
			vector:     vector,
			norm:       norm(vector),
		}
	}
	return nil
}

// Search returns up to k hits by descending cosine similarity. Hits
// below threshold are excluded; equal scores order by ascending chunk
// ID for determinism.
func (ix *Index) Search(_ context.Context, query []float32, k int, threshold float64) ([]driven.VectorHit, error) {
	if len(query) != ix.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, len(query), ix.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	queryNorm := norm(query)

	ix.mu.RLock()
	hits := make([]driven.VectorHit, 0, len(ix.entries))
	for chunkID, e := range ix.entries {
		score := cosine(query, queryNorm, e.vector, e.norm)
		if score < threshold {
			continue
		}
		hits = append(hits, driven.VectorHit{ChunkID: chunkID, Score: score})
	}
	ix.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteDocument removes every vector belonging to the document.
// Unknown documents are a no-op.
func (ix *Index) DeleteDocument(_ context.Context, documentID string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, chunkID := range ix.byDocument[documentID] {
		delete(ix.entries, chunkID)
	}
	delete(ix.byDocument, documentID)
	return nil
}

// Dimensions returns the fixed vector width of this index instance.
func (ix *Index) Dimensions() int {
	return ix.dimensions
}

// Len returns the number of stored vectors.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Close releases resources.
func (ix *Index) Close() error {
	return nil
}

// removeFromDocument drops a chunk ID from a document's member list.
// Caller holds the write lock.
func (ix *Index) removeFromDocument(documentID, chunkID string) {
	ids := ix.byDocument[documentID]
	for i, id := range ids {
		if id == chunkID {
			ix.byDocument[documentID] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

// norm computes the Euclidean norm.
func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine computes cosine similarity given precomputed norms.
// Zero vectors score zero.
func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}
