package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
)

// vectorIndex implements driven.VectorIndex on top of the vectors table.
// Similarity is cosine, computed in process; inserts run in a single
// transaction so a concurrent search never sees a half-written batch.
type vectorIndex struct {
	store      *Store
	dimensions int
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Insert adds or replaces the given entries atomically.
func (v *vectorIndex) Insert(ctx context.Context, entries []driven.VectorEntry) error {
	for _, entry := range entries {
		if len(entry.Vector) != v.dimensions {
			return fmt.Errorf("%w: vector for chunk %s has %d dimensions, index expects %d",
				domain.ErrDimensionMismatch, entry.ChunkID, len(entry.Vector), v.dimensions)
		}
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (chunk_id, document_id, embedding)
		VALUES (?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			document_id = excluded.document_id,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		blob := float32SliceToBytes(entry.Vector)
		if _, err := stmt.ExecContext(ctx, entry.ChunkID, entry.DocumentID, blob); err != nil {
			return fmt.Errorf("inserting vector: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search returns up to k hits ranked by descending cosine similarity,
// ties broken by ascending chunk ID.
func (v *vectorIndex) Search(ctx context.Context, query []float32, k int, threshold float64) ([]driven.VectorHit, error) {
	if len(query) != v.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index expects %d",
			domain.ErrDimensionMismatch, len(query), v.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	rows, err := v.store.db.QueryContext(ctx, "SELECT chunk_id, embedding FROM vectors")
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	queryNorm := vectorNorm(query)

	var hits []driven.VectorHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunkID string
		var blob []byte
		if err := rows.Scan(&chunkID, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}

		stored := bytesToFloat32Slice(blob)
		score := cosineSimilarity(query, queryNorm, stored)
		if score < threshold {
			continue
		}
		hits = append(hits, driven.VectorHit{ChunkID: chunkID, Score: score})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].ChunkID < hits[j].ChunkID
		}
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteDocument removes every vector belonging to the document.
func (v *vectorIndex) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := v.store.db.ExecContext(ctx,
		"DELETE FROM vectors WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	return nil
}

// Dimensions returns the fixed vector width of this index.
func (v *vectorIndex) Dimensions() int {
	return v.dimensions
}

// Close is a no-op; the owning Store manages the connection.
func (v *vectorIndex) Close() error {
	return nil
}

// Len returns the number of stored vectors.
func (v *vectorIndex) Len(ctx context.Context) (int, error) {
	var count int
	err := v.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors").Scan(&count)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return count, nil
}

// vectorNorm computes the Euclidean norm.
func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosineSimilarity computes cosine similarity given a precomputed query norm.
// Zero vectors score 0.
func cosineSimilarity(query []float32, queryNorm float64, stored []float32) float64 {
	if len(query) != len(stored) {
		return 0
	}
	storedNorm := vectorNorm(stored)
	if queryNorm == 0 || storedNorm == 0 {
		return 0
	}
	var dot float64
	for i := range query {
		dot += float64(query[i]) * float64(stored[i])
	}
	return dot / (queryNorm * storedNorm)
}
