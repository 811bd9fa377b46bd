// Package chunker splits extracted document text into overlapping,
// fixed-size passages for embedding and retrieval.
package chunker

import (
	"fmt"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

// DefaultSize is the default number of characters per chunk.
const DefaultSize = 1000

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 200

// Chunker produces deterministic sliding-window chunks. Identical input
// and parameters always yield identical chunk boundaries and IDs, which
// is what makes re-ingestion reproducible.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker. Returns domain.ErrInvalidConfig unless
// size > 0 and 0 <= overlap < size.
func New(size, overlap int) (*Chunker, error) {
	cfg := domain.ChunkingSettings{Size: size, Overlap: overlap}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the window size in characters.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the overlap in characters.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits text into the ordered chunk sequence for documentID.
// The window advances by size-overlap characters per step; the final
// chunk may be shorter than size. Offsets are rune offsets into the
// source text. Empty input yields an empty sequence; no chunk is
// ever empty.
func (c *Chunker) Chunk(documentID, text string) []domain.Chunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	total := len(runes)
	stride := c.size - c.overlap

	chunks := make([]domain.Chunk, 0, total/stride+1)

	for index, start := 0, 0; start < total; index, start = index+1, start+stride {
		end := start + c.size
		if end > total {
			end = total
		}

		chunks = append(chunks, domain.Chunk{
			ID:          domain.ChunkID(documentID, index),
			DocumentID:  documentID,
			Text:        string(runes[start:end]),
			StartOffset: start,
			EndOffset:   end,
			Index:       index,
		})
	}

	return chunks
}

// Validate re-checks the parameters; used by startup validation paths
// that construct settings before the chunker itself.
func Validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: chunk overlap must be in [0, size), got %d", domain.ErrInvalidConfig, overlap)
	}
	return nil
}
