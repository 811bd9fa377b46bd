package services

import (
	"fmt"
	"strings"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/logger"
)

// ContextAssembler packs retrieved chunks into a bounded-size context
// string plus citation metadata for the answer-generation prompt.
type ContextAssembler struct {
	budget int
}

// NewContextAssembler creates an assembler with the given character
// budget for the assembled context.
func NewContextAssembler(budget int) *ContextAssembler {
	return &ContextAssembler{budget: budget}
}

// Assemble iterates chunks in descending relevance order, skips chunks
// whose text is a strict substring of text already included from the
// same document, and appends the rest with citation markers until the
// next chunk would exceed the budget. The returned context never
// exceeds the budget; citation order matches inclusion order, so the
// generation step can reference sources by marker index.
func (a *ContextAssembler) Assemble(chunks []domain.RetrievedChunk) (string, []domain.Citation) {
	var (
		builder   strings.Builder
		citations []domain.Citation
		included  = make(map[string][]string) // document ID -> included texts
		size      = 0
	)

	for _, rc := range chunks {
		if isSubstringOfAny(rc.Chunk.Text, included[rc.Chunk.DocumentID]) {
			logger.Debug("Dedup: chunk %s is contained in already-included text", rc.Chunk.ID)
			continue
		}

		marker := len(citations) + 1
		entry := fmt.Sprintf("[%d] %s\n\n", marker, rc.Chunk.Text)
		if size+len(entry) > a.budget {
			logger.Debug("Budget reached at %d/%d characters, stopping", size, a.budget)
			break
		}

		builder.WriteString(entry)
		size += len(entry)
		included[rc.Chunk.DocumentID] = append(included[rc.Chunk.DocumentID], rc.Chunk.Text)

		citations = append(citations, domain.Citation{
			Marker:     marker,
			DocumentID: rc.Chunk.DocumentID,
			ChunkID:    rc.Chunk.ID,
			Score:      rc.Score,
		})
	}

	logger.Debug("Assembled context: %d chunks, %d characters", len(citations), size)
	return builder.String(), citations
}

// isSubstringOfAny reports whether text is a strict substring of any of
// the given texts. An identical chunk counts as contained.
func isSubstringOfAny(text string, texts []string) bool {
	for _, t := range texts {
		if len(text) <= len(t) && strings.Contains(t, text) {
			return true
		}
	}
	return false
}
