package driving

import (
	"context"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

// IngestOrchestrator drives document ingestion: intake, the staged
// pipeline (extract, chunk, embed, index), and document lifecycle state.
type IngestOrchestrator interface {
	// Ingest accepts a document for processing and returns its ID.
	// Processing happens asynchronously on the worker pool; use Wait
	// or Status to observe the outcome. Re-ingesting a filename that
	// is already indexed replaces the previous document.
	Ingest(ctx context.Context, filename string, data []byte) (string, error)

	// Wait blocks until the document reaches a terminal state or the
	// context is cancelled. A Failed document is not an error from
	// Wait; inspect the returned document's status.
	Wait(ctx context.Context, documentID string) (*domain.Document, error)

	// Status returns the current lifecycle state of a document.
	Status(ctx context.Context, documentID string) (*domain.Document, error)

	// List returns all known documents.
	List(ctx context.Context) ([]domain.Document, error)

	// Remove cancels any in-flight ingestion of the document and
	// removes it from the index and the document store.
	Remove(ctx context.Context, documentID string) error
}
