package driven

import (
	"context"

	"github.com/archivist-labs/parley-cli/internal/core/domain"
)

// DocumentStore persists documents and chunks.
type DocumentStore interface {
	// SaveDocument stores or updates a document record.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores the chunks for a document, replacing any
	// previous set.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if absent.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks retrieves all chunks for a document in sequence order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	// Returns domain.ErrNotFound if absent.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}
