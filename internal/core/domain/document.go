package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DocumentStatus tracks a document through the ingestion pipeline.
// The status is monotonic: a document moves forward through the pipeline
// or fails, it never regresses.
type DocumentStatus string

// Ingestion pipeline states.
const (
	// StatusUploaded means the raw bytes have been accepted but not processed.
	StatusUploaded DocumentStatus = "uploaded"

	// StatusExtracting means text extraction is in progress.
	StatusExtracting DocumentStatus = "extracting"

	// StatusChunking means the extracted text is being split into chunks.
	StatusChunking DocumentStatus = "chunking"

	// StatusEmbedding means chunk embeddings are being generated.
	StatusEmbedding DocumentStatus = "embedding"

	// StatusIndexed means all chunks are stored in the vector index. Terminal.
	StatusIndexed DocumentStatus = "indexed"

	// StatusFailed means ingestion failed at some stage. Terminal.
	StatusFailed DocumentStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusUploaded, StatusExtracting, StatusChunking, StatusEmbedding, StatusIndexed, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if no further transitions are allowed.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusIndexed || s == StatusFailed
}

// String returns the string representation.
func (s DocumentStatus) String() string {
	return string(s)
}

// next is the single legal forward transition for each non-terminal state.
var next = map[DocumentStatus]DocumentStatus{
	StatusUploaded:   StatusExtracting,
	StatusExtracting: StatusChunking,
	StatusChunking:   StatusEmbedding,
	StatusEmbedding:  StatusIndexed,
}

// CanTransition reports whether moving from s to target is legal.
// Any non-terminal state may transition to StatusFailed.
func (s DocumentStatus) CanTransition(target DocumentStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target == StatusFailed {
		return true
	}
	return next[s] == target
}

// Document represents one uploaded document and its ingestion state.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Filename is the original name of the uploaded file.
	Filename string

	// Status is the current ingestion pipeline state.
	Status DocumentStatus

	// FailureReason describes why ingestion failed. Set only when
	// Status is StatusFailed; names the stage that failed.
	FailureReason string

	// ChunkIDs is the ordered sequence of chunk identifiers produced
	// by chunking. Empty until the chunking stage completes.
	ChunkIDs []string

	// CreatedAt is when the document was accepted.
	CreatedAt time.Time

	// UpdatedAt is when the document last changed state.
	UpdatedAt time.Time
}

// NewDocument creates a freshly uploaded document with a new identifier.
func NewDocument(filename string) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:        uuid.New().String(),
		Filename:  filename,
		Status:    StatusUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition advances the document to target, enforcing monotonicity.
func (d *Document) Transition(target DocumentStatus) error {
	if !d.Status.CanTransition(target) {
		return fmt.Errorf("%w: document %s cannot move from %s to %s",
			ErrInvalidTransition, d.ID, d.Status, target)
	}
	d.Status = target
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail marks the document failed with the given reason.
func (d *Document) Fail(reason string) error {
	if err := d.Transition(StatusFailed); err != nil {
		return err
	}
	d.FailureReason = reason
	return nil
}

// Chunk represents a contiguous text span of a document, the unit of
// embedding and retrieval. Chunk identifiers are derived from the owning
// document ID and the sequence index, so re-ingesting the same content
// produces the same IDs.
type Chunk struct {
	// ID is the unique identifier, of the form "<documentID>-NNNN".
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Text is the chunk content.
	Text string

	// StartOffset is the character offset of the chunk in the source text.
	StartOffset int

	// EndOffset is the character offset one past the last character.
	EndOffset int

	// Index is the ordinal position within the document.
	Index int

	// VectorID is the identifier of the stored embedding vector.
	// Set only after successful embedding; the vector itself lives
	// in the vector index, never inline here.
	VectorID string
}

// ChunkID derives the deterministic chunk identifier for a document and
// sequence index.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s-%04d", documentID, index)
}

// RetrievedChunk is a chunk returned by similarity retrieval.
type RetrievedChunk struct {
	// Chunk is the resolved chunk record.
	Chunk Chunk

	// Score is the similarity score under the index's metric.
	Score float64
}
