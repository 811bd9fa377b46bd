package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration. Fatal at startup;
	// the process refuses to run rather than failing silently per-document.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidTransition indicates an illegal document status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrExtractionFailed indicates text extraction failed.
	// Terminal for that document only.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrModelUnavailable indicates the embedding service is unreachable.
	// Retryable with bounded backoff.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrDimensionMismatch indicates a vector width does not match the
	// index. Fatal and non-retryable: existing index data is incompatible
	// with the model's output, which requires operator intervention.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrChunkNotFound indicates the vector index returned a chunk that
	// is no longer in document storage. Degraded mode: the entry is
	// logged and skipped, retrieval proceeds with the remainder.
	ErrChunkNotFound = errors.New("chunk not found")

	// ErrGenerationUnavailable indicates the answer-generation service
	// is unreachable. Recorded as a failed turn, never retried
	// automatically.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrGenerationTimeout indicates answer generation timed out.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrConversationImmutable indicates an attempt to modify an
	// appended turn.
	ErrConversationImmutable = errors.New("conversation turns are immutable")

	// ErrUnsupportedFormat indicates an unknown export format or
	// document file type.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrIngestInProgress indicates the document is already being ingested.
	ErrIngestInProgress = errors.New("ingestion in progress")
)
