package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/archivist-labs/parley-cli/internal/chunker"
	"github.com/archivist-labs/parley-cli/internal/core/domain"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driven"
	"github.com/archivist-labs/parley-cli/internal/core/ports/driving"
	"github.com/archivist-labs/parley-cli/internal/logger"
)

// Ensure IngestOrchestrator implements the interface.
var _ driving.IngestOrchestrator = (*IngestOrchestrator)(nil)

// ingestJob is one document queued for the worker pool.
type ingestJob struct {
	documentID string
	filename   string
	data       []byte
}

// IngestOrchestrator owns the document lifecycle. Documents are
// processed in parallel across the worker pool; within one document the
// pipeline stages run strictly sequentially. Failures and cancellations
// roll back partial index state so a document is never left partially
// indexed.
type IngestOrchestrator struct {
	extractors driven.ExtractorRegistry
	chunker    *chunker.Chunker
	gateway    *EmbeddingGateway
	index      driven.VectorIndex
	docStore   driven.DocumentStore

	baseCtx context.Context
	jobs    chan ingestJob
	wg      sync.WaitGroup

	mu       sync.Mutex
	docLocks map[string]*sync.Mutex
	cancels  map[string]context.CancelFunc
	done     map[string]chan struct{}
	byName   map[string]string // filename -> document ID, for re-ingestion
	closed   bool
}

// NewIngestOrchestrator creates the orchestrator and starts its worker
// pool. ctx is the process lifetime: cancelling it stops all in-flight
// ingestion through the usual rollback path.
func NewIngestOrchestrator(
	ctx context.Context,
	extractors driven.ExtractorRegistry,
	chk *chunker.Chunker,
	gateway *EmbeddingGateway,
	index driven.VectorIndex,
	docStore driven.DocumentStore,
	workers int,
) *IngestOrchestrator {
	if workers <= 0 {
		workers = 1
	}

	o := &IngestOrchestrator{
		extractors: extractors,
		chunker:    chk,
		gateway:    gateway,
		index:      index,
		docStore:   docStore,
		baseCtx:    ctx,
		jobs:       make(chan ingestJob, workers*2),
		docLocks:   make(map[string]*sync.Mutex),
		cancels:    make(map[string]context.CancelFunc),
		done:       make(map[string]chan struct{}),
		byName:     make(map[string]string),
	}

	o.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go o.worker()
	}

	return o
}

// Close stops accepting work and waits for in-flight documents.
func (o *IngestOrchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()

	close(o.jobs)
	o.wg.Wait()
	return nil
}

// Ingest accepts a document and queues it for processing. Re-ingesting
// a filename that is already known replaces the previous document under
// the same identifier, so its chunk IDs stay stable.
func (o *IngestOrchestrator) Ingest(ctx context.Context, filename string, data []byte) (string, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return "", errors.New("ingest orchestrator closed")
	}

	documentID, reingest := o.byName[filename]
	if !reingest {
		documentID = uuid.New().String()
		o.byName[filename] = documentID
	}
	if _, inFlight := o.done[documentID]; !inFlight {
		o.done[documentID] = make(chan struct{})
	}
	o.mu.Unlock()

	doc := &domain.Document{
		ID:        documentID,
		Filename:  filename,
		Status:    domain.StatusUploaded,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := o.docStore.SaveDocument(ctx, doc); err != nil {
		return "", fmt.Errorf("save document: %w", err)
	}

	logger.Info("Queued %s as document %s (reingest=%t)", filename, documentID, reingest)

	select {
	case o.jobs <- ingestJob{documentID: documentID, filename: filename, data: data}:
		return documentID, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Wait blocks until the document reaches a terminal state.
func (o *IngestOrchestrator) Wait(ctx context.Context, documentID string) (*domain.Document, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		doc, err := o.docStore.GetDocument(ctx, documentID)
		if err != nil {
			return nil, err
		}
		if doc.Status.IsTerminal() {
			return doc, nil
		}

		o.mu.Lock()
		ch := o.done[documentID]
		o.mu.Unlock()

		if ch != nil {
			select {
			case <-ch:
			case <-ticker.C:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		} else {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
}

// Status returns the current lifecycle state of a document.
func (o *IngestOrchestrator) Status(ctx context.Context, documentID string) (*domain.Document, error) {
	return o.docStore.GetDocument(ctx, documentID)
}

// List returns all known documents.
func (o *IngestOrchestrator) List(ctx context.Context) ([]domain.Document, error) {
	return o.docStore.ListDocuments(ctx)
}

// Remove cancels in-flight ingestion and deletes the document from the
// vector index and the document store.
func (o *IngestOrchestrator) Remove(ctx context.Context, documentID string) error {
	o.mu.Lock()
	if cancel, ok := o.cancels[documentID]; ok {
		cancel()
	}
	o.mu.Unlock()

	lock := o.lockFor(documentID)
	lock.Lock()
	defer lock.Unlock()

	if err := o.index.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}

	doc, err := o.docStore.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get document: %w", err)
	}

	if err := o.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	o.mu.Lock()
	delete(o.byName, doc.Filename)
	o.mu.Unlock()

	logger.Info("Removed document %s (%s)", documentID, doc.Filename)
	return nil
}

// worker consumes ingestion jobs until the queue closes.
func (o *IngestOrchestrator) worker() {
	defer o.wg.Done()
	for job := range o.jobs {
		o.runJob(job)
	}
}

// runJob processes one document end to end under its exclusive section,
// then signals waiters.
func (o *IngestOrchestrator) runJob(job ingestJob) {
	ctx, cancel := context.WithCancel(o.baseCtx)

	o.mu.Lock()
	o.cancels[job.documentID] = cancel
	o.mu.Unlock()

	lock := o.lockFor(job.documentID)
	lock.Lock()

	err := o.process(ctx, job)

	lock.Unlock()

	o.mu.Lock()
	delete(o.cancels, job.documentID)
	if ch, ok := o.done[job.documentID]; ok {
		close(ch)
		delete(o.done, job.documentID)
	}
	o.mu.Unlock()
	cancel()

	if err != nil {
		logger.Warn("Ingestion of %s failed: %v", job.documentID, err)
	}
}

// process runs the staged pipeline for one document. Per-document
// failures are absorbed into the document's Failed state and never
// abort the pool.
//
//nolint:gocyclo // Pipeline orchestration with necessary sequential stages
func (o *IngestOrchestrator) process(ctx context.Context, job ingestJob) error {
	logger.Section("Ingest " + job.filename)

	// Re-ingestion starts from a clean slate for this document ID.
	// DeleteDocument is a no-op for fresh documents.
	if err := o.index.DeleteDocument(ctx, job.documentID); err != nil {
		return o.fail(job.documentID, "indexing", err)
	}

	// Uploaded -> Extracting
	if err := o.advance(ctx, job.documentID, domain.StatusExtracting); err != nil {
		return err
	}

	extractor, err := o.extractors.ForFilename(job.filename)
	if err != nil {
		return o.fail(job.documentID, "extraction", err)
	}
	text, err := extractor.Extract(ctx, job.data)
	if err != nil {
		return o.fail(job.documentID, "extraction", err)
	}
	logger.Debug("Extracted %d characters from %s", len(text), job.filename)

	if err := ctx.Err(); err != nil {
		return o.cancelled(job.documentID)
	}

	// Extracting -> Chunking. The chunker is pure and cannot fail with
	// a validated configuration.
	if err := o.advance(ctx, job.documentID, domain.StatusChunking); err != nil {
		return err
	}

	chunks := o.chunker.Chunk(job.documentID, text)
	logger.Debug("Produced %d chunks", len(chunks))

	if err := o.docStore.SaveChunks(ctx, chunks); err != nil {
		return o.fail(job.documentID, "chunking", err)
	}
	if err := o.setChunkIDs(ctx, job.documentID, chunks); err != nil {
		return o.fail(job.documentID, "chunking", err)
	}

	if err := ctx.Err(); err != nil {
		return o.cancelled(job.documentID)
	}

	// Chunking -> Embedding. The gateway retries transient outages;
	// dimension mismatches surface immediately.
	if err := o.advance(ctx, job.documentID, domain.StatusEmbedding); err != nil {
		return err
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	vectors, err := o.gateway.EmbedChunks(ctx, texts)
	if err != nil {
		if ctx.Err() != nil {
			return o.cancelled(job.documentID)
		}
		return o.fail(job.documentID, "embedding", err)
	}

	if err := ctx.Err(); err != nil {
		return o.cancelled(job.documentID)
	}

	// Embedding -> Indexed. The insert is atomic with respect to
	// searches; any partial failure rolls the whole document back.
	entries := make([]driven.VectorEntry, len(chunks))
	for i := range chunks {
		chunks[i].VectorID = chunks[i].ID
		entries[i] = driven.VectorEntry{
			ChunkID:    chunks[i].ID,
			DocumentID: job.documentID,
			Vector:     vectors[i],
		}
	}

	if err := o.index.Insert(ctx, entries); err != nil {
		o.rollback(job.documentID)
		return o.fail(job.documentID, "indexing", err)
	}

	if err := ctx.Err(); err != nil {
		o.rollback(job.documentID)
		return o.cancelled(job.documentID)
	}

	if err := o.docStore.SaveChunks(ctx, chunks); err != nil {
		o.rollback(job.documentID)
		return o.fail(job.documentID, "indexing", err)
	}

	if err := o.advance(ctx, job.documentID, domain.StatusIndexed); err != nil {
		o.rollback(job.documentID)
		return err
	}

	logger.Info("Indexed document %s: %d chunks", job.documentID, len(chunks))
	return nil
}

// advance moves the document to the next pipeline state.
func (o *IngestOrchestrator) advance(ctx context.Context, documentID string, target domain.DocumentStatus) error {
	doc, err := o.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document %s: %w", documentID, err)
	}
	if err := doc.Transition(target); err != nil {
		return err
	}
	if err := o.docStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document %s: %w", documentID, err)
	}
	logger.Debug("Document %s -> %s", documentID, target)
	return nil
}

// fail marks the document failed with the stage name as reason and
// returns the original error with document context attached.
func (o *IngestOrchestrator) fail(documentID, stage string, cause error) error {
	// Persist the failure with a fresh context: the per-document
	// context may already be cancelled.
	ctx, cancelPersist := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPersist()

	doc, err := o.docStore.GetDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Removed while in flight; nothing to record.
			return cause
		}
		return errors.Join(cause, err)
	}

	if err := doc.Fail(stage); err == nil {
		if saveErr := o.docStore.SaveDocument(ctx, doc); saveErr != nil {
			logger.Warn("Failed to persist failure of %s: %v", documentID, saveErr)
		}
	}

	return fmt.Errorf("document %s stage %s: %w", documentID, stage, cause)
}

// cancelled rolls back and records a cancelled ingestion. The rollback
// path is identical to a failure so no orphan chunks survive.
func (o *IngestOrchestrator) cancelled(documentID string) error {
	o.rollback(documentID)
	return o.fail(documentID, "cancelled", context.Canceled)
}

// rollback removes every vector the document managed to insert.
// Whole-document granularity: after rollback the index holds zero
// chunks for the document.
func (o *IngestOrchestrator) rollback(documentID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := o.index.DeleteDocument(ctx, documentID); err != nil {
		logger.Warn("Rollback of %s failed: %v", documentID, err)
		return
	}
	logger.Debug("Rolled back index entries for %s", documentID)
}

// setChunkIDs records the ordered chunk ID sequence on the document.
func (o *IngestOrchestrator) setChunkIDs(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	doc, err := o.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	doc.ChunkIDs = make([]string, len(chunks))
	for i := range chunks {
		doc.ChunkIDs[i] = chunks[i].ID
	}
	return o.docStore.SaveDocument(ctx, doc)
}

// lockFor returns the exclusive section for a document identifier.
// Per-document locks keep ingestion throughput independent of corpus
// size; there is no global ingest lock.
func (o *IngestOrchestrator) lockFor(documentID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.docLocks[documentID]
	if !ok {
		lock = &sync.Mutex{}
		o.docLocks[documentID] = lock
	}
	return lock
}
