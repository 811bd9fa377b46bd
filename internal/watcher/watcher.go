// Package watcher feeds documents dropped into a directory to the
// ingestion pipeline.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/archivist-labs/parley-cli/internal/core/ports/driving"
	"github.com/archivist-labs/parley-cli/internal/logger"
)

// DefaultDebounce is how long a path must stay quiet before it is
// ingested. Editors and copies produce bursts of writes; only the last
// one matters.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors a drop directory and keeps the index in sync with
// it. New and modified files are ingested; removed files are removed
// from the index. Hidden files and subdirectories are ignored.
type Watcher struct {
	dir      string
	ingest   driving.IngestOrchestrator
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher for dir. The directory must exist.
func New(dir string, ingest driving.IngestOrchestrator, debounce time.Duration) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch directory: %s is not a directory", dir)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		dir:      dir,
		ingest:   ingest,
		debounce: debounce,
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Run ingests every file already present, then watches for changes
// until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	if err := w.syncExisting(ctx); err != nil {
		return err
	}

	logger.Info("Watching %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)
		}
	}
}

// syncExisting ingests the files already in the directory.
func (w *Watcher) syncExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || isHidden(entry.Name()) {
			continue
		}
		w.ingestFile(ctx, filepath.Join(w.dir, entry.Name()))
	}
	return nil
}

// handleEvent routes one filesystem event. Creates and writes schedule
// a debounced ingest; removes and renames drop the document.
func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	// Judge hiddenness relative to the watch root, so a drop directory
	// under a dotted parent still works.
	rel, err := filepath.Rel(w.dir, event.Name)
	if err != nil {
		rel = filepath.Base(event.Name)
	}
	if isHidden(rel) {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		w.cancelScheduled(event.Name)
		w.removeFile(ctx, event.Name)
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
			return
		}
		w.schedule(ctx, event.Name)
	}
}

// schedule queues a path for ingestion once it stays quiet for the
// debounce window. A new event on the same path resets the timer.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.ingestFile(ctx, path)
	})
}

func (w *Watcher) cancelScheduled(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// ingestFile reads the file and hands it to the orchestrator under its
// base name. Per-file failures are logged, never fatal to the watch.
func (w *Watcher) ingestFile(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Skipping %s: %v", path, err)
		return
	}

	id, err := w.ingest.Ingest(ctx, filepath.Base(path), data)
	if err != nil {
		logger.Warn("Ingest of %s failed: %v", path, err)
		return
	}
	logger.Info("Queued %s as document %s", filepath.Base(path), id)
}

// removeFile drops the document whose filename matches the removed
// path, if one exists.
func (w *Watcher) removeFile(ctx context.Context, path string) {
	filename := filepath.Base(path)

	docs, err := w.ingest.List(ctx)
	if err != nil {
		logger.Warn("List documents: %v", err)
		return
	}
	for i := range docs {
		if docs[i].Filename != filename {
			continue
		}
		if err := w.ingest.Remove(ctx, docs[i].ID); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Remove %s: %v", docs[i].ID, err)
		}
		return
	}
}

// isHidden reports whether any path element starts with a dot. The
// bare "." and ".." elements do not count.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
