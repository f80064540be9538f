// Package watcher keeps the index in step with a directory: files present at
// start are ingested, new or modified files are re-ingested and removed
// files are deleted from the index.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/embediq/internal/connectors/filesystem"
	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
	"github.com/custodia-labs/embediq/internal/logger"
)

// Source produces file changes. *filesystem.Connector satisfies it.
type Source interface {
	Scan(ctx context.Context) ([]filesystem.Change, error)
	Watch(ctx context.Context) (<-chan filesystem.Change, error)
}

// Watcher applies file changes to the document index.
type Watcher struct {
	source Source
	ingest driving.IngestService
	docs   driving.DocumentService

	mu    sync.Mutex
	paths map[string]string
}

// New creates a watcher.
func New(source Source, ingest driving.IngestService, docs driving.DocumentService) *Watcher {
	return &Watcher{
		source: source,
		ingest: ingest,
		docs:   docs,
		paths:  make(map[string]string),
	}
}

// Run ingests the current directory contents, then applies changes until
// ctx is cancelled. Failures on individual files are logged and skipped.
func (w *Watcher) Run(ctx context.Context) error {
	existing, err := w.source.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	logger.Info("Watcher found %d files", len(existing))
	for _, change := range existing {
		w.apply(ctx, change)
	}

	changes, err := w.source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	for change := range changes {
		w.apply(ctx, change)
	}
	return nil
}

// Tracked returns a copy of the path to document ID mapping.
func (w *Watcher) Tracked() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[string]string, len(w.paths))
	for k, v := range w.paths {
		out[k] = v
	}
	return out
}

func (w *Watcher) apply(ctx context.Context, change filesystem.Change) {
	logger.Debug("File %s: %s", change.Type, change.Path)

	if err := w.remove(ctx, change.Path); err != nil {
		logger.Warn("Remove %s from index: %v", change.Path, err)
	}
	if change.Type == filesystem.ChangeDeleted || change.Upload == nil {
		return
	}

	doc, err := w.ingest.IngestUpload(ctx, *change.Upload)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedType) {
			logger.Debug("Skipping %s: %v", change.Path, err)
			return
		}
		logger.Warn("Ingest %s: %v", change.Path, err)
		return
	}

	w.mu.Lock()
	w.paths[change.Path] = doc.ID
	w.mu.Unlock()
	logger.Info("Indexed %s as %s (%d chunks)", change.Path, doc.ID, doc.ChunkCount())
}

// remove deletes the document previously ingested from path, if any.
func (w *Watcher) remove(ctx context.Context, path string) error {
	w.mu.Lock()
	id, ok := w.paths[path]
	delete(w.paths, path)
	w.mu.Unlock()

	if !ok {
		return nil
	}
	if err := w.docs.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}
