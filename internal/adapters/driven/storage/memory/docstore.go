package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
	"github.com/custodia-labs/embediq/internal/logger"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Deleting a document also removes its entries from the attached vector index.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document
	order     []string
	index     driven.VectorIndex
}

// NewDocumentStore creates a new in-memory document store. index may be nil,
// in which case deletes do not cascade.
func NewDocumentStore(index driven.VectorIndex) *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*domain.Document),
		index:     index,
	}
}

// Put creates a document with an empty chunk list.
func (s *DocumentStore) Put(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("document id is required: %w", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[doc.ID]; ok {
		return fmt.Errorf("document %q: %w", doc.ID, domain.ErrAlreadyExists)
	}

	stored := *doc
	stored.Chunks = nil
	stored.Metadata = maps.Clone(doc.Metadata)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	s.documents[doc.ID] = &stored
	s.order = append(s.order, doc.ID)
	return nil
}

// AppendChunks appends chunks to a document in one step, so readers see
// either none or all of them. Every chunk must belong to the document and
// lie inside its text.
func (s *DocumentStore) AppendChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[documentID]
	if !ok {
		return fmt.Errorf("document %q: %w", documentID, domain.ErrNotFound)
	}

	for _, c := range chunks {
		if c.DocumentID != documentID {
			return fmt.Errorf("chunk %s belongs to %q: %w", c.ID, c.DocumentID, domain.ErrInvalidInput)
		}
		if c.Start < 0 || c.End > len(doc.Content) || c.End <= c.Start {
			return fmt.Errorf("chunk %s offsets [%d,%d) outside text of length %d: %w",
				c.ID, c.Start, c.End, len(doc.Content), domain.ErrInvalidInput)
		}
	}

	doc.Chunks = append(doc.Chunks, chunks...)
	return nil
}

// Get retrieves a document and its chunks.
func (s *DocumentStore) Get(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %q: %w", id, domain.ErrNotFound)
	}

	out := *doc
	out.Chunks = slices.Clone(doc.Chunks)
	out.Metadata = maps.Clone(doc.Metadata)
	return &out, nil
}

// Exists reports whether a document is stored.
func (s *DocumentStore) Exists(_ context.Context, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.documents[id]
	return ok
}

// Delete removes a document. Its vectors are removed from the index first so
// a concurrent search never returns chunks of a document that is gone.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	if !s.Exists(ctx, id) {
		return fmt.Errorf("document %q: %w", id, domain.ErrNotFound)
	}

	if s.index != nil {
		removed, err := s.index.DeleteByDocument(ctx, id)
		if err != nil {
			return fmt.Errorf("delete vectors of %q: %w", id, err)
		}
		logger.Debug("Removed %d vectors of document %s", removed, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return fmt.Errorf("document %q: %w", id, domain.ErrNotFound)
	}
	delete(s.documents, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

// List returns all documents in creation order.
func (s *DocumentStore) List(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.order))
	for _, id := range s.order {
		doc := *s.documents[id]
		doc.Chunks = slices.Clone(doc.Chunks)
		docs = append(docs, doc)
	}
	return docs, nil
}
