package driven

import (
	"context"

	"github.com/custodia-labs/embediq/internal/core/domain"
)

// DocumentStore owns documents and their ordered chunk lists.
type DocumentStore interface {
	// Put creates a document. Reusing an existing ID returns domain.ErrAlreadyExists.
	// Any chunks on doc are ignored; the stored chunk list starts empty.
	Put(ctx context.Context, doc *domain.Document) error

	// AppendChunks appends chunks to the document's chunk list.
	AppendChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// Get retrieves a document with its chunks. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Exists reports whether a document is stored.
	Exists(ctx context.Context, id string) bool

	// Delete removes the document and cascades to the vector index.
	Delete(ctx context.Context, id string) error

	// List returns all documents in creation order.
	List(ctx context.Context) ([]domain.Document, error)
}
