package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/embediq/internal/core/domain"
)

// DocumentService manages indexed documents.
type DocumentService interface {
	// List returns summaries of all documents in upload order.
	List(ctx context.Context) ([]DocumentSummary, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Delete removes a document and every vector derived from it.
	Delete(ctx context.Context, documentID string) error
}

// DocumentSummary is the listing view of a document.
type DocumentSummary struct {
	// ID is the unique document identifier.
	ID string

	// Filename is the original file name.
	Filename string

	// MIMEType is the content type.
	MIMEType string

	// Size is the upload size in bytes.
	Size int64

	// TextLength is the extracted text length in bytes.
	TextLength int

	// ChunkCount is the number of chunks.
	ChunkCount int

	// UploadedAt is when the document was stored.
	UploadedAt time.Time
}
