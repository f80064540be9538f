package driving

import (
	"context"

	"github.com/custodia-labs/embediq/internal/core/domain"
)

// IngestService turns extracted text and uploaded files into indexed documents.
type IngestService interface {
	// IngestText chunks, embeds and indexes text under the given document ID.
	// The document is visible to retrieval only once every chunk is indexed.
	IngestText(ctx context.Context, doc domain.Document) (*domain.Document, error)

	// IngestUpload validates an upload, extracts its text and ingests it.
	IngestUpload(ctx context.Context, upload domain.Upload) (*domain.Document, error)

	// IngestBatch ingests several uploads concurrently.
	// A failure in one upload does not stop the others.
	IngestBatch(ctx context.Context, uploads []domain.Upload) ([]IngestResult, error)
}

// IngestResult reports the outcome of one upload in a batch.
type IngestResult struct {
	// Filename is the original file name.
	Filename string

	// Document is set on success.
	Document *domain.Document

	// Err is set on failure.
	Err error
}
