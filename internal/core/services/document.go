package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
	"github.com/custodia-labs/embediq/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService lists and removes indexed documents.
type DocumentService struct {
	docStore driven.DocumentStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(docStore driven.DocumentStore) *DocumentService {
	return &DocumentService{docStore: docStore}
}

// List returns summaries of all documents in upload order.
func (s *DocumentService) List(ctx context.Context) ([]driving.DocumentSummary, error) {
	docs, err := s.docStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	summaries := make([]driving.DocumentSummary, len(docs))
	for i := range docs {
		summaries[i] = Summarise(&docs[i])
	}
	return summaries, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	return s.docStore.Get(ctx, documentID)
}

// Delete removes a document. The store cascades the removal to the vector index.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if err := s.docStore.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	logger.Info("Deleted document %s", documentID)
	return nil
}

// Summarise builds the listing view of a document.
func Summarise(doc *domain.Document) driving.DocumentSummary {
	return driving.DocumentSummary{
		ID:         doc.ID,
		Filename:   doc.Filename,
		MIMEType:   doc.MIMEType,
		Size:       doc.Size,
		TextLength: len(doc.Content),
		ChunkCount: doc.ChunkCount(),
		UploadedAt: doc.CreatedAt,
	}
}
