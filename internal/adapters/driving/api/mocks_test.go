package api

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
)

var uploadedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// mockIngestService ingests each upload as a one-chunk document unless
// the filename has a configured error.
type mockIngestService struct {
	failures map[string]error
	batchErr error
	received []domain.Upload
}

func (m *mockIngestService) IngestText(_ context.Context, doc domain.Document) (*domain.Document, error) {
	return &doc, nil
}

func (m *mockIngestService) IngestUpload(_ context.Context, upload domain.Upload) (*domain.Document, error) {
	if err := m.failures[upload.Filename]; err != nil {
		return nil, err
	}
	text := string(upload.Content)
	return &domain.Document{
		ID:        fmt.Sprintf("%d-%s", uploadedAt.UnixMilli(), upload.Filename),
		Filename:  upload.Filename,
		MIMEType:  upload.MIMEType,
		Size:      upload.Size(),
		Content:   text,
		Chunks:    []domain.Chunk{{ID: "c#0", Content: text}},
		CreatedAt: uploadedAt,
	}, nil
}

func (m *mockIngestService) IngestBatch(ctx context.Context, uploads []domain.Upload) ([]driving.IngestResult, error) {
	m.received = uploads
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	results := make([]driving.IngestResult, len(uploads))
	for i, u := range uploads {
		doc, err := m.IngestUpload(ctx, u)
		results[i] = driving.IngestResult{Filename: u.Filename, Document: doc, Err: err}
	}
	return results, nil
}

type mockDocumentService struct {
	summaries []driving.DocumentSummary
	err       error
	deleted   string
}

func (m *mockDocumentService) List(_ context.Context) ([]driving.DocumentSummary, error) {
	return m.summaries, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return nil, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}

type mockChatService struct {
	resp    *driving.ChatResponse
	err     error
	history []domain.HistoryRecord
	req     driving.ChatRequest
	session string
}

func (m *mockChatService) Send(_ context.Context, req driving.ChatRequest) (*driving.ChatResponse, error) {
	m.req = req
	return m.resp, m.err
}

func (m *mockChatService) History(_ context.Context, sessionID string) ([]domain.HistoryRecord, error) {
	m.session = sessionID
	return m.history, m.err
}

func (m *mockChatService) Sessions(_ context.Context) ([]string, error) {
	return []string{m.session}, m.err
}
