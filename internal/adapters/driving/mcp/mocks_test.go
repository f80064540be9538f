package mcp

import (
	"context"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
)

// mockRetriever is a mock implementation of driving.Retriever.
type mockRetriever struct {
	result domain.RetrievalResult
	err    error

	query string
	scope []string
	k     int
}

func (m *mockRetriever) Retrieve(_ context.Context, query string, scope []string, k int) (domain.RetrievalResult, error) {
	m.query, m.scope, m.k = query, scope, k
	return m.result, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	resp *driving.ChatResponse
	err  error
	req  driving.ChatRequest
}

func (m *mockChatService) Send(_ context.Context, req driving.ChatRequest) (*driving.ChatResponse, error) {
	m.req = req
	return m.resp, m.err
}

func (m *mockChatService) History(_ context.Context, _ string) ([]domain.HistoryRecord, error) {
	if m.resp == nil {
		return nil, m.err
	}
	return m.resp.History, m.err
}

func (m *mockChatService) Sessions(_ context.Context) ([]string, error) {
	return nil, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	summaries []driving.DocumentSummary
	document  *domain.Document
	err       error
}

func (m *mockDocumentService) List(_ context.Context) ([]driving.DocumentSummary, error) {
	return m.summaries, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}
