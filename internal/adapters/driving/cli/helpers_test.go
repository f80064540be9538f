package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
)

var createdAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	pingErr     error
	chunking    [2]int
	provider    domain.AIProvider
	model       string
	apiKey      string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.provider, m.model, m.apiKey = p, model, apiKey
	m.settings.Embedding.Provider = p
	m.settings.Embedding.Model = model
	return nil
}

func (m *mockSettingsService) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.provider, m.model, m.apiKey = p, model, apiKey
	m.settings.LLM.Provider = p
	m.settings.LLM.Model = model
	return nil
}

func (m *mockSettingsService) SetChunking(size, overlap int) error {
	if overlap >= size {
		return fmt.Errorf("%w: overlap must be smaller than size", domain.ErrInvalidChunkConfig)
	}
	m.chunking = [2]int{size, overlap}
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.pingErr }
func (m *mockSettingsService) ValidateLLMConfig() error { return m.pingErr }

// mockIngestService turns every upload into a one-chunk document unless the
// filename has a configured failure.
type mockIngestService struct {
	failures map[string]error
	received []domain.Upload
	batches  int
}

func (m *mockIngestService) IngestText(_ context.Context, doc domain.Document) (*domain.Document, error) {
	return &doc, nil
}

func (m *mockIngestService) IngestUpload(_ context.Context, upload domain.Upload) (*domain.Document, error) {
	if err := m.failures[upload.Filename]; err != nil {
		return nil, err
	}
	return &domain.Document{
		ID:       "doc-" + upload.Filename,
		Filename: upload.Filename,
		Content:  string(upload.Content),
		Chunks:   []domain.Chunk{{ID: "doc-" + upload.Filename + "#0"}},
	}, nil
}

func (m *mockIngestService) IngestBatch(ctx context.Context, uploads []domain.Upload) ([]driving.IngestResult, error) {
	m.batches++
	m.received = append(m.received, uploads...)
	results := make([]driving.IngestResult, len(uploads))
	for i, u := range uploads {
		doc, err := m.IngestUpload(ctx, u)
		results[i] = driving.IngestResult{Filename: u.Filename, Document: doc, Err: err}
	}
	return results, nil
}

type mockDocumentService struct {
	docs    []domain.Document
	deleted []string
}

func (m *mockDocumentService) List(_ context.Context) ([]driving.DocumentSummary, error) {
	out := make([]driving.DocumentSummary, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, driving.DocumentSummary{
			ID:         d.ID,
			Filename:   d.Filename,
			MIMEType:   d.MIMEType,
			Size:       d.Size,
			TextLength: len(d.Content),
			ChunkCount: len(d.Chunks),
			UploadedAt: d.CreatedAt,
		})
	}
	return out, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	idx := slices.IndexFunc(m.docs, func(d domain.Document) bool { return d.ID == id })
	if idx < 0 {
		return domain.ErrNotFound
	}
	m.docs = slices.Delete(m.docs, idx, idx+1)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockChatService struct {
	resp     *driving.ChatResponse
	err      error
	req      driving.ChatRequest
	history  map[string][]domain.HistoryRecord
	sessions []string
}

func (m *mockChatService) Send(_ context.Context, req driving.ChatRequest) (*driving.ChatResponse, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	if m.resp != nil {
		return m.resp, nil
	}
	return &driving.ChatResponse{Answer: "an answer", Mode: req.Mode}, nil
}

func (m *mockChatService) History(_ context.Context, sessionID string) ([]domain.HistoryRecord, error) {
	return m.history[sessionID], nil
}

func (m *mockChatService) Sessions(_ context.Context) ([]string, error) {
	return m.sessions, nil
}

type mockRetriever struct {
	result domain.RetrievalResult
	err    error
	query  string
	scope  []string
	k      int
}

func (m *mockRetriever) Retrieve(_ context.Context, query string, scope []string, k int) (domain.RetrievalResult, error) {
	m.query, m.scope, m.k = query, scope, k
	return m.result, m.err
}

type testServices struct {
	settings  *mockSettingsService
	ingest    *mockIngestService
	docs      *mockDocumentService
	chat      *mockChatService
	retriever *mockRetriever
}

// setupTestServices installs mocks for every service and returns a cleanup
// that restores the package globals and flag variables.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		settings:  newMockSettingsService(),
		ingest:    &mockIngestService{},
		docs:      &mockDocumentService{},
		chat:      &mockChatService{history: map[string][]domain.HistoryRecord{}},
		retriever: &mockRetriever{},
	}
	SetServices(&Services{
		Settings:  ts.settings,
		Ingest:    ts.ingest,
		Document:  ts.docs,
		Chat:      ts.chat,
		Retriever: ts.retriever,
	})
	bootstrap = Bootstrap{}
	envFile = ""
	preload = nil

	return ts, func() {
		SetServices(&Services{})
		release = nil
		preload = nil
		envFile = ".env"
		askMode, askFiles, askSession = "normal", nil, ""
		askSources, askJSON = false, false
		retrieveK, retrieveFiles = domain.DefaultTopK, nil
		ingestJSON, docsJSON, historyJSON = false, false, false
		skipValidation = false
		serveAddr, serveWatch = "", ""
	}
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func sampleDocs() []domain.Document {
	return []domain.Document{
		{
			ID:        "1714564800000-cats.txt",
			Filename:  "cats.txt",
			MIMEType:  "text/plain",
			Size:      42,
			Content:   "Cats sleep a lot.",
			Chunks:    []domain.Chunk{{ID: "1714564800000-cats.txt#0"}},
			Metadata:  map[string]any{"path": "/tmp/cats.txt"},
			CreatedAt: createdAt,
		},
		{
			ID:        "1714564800001-dogs.md",
			Filename:  "dogs.md",
			MIMEType:  "text/markdown",
			Size:      64,
			Content:   "Dogs bark.",
			Chunks:    []domain.Chunk{{ID: "1714564800001-dogs.md#0"}, {ID: "1714564800001-dogs.md#1"}},
			CreatedAt: createdAt,
		},
	}
}
