package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
	"github.com/custodia-labs/embediq/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService runs the ingestion path: extract, chunk, embed, index.
type IngestService struct {
	docStore     driven.DocumentStore
	index        driven.VectorIndex
	embedder     driven.EmbeddingService
	pipeline     driven.PostProcessorPipeline
	normalisers  driven.NormaliserRegistry
	limits       domain.UploadSettings
	embedTimeout time.Duration
	now          func() time.Time
}

// NewIngestService creates an ingestion service. normalisers may be nil when
// only IngestText is used.
func NewIngestService(
	docStore driven.DocumentStore,
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
	pipeline driven.PostProcessorPipeline,
	normalisers driven.NormaliserRegistry,
	settings domain.AppSettings,
) *IngestService {
	limits := settings.Upload
	if limits.MaxFileSize <= 0 {
		limits.MaxFileSize = domain.DefaultMaxFileSize
	}
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = domain.DefaultMaxFiles
	}
	if limits.Concurrency <= 0 {
		limits.Concurrency = domain.DefaultIngestConcurrency
	}
	return &IngestService{
		docStore:     docStore,
		index:        index,
		embedder:     embedder,
		pipeline:     pipeline,
		normalisers:  normalisers,
		limits:       limits,
		embedTimeout: settings.Retrieval.EmbedTimeout,
		now:          time.Now,
	}
}

// IngestText stores doc, chunks its content, embeds every chunk in order and
// indexes them in one batch. If any step fails the document is removed again,
// so a failed ingest leaves nothing behind.
func (s *IngestService) IngestText(ctx context.Context, doc domain.Document) (*domain.Document, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("ingest: %w: document id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("ingest %s: %w: document has no text", doc.ID, domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, fmt.Errorf("ingest %s: %w: no embedding service", doc.ID, domain.ErrEmbeddingUnavailable)
	}

	logger.Section("Ingest " + doc.ID)
	start := time.Now()

	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.now()
	}
	if err := s.docStore.Put(ctx, &doc); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	chunks, err := s.indexDocument(ctx, &doc)
	if err != nil {
		s.discard(context.WithoutCancel(ctx), doc.ID)
		return nil, err
	}

	logger.Info("Indexed %s: %d chunks in %v", doc.ID, len(chunks), time.Since(start))
	return s.docStore.Get(ctx, doc.ID)
}

// discard removes a failed document and any vectors already inserted for it.
// The document may have been deleted concurrently, in which case the store
// no longer cascades and the index is cleared directly.
func (s *IngestService) discard(ctx context.Context, id string) {
	if err := s.docStore.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Cleanup of %s failed: %v", id, err)
	}
	if removed, err := s.index.DeleteByDocument(ctx, id); err != nil {
		logger.Warn("Cleanup of %s vectors failed: %v", id, err)
	} else if removed > 0 {
		logger.Debug("Removed %d orphaned vectors of %s", removed, id)
	}
}

// indexDocument runs chunk, embed and insert for a stored document.
func (s *IngestService) indexDocument(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", doc.ID, err)
	}
	logger.Debug("Chunked %s into %d chunks", doc.ID, len(chunks))

	entries := make([]driven.VectorEntry, len(chunks))
	for i := range chunks {
		vector, err := s.embed(ctx, chunks[i].Content)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d of %s: %w", i, doc.ID, err)
		}
		chunks[i].Embedding = vector
		entries[i] = driven.VectorEntry{
			Vector: vector,
			Chunk:  chunks[i],
			Metadata: map[string]any{
				"filename": doc.Filename,
			},
		}
	}

	if err := s.index.InsertBatch(ctx, entries); err != nil {
		return nil, fmt.Errorf("index %s: %w", doc.ID, err)
	}
	if err := s.docStore.AppendChunks(ctx, doc.ID, chunks); err != nil {
		return nil, fmt.Errorf("attach chunks to %s: %w", doc.ID, err)
	}
	return chunks, nil
}

func (s *IngestService) embed(ctx context.Context, text string) ([]float32, error) {
	if s.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.embedTimeout)
		defer cancel()
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrUpstream) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return vector, nil
}

// IngestUpload checks the upload's size, extracts its text and ingests it
// under a fresh document ID.
func (s *IngestService) IngestUpload(ctx context.Context, upload domain.Upload) (*domain.Document, error) {
	if upload.Filename == "" {
		return nil, fmt.Errorf("upload: %w: filename is required", domain.ErrInvalidInput)
	}
	if upload.Size() == 0 {
		return nil, fmt.Errorf("upload %s: %w: file is empty", upload.Filename, domain.ErrInvalidInput)
	}
	if upload.Size() > s.limits.MaxFileSize {
		return nil, fmt.Errorf("upload %s: %w: %d bytes exceeds limit of %d",
			upload.Filename, domain.ErrTooLarge, upload.Size(), s.limits.MaxFileSize)
	}
	if s.normalisers == nil {
		return nil, fmt.Errorf("upload %s: %w", upload.Filename, domain.ErrUnsupportedType)
	}

	result, err := s.normalisers.Normalise(ctx, &upload)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedType) || errors.Is(err, domain.ErrExtractionFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("extract %s: %w: %v", upload.Filename, domain.ErrExtractionFailed, err)
	}
	if strings.TrimSpace(result.Text) == "" {
		return nil, fmt.Errorf("extract %s: %w: no text found", upload.Filename, domain.ErrExtractionFailed)
	}

	mimeType := upload.MIMEType
	if t, ok := result.Metadata["mime_type"].(string); ok && t != "" {
		mimeType = t
	}

	doc := domain.Document{
		Filename:  upload.Filename,
		MIMEType:  mimeType,
		Size:      upload.Size(),
		Content:   result.Text,
		Metadata:  result.Metadata,
		CreatedAt: s.now(),
	}

	base := fmt.Sprintf("%d-%s", doc.CreatedAt.UnixMilli(), sanitiseFilename(upload.Filename))
	doc.ID = base
	if s.docStore.Exists(ctx, base) {
		doc.ID = suffixedID(base)
	}
	for attempt := 1; ; attempt++ {
		out, err := s.IngestText(ctx, doc)
		if err == nil || !errors.Is(err, domain.ErrAlreadyExists) || attempt == maxIDAttempts {
			return out, err
		}
		// Another upload took the ID between the check and the insert.
		logger.Debug("Document ID %s taken, retrying with a suffix", doc.ID)
		doc.ID = suffixedID(base)
	}
}

// maxIDAttempts bounds how often IngestUpload retries a taken document ID.
const maxIDAttempts = 3

// suffixedID appends a short random suffix to a "<unix-millis>-<filename>" ID.
func suffixedID(base string) string {
	return base + "-" + uuid.NewString()[:8]
}

// sanitiseFilename keeps IDs usable as a single URL path segment.
func sanitiseFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '?' || r == '#' || r == '%':
			return '_'
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			return '_'
		default:
			return r
		}
	}, name)
}

// IngestBatch ingests up to MaxFiles uploads concurrently. Each upload gets
// its own result; one failure does not cancel the others.
func (s *IngestService) IngestBatch(ctx context.Context, uploads []domain.Upload) ([]driving.IngestResult, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: no files uploaded", domain.ErrInvalidInput)
	}
	if len(uploads) > s.limits.MaxFiles {
		return nil, fmt.Errorf("%w: %d files exceeds limit of %d", domain.ErrInvalidInput, len(uploads), s.limits.MaxFiles)
	}

	results := make([]driving.IngestResult, len(uploads))
	g := new(errgroup.Group)
	g.SetLimit(s.limits.Concurrency)

	for i := range uploads {
		g.Go(func() error {
			doc, err := s.IngestUpload(ctx, uploads[i])
			results[i] = driving.IngestResult{
				Filename: uploads[i].Filename,
				Document: doc,
				Err:      err,
			}
			if err != nil {
				logger.Warn("Ingest %s failed: %v", uploads[i].Filename, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}
