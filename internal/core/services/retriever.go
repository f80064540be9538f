package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
	"github.com/custodia-labs/embediq/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.Retriever = (*Retriever)(nil)

// Retriever embeds a query, searches the vector index and keeps the best
// chunks inside the requested document scope.
type Retriever struct {
	embedder     driven.EmbeddingService
	index        driven.VectorIndex
	candidates   int
	embedTimeout time.Duration
}

// NewRetriever creates a retriever. Candidates is how many neighbours are
// fetched before the scope filter runs; it is raised to k when smaller.
func NewRetriever(embedder driven.EmbeddingService, index driven.VectorIndex, settings domain.RetrievalSettings) *Retriever {
	candidates := settings.Candidates
	if candidates <= 0 {
		candidates = domain.DefaultCandidates
	}
	return &Retriever{
		embedder:     embedder,
		index:        index,
		candidates:   candidates,
		embedTimeout: settings.EmbedTimeout,
	}
}

// Retrieve returns at most k chunks from documents in scope, best first.
func (r *Retriever) Retrieve(ctx context.Context, query string, scope []string, k int) (domain.RetrievalResult, error) {
	logger.Section("Retrieve")
	logger.Debug("Query: %q, scope: %v, k: %d", query, scope, k)

	query = strings.TrimSpace(query)
	if query == "" {
		return domain.RetrievalResult{}, fmt.Errorf("retrieve: %w: query is empty", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return domain.RetrievalResult{}, fmt.Errorf("retrieve: %w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if r.embedder == nil {
		return domain.RetrievalResult{}, fmt.Errorf("retrieve: %w: no embedding service", domain.ErrEmbeddingUnavailable)
	}
	if r.index.Len() == 0 {
		logger.Debug("Index is empty")
		return domain.RetrievalResult{}, domain.ErrNoDocumentsIndexed
	}

	start := time.Now()
	vector, err := r.embedQuery(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return domain.RetrievalResult{}, err
	}
	logger.Debug("Embedded query in %v (%d dimensions)", time.Since(start), len(vector))

	limit := max(r.candidates, k)
	hits, err := r.index.Search(ctx, vector, limit)
	if err != nil {
		return domain.RetrievalResult{}, fmt.Errorf("search index: %w", err)
	}
	logger.Debug("Candidates: %d of %d requested", len(hits), limit)

	result := domain.RetrievalResult{Chunks: FilterHits(hits, domain.NewScope(scope), k)}
	if result.IsEmpty() {
		logger.Info("No chunks matched scope %v", scope)
		return result, domain.ErrNoRelevantInformation
	}

	logger.Info("Retrieved %d chunks from %d documents", result.Len(), len(result.DocumentIDs()))
	return result, nil
}

// embedQuery embeds the query under the configured timeout. Failures are
// reported as upstream failures so callers can tell them from empty results.
func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if r.embedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.embedTimeout)
		defer cancel()
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrUpstream) {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		return nil, fmt.Errorf("embed query: %w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return vector, nil
}

// FilterHits keeps hits whose document is in scope, preserving order, and
// truncates to k. A nil scope keeps every hit.
func FilterHits(hits []driven.VectorHit, scope map[string]struct{}, k int) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, 0, min(len(hits), k))
	for _, h := range hits {
		if len(out) == k {
			break
		}
		if scope != nil {
			if _, ok := scope[h.Entry.Chunk.DocumentID]; !ok {
				continue
			}
		}
		out = append(out, domain.ScoredChunk{Chunk: h.Entry.Chunk, Score: h.Similarity})
	}
	return out
}
