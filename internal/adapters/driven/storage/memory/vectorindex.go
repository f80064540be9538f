package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a flat in-memory vector index. Search scans every entry and
// scores it by cosine similarity, so cost grows linearly with the corpus.
//
// Mutations take the write lock for their whole duration; searches share the
// read lock. A batch is therefore visible to searches all at once or not at all.
type VectorIndex struct {
	mu      sync.RWMutex
	dim     int
	entries []indexedEntry
}

type indexedEntry struct {
	entry driven.VectorEntry
	norm  float64
}

// VectorIndexOption configures a VectorIndex.
type VectorIndexOption func(*VectorIndex)

// WithDimensions fixes the vector length up front instead of taking it from
// the first insert.
func WithDimensions(dim int) VectorIndexOption {
	return func(v *VectorIndex) {
		if dim > 0 {
			v.dim = dim
		}
	}
}

// NewVectorIndex creates an empty flat index.
func NewVectorIndex(opts ...VectorIndexOption) *VectorIndex {
	v := &VectorIndex{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Insert appends one entry.
func (v *VectorIndex) Insert(ctx context.Context, entry driven.VectorEntry) error {
	return v.InsertBatch(ctx, []driven.VectorEntry{entry})
}

// InsertBatch validates every entry, then appends them under a single write lock.
// If any entry is invalid nothing is inserted.
func (v *VectorIndex) InsertBatch(_ context.Context, entries []driven.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	prepared := make([]indexedEntry, 0, len(entries))
	for i, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("entry %d (chunk %s): empty vector: %w", i, e.Chunk.ID, domain.ErrInvalidInput)
		}
		prepared = append(prepared, indexedEntry{
			entry: driven.VectorEntry{
				Vector:   slices.Clone(e.Vector),
				Chunk:    e.Chunk,
				Metadata: maps.Clone(e.Metadata),
			},
			norm: norm(e.Vector),
		})
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	dim := v.dim
	if dim == 0 {
		dim = len(prepared[0].entry.Vector)
	}
	for i, p := range prepared {
		if len(p.entry.Vector) != dim {
			return fmt.Errorf("entry %d (chunk %s): got %d dimensions, index has %d: %w",
				i, p.entry.Chunk.ID, len(p.entry.Vector), dim, domain.ErrDimensionMismatch)
		}
	}

	v.dim = dim
	v.entries = append(v.entries, prepared...)
	return nil
}

// Search returns the k entries most similar to query, best first. Entries with
// equal scores keep insertion order.
func (v *VectorIndex) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d: %w", k, domain.ErrInvalidInput)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	if len(v.entries) == 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != v.dim {
		return nil, fmt.Errorf("query has %d dimensions, index has %d: %w", len(query), v.dim, domain.ErrDimensionMismatch)
	}

	qnorm := norm(query)
	hits := make([]driven.VectorHit, len(v.entries))
	for i, e := range v.entries {
		hits[i] = driven.VectorHit{
			Entry:      e.entry,
			Similarity: cosine(query, qnorm, e.entry.Vector, e.norm),
		}
	}

	slices.SortStableFunc(hits, func(a, b driven.VectorHit) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteByDocument removes every entry whose chunk belongs to documentID.
// The relative order of the remaining entries is preserved.
func (v *VectorIndex) DeleteByDocument(_ context.Context, documentID string) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	before := len(v.entries)
	v.entries = slices.DeleteFunc(v.entries, func(e indexedEntry) bool {
		return e.entry.Chunk.DocumentID == documentID
	})
	return before - len(v.entries), nil
}

// Len returns the number of stored entries.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}

// Dimensions returns the vector length, or 0 before the first insert.
func (v *VectorIndex) Dimensions() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.dim
}

// Close drops all entries.
func (v *VectorIndex) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = nil
	return nil
}

func norm(vec []float32) float64 {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector has zero length.
func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (anorm * bnorm)
}
