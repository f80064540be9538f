package driven

import (
	"context"

	"github.com/custodia-labs/embediq/internal/core/domain"
)

// VectorIndex stores chunk vectors and answers k-nearest-neighbour queries.
// The flat in-memory implementation scans every entry; an approximate index
// can be substituted without changing callers.
type VectorIndex interface {
	// Insert appends one entry. Entries are never deduplicated.
	Insert(ctx context.Context, entry VectorEntry) error

	// InsertBatch appends all entries atomically: concurrent searches see
	// either every entry of the batch or none of them.
	InsertBatch(ctx context.Context, entries []VectorEntry) error

	// Search returns at most k entries ordered by descending similarity.
	// Ties keep insertion order. An empty index returns an empty slice.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// DeleteByDocument removes every entry of the document and returns how many were removed.
	DeleteByDocument(ctx context.Context, documentID string) (int, error)

	// Len returns the number of stored entries.
	Len() int

	// Dimensions returns the vector length of the index, or 0 before the first insert.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// VectorEntry is one indexed chunk.
type VectorEntry struct {
	// Vector is the chunk embedding.
	Vector []float32

	// Chunk is the indexed chunk.
	Chunk domain.Chunk

	// Metadata carries extra key-value pairs returned with hits.
	Metadata map[string]any
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Entry is the matched entry.
	Entry VectorEntry

	// Similarity is the cosine similarity score in [-1, 1].
	Similarity float64
}
