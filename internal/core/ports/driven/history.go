package driven

import (
	"context"

	"github.com/custodia-labs/embediq/internal/core/domain"
)

// HistoryStore keeps chat history keyed by session ID. It is append-only.
type HistoryStore interface {
	// Append records one exchange.
	Append(ctx context.Context, record domain.HistoryRecord) error

	// List returns a session's records oldest first. Unknown sessions yield an empty slice.
	List(ctx context.Context, sessionID string) ([]domain.HistoryRecord, error)

	// Sessions returns the session IDs with history, most recently used first.
	Sessions(ctx context.Context) ([]string, error)

	// Close releases resources.
	Close() error
}
