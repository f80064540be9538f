package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore keeps chat history for the lifetime of the process.
type HistoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]domain.HistoryRecord
	order    []string // least recently used first
}

// NewHistoryStore creates an empty history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		sessions: make(map[string][]domain.HistoryRecord),
	}
}

// Append records one exchange.
func (s *HistoryStore) Append(_ context.Context, record domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[record.SessionID] = append(s.sessions[record.SessionID], record)
	if i := slices.Index(s.order, record.SessionID); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	s.order = append(s.order, record.SessionID)
	return nil
}

// List returns a session's records oldest first.
func (s *HistoryStore) List(_ context.Context, sessionID string) ([]domain.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := slices.Clone(s.sessions[sessionID])
	if records == nil {
		records = []domain.HistoryRecord{}
	}
	return records, nil
}

// Sessions returns the session IDs with history, most recently used first.
func (s *HistoryStore) Sessions(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := slices.Clone(s.order)
	slices.Reverse(ids)
	return ids, nil
}

// Close is a no-op.
func (s *HistoryStore) Close() error {
	return nil
}
