// Package history persists completed request/response cycles. Two
// implementations back the schemas.HistoryStore interface: a capped
// in-memory ring for the default setup and a PostgreSQL store for durable
// deployments.
package history

import (
	"context"
	"sync"

	"github.com/nyxlab/nyx/api/schemas"
)

// DefaultLimit caps the in-memory store when the caller passes no limit.
const DefaultLimit = 1000

// MemoryStore keeps the most recent entries in memory, discarding the
// oldest once the cap is reached. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []schemas.HistoryEntry
	limit   int
}

// NewMemoryStore builds a capped in-memory store. limit <= 0 applies
// DefaultLimit.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &MemoryStore{limit: limit}
}

// Append records one entry, evicting the oldest entries beyond the cap.
func (s *MemoryStore) Append(_ context.Context, entry schemas.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	if over := len(s.entries) - s.limit; over > 0 {
		s.entries = append(s.entries[:0:0], s.entries[over:]...)
	}
	return nil
}

// Recent returns up to limit entries, oldest first (most recent last).
// limit <= 0 returns everything retained.
func (s *MemoryStore) Recent(_ context.Context, limit int) ([]schemas.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]schemas.HistoryEntry, n)
	copy(out, s.entries[len(s.entries)-n:])
	return out, nil
}

// Len reports the number of retained entries.
func (s *MemoryStore) Len(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Clear discards all retained entries.
func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
