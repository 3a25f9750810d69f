package presence

import (
	"context"
	"sync"
)

// MemoryStore is the default presence store: a process-local map guarded by
// an RWMutex. Reads never touch the network, which keeps the Status path
// allocation-cheap and non-blocking. State is ephemeral by design; a restart
// simply starts everyone offline.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Load returns a copy of the record for userID, or (nil, nil) when absent.
// Copies keep callers from mutating shared state outside the tracker's
// per-user serialization.
func (s *MemoryStore) Load(_ context.Context, userID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	return rec.clone(), nil
}

// Save upserts the record keyed by its UserID.
func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	s.records[rec.UserID] = rec.clone()
	s.mu.Unlock()
	return nil
}

// OnlineIDs lists users currently marked online.
func (s *MemoryStore) OnlineIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0)
	for id, rec := range s.records {
		if rec.Online {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
