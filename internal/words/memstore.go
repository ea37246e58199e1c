package words

import (
	"context"
	"sync"
)

// MemStore is an in-memory [Store] for tests and local development.
// Safe for concurrent use.
type MemStore struct {
	mu   sync.RWMutex
	byID map[string]Word
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates a MemStore pre-loaded with the given words.
func NewMemStore(ws ...Word) *MemStore {
	s := &MemStore{byID: make(map[string]Word, len(ws))}
	for _, w := range ws {
		s.byID[w.ID] = w
	}
	return s
}

// Put inserts or replaces a word.
func (s *MemStore) Put(w Word) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[w.ID] = w
}

// GetByIDs implements [Store].
func (s *MemStore) GetByIDs(_ context.Context, ids []string) ([]Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Word, 0, len(ids))
	for _, id := range ids {
		if w, ok := s.byID[id]; ok {
			result = append(result, w)
		}
	}
	return result, nil
}
