package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/logistics/backend/internal/domain/shared"
)

// MemoryStore keeps collections in process memory
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]Collection
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]Collection)}
}

// Load implements CollectionStore
func (s *MemoryStore) Load(_ context.Context, key string) (*Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[key]
	if !ok {
		return &Collection{Records: []json.RawMessage{}}, nil
	}
	return &Collection{Records: cloneRecords(c.Records), Version: c.Version}, nil
}

// Save implements CollectionStore
func (s *MemoryStore) Save(_ context.Context, key string, records []json.RawMessage, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collections[key].Version != expectedVersion {
		return shared.ErrConcurrencyConflict
	}
	s.collections[key] = Collection{Records: cloneRecords(records), Version: expectedVersion + 1}
	return nil
}

func cloneRecords(records []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(records))
	for i, r := range records {
		out[i] = append(json.RawMessage(nil), r...)
	}
	return out
}

var _ CollectionStore = (*MemoryStore)(nil)
