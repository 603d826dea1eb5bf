// Package memory provides in-memory store implementations for testing and
// single-process runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tickflow/internal/domain"
	"tickflow/internal/idhash"
	"tickflow/internal/storage"
)

// TickStore is an in-memory implementation of storage.TickStore.
type TickStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.ClassifiedTick // keyed by batch ID
}

// NewTickStore creates a new in-memory tick store.
func NewTickStore() *TickStore {
	return &TickStore{
		data: make(map[string][]*domain.ClassifiedTick),
	}
}

// Compile-time interface check.
var _ storage.TickStore = (*TickStore)(nil)

// InsertBulk stores a day's classified ticks atomically.
func (s *TickStore) InsertBulk(_ context.Context, symbol string, day time.Time, ticks []*domain.ClassifiedTick) error {
	if symbol == "" {
		return storage.ErrInvalidInput
	}

	key := idhash.BatchID(symbol, day)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	stored := make([]*domain.ClassifiedTick, len(ticks))
	for i, t := range ticks {
		c := *t
		stored[i] = &c
	}
	s.data[key] = stored
	return nil
}

// GetBySymbolDay retrieves a day's ticks ordered by time ASC.
func (s *TickStore) GetBySymbolDay(_ context.Context, symbol string, day time.Time) ([]*domain.ClassifiedTick, error) {
	key := idhash.BatchID(symbol, day)

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.data[key]
	if !exists {
		return nil, storage.ErrNotFound
	}

	result := make([]*domain.ClassifiedTick, len(stored))
	for i, t := range stored {
		c := *t
		result[i] = &c
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Time.Before(result[j].Time)
	})
	return result, nil
}
