package memory

import (
	"context"
	"sync"
	"time"

	"tickflow/internal/domain"
	"tickflow/internal/idhash"
	"tickflow/internal/storage"
)

// FlowSummaryStore is an in-memory implementation of
// storage.FlowSummaryStore.
type FlowSummaryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.FlowSummary // keyed by batch ID
}

// NewFlowSummaryStore creates a new in-memory flow-summary store.
func NewFlowSummaryStore() *FlowSummaryStore {
	return &FlowSummaryStore{
		data: make(map[string]*domain.FlowSummary),
	}
}

// Compile-time interface check.
var _ storage.FlowSummaryStore = (*FlowSummaryStore)(nil)

// Insert stores a day summary.
func (s *FlowSummaryStore) Insert(_ context.Context, symbol string, day time.Time, summary *domain.FlowSummary) error {
	if symbol == "" || summary == nil {
		return storage.ErrInvalidInput
	}

	key := idhash.BatchID(symbol, day)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	c := *summary
	s.data[key] = &c
	return nil
}

// GetBySymbolDay retrieves a day summary.
func (s *FlowSummaryStore) GetBySymbolDay(_ context.Context, symbol string, day time.Time) (*domain.FlowSummary, error) {
	key := idhash.BatchID(symbol, day)

	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, exists := s.data[key]
	if !exists {
		return nil, storage.ErrNotFound
	}

	c := *summary
	return &c, nil
}
