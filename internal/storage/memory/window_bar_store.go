package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tickflow/internal/domain"
	"tickflow/internal/idhash"
	"tickflow/internal/storage"
)

// WindowBarStore is an in-memory implementation of storage.WindowBarStore.
type WindowBarStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.WindowBar // keyed by batch ID + width
}

// NewWindowBarStore creates a new in-memory window-bar store.
func NewWindowBarStore() *WindowBarStore {
	return &WindowBarStore{
		data: make(map[string][]*domain.WindowBar),
	}
}

// Compile-time interface check.
var _ storage.WindowBarStore = (*WindowBarStore)(nil)

func barKey(symbol string, day time.Time, width int) string {
	return fmt.Sprintf("%s|%d", idhash.BatchID(symbol, day), width)
}

// InsertBulk stores bars for a (symbol, day), grouped by width.
func (s *WindowBarStore) InsertBulk(_ context.Context, symbol string, day time.Time, bars []*domain.WindowBar) error {
	if symbol == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	byWidth := make(map[int][]*domain.WindowBar)
	for _, b := range bars {
		c := *b
		byWidth[b.WidthMinutes] = append(byWidth[b.WidthMinutes], &c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for width := range byWidth {
		if _, exists := s.data[barKey(symbol, day, width)]; exists {
			return storage.ErrDuplicateKey
		}
	}
	for width, group := range byWidth {
		s.data[barKey(symbol, day, width)] = group
	}
	return nil
}

// GetBySymbolDay retrieves one width's bars ordered by window start ASC.
func (s *WindowBarStore) GetBySymbolDay(_ context.Context, symbol string, day time.Time, widthMinutes int) ([]*domain.WindowBar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, exists := s.data[barKey(symbol, day, widthMinutes)]
	if !exists {
		return nil, storage.ErrNotFound
	}

	result := make([]*domain.WindowBar, len(stored))
	for i, b := range stored {
		c := *b
		result[i] = &c
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Start.Before(result[j].Start)
	})
	return result, nil
}
