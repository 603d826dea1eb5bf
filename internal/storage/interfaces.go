package storage

import (
	"context"
	"time"

	"tickflow/internal/domain"
)

// TickStore provides access to classified tick storage. Ticks are archived
// per (symbol, trading day) batch.
type TickStore interface {
	// InsertBulk stores a day's classified ticks atomically. Returns
	// ErrDuplicateKey if the (symbol, day) batch already exists.
	InsertBulk(ctx context.Context, symbol string, day time.Time, ticks []*domain.ClassifiedTick) error

	// GetBySymbolDay retrieves a day's ticks ordered by time ASC. Returns
	// ErrNotFound if the batch does not exist.
	GetBySymbolDay(ctx context.Context, symbol string, day time.Time) ([]*domain.ClassifiedTick, error)
}

// WindowBarStore provides access to aggregated window-bar storage.
type WindowBarStore interface {
	// InsertBulk stores bars for a (symbol, day). Returns ErrDuplicateKey
	// if bars for the same (symbol, day, width) already exist.
	InsertBulk(ctx context.Context, symbol string, day time.Time, bars []*domain.WindowBar) error

	// GetBySymbolDay retrieves one width's bars ordered by window start ASC.
	// Returns ErrNotFound if no bars exist for the key.
	GetBySymbolDay(ctx context.Context, symbol string, day time.Time, widthMinutes int) ([]*domain.WindowBar, error)
}

// FlowSummaryStore provides access to day-level flow summaries.
type FlowSummaryStore interface {
	// Insert stores a day summary. Returns ErrDuplicateKey if one exists
	// for the (symbol, day).
	Insert(ctx context.Context, symbol string, day time.Time, summary *domain.FlowSummary) error

	// GetBySymbolDay retrieves a day summary. Returns ErrNotFound if not
	// exists.
	GetBySymbolDay(ctx context.Context, symbol string, day time.Time) (*domain.FlowSummary, error)
}
