package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"tickflow/internal/domain"
	"tickflow/internal/idhash"
	"tickflow/internal/storage"
)

// TickStore implements storage.TickStore using PostgreSQL.
type TickStore struct {
	pool *Pool
}

// NewTickStore creates a new TickStore.
func NewTickStore(pool *Pool) *TickStore {
	return &TickStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TickStore = (*TickStore)(nil)

// InsertBulk adds a day's classified ticks atomically. Returns
// ErrDuplicateKey if any (batch_id, tick_id) already exists.
func (s *TickStore) InsertBulk(ctx context.Context, symbol string, day time.Time, ticks []*domain.ClassifiedTick) error {
	if symbol == "" {
		return storage.ErrInvalidInput
	}
	if len(ticks) == 0 {
		return nil
	}

	batchID := idhash.BatchID(symbol, day)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO ticks (
			batch_id, tick_id, symbol, day, trade_time, price, volume_lots, volume, turnover,
			direction, direction_source, pct_change, extreme_jump, auction,
			sign, net_inflow, is_large_order, minute_threshold, turnover_ratio
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	for i, t := range ticks {
		tickID := idhash.TickID(symbol, t.Time, t.Price, i)
		_, err := tx.Exec(ctx, query,
			batchID,
			tickID,
			symbol,
			day,
			t.Time,
			t.Price,
			t.VolumeLots,
			t.Volume,
			t.Turnover,
			string(t.Direction),
			t.DirectionSource,
			t.PctChange,
			t.ExtremeJump,
			t.Auction,
			t.Sign,
			t.NetInflow,
			t.IsLargeOrder,
			t.MinuteThreshold,
			t.TurnoverRatio,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert tick in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetBySymbolDay retrieves a day's ticks ordered by trade time ASC.
func (s *TickStore) GetBySymbolDay(ctx context.Context, symbol string, day time.Time) ([]*domain.ClassifiedTick, error) {
	batchID := idhash.BatchID(symbol, day)

	query := `
		SELECT trade_time, price, volume_lots, volume, turnover,
			direction, direction_source, pct_change, extreme_jump, auction,
			sign, net_inflow, is_large_order, minute_threshold, turnover_ratio
		FROM ticks
		WHERE batch_id = $1
		ORDER BY trade_time ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("get ticks by symbol day: %w", err)
	}
	defer rows.Close()

	ticks, err := scanTicks(rows)
	if err != nil {
		return nil, err
	}
	if len(ticks) == 0 {
		return nil, storage.ErrNotFound
	}
	return ticks, nil
}

// scanTicks scans multiple rows into a slice of ClassifiedTick.
func scanTicks(rows pgx.Rows) ([]*domain.ClassifiedTick, error) {
	var ticks []*domain.ClassifiedTick

	for rows.Next() {
		var t domain.ClassifiedTick
		var direction string

		err := rows.Scan(
			&t.Time,
			&t.Price,
			&t.VolumeLots,
			&t.Volume,
			&t.Turnover,
			&direction,
			&t.DirectionSource,
			&t.PctChange,
			&t.ExtremeJump,
			&t.Auction,
			&t.Sign,
			&t.NetInflow,
			&t.IsLargeOrder,
			&t.MinuteThreshold,
			&t.TurnoverRatio,
		)
		if err != nil {
			return nil, fmt.Errorf("scan tick row: %w", err)
		}

		t.Direction = domain.Direction(direction)
		ticks = append(ticks, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tick rows: %w", err)
	}

	return ticks, nil
}
