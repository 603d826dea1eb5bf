package clickhouse

import (
	"context"
	"fmt"
	"time"

	"tickflow/internal/domain"
	"tickflow/internal/idhash"
	"tickflow/internal/storage"
)

// WindowBarStore implements storage.WindowBarStore using ClickHouse.
type WindowBarStore struct {
	conn *Conn
}

// NewWindowBarStore creates a new WindowBarStore.
func NewWindowBarStore(conn *Conn) *WindowBarStore {
	return &WindowBarStore{conn: conn}
}

// Compile-time interface check.
var _ storage.WindowBarStore = (*WindowBarStore)(nil)

// InsertBulk adds bars for a (symbol, day). Fails entire batch if any
// (batch_id, width_minutes) group already has rows.
func (s *WindowBarStore) InsertBulk(ctx context.Context, symbol string, day time.Time, bars []*domain.WindowBar) error {
	if symbol == "" {
		return storage.ErrInvalidInput
	}
	if len(bars) == 0 {
		return nil
	}

	batchID := idhash.BatchID(symbol, day)

	// ClickHouse MergeTree doesn't enforce uniqueness at insert time, so
	// duplicates are detected with explicit checks before insert.
	widths := make(map[int]struct{})
	for _, b := range bars {
		widths[b.WidthMinutes] = struct{}{}
	}
	for width := range widths {
		exists, err := s.exists(ctx, batchID, width)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO window_bars (
			batch_id, symbol, day, width_minutes, window_start, time_window,
			open, high, low, close, turnover, volume, net_inflow,
			buy_amount, sell_amount, trade_count, large_order_count,
			ofi, vwap, range_pct, cum_net_inflow, cum_net_inflow_ema, ofi_smoothed
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, b := range bars {
		err = batch.Append(
			batchID, symbol, day, uint16(b.WidthMinutes), b.Start, b.TimeWindow,
			b.Open, b.High, b.Low, b.Close, b.Turnover, b.Volume, b.NetInflow,
			b.BuyAmount, b.SellAmount, uint32(b.TradeCount), uint32(b.LargeOrderCount),
			b.OFI, b.VWAP, b.RangePct, b.CumNetInflow, b.CumNetInflowEMA, b.OFISmoothed,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySymbolDay retrieves one width's bars, ordered by window start ASC.
func (s *WindowBarStore) GetBySymbolDay(ctx context.Context, symbol string, day time.Time, widthMinutes int) ([]*domain.WindowBar, error) {
	query := `
		SELECT width_minutes, window_start, time_window,
			open, high, low, close, turnover, volume, net_inflow,
			buy_amount, sell_amount, trade_count, large_order_count,
			ofi, vwap, range_pct, cum_net_inflow, cum_net_inflow_ema, ofi_smoothed
		FROM window_bars
		WHERE batch_id = ? AND width_minutes = ?
		ORDER BY window_start ASC
	`

	rows, err := s.conn.Query(ctx, query, idhash.BatchID(symbol, day), uint16(widthMinutes))
	if err != nil {
		return nil, fmt.Errorf("query window bars: %w", err)
	}
	defer rows.Close()

	bars, err := scanWindowBars(rows)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, storage.ErrNotFound
	}
	return bars, nil
}

// exists checks if any bar for the (batch, width) key exists.
func (s *WindowBarStore) exists(ctx context.Context, batchID string, widthMinutes int) (bool, error) {
	query := `
		SELECT count(*) FROM window_bars
		WHERE batch_id = ? AND width_minutes = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, batchID, uint16(widthMinutes)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanWindowBars scans multiple rows.
func scanWindowBars(rows chRows) ([]*domain.WindowBar, error) {
	var bars []*domain.WindowBar

	for rows.Next() {
		var b domain.WindowBar
		var width uint16
		var tradeCount, largeOrderCount uint32

		err := rows.Scan(
			&width, &b.Start, &b.TimeWindow,
			&b.Open, &b.High, &b.Low, &b.Close, &b.Turnover, &b.Volume, &b.NetInflow,
			&b.BuyAmount, &b.SellAmount, &tradeCount, &largeOrderCount,
			&b.OFI, &b.VWAP, &b.RangePct, &b.CumNetInflow, &b.CumNetInflowEMA, &b.OFISmoothed,
		)
		if err != nil {
			return nil, fmt.Errorf("scan window bar row: %w", err)
		}

		b.WidthMinutes = int(width)
		b.TradeCount = int(tradeCount)
		b.LargeOrderCount = int(largeOrderCount)
		bars = append(bars, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate window bar rows: %w", err)
	}

	return bars, nil
}
