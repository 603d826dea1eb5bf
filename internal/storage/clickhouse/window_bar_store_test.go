package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickflow/internal/domain"
	"tickflow/internal/storage"
)

func storedBars(day time.Time) []*domain.WindowBar {
	open := time.Date(day.Year(), day.Month(), day.Day(), 9, 30, 0, 0, time.UTC)
	return []*domain.WindowBar{
		{
			WidthMinutes: 1,
			Start:        open,
			TimeWindow:   "09:30",
			Open:         10.00, High: 10.05, Low: 9.98, Close: 10.02,
			Turnover: 150000, Volume: 15000, NetInflow: 30000,
			BuyAmount: 90000, SellAmount: 60000,
			TradeCount: 42, LargeOrderCount: 1,
			OFI: 0.2, VWAP: 10.0, RangePct: 0.7,
			CumNetInflow:    ptr(30000.0),
			CumNetInflowEMA: ptr(30000.0),
			OFISmoothed:     ptr(0.2),
		},
		{
			WidthMinutes: 1,
			Start:        open.Add(time.Minute),
			TimeWindow:   "09:31",
			Open:         10.02, High: 10.03, Low: 10.00, Close: 10.01,
			Turnover: 80000, Volume: 8000, NetInflow: -10000,
			BuyAmount: 35000, SellAmount: 45000,
			TradeCount: 18,
			OFI:        -0.125, VWAP: 10.0, RangePct: 0.3,
			CumNetInflow:    ptr(20000.0),
			CumNetInflowEMA: ptr(28000.0),
			OFISmoothed:     ptr(0.1025),
		},
		{
			WidthMinutes: 5,
			Start:        open,
			TimeWindow:   "09:30",
			Open:         10.00, High: 10.05, Low: 9.98, Close: 10.01,
			Turnover: 230000, Volume: 23000, NetInflow: 20000,
			BuyAmount: 125000, SellAmount: 105000,
			TradeCount: 60, LargeOrderCount: 1,
			OFI: 0.087, VWAP: 10.0, RangePct: 0.7,
			OFISmoothed: ptr(0.1025),
		},
	}
}

func TestWindowBarStore_InsertBulkAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWindowBarStore(conn)
	ctx := context.Background()
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertBulk(ctx, "600000", day, storedBars(day)))

	oneMin, err := store.GetBySymbolDay(ctx, "600000", day, 1)
	require.NoError(t, err)
	require.Len(t, oneMin, 2)

	assert.Equal(t, "09:30", oneMin[0].TimeWindow)
	assert.Equal(t, 42, oneMin[0].TradeCount)
	assert.Equal(t, 1, oneMin[0].LargeOrderCount)
	assert.InDelta(t, 30000, oneMin[0].NetInflow, 1e-9)
	require.NotNil(t, oneMin[0].CumNetInflow)
	assert.InDelta(t, 30000, *oneMin[0].CumNetInflow, 1e-9)

	assert.Equal(t, "09:31", oneMin[1].TimeWindow)
	assert.InDelta(t, -0.125, oneMin[1].OFI, 1e-9)
	require.NotNil(t, oneMin[1].OFISmoothed)
	assert.InDelta(t, 0.1025, *oneMin[1].OFISmoothed, 1e-9)

	fiveMin, err := store.GetBySymbolDay(ctx, "600000", day, 5)
	require.NoError(t, err)
	require.Len(t, fiveMin, 1)
	assert.Equal(t, 60, fiveMin[0].TradeCount)
	assert.Nil(t, fiveMin[0].CumNetInflow, "coarse bars carry no cumulative line")
}

func TestWindowBarStore_DuplicateBatch(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWindowBarStore(conn)
	ctx := context.Background()
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertBulk(ctx, "600000", day, storedBars(day)))

	err := store.InsertBulk(ctx, "600000", day, storedBars(day))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestWindowBarStore_NotFound(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWindowBarStore(conn)
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	_, err := store.GetBySymbolDay(context.Background(), "999999", day, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestWindowBarStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewWindowBarStore(conn)
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	err := store.InsertBulk(context.Background(), "", day, storedBars(day))
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
