package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickflow/internal/domain"
	"tickflow/internal/storage"
)

func sampleSummary() *domain.FlowSummary {
	return &domain.FlowSummary{
		TradeCount:   100,
		BuyCount:     60,
		SellCount:    30,
		NeutralCount: 10,

		BuyAmount:     600000,
		SellAmount:    300000,
		NeutralAmount: 50000,
		NetInflow:     300000,
		TotalTurnover: 950000,

		BuyRatio:  0.6667,
		SellRatio: 0.3333,
		OFI:       0.3333,
		VWAP:      10.05,

		LargeOrderThreshold:      250000,
		LargeOrderThresholdEarly: 300000,
		LargeOrderCount:          2,
		LargeBuyAmount:           400000,
		LargeSellAmount:          100000,
		LargeOrderNetInflow:      300000,

		RetailBuyAmount:  200000,
		RetailSellAmount: 200000,
		RetailNetInflow:  0,
	}
}

func TestFlowSummaryStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFlowSummaryStore(pool)
	ctx := context.Background()
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)

	require.NoError(t, store.Insert(ctx, "600000", day, sampleSummary()))

	got, err := store.GetBySymbolDay(ctx, "600000", day)
	require.NoError(t, err)

	assert.Equal(t, 100, got.TradeCount)
	assert.Equal(t, 60, got.BuyCount)
	assert.InDelta(t, 300000, got.NetInflow, 1e-9)
	assert.InDelta(t, 10.05, got.VWAP, 1e-9)
	assert.Equal(t, 2, got.LargeOrderCount)
	assert.InDelta(t, 0, got.RetailNetInflow, 1e-9)
}

func TestFlowSummaryStore_Duplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFlowSummaryStore(pool)
	ctx := context.Background()
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)

	require.NoError(t, store.Insert(ctx, "600000", day, sampleSummary()))

	err := store.Insert(ctx, "600000", day, sampleSummary())
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestFlowSummaryStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFlowSummaryStore(pool)
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)

	_, err := store.GetBySymbolDay(context.Background(), "999999", day)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFlowSummaryStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFlowSummaryStore(pool)
	ctx := context.Background()
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)

	assert.ErrorIs(t, store.Insert(ctx, "", day, sampleSummary()), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, "600000", day, nil), storage.ErrInvalidInput)
}
