package postgres

import (
	"context"
	"fmt"
	"time"

	"tickflow/internal/domain"
	"tickflow/internal/idhash"
	"tickflow/internal/storage"
)

// FlowSummaryStore implements storage.FlowSummaryStore using PostgreSQL.
type FlowSummaryStore struct {
	pool *Pool
}

// NewFlowSummaryStore creates a new FlowSummaryStore.
func NewFlowSummaryStore(pool *Pool) *FlowSummaryStore {
	return &FlowSummaryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FlowSummaryStore = (*FlowSummaryStore)(nil)

// Insert adds a day summary. Returns ErrDuplicateKey if the (symbol, day)
// batch already has one.
func (s *FlowSummaryStore) Insert(ctx context.Context, symbol string, day time.Time, summary *domain.FlowSummary) error {
	if symbol == "" || summary == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO flow_summaries (
			batch_id, symbol, day,
			trade_count, buy_count, sell_count, neutral_count,
			buy_amount, sell_amount, neutral_amount,
			net_inflow, total_turnover, buy_ratio, sell_ratio, ofi, vwap,
			large_order_threshold, large_order_threshold_early, large_order_count,
			large_buy_amount, large_sell_amount, large_order_net_inflow,
			retail_buy_amount, retail_sell_amount, retail_net_inflow
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25
		)
	`

	_, err := s.pool.Exec(ctx, query,
		idhash.BatchID(symbol, day),
		symbol,
		day,
		summary.TradeCount,
		summary.BuyCount,
		summary.SellCount,
		summary.NeutralCount,
		summary.BuyAmount,
		summary.SellAmount,
		summary.NeutralAmount,
		summary.NetInflow,
		summary.TotalTurnover,
		summary.BuyRatio,
		summary.SellRatio,
		summary.OFI,
		summary.VWAP,
		summary.LargeOrderThreshold,
		summary.LargeOrderThresholdEarly,
		summary.LargeOrderCount,
		summary.LargeBuyAmount,
		summary.LargeSellAmount,
		summary.LargeOrderNetInflow,
		summary.RetailBuyAmount,
		summary.RetailSellAmount,
		summary.RetailNetInflow,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert flow summary: %w", err)
	}
	return nil
}

// GetBySymbolDay retrieves a day summary.
func (s *FlowSummaryStore) GetBySymbolDay(ctx context.Context, symbol string, day time.Time) (*domain.FlowSummary, error) {
	query := `
		SELECT trade_count, buy_count, sell_count, neutral_count,
			buy_amount, sell_amount, neutral_amount,
			net_inflow, total_turnover, buy_ratio, sell_ratio, ofi, vwap,
			large_order_threshold, large_order_threshold_early, large_order_count,
			large_buy_amount, large_sell_amount, large_order_net_inflow,
			retail_buy_amount, retail_sell_amount, retail_net_inflow
		FROM flow_summaries
		WHERE batch_id = $1
	`

	var summary domain.FlowSummary
	err := s.pool.QueryRow(ctx, query, idhash.BatchID(symbol, day)).Scan(
		&summary.TradeCount,
		&summary.BuyCount,
		&summary.SellCount,
		&summary.NeutralCount,
		&summary.BuyAmount,
		&summary.SellAmount,
		&summary.NeutralAmount,
		&summary.NetInflow,
		&summary.TotalTurnover,
		&summary.BuyRatio,
		&summary.SellRatio,
		&summary.OFI,
		&summary.VWAP,
		&summary.LargeOrderThreshold,
		&summary.LargeOrderThresholdEarly,
		&summary.LargeOrderCount,
		&summary.LargeBuyAmount,
		&summary.LargeSellAmount,
		&summary.LargeOrderNetInflow,
		&summary.RetailBuyAmount,
		&summary.RetailSellAmount,
		&summary.RetailNetInflow,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get flow summary by symbol day: %w", err)
	}

	return &summary, nil
}
