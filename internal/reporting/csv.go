package reporting

import (
	"fmt"
	"strings"

	"tickflow/internal/domain"
)

// RenderBarsCSV renders one width's bar series as CSV string.
func RenderBarsCSV(bars []*domain.WindowBar) string {
	var sb strings.Builder

	// Header
	sb.WriteString("time_window,open,high,low,close,turnover,volume,net_inflow,buy_amount,sell_amount,")
	sb.WriteString("trade_count,large_order_count,ofi,vwap,range_pct,")
	sb.WriteString("cum_net_inflow,cum_net_inflow_ema,ofi_smoothed\n")

	// Rows
	for _, b := range bars {
		sb.WriteString(fmt.Sprintf("%s,%.4f,%.4f,%.4f,%.4f,%.2f,%.2f,%.2f,%.2f,%.2f,%d,%d,%.6f,%.4f,%.6f,%s,%s,%s\n",
			b.TimeWindow,
			b.Open,
			b.High,
			b.Low,
			b.Close,
			b.Turnover,
			b.Volume,
			b.NetInflow,
			b.BuyAmount,
			b.SellAmount,
			b.TradeCount,
			b.LargeOrderCount,
			b.OFI,
			b.VWAP,
			b.RangePct,
			formatOptional(b.CumNetInflow),
			formatOptional(b.CumNetInflowEMA),
			formatOptional(b.OFISmoothed),
		))
	}

	return sb.String()
}

// formatOptional renders a nullable metric, empty when absent.
func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.4f", *v)
}
