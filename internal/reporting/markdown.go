package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"tickflow/internal/domain"
)

// RenderMarkdown renders a day report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Intraday Flow Report: %s %s\n\n", r.Symbol, r.Day.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Day Summary
	sb.WriteString("## Day Summary\n\n")
	if r.Summary != nil && r.Summary.TradeCount > 0 {
		s := r.Summary
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Trades | %d |\n", s.TradeCount))
		sb.WriteString(fmt.Sprintf("| Buy / Sell / Neutral | %d / %d / %d |\n", s.BuyCount, s.SellCount, s.NeutralCount))
		sb.WriteString(fmt.Sprintf("| Auction Trades | %d |\n", r.AuctionTrades))
		sb.WriteString(fmt.Sprintf("| Total Turnover | %.2f |\n", s.TotalTurnover))
		sb.WriteString(fmt.Sprintf("| Net Inflow | %.2f |\n", s.NetInflow))
		sb.WriteString(fmt.Sprintf("| Buy Ratio | %.4f |\n", s.BuyRatio))
		sb.WriteString(fmt.Sprintf("| Sell Ratio | %.4f |\n", s.SellRatio))
		sb.WriteString(fmt.Sprintf("| OFI | %.4f |\n", s.OFI))
		sb.WriteString(fmt.Sprintf("| VWAP | %.4f |\n", s.VWAP))
		sb.WriteString("\n")

		sb.WriteString("### Large Orders\n\n")
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Threshold | %.2f |\n", s.LargeOrderThreshold))
		sb.WriteString(fmt.Sprintf("| Early Session Threshold | %.2f |\n", s.LargeOrderThresholdEarly))
		sb.WriteString(fmt.Sprintf("| Count | %d |\n", s.LargeOrderCount))
		sb.WriteString(fmt.Sprintf("| Large Net Inflow | %.2f |\n", s.LargeOrderNetInflow))
		sb.WriteString(fmt.Sprintf("| Retail Net Inflow | %.2f |\n", s.RetailNetInflow))
		sb.WriteString("\n")
	} else {
		sb.WriteString("No in-session trades.\n\n")
	}

	// Direction Quality
	sb.WriteString("## Direction Quality\n\n")
	sb.WriteString(fmt.Sprintf("Inference outcome: %s\n\n", outcomeLabel(r.Outcome)))
	if r.InferredRatio > 0 {
		sb.WriteString(fmt.Sprintf("Inferred direction ratio: %.4f\n\n", r.InferredRatio))
	}
	if len(r.Flags) > 0 {
		sb.WriteString("Quality flags:\n\n")
		for _, f := range r.Flags {
			sb.WriteString(fmt.Sprintf("- `%s`\n", f))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No quality flags raised.\n\n")
	}

	// Window Bars
	sb.WriteString("## Window Bars\n\n")
	if len(r.Bars) > 0 {
		widths := make([]int, 0, len(r.Bars))
		for w := range r.Bars {
			widths = append(widths, w)
		}
		sort.Ints(widths)
		sb.WriteString("| Width (min) | Bars |\n")
		sb.WriteString("|-------------|------|\n")
		for _, w := range widths {
			sb.WriteString(fmt.Sprintf("| %d | %d |\n", w, len(r.Bars[w])))
		}
	} else {
		sb.WriteString("No bars aggregated.\n")
	}
	sb.WriteString("\n")

	// Anomalies
	sb.WriteString("## Anomalies\n\n")
	if r.Anomalies != nil && !r.Anomalies.Empty() {
		if len(r.Anomalies.BurstWindows) > 0 {
			sb.WriteString("| Window | Trades | Net Inflow |\n")
			sb.WriteString("|--------|--------|------------|\n")
			for _, w := range r.Anomalies.BurstWindows {
				sb.WriteString(fmt.Sprintf("| %s | %d | %.2f |\n", w.TimeWindow, w.TradeCount, w.NetInflow))
			}
			sb.WriteString("\n")
		}
		for _, note := range r.Anomalies.Notes {
			sb.WriteString(fmt.Sprintf("- %s\n", note))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No anomalies detected.\n\n")
	}

	return sb.String()
}

func outcomeLabel(outcome domain.InferenceOutcome) string {
	switch outcome {
	case domain.RawLabelsUsable:
		return "raw labels usable"
	case domain.PartialInferenceNeeded:
		return "partial inference needed"
	case domain.FullInferenceNeeded:
		return "full inference needed"
	default:
		return string(outcome)
	}
}
