// Package reporting renders pipeline results as CSV and Markdown artifacts.
package reporting

import (
	"time"

	"tickflow/internal/domain"
)

// Report is the renderable view of one pipeline run.
type Report struct {
	GeneratedAt time.Time
	Symbol      string
	Day         time.Time

	Summary       *domain.FlowSummary
	Flags         []string
	InferredRatio float64
	Outcome       domain.InferenceOutcome

	AuctionTrades int
	LargeOrders   int

	// Bars maps width in minutes to that width's bar series.
	Bars map[int][]*domain.WindowBar

	Anomalies *domain.AnomalyReport
}
