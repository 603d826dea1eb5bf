// Package anomaly flags burst windows in aggregated bar tables.
package anomaly

import (
	"fmt"
	"math"

	"tickflow/internal/domain"
	"tickflow/internal/stats"
)

// Detector finds trade-count bursts and net-inflow spikes.
type Detector struct {
	// BurstQuantile is the percentile cut shared by both checks
	// (0.95 = 95th percentile).
	BurstQuantile float64
}

// NewDetector creates a Detector with the production percentile cut.
func NewDetector() *Detector {
	return &Detector{BurstQuantile: 0.95}
}

// Detect scans one bar table for windows whose trade count or absolute net
// inflow is at or above the percentile cut. Empty input yields an empty
// report; that is a normal terminal state, not an error.
func (d *Detector) Detect(ticks []*domain.ClassifiedTick, bars []*domain.WindowBar) *domain.AnomalyReport {
	report := &domain.AnomalyReport{}
	if len(ticks) == 0 || len(bars) == 0 {
		return report
	}

	counts := make([]float64, len(bars))
	inflows := make([]float64, len(bars))
	for i, bar := range bars {
		counts[i] = float64(bar.TradeCount)
		inflows[i] = math.Abs(bar.NetInflow)
	}

	countCut := stats.Quantile(counts, d.BurstQuantile)
	for _, bar := range bars {
		if float64(bar.TradeCount) >= countCut {
			report.BurstWindows = append(report.BurstWindows, domain.BurstWindow{
				TimeWindow: bar.TimeWindow,
				TradeCount: bar.TradeCount,
				NetInflow:  bar.NetInflow,
			})
		}
	}
	if len(report.BurstWindows) > 0 {
		report.Notes = append(report.Notes,
			fmt.Sprintf("trade density peak at %s", report.BurstWindows[0].TimeWindow))
	}

	inflowCut := stats.Quantile(inflows, d.BurstQuantile)
	for _, bar := range bars {
		if math.Abs(bar.NetInflow) >= inflowCut {
			report.Notes = append(report.Notes,
				fmt.Sprintf("net inflow spike at %s", bar.TimeWindow))
			break
		}
	}

	return report
}
