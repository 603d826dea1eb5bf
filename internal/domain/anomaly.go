package domain

// BurstWindow is one aggregation window whose trade count crossed the burst
// percentile cut.
type BurstWindow struct {
	TimeWindow string
	TradeCount int
	NetInflow  float64
}

// AnomalyReport lists burst windows and human-readable notes for one day.
// Purely a read model; discarded after presentation.
type AnomalyReport struct {
	BurstWindows []BurstWindow
	Notes        []string
}

// Empty reports whether nothing anomalous was found.
func (r *AnomalyReport) Empty() bool {
	return r == nil || (len(r.BurstWindows) == 0 && len(r.Notes) == 0)
}
