// Package window resamples classified ticks into fixed-width aggregate bars
// at several time resolutions.
package window

import (
	"sort"
	"time"

	"tickflow/internal/domain"
	"tickflow/internal/stats"
)

// Aggregator buckets ticks into fixed-width bars and derives the smoothed
// money-flow trend lines.
type Aggregator struct {
	// CumInflowAlpha smooths the cumulative net-inflow line on 1-minute
	// bars.
	CumInflowAlpha float64
	// OFIAlpha smooths the 1-minute OFI series; the smoothed values are
	// projected onto coarser windows.
	OFIAlpha float64
}

// NewAggregator creates an Aggregator with production smoothing factors.
func NewAggregator() *Aggregator {
	return &Aggregator{
		CumInflowAlpha: 0.2,
		OFIAlpha:       0.3,
	}
}

// Aggregate produces one bar table per window width (minutes). Windows with
// zero trades are dropped. Bars are recomputed fully on every call.
func (a *Aggregator) Aggregate(ticks []*domain.ClassifiedTick, widths []int) map[int][]*domain.WindowBar {
	results := make(map[int][]*domain.WindowBar, len(widths))
	if len(ticks) == 0 {
		return results
	}

	sorted := make([]*domain.ClassifiedTick, len(ticks))
	copy(sorted, ticks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	for _, w := range widths {
		if w <= 0 {
			continue
		}
		results[w] = buildBars(sorted, w)
	}

	// Smoothed trend lines live on the 1-minute table; coarser tables get
	// the last smoothed OFI observed within each of their buckets.
	oneMin, ok := results[1]
	if !ok {
		oneMin = buildBars(sorted, 1)
	}
	a.smooth(oneMin)

	for w, bars := range results {
		if w == 1 {
			continue
		}
		projectOFI(oneMin, bars, w)
	}

	return results
}

// buildBars buckets sorted ticks into width-minute bars.
func buildBars(sorted []*domain.ClassifiedTick, width int) []*domain.WindowBar {
	dur := time.Duration(width) * time.Minute

	byStart := make(map[time.Time]*domain.WindowBar)
	var order []time.Time

	for _, ct := range sorted {
		start := ct.Time.Truncate(dur)
		bar, ok := byStart[start]
		if !ok {
			bar = &domain.WindowBar{
				WidthMinutes: width,
				Start:        start,
				TimeWindow:   start.Format("15:04"),
				Open:         ct.Price,
				High:         ct.Price,
				Low:          ct.Price,
			}
			byStart[start] = bar
			order = append(order, start)
		}

		if ct.Price > bar.High {
			bar.High = ct.Price
		}
		if ct.Price < bar.Low {
			bar.Low = ct.Price
		}
		bar.Close = ct.Price

		bar.Turnover += ct.Turnover
		bar.Volume += ct.Volume
		bar.NetInflow += ct.NetInflow
		if ct.Sign == 1 {
			bar.BuyAmount += ct.Turnover
		} else if ct.Sign == -1 {
			bar.SellAmount += ct.Turnover
		}
		bar.TradeCount++
		if ct.IsLargeOrder {
			bar.LargeOrderCount++
		}
	}

	bars := make([]*domain.WindowBar, 0, len(order))
	for _, start := range order {
		bar := byStart[start]
		finalizeBar(bar)
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Start.Before(bars[j].Start) })
	return bars
}

// finalizeBar derives the ratio fields with divide-by-zero guards: every
// undefined ratio is 0 by convention, never NaN.
func finalizeBar(bar *domain.WindowBar) {
	if denom := bar.BuyAmount + bar.SellAmount; denom > 0 {
		bar.OFI = (bar.BuyAmount - bar.SellAmount) / denom
	}
	if bar.Volume > 0 {
		bar.VWAP = bar.Turnover / bar.Volume
	}
	if bar.VWAP > 0 {
		bar.RangePct = (bar.High - bar.Low) / bar.VWAP * 100
	}
}

// smooth computes the cumulative net-inflow trend and smoothed OFI on the
// 1-minute table.
func (a *Aggregator) smooth(oneMin []*domain.WindowBar) {
	if len(oneMin) == 0 {
		return
	}

	cums := make([]float64, len(oneMin))
	ofis := make([]float64, len(oneMin))
	running := 0.0
	for i, bar := range oneMin {
		running += bar.NetInflow
		cums[i] = running
		ofis[i] = bar.OFI
	}

	cumEMA := stats.EWMA(cums, a.CumInflowAlpha)
	ofiEMA := stats.EWMA(ofis, a.OFIAlpha)

	for i, bar := range oneMin {
		cum := cums[i]
		ema := cumEMA[i]
		sm := ofiEMA[i]
		bar.CumNetInflow = &cum
		bar.CumNetInflowEMA = &ema
		bar.OFISmoothed = &sm
	}
}

// projectOFI carries the last smoothed 1-minute OFI observed within each
// coarser bucket down onto that bucket's bar. oneMin and bars are sorted.
func projectOFI(oneMin, bars []*domain.WindowBar, width int) {
	dur := time.Duration(width) * time.Minute

	for _, bar := range bars {
		end := bar.Start.Add(dur)
		var last *float64
		for _, m := range oneMin {
			if m.Start.Before(bar.Start) {
				continue
			}
			if !m.Start.Before(end) {
				break
			}
			last = m.OFISmoothed
		}
		if last != nil {
			v := *last
			bar.OFISmoothed = &v
		}
	}
}
