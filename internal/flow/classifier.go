// Package flow classifies cleaned ticks by direction and order size and
// produces the day-level money-flow summary.
package flow

import (
	"sort"
	"time"

	"tickflow/internal/domain"
	"tickflow/internal/stats"
)

// Early session (09:30-10:30) carries naturally larger trade sizes; the
// per-minute threshold is scaled up to compensate.
const (
	earlyStartMinute = 9*60 + 30
	earlyEndMinute   = 10*60 + 30

	earlyThresholdScale = 1.2
)

// Classifier computes per-tick flow classification and the day summary.
type Classifier struct {
	// LargeOrderQuantile selects the adaptive large-order threshold from
	// the turnover distribution (0.90 = 90th percentile).
	LargeOrderQuantile float64
	// LargeOrderMin floors every adaptive threshold.
	LargeOrderMin float64
}

// NewClassifier creates a Classifier with production defaults.
func NewClassifier() *Classifier {
	return &Classifier{
		LargeOrderQuantile: 0.90,
		LargeOrderMin:      200000,
	}
}

// Result is the classifier output for one day.
type Result struct {
	Summary     domain.FlowSummary
	LargeOrders []*domain.ClassifiedTick
	Ticks       []*domain.ClassifiedTick
	Flags       []string
}

// Classify derives direction multipliers, net inflow, and large-order flags
// for a cleaned tick series. The input is not mutated; classification is
// re-derivable from the output's own labels.
func (c *Classifier) Classify(ticks []*domain.Tick) *Result {
	res := &Result{}
	if len(ticks) == 0 {
		res.Flags = append(res.Flags, domain.FlagEmptyTick)
		return res
	}

	n := len(ticks)
	out := make([]*domain.ClassifiedTick, n)
	na := 0
	for i, t := range ticks {
		ct := &domain.ClassifiedTick{Tick: *t}
		if !t.Direction.Valid() {
			na++
		}
		ct.Sign = t.Direction.Sign()
		out[i] = ct
	}

	naRatio := float64(na) / float64(n)
	if naRatio > 0.1 {
		res.Flags = append(res.Flags, domain.FlagDirectionNAHigh)
	}
	if naRatio == 1.0 {
		res.Flags = append(res.Flags, domain.FlagDirectionAllNA)
	}

	// Last-resort fallback: no signed flow at all, derive direction from
	// consecutive price deltas.
	if absSignSum(out) == 0 {
		for i := 1; i < n; i++ {
			switch {
			case out[i].Price > out[i-1].Price:
				out[i].Sign = 1
			case out[i].Price < out[i-1].Price:
				out[i].Sign = -1
			}
		}
		res.Flags = append(res.Flags, domain.FlagDirectionFallbackPriceChng)
	}

	var buyAmount, sellAmount, neutralAmount, totalTurnover, totalVolume float64
	var buyCount, sellCount, neutralCount int
	for _, ct := range out {
		ct.NetInflow = ct.Turnover * float64(ct.Sign)
		totalTurnover += ct.Turnover
		totalVolume += ct.Volume
		switch ct.Sign {
		case 1:
			buyAmount += ct.Turnover
			buyCount++
		case -1:
			sellAmount += ct.Turnover
			sellCount++
		default:
			neutralAmount += ct.Turnover
			neutralCount++
		}
	}

	denom := buyAmount + sellAmount
	var buyRatio, sellRatio, ofi float64
	if denom > 0 {
		buyRatio = buyAmount / denom
		sellRatio = sellAmount / denom
		ofi = (buyAmount - sellAmount) / denom
	}

	var vwap float64
	if totalVolume > 0 {
		vwap = totalTurnover / totalVolume
	} else {
		res.Flags = append(res.Flags, domain.FlagMissingVolume)
	}

	globalThreshold := c.globalThreshold(out)
	c.flagLargeOrders(out)

	avgTurnover := totalTurnover / float64(n)
	var largeBuy, largeSell float64
	var largeOrders []*domain.ClassifiedTick
	for _, ct := range out {
		if !ct.IsLargeOrder {
			continue
		}
		if avgTurnover > 0 {
			ct.TurnoverRatio = ct.Turnover / avgTurnover
		}
		switch ct.Sign {
		case 1:
			largeBuy += ct.Turnover
		case -1:
			largeSell += ct.Turnover
		}
		largeOrders = append(largeOrders, ct)
	}

	res.Summary = domain.FlowSummary{
		TradeCount:   n,
		BuyCount:     buyCount,
		SellCount:    sellCount,
		NeutralCount: neutralCount,

		BuyAmount:     buyAmount,
		SellAmount:    sellAmount,
		NeutralAmount: neutralAmount,
		NetInflow:     buyAmount - sellAmount,
		TotalTurnover: totalTurnover,

		BuyRatio:  buyRatio,
		SellRatio: sellRatio,
		OFI:       ofi,
		VWAP:      vwap,

		LargeOrderThreshold:      globalThreshold,
		LargeOrderThresholdEarly: globalThreshold * earlyThresholdScale,

		LargeOrderCount:     len(largeOrders),
		LargeBuyAmount:      largeBuy,
		LargeSellAmount:     largeSell,
		LargeOrderNetInflow: largeBuy - largeSell,

		RetailBuyAmount:  buyAmount - largeBuy,
		RetailSellAmount: sellAmount - largeSell,
		RetailNetInflow:  (buyAmount - largeBuy) - (sellAmount - largeSell),
	}
	res.LargeOrders = largeOrders
	res.Ticks = out
	return res
}

// globalThreshold is the day-level large-order threshold: the configured
// turnover percentile floored at the configured minimum. Reported in the
// summary; tick classification uses the per-minute threshold.
func (c *Classifier) globalThreshold(ticks []*domain.ClassifiedTick) float64 {
	turnovers := make([]float64, 0, len(ticks))
	for _, ct := range ticks {
		turnovers = append(turnovers, ct.Turnover)
	}
	if len(turnovers) == 0 {
		return c.LargeOrderMin
	}
	p := stats.Quantile(turnovers, c.LargeOrderQuantile)
	if p < c.LargeOrderMin {
		return c.LargeOrderMin
	}
	return p
}

// flagLargeOrders applies the per-minute adaptive threshold: the configured
// turnover percentile of the tick's own minute, floored at the configured
// minimum, scaled up during the early session. A tick is large when its
// turnover meets its minute's threshold.
func (c *Classifier) flagLargeOrders(ticks []*domain.ClassifiedTick) {
	byMinute := make(map[time.Time][]float64)
	for _, ct := range ticks {
		m := ct.Time.Truncate(time.Minute)
		byMinute[m] = append(byMinute[m], ct.Turnover)
	}

	thresholds := make(map[time.Time]float64, len(byMinute))
	for m, turnovers := range byMinute {
		sort.Float64s(turnovers)
		thr := stats.Percentile(turnovers, c.LargeOrderQuantile)
		if thr < c.LargeOrderMin {
			thr = c.LargeOrderMin
		}
		if inEarlySession(m) {
			thr *= earlyThresholdScale
		}
		thresholds[m] = thr
	}

	for _, ct := range ticks {
		thr := thresholds[ct.Time.Truncate(time.Minute)]
		ct.MinuteThreshold = thr
		ct.IsLargeOrder = ct.Turnover >= thr
	}
}

func inEarlySession(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	return m >= earlyStartMinute && m <= earlyEndMinute
}

func absSignSum(ticks []*domain.ClassifiedTick) int {
	sum := 0
	for _, ct := range ticks {
		if ct.Sign != 0 {
			sum++
		}
	}
	return sum
}
