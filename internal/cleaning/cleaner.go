// Package cleaning normalizes one trading day of loosely-typed tick rows
// into strongly-typed, session-filtered records. Malformed data never
// raises: recoverable anomalies become quality flags, and only absent
// mandatory columns (timestamp, price) yield an empty result.
package cleaning

import (
	"math"
	"sort"

	"tickflow/internal/domain"
	"tickflow/internal/stats"
)

// Config holds the static cleaning thresholds.
type Config struct {
	// LotSize converts provider lot sizes to shares.
	LotSize float64
	// PctChangeFloor is the minimum percent-change threshold for direction
	// inference; the adaptive threshold never drops below it.
	PctChangeFloor float64
	// PctChangeQuantile selects the adaptive inference threshold from the
	// day's absolute percent-change distribution.
	PctChangeQuantile float64
	// ExtremeJumpCut tags consecutive-price jumps above this fraction as
	// likely data errors.
	ExtremeJumpCut float64
	// MinValidNatureRatio is the direction-tag coverage below which the
	// batch is flagged low quality.
	MinValidNatureRatio float64
}

// DefaultConfig returns the production cleaning thresholds.
func DefaultConfig() Config {
	return Config{
		LotSize:             100,
		PctChangeFloor:      0.0001,
		PctChangeQuantile:   0.30,
		ExtremeJumpCut:      5.0,
		MinValidNatureRatio: 0.5,
	}
}

// Cleaner turns RawBatch rows into clean Ticks.
type Cleaner struct {
	cfg Config
}

// NewCleaner creates a Cleaner with the given config.
func NewCleaner(cfg Config) *Cleaner {
	return &Cleaner{cfg: cfg}
}

// Result is the cleaner output for one batch.
type Result struct {
	// Ticks are the session-filtered main-series records, sorted by time.
	Ticks []*domain.Tick
	// Auction holds call-auction records, split out but never dropped.
	Auction []*domain.Tick
	// Flags lists every quality anomaly observed, in detection order.
	Flags []string
	// InferredRatio is the fraction of records whose direction label was
	// heuristically inferred.
	InferredRatio float64
	// Outcome records how direction labels were obtained.
	Outcome domain.InferenceOutcome
}

// row pairs a tick under construction with its raw price-delta hint.
type row struct {
	tick  domain.Tick
	delta float64
}

// Clean normalizes a raw batch for the batch's trading date.
func (c *Cleaner) Clean(batch *domain.RawBatch) *Result {
	res := &Result{Outcome: domain.RawLabelsUsable}

	if batch.Empty() {
		res.Flags = append(res.Flags, domain.FlagEmptyTick)
		return res
	}

	cols := resolveColumns(batch.Columns)
	if cols.time < 0 {
		res.Flags = append(res.Flags, domain.FlagMissingTime)
		return res
	}

	// Timestamp completion and parsing. Unparsable rows are dropped.
	rows := make([]*row, 0, len(batch.Rows))
	for i := range batch.Rows {
		t, ok := parseTimestamp(batch.Cell(i, cols.time), batch.Date)
		if !ok {
			continue
		}
		r := &row{tick: domain.Tick{Time: t, DirectionSource: domain.DirectionSourceRaw}}
		if cols.delta >= 0 {
			if v, ok := parseNumber(batch.Cell(i, cols.delta)); ok {
				r.delta = v
			}
		}
		r.tick.Price = math.NaN()
		if cols.price >= 0 {
			if v, ok := parseNumber(batch.Cell(i, cols.price)); ok {
				r.tick.Price = v
			}
		}
		r.tick.VolumeLots = math.NaN()
		if cols.volume >= 0 {
			if v, ok := parseNumber(batch.Cell(i, cols.volume)); ok {
				r.tick.VolumeLots = v
			}
		}
		r.tick.Turnover = math.NaN()
		if cols.amount >= 0 {
			if v, ok := parseNumber(batch.Cell(i, cols.amount)); ok {
				r.tick.Turnover = v
			}
		}
		if cols.nature >= 0 {
			r.tick.Direction = normalizeNature(batch.Cell(i, cols.nature))
		}
		rows = append(rows, r)
	}
	if len(rows) < len(batch.Rows) {
		res.Flags = append(res.Flags, domain.FlagInvalidTime)
	}

	if cols.price < 0 {
		res.Flags = append(res.Flags, domain.FlagMissingPrice)
		res.Ticks = nil
		return res
	}

	// Price is mandatory per record as well: drop non-positive or missing.
	rows = filterRows(rows, func(r *row) bool {
		return !math.IsNaN(r.tick.Price) && r.tick.Price > 0
	})

	// Unit normalization: provider sizes are lots, shares = lots * LotSize.
	if cols.volume >= 0 {
		rows = filterRows(rows, func(r *row) bool {
			return !math.IsNaN(r.tick.VolumeLots) && r.tick.VolumeLots >= 0
		})
		for _, r := range rows {
			r.tick.Volume = r.tick.VolumeLots * c.cfg.LotSize
		}
		res.Flags = append(res.Flags, domain.FlagVolumeAssumedHands, domain.FlagVolumeUnitShares)
	} else {
		res.Flags = append(res.Flags, domain.FlagMissingVolume)
		for _, r := range rows {
			r.tick.VolumeLots = 0
			r.tick.Volume = 0
		}
	}

	// Turnover backfill from price*volume when missing or non-positive.
	if cols.amount < 0 {
		res.Flags = append(res.Flags, domain.FlagMissingAmount)
	}
	for _, r := range rows {
		computed := r.tick.Price * r.tick.Volume
		switch {
		case math.IsNaN(r.tick.Turnover):
			if computed > 0 {
				r.tick.Turnover = computed
			} else {
				r.tick.Turnover = 0
			}
		case r.tick.Turnover <= 0 && computed > 0:
			r.tick.Turnover = computed
		}
	}

	if cols.nature < 0 {
		res.Flags = append(res.Flags, domain.FlagMissingNature)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].tick.Time.Before(rows[j].tick.Time)
	})

	c.recoverDirections(rows, cols.delta >= 0, res)

	// Session filtering: auction records are split out, everything outside
	// the regular sub-sessions is dropped.
	var main, auction []*domain.Tick
	for _, r := range rows {
		t := r.tick
		switch {
		case inAuction(t.Time):
			t.Auction = true
			auction = append(auction, &t)
		case inSession(t.Time):
			main = append(main, &t)
		}
	}
	if len(rows) > 0 && len(main) == 0 {
		res.Flags = append(res.Flags, domain.FlagNonTradingTime)
	}

	// Extreme-jump tagging on the main series. Tagged, never removed;
	// downstream consumers decide whether to exclude.
	for i := 1; i < len(main); i++ {
		pct := math.Abs(main[i].Price-main[i-1].Price) / main[i-1].Price
		main[i].PctChange = pct
		main[i].ExtremeJump = pct > c.cfg.ExtremeJumpCut
	}

	res.Ticks = main
	res.Auction = auction
	return res
}

// recoverDirections fills missing direction labels and handles the
// degenerate all-neutral batch. rows must be sorted by time.
func (c *Cleaner) recoverDirections(rows []*row, hasDelta bool, res *Result) {
	n := len(rows)
	if n == 0 {
		return
	}

	signedPct := make([]float64, n)
	for i := 1; i < n; i++ {
		signedPct[i] = (rows[i].tick.Price - rows[i-1].tick.Price) / rows[i-1].tick.Price
	}
	threshold := c.inferenceThreshold(signedPct)

	infer := func(i int) domain.Direction {
		if hasDelta {
			switch {
			case rows[i].delta > 0:
				return domain.DirectionBuy
			case rows[i].delta < 0:
				return domain.DirectionSell
			default:
				return domain.DirectionNeutral
			}
		}
		switch {
		case signedPct[i] > threshold:
			return domain.DirectionBuy
		case signedPct[i] < -threshold:
			return domain.DirectionSell
		default:
			return domain.DirectionNeutral
		}
	}

	missing := 0
	for _, r := range rows {
		if !r.tick.Direction.Valid() {
			missing++
		}
	}

	if missing > 0 {
		valid := float64(n-missing) / float64(n)
		if valid < c.cfg.MinValidNatureRatio {
			res.Flags = append(res.Flags, domain.FlagNatureLowQuality)
		}

		// Inference covers the missing portion only; valid labels are
		// never overwritten.
		for i, r := range rows {
			if r.tick.Direction.Valid() {
				continue
			}
			r.tick.Direction = infer(i)
			r.tick.DirectionSource = domain.DirectionSourceInferred
		}
		if hasDelta {
			res.Flags = append(res.Flags, domain.FlagInferredNaturePriceDelta)
		} else {
			res.Flags = append(res.Flags, domain.FlagInferredNature)
		}
		res.InferredRatio = float64(missing) / float64(n)
		res.Outcome = domain.PartialInferenceNeeded
	}

	// Degenerate batch: labels present but carry no buy/sell signal at all.
	// Discard them and re-infer every row.
	buySell := 0
	for _, r := range rows {
		if r.tick.Direction == domain.DirectionBuy || r.tick.Direction == domain.DirectionSell {
			buySell++
		}
	}
	if buySell == 0 {
		for i, r := range rows {
			r.tick.Direction = infer(i)
			r.tick.DirectionSource = domain.DirectionSourceInferredAll
		}
		res.Flags = append(res.Flags, domain.FlagNatureAllNeutralInferred)
		res.InferredRatio = 1.0
		res.Outcome = domain.FullInferenceNeeded
	}
}

// inferenceThreshold computes the adaptive percent-change threshold:
// the configured quantile of the day's absolute percent changes, floored to
// avoid labeling micro-noise as directional flow on quiet days.
func (c *Cleaner) inferenceThreshold(signedPct []float64) float64 {
	abs := make([]float64, len(signedPct))
	for i, v := range signedPct {
		abs[i] = math.Abs(v)
	}
	sort.Float64s(abs)
	return math.Max(c.cfg.PctChangeFloor, stats.Percentile(abs, c.cfg.PctChangeQuantile))
}

func filterRows(rows []*row, keep func(*row) bool) []*row {
	out := rows[:0]
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
