package domain

import "time"

// Tick is one cleaned trade execution. Produced once per pipeline run from a
// RawBatch row; never mutated after creation.
type Tick struct {
	Time       time.Time
	Price      float64 // > 0
	VolumeLots float64 // size as received from the provider, in lots
	Volume     float64 // shares, VolumeLots * lot size
	Turnover   float64 // yuan; backfilled from Price*Volume when absent

	Direction       Direction
	DirectionSource string // "raw" | "inferred" | "inferred_all"

	// PctChange is the absolute percent change versus the previous tick's
	// price; 0 for the first tick of the day.
	PctChange float64
	// ExtremeJump tags ticks whose PctChange exceeds the configured cut as
	// likely data errors. Tagged, never dropped.
	ExtremeJump bool
	// Auction marks ticks from the pre-open call auction (09:15-09:25).
	Auction bool
}

// ClassifiedTick is a Tick with flow classification attached.
type ClassifiedTick struct {
	Tick

	Sign      int     // +1 buy, -1 sell, 0 neutral
	NetInflow float64 // Turnover * Sign

	// IsLargeOrder is set when Turnover meets the adaptive threshold of the
	// tick's own minute.
	IsLargeOrder bool
	// MinuteThreshold is the large-order threshold applied to this tick.
	MinuteThreshold float64
	// TurnoverRatio is Turnover over the day's mean turnover; populated for
	// large orders only.
	TurnoverRatio float64
}
