package domain

import "time"

// WindowBar is an aggregate over one fixed-width time bucket. Derived data:
// recomputed fully on each run, never patched incrementally.
type WindowBar struct {
	WidthMinutes int
	Start        time.Time
	TimeWindow   string // "HH:MM" label of Start

	Open  float64
	High  float64
	Low   float64
	Close float64

	Turnover   float64
	Volume     float64
	NetInflow  float64
	BuyAmount  float64
	SellAmount float64

	TradeCount      int
	LargeOrderCount int

	OFI      float64 // (buy-sell)/(buy+sell), 0 when denominator is 0
	VWAP     float64 // turnover/volume, 0 when volume is 0
	RangePct float64 // (high-low)/vwap*100, 0 when vwap is 0

	// 1-minute extras: cumulative net inflow and its EWMA trend line.
	// Nil on coarser widths.
	CumNetInflow    *float64
	CumNetInflowEMA *float64
	// OFISmoothed is the EWMA of 1-minute OFI; on coarser widths it carries
	// the last smoothed value observed within the bucket. Nil when no
	// 1-minute observation falls inside the bucket.
	OFISmoothed *float64
}
