package domain

// FlowSummary is the day-level money-flow summary surfaced to presentation
// collaborators.
type FlowSummary struct {
	TradeCount   int
	BuyCount     int
	SellCount    int
	NeutralCount int

	BuyAmount     float64
	SellAmount    float64
	NeutralAmount float64
	NetInflow     float64
	TotalTurnover float64

	BuyRatio  float64
	SellRatio float64
	OFI       float64
	VWAP      float64

	// Day-level large-order threshold, max(configured minimum, P90 of
	// per-tick turnover). Reported for display; tick classification uses the
	// per-minute adaptive threshold.
	LargeOrderThreshold      float64
	LargeOrderThresholdEarly float64

	LargeOrderCount     int
	LargeBuyAmount      float64
	LargeSellAmount     float64
	LargeOrderNetInflow float64

	RetailBuyAmount  float64
	RetailSellAmount float64
	RetailNetInflow  float64
}
