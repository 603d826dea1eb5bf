package domain

// Quality flags attached to pipeline outputs. Flags are diagnostics, not
// errors: the pipeline recovers where it can and reports what it did.
const (
	FlagEmptyTick          = "empty_tick"
	FlagMissingTime        = "missing_time"
	FlagMissingPrice       = "missing_price"
	FlagInvalidTime        = "invalid_time"
	FlagMissingVolume      = "missing_volume"
	FlagMissingAmount      = "missing_amount"
	FlagMissingNature      = "missing_nature"
	FlagVolumeAssumedHands = "volume_assumed_hands"
	FlagVolumeUnitShares   = "volume_unit_shares"

	FlagNatureLowQuality         = "nature_low_quality"
	FlagInferredNature           = "inferred_nature"
	FlagInferredNaturePriceDelta = "inferred_nature_price_delta"
	FlagNatureAllNeutralInferred = "nature_all_neutral_inferred"
	FlagNonTradingTime           = "non_trading_time"

	FlagDirectionNAHigh            = "direction_na_high"
	FlagDirectionAllNA             = "direction_all_na"
	FlagDirectionFallbackPriceChng = "direction_fallback_price_change"
)
