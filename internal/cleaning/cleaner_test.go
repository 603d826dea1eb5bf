package cleaning

import (
	"math"
	"testing"
	"time"

	"tickflow/internal/domain"
)

func tradingDay() time.Time {
	return time.Date(2024, 5, 10, 0, 0, 0, 0, time.Local)
}

func newBatch(cols []string, rows [][]string) *domain.RawBatch {
	return &domain.RawBatch{
		Symbol:  "600000",
		Date:    tradingDay(),
		Columns: cols,
		Rows:    rows,
	}
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

func TestClean_EmptyBatch(t *testing.T) {
	res := NewCleaner(DefaultConfig()).Clean(newBatch(nil, nil))

	if len(res.Ticks) != 0 {
		t.Errorf("expected no ticks, got %d", len(res.Ticks))
	}
	if !hasFlag(res.Flags, domain.FlagEmptyTick) {
		t.Errorf("expected empty_tick flag, got %v", res.Flags)
	}
}

func TestClean_MissingTimeColumn(t *testing.T) {
	batch := newBatch([]string{"price"}, [][]string{{"10.0"}})
	res := NewCleaner(DefaultConfig()).Clean(batch)

	if len(res.Ticks) != 0 {
		t.Errorf("expected no ticks, got %d", len(res.Ticks))
	}
	if !hasFlag(res.Flags, domain.FlagMissingTime) {
		t.Errorf("expected missing_time flag, got %v", res.Flags)
	}
}

func TestClean_MissingPriceColumn(t *testing.T) {
	batch := newBatch([]string{"time"}, [][]string{{"09:30:00"}})
	res := NewCleaner(DefaultConfig()).Clean(batch)

	if len(res.Ticks) != 0 {
		t.Errorf("expected no ticks, got %d", len(res.Ticks))
	}
	if !hasFlag(res.Flags, domain.FlagMissingPrice) {
		t.Errorf("expected missing_price flag, got %v", res.Flags)
	}
}

func TestClean_AdaptiveInference_NoLabels(t *testing.T) {
	// Prices 10.0 -> 10.1 (+1.00%) -> 10.05 (-0.49%). The adaptive threshold
	// (30th percentile of absolute changes, first change counted as zero) is
	// ~0.297%, so both moves clear it.
	batch := newBatch(
		[]string{"time", "price"},
		[][]string{
			{"09:30:00", "10.0"},
			{"09:30:03", "10.1"},
			{"09:30:06", "10.05"},
		},
	)
	res := NewCleaner(DefaultConfig()).Clean(batch)

	if len(res.Ticks) != 3 {
		t.Fatalf("expected 3 ticks, got %d", len(res.Ticks))
	}

	want := []domain.Direction{domain.DirectionNeutral, domain.DirectionBuy, domain.DirectionSell}
	for i, w := range want {
		if res.Ticks[i].Direction != w {
			t.Errorf("tick %d direction = %q, want %q", i, res.Ticks[i].Direction, w)
		}
		if res.Ticks[i].DirectionSource != domain.DirectionSourceInferred {
			t.Errorf("tick %d source = %q, want inferred", i, res.Ticks[i].DirectionSource)
		}
	}

	if res.Outcome != domain.PartialInferenceNeeded {
		t.Errorf("outcome = %q, want partial_inference", res.Outcome)
	}
	if res.InferredRatio != 1.0 {
		t.Errorf("inferred ratio = %f, want 1.0", res.InferredRatio)
	}
	if !hasFlag(res.Flags, domain.FlagMissingNature) {
		t.Errorf("expected missing_nature flag, got %v", res.Flags)
	}
	if !hasFlag(res.Flags, domain.FlagNatureLowQuality) {
		t.Errorf("expected nature_low_quality flag, got %v", res.Flags)
	}
	if !hasFlag(res.Flags, domain.FlagInferredNature) {
		t.Errorf("expected inferred_nature flag, got %v", res.Flags)
	}
}

func TestClean_InferenceFloor(t *testing.T) {
	// Micro-noise below the floor stays neutral even though the adaptive
	// percentile would be smaller.
	batch := newBatch(
		[]string{"time", "price"},
		[][]string{
			{"09:30:00", "100.000"},
			{"09:30:03", "100.001"}, // +0.001%, below the 0.01% floor
		},
	)
	res := NewCleaner(DefaultConfig()).Clean(batch)

	if len(res.Ticks) != 2 {
		t.Fatalf("expected 2 ticks, got %d", len(res.Ticks))
	}
	if res.Ticks[1].Direction != domain.DirectionNeutral {
		t.Errorf("direction = %q, want neutral", res.Ticks[1].Direction)
	}
}

func TestClean_PartialInference_KeepsValidLabels(t *testing.T) {
	batch := newBatch(
		[]string{"time", "price", "nature"},
		[][]string{
			{"09:30:00", "10.0", "买盘"},
			{"09:30:03", "10.1", "卖盘"},
			{"09:30:06", "10.2", "中性盘"},
			{"09:30:09", "10.3", ""},
		},
	)
	res := NewCleaner(DefaultConfig()).Clean(batch)

	if len(res.Ticks) != 4 {
		t.Fatalf("expected 4 ticks, got %d", len(res.Ticks))
	}
	if res.Ticks[0].Direction != domain.DirectionBuy || res.Ticks[0].DirectionSource != domain.DirectionSourceRaw {
		t.Errorf("tick 0 = %q/%q, want buy/raw", res.Ticks[0].Direction, res.Ticks[0].DirectionSource)
	}
	if res.Ticks[1].Direction != domain.DirectionSell {
		t.Errorf("tick 1 direction = %q, want sell", res.Ticks[1].Direction)
	}
	if res.Ticks[3].DirectionSource != domain.DirectionSourceInferred {
		t.Errorf("tick 3 source = %q, want inferred", res.Ticks[3].DirectionSource)
	}
	if res.InferredRatio != 0.25 {
		t.Errorf("inferred ratio = %f, want 0.25", res.InferredRatio)
	}
	if res.Outcome != domain.PartialInferenceNeeded {
		t.Errorf("outcome = %q, want partial_inference", res.Outcome)
	}
	if hasFlag(res.Flags, domain.FlagNatureLowQuality) {
		t.Errorf("unexpected nature_low_quality flag with 75%% coverage")
	}
}

func TestClean_DegenerateAllNeutral(t *testing.T) {
	batch := newBatch(
		[]string{"time", "price", "nature"},
		[][]string{
			{"09:30:00", "10.0", "中性"},
			{"09:30:03", "10.1", "中性"},
			{"09:30:06", "10.05", "中性"},
		},
	)
	res := NewCleaner(DefaultConfig()).Clean(batch)

	if res.Outcome != domain.FullInferenceNeeded {
		t.Fatalf("outcome = %q, want full_inference", res.Outcome)
	}
	if res.InferredRatio != 1.0 {
		t.Errorf("inferred ratio = %f, want 1.0", res.InferredRatio)
	}
	if !hasFlag(res.Flags, domain.FlagNatureAllNeutralInferred) {
		t.Errorf("expected nature_all_neutral_inferred flag, got %v", res.Flags)
	}

	want := []domain.Direction{domain.DirectionNeutral, domain.DirectionBuy, domain.DirectionSell}
	for i, w := range want {
		if res.Ticks[i].Direction != w {
			t.Errorf("tick %d direction = %q, want %q", i, res.Ticks[i].Direction, w)
		}
		if res.Ticks[i].DirectionSource != domain.DirectionSourceInferredAll {
			t.Errorf("tick %d source = %q, want inferred_all", i, res.Ticks[i].DirectionSource)
		}
	}
}

func TestClean_DeltaColumnTakesPriority(t *testing.T) {
	// Price rises but the provider delta says sell; the delta wins.
	batch := newBatch(
		[]string{"time", "price", "价格变动"},
		[][]string{
			{"09:30:00", "10.0", "1"},
			{"09:30:03", "10.5", "-1"},
			{"09:30:06", "10.6", "0"},
		},
	)
	res := NewCleaner(DefaultConfig()).Clean(batch)

	want := []domain.Direction{domain.DirectionBuy, domain.DirectionSell, domain.DirectionNeutral}
	for i, w := range want {
		if res.Ticks[i].Direction != w {
			t.Errorf("tick %d direction = %q, want %q", i, res.Ticks[i].Direction, w)
		}
	}
	if !hasFlag(res.Flags, domain.FlagInferredNaturePriceDelta) {
		t.Errorf("expected inferred_nature_price_delta flag, got %v", res.Flags)
	}
}

func TestClean_LotConversion(t *testing.T) {
	batch := newBatch(
		[]string{"time", "price", "volume"},
		[][]string{{"09:30:00", "10.0", "5"}},
	)
	res := NewCleaner(DefaultConfig()).Clean(batch)

	if len(res.Ticks) != 1 {
		t.Fatalf("expected 1 tick, got %d", len(res.Ticks))
	}
	if res.Ticks[0].VolumeLots != 5 {
		t.Errorf("lots = %f, want 5", res.Ticks[0].VolumeLots)
	}
	if res.Ticks[0].Volume != 500 {
		t.Errorf("shares = %f, want 500", res.Ticks[0].Volume)
	}
	if !hasFlag(res.Flags, domain.FlagVolumeAssumedHands) || !hasFlag(res.Flags, domain.FlagVolumeUnitShares) {
		t.Errorf("expected unit conversion flags, got %v", res.Flags)
	}
}

func TestClean_TurnoverBackfill(t *testing.T) {
	batch := newBatch(
		[]string{"time", "price", "volume", "amount"},
		[][]string{
			{"09:30:00", "10.0", "5", "0"},    // non-positive, backfilled
			{"09:30:03", "10.0", "5", ""},     // missing, backfilled
			{"09:30:06", "10.0", "5", "6000"}, // provided, kept
		},
	)
	res := NewCleaner(DefaultConfig()).Clean(batch)

	if len(res.Ticks) != 3 {
		t.Fatalf("expected 3 ticks, got %d", len(res.Ticks))
	}
	if res.Ticks[0].Turnover != 5000 {
		t.Errorf("backfilled turnover = %f, want 5000", res.Ticks[0].Turnover)
	}
	if res.Ticks[1].Turnover != 5000 {
		t.Errorf("backfilled turnover = %f, want 5000", res.Ticks[1].Turnover)
	}
	if res.Ticks[2].Turnover != 6000 {
		t.Errorf("provided turnover = %f, want 6000", res.Ticks[2].Turnover)
	}
}

func TestClean_ChineseNumericUnits(t *testing.T) {
	batch := newBatch(
		[]string{"time", "price", "volume", "amount"},
		[][]string{{"09:30:00", "10.0", "5", "1.2万"}},
	)
	res := NewCleaner(DefaultConfig()).Clean(batch)

	if len(res.Ticks) != 1 {
		t.Fatalf("expected 1 tick, got %d", len(res.Ticks))
	}
	if math.Abs(res.Ticks[0].Turnover-12000) > 1e-9 {
		t.Errorf("turnover = %f, want 12000", res.Ticks[0].Turnover)
	}
}

func TestClean_AuctionSplit(t *testing.T) {
	batch := newBatch(
		[]string{"time", "price"},
		[][]string{
			{"09:20:00", "9.9"},
			{"09:25:00", "9.95"},
			{"09:30:01", "10.0"},
		},
	)
	res := NewCleaner(DefaultConfig()).Clean(batch)

	if len(res.Auction) != 2 {
		t.Fatalf("expected 2 auction ticks, got %d", len(res.Auction))
	}
	for _, a := range res.Auction {
		if !a.Auction {
			t.Errorf("auction tick not marked")
		}
	}
	if len(res.Ticks) != 1 {
		t.Errorf("expected 1 session tick, got %d", len(res.Ticks))
	}
}

func TestClean_SessionBounds(t *testing.T) {
	batch := newBatch(
		[]string{"time", "price"},
		[][]string{
			{"09:29:00", "10.0"}, // between auction and open
			{"09:30:00", "10.0"},
			{"11:30:00", "10.1"},
			{"12:30:00", "10.2"}, // lunch break
			{"13:00:00", "10.3"},
			{"15:00:00", "10.4"},
			{"15:00:01", "10.5"}, // after close
		},
	)
	res := NewCleaner(DefaultConfig()).Clean(batch)

	if len(res.Ticks) != 4 {
		t.Fatalf("expected 4 session ticks, got %d", len(res.Ticks))
	}

	close := time.Date(2024, 5, 10, 15, 0, 0, 0, time.Local)
	for _, tick := range res.Ticks {
		if tick.Time.After(close) {
			t.Errorf("tick at %s survived past session close", tick.Time.Format("15:04:05"))
		}
	}
}

func TestClean_NonTradingTime(t *testing.T) {
	batch := newBatch(
		[]string{"time", "price"},
		[][]string{{"20:00:00", "10.0"}},
	)
	res := NewCleaner(DefaultConfig()).Clean(batch)

	if len(res.Ticks) != 0 {
		t.Errorf("expected no session ticks, got %d", len(res.Ticks))
	}
	if !hasFlag(res.Flags, domain.FlagNonTradingTime) {
		t.Errorf("expected non_trading_time flag, got %v", res.Flags)
	}
}

func TestClean_ExtremeJumpTaggedNotDropped(t *testing.T) {
	batch := newBatch(
		[]string{"time", "price"},
		[][]string{
			{"09:30:00", "10.0"},
			{"09:30:03", "100.0"}, // +900%
		},
	)
	res := NewCleaner(DefaultConfig()).Clean(batch)

	if len(res.Ticks) != 2 {
		t.Fatalf("expected 2 ticks, got %d", len(res.Ticks))
	}
	if !res.Ticks[1].ExtremeJump {
		t.Errorf("expected extreme jump tag on second tick")
	}
	if math.Abs(res.Ticks[1].PctChange-9.0) > 1e-9 {
		t.Errorf("pct change = %f, want 9.0", res.Ticks[1].PctChange)
	}
}

func TestClean_InvalidTimeRowsDropped(t *testing.T) {
	batch := newBatch(
		[]string{"time", "price"},
		[][]string{
			{"garbage", "10.0"},
			{"09:30:00", "10.1"},
		},
	)
	res := NewCleaner(DefaultConfig()).Clean(batch)

	if len(res.Ticks) != 1 {
		t.Fatalf("expected 1 tick, got %d", len(res.Ticks))
	}
	if !hasFlag(res.Flags, domain.FlagInvalidTime) {
		t.Errorf("expected invalid_time flag, got %v", res.Flags)
	}
}

func TestClean_FullTimestampsKept(t *testing.T) {
	batch := newBatch(
		[]string{"time", "price"},
		[][]string{{"2024-05-10 09:30:00", "10.0"}},
	)
	res := NewCleaner(DefaultConfig()).Clean(batch)

	if len(res.Ticks) != 1 {
		t.Fatalf("expected 1 tick, got %d", len(res.Ticks))
	}
	want := time.Date(2024, 5, 10, 9, 30, 0, 0, time.Local)
	if !res.Ticks[0].Time.Equal(want) {
		t.Errorf("time = %s, want %s", res.Ticks[0].Time, want)
	}
}

func TestClean_NonPositivePricesDropped(t *testing.T) {
	batch := newBatch(
		[]string{"time", "price"},
		[][]string{
			{"09:30:00", "0"},
			{"09:30:03", "-1"},
			{"09:30:06", "10.0"},
		},
	)
	res := NewCleaner(DefaultConfig()).Clean(batch)

	if len(res.Ticks) != 1 {
		t.Errorf("expected 1 tick, got %d", len(res.Ticks))
	}
}
