// Package pipeline coordinates the E2E tick processing run.
// Flow: cleaning → flow classification → window aggregation → anomaly detection
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"tickflow/internal/anomaly"
	"tickflow/internal/cleaning"
	"tickflow/internal/domain"
	"tickflow/internal/flow"
	"tickflow/internal/observability"
	"tickflow/internal/storage"
	"tickflow/internal/window"
)

// DefaultWidths are the bar widths built when none are configured.
var DefaultWidths = []int{1, 5}

// Runner executes the full processing pipeline for one (symbol, day) batch.
type Runner struct {
	cleaner    *cleaning.Cleaner
	classifier *flow.Classifier
	aggregator *window.Aggregator
	detector   *anomaly.Detector
	widths     []int

	// Optional stores; nil disables persistence.
	tickStore    storage.TickStore
	barStore     storage.WindowBarStore
	summaryStore storage.FlowSummaryStore

	log *logrus.Entry
}

// Options for creating a Runner.
type Options struct {
	Cleaner    *cleaning.Cleaner
	Classifier *flow.Classifier
	Aggregator *window.Aggregator
	Detector   *anomaly.Detector

	// Widths in minutes for window aggregation. Defaults to DefaultWidths.
	Widths []int

	// Optional persistence. A nil store skips that stage.
	TickStore    storage.TickStore
	BarStore     storage.WindowBarStore
	SummaryStore storage.FlowSummaryStore

	Logger *logrus.Logger
}

// New creates a new Runner. Missing components fall back to defaults.
func New(opts Options) *Runner {
	cleaner := opts.Cleaner
	if cleaner == nil {
		cleaner = cleaning.NewCleaner(cleaning.DefaultConfig())
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = flow.NewClassifier()
	}
	aggregator := opts.Aggregator
	if aggregator == nil {
		aggregator = window.NewAggregator()
	}
	detector := opts.Detector
	if detector == nil {
		detector = anomaly.NewDetector()
	}
	widths := opts.Widths
	if len(widths) == 0 {
		widths = DefaultWidths
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Runner{
		cleaner:      cleaner,
		classifier:   classifier,
		aggregator:   aggregator,
		detector:     detector,
		widths:       widths,
		tickStore:    opts.TickStore,
		barStore:     opts.BarStore,
		summaryStore: opts.SummaryStore,
		log:          logger.WithField("component", "pipeline"),
	}
}

// Result contains the output of one pipeline run.
type Result struct {
	Symbol string
	Date   time.Time

	Ticks   []*domain.ClassifiedTick
	Auction []*domain.Tick

	Bars    map[int][]*domain.WindowBar
	Summary *domain.FlowSummary

	LargeOrders []*domain.ClassifiedTick

	Flags         []string
	InferredRatio float64
	Outcome       domain.InferenceOutcome

	Anomalies *domain.AnomalyReport
}

// Run executes the full pipeline for one raw batch. Processing stages never
// fail; the only error sources are the optional persistence stores.
func (r *Runner) Run(ctx context.Context, batch *domain.RawBatch) (*Result, error) {
	started := time.Now()

	result := &Result{
		Symbol: batch.Symbol,
		Date:   batch.Date,
		Bars:   make(map[int][]*domain.WindowBar),
	}

	// Phase 1: Cleaning
	cleaned := r.cleaner.Clean(batch)
	result.Auction = cleaned.Auction
	result.InferredRatio = cleaned.InferredRatio
	result.Outcome = cleaned.Outcome
	observability.RecordTicksCleaned(len(cleaned.Ticks))
	observability.RecordInferenceOutcome(string(cleaned.Outcome))

	// Phase 2: Flow classification
	classified := r.classifier.Classify(cleaned.Ticks)
	result.Ticks = classified.Ticks
	result.Summary = &classified.Summary
	result.LargeOrders = classified.LargeOrders

	result.Flags = mergeFlags(cleaned.Flags, classified.Flags)
	for _, f := range result.Flags {
		observability.RecordQualityFlag(f)
	}

	// Phase 3: Window aggregation
	result.Bars = r.aggregator.Aggregate(classified.Ticks, r.widths)
	for width, bars := range result.Bars {
		observability.RecordBarsAggregated(width, len(bars))
	}

	// Phase 4: Anomaly detection. Five-minute bars are preferred; one-minute
	// bars serve as the fallback source.
	result.Anomalies = r.detector.Detect(classified.Ticks, anomalySource(result.Bars))
	observability.DefaultMetrics.BurstsDetected.Add(float64(len(result.Anomalies.BurstWindows)))

	r.log.WithFields(logrus.Fields{
		"symbol":       batch.Symbol,
		"day":          batch.Date.Format("2006-01-02"),
		"ticks":        len(result.Ticks),
		"auction":      len(result.Auction),
		"large_orders": len(result.LargeOrders),
		"flags":        len(result.Flags),
		"bursts":       len(result.Anomalies.BurstWindows),
	}).Info("pipeline run completed")

	// Phase 5: Persistence (optional)
	if err := r.persist(ctx, result); err != nil {
		observability.RecordPipelineRun("run", "error", time.Since(started).Seconds())
		return nil, err
	}

	observability.RecordPipelineRun("run", "success", time.Since(started).Seconds())
	observability.DefaultMetrics.LastSuccessfulPipeline.SetToCurrentTime()
	return result, nil
}

// persist writes the run output through the configured stores. Duplicate
// batches are treated as already-processed, not as failures.
func (r *Runner) persist(ctx context.Context, result *Result) error {
	if r.tickStore != nil && len(result.Ticks) > 0 {
		started := time.Now()
		err := r.tickStore.InsertBulk(ctx, result.Symbol, result.Date, result.Ticks)
		observability.RecordDBQuery("postgres", "insert_ticks", time.Since(started).Seconds(), err)
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("persist ticks: %w", err)
		}
	}

	if r.barStore != nil {
		var all []*domain.WindowBar
		for _, bars := range result.Bars {
			all = append(all, bars...)
		}
		if len(all) > 0 {
			started := time.Now()
			err := r.barStore.InsertBulk(ctx, result.Symbol, result.Date, all)
			observability.RecordDBQuery("clickhouse", "insert_bars", time.Since(started).Seconds(), err)
			if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
				return fmt.Errorf("persist window bars: %w", err)
			}
		}
	}

	if r.summaryStore != nil && result.Summary != nil && result.Summary.TradeCount > 0 {
		started := time.Now()
		err := r.summaryStore.Insert(ctx, result.Symbol, result.Date, result.Summary)
		observability.RecordDBQuery("postgres", "insert_summary", time.Since(started).Seconds(), err)
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("persist flow summary: %w", err)
		}
	}

	return nil
}

// anomalySource picks the bar series anomaly detection runs against.
func anomalySource(bars map[int][]*domain.WindowBar) []*domain.WindowBar {
	if fiveMin := bars[5]; len(fiveMin) > 0 {
		return fiveMin
	}
	return bars[1]
}

// mergeFlags unions flag lists, preserving first-seen order.
func mergeFlags(lists ...[]string) []string {
	var merged []string
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, f := range list {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			merged = append(merged, f)
		}
	}
	return merged
}
