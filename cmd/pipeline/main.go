// Package main runs the tick processing pipeline for one exported day file.
// Executes: cleaning → flow classification → aggregation → anomaly detection → reporting
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"tickflow/internal/cleaning"
	"tickflow/internal/config"
	"tickflow/internal/feed"
	"tickflow/internal/flow"
	"tickflow/internal/pipeline"
	"tickflow/internal/reporting"
	"tickflow/internal/storage/clickhouse"
	"tickflow/internal/storage/migrations"
	"tickflow/internal/storage/postgres"
)

func main() {
	// Parse flags
	csvPath := flag.String("csv", "", "Path to exported tick CSV file (required)")
	symbol := flag.String("symbol", "", "Instrument symbol (required)")
	dateStr := flag.String("date", time.Now().Format("2006-01-02"), "Trading day (YYYY-MM-DD)")
	outputDir := flag.String("output-dir", "", "Output directory for generated reports (overrides env)")
	widthsStr := flag.String("widths", "", "Comma-separated bar widths in minutes (overrides env)")
	flag.Parse()

	if *csvPath == "" || *symbol == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := newLogger(cfg.LogLevel)

	date, err := time.ParseInLocation("2006-01-02", *dateStr, time.Local)
	if err != nil {
		log.WithError(err).Fatal("invalid -date")
	}

	widths := cfg.Widths
	if *widthsStr != "" {
		widths, err = parseWidths(*widthsStr)
		if err != nil {
			log.WithError(err).Fatal("invalid -widths")
		}
	}

	dir := cfg.OutputDir
	if *outputDir != "" {
		dir = *outputDir
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig.String()).Info("cancelling pipeline")
		cancel()
	}()

	opts := pipeline.Options{
		Cleaner: cleaning.NewCleaner(cleaning.Config{
			LotSize:             float64(cfg.Cleaning.LotSize),
			PctChangeFloor:      cfg.Cleaning.PctChangeFloor,
			PctChangeQuantile:   cfg.Cleaning.PctChangeQuantile,
			ExtremeJumpCut:      cfg.Cleaning.ExtremeJumpCut,
			MinValidNatureRatio: cfg.Cleaning.MinValidNatureRatio,
		}),
		Classifier: &flow.Classifier{
			LargeOrderQuantile: cfg.Flow.LargeOrderQuantile,
			LargeOrderMin:      cfg.Flow.LargeOrderMin,
		},
		Widths: widths,
		Logger: log,
	}

	// Optional persistence
	if cfg.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			log.WithError(err).Fatal("connect postgres")
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			log.WithError(err).Fatal("apply postgres migrations")
		}

		opts.TickStore = postgres.NewTickStore(pool)
		opts.SummaryStore = postgres.NewFlowSummaryStore(pool)
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			log.WithError(err).Fatal("apply clickhouse migrations")
		}
		defer conn.Close()

		opts.BarStore = clickhouse.NewWindowBarStore(conn)
	}

	batch, err := feed.LoadCSV(*csvPath, *symbol, date)
	if err != nil {
		log.WithError(err).Fatal("load tick file")
	}

	runner := pipeline.New(opts)
	result, err := runner.Run(ctx, batch)
	if err != nil {
		log.WithError(err).Fatal("pipeline run failed")
	}

	generator := reporting.NewGenerator(dir)
	written, err := generator.Write(generator.Generate(result))
	if err != nil {
		log.WithError(err).Fatal("write report")
	}

	fmt.Println("Pipeline completed successfully:")
	for _, path := range written {
		fmt.Printf("  - %s\n", path)
	}
}

// newLogger builds the process logger from the configured level.
func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}

// parseWidths parses "1,5,15" into bar widths.
func parseWidths(s string) ([]int, error) {
	var widths []int
	for _, part := range strings.Split(s, ",") {
		w, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || w <= 0 {
			return nil, fmt.Errorf("bad width %q", part)
		}
		widths = append(widths, w)
	}
	return widths, nil
}
