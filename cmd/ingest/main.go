// Package main runs the streaming ingest service: a Kafka consumer and an
// optional websocket feed, both flowing into the processing pipeline.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"tickflow/internal/cleaning"
	"tickflow/internal/config"
	"tickflow/internal/feed"
	"tickflow/internal/flow"
	"tickflow/internal/ingest"
	"tickflow/internal/observability"
	"tickflow/internal/pipeline"
	"tickflow/internal/storage/clickhouse"
	"tickflow/internal/storage/migrations"
	"tickflow/internal/storage/postgres"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "Comma-separated symbols for the websocket feed")
	flag.Parse()

	cfg := config.Load()
	log := newLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig.String()).Info("shutting down")
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
		Widths: cfg.Widths,
		Logger: log,
	}

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

	runner := pipeline.New(opts)

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		log.WithField("addr", cfg.MetricsAddr).Info("metrics endpoint listening")
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			log.WithError(err).Error("metrics endpoint failed")
		}
	}()

	var wg sync.WaitGroup

	// Kafka consumer
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer := ingest.NewConsumer(cfg.Kafka, runner, log)
		if err := consumer.Start(ctx); err != nil {
			log.WithError(err).Error("consumer stopped with error")
		}
	}()

	// Optional websocket feed
	if cfg.Feed.URL != "" {
		symbols := splitSymbols(*symbolsFlag)
		if len(symbols) == 0 {
			log.Warn("feed URL configured but no -symbols given, feed disabled")
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				runFeed(ctx, cfg, runner, symbols, log)
			}()
		}
	}

	wg.Wait()
	log.Info("ingest service stopped")
}

// runFeed subscribes to the websocket feed and flushes accumulated events
// through the pipeline on the Kafka batch cadence.
func runFeed(ctx context.Context, cfg *config.AppConfig, runner *pipeline.Runner, symbols []string, log *logrus.Logger) {
	wsCfg := feed.DefaultWSConfig()
	wsCfg.SubscribeRatePerSecond = cfg.Feed.RatePerSecond

	client, err := feed.NewWSClient(ctx, cfg.Feed.URL, &wsCfg)
	if err != nil {
		log.WithError(err).Error("connect feed")
		return
	}
	defer client.Close()

	events := make(chan feed.TickEvent, 1000)
	for _, symbol := range symbols {
		ch, err := client.Subscribe(ctx, symbol)
		if err != nil {
			log.WithError(err).WithField("symbol", symbol).Error("subscribe failed")
			continue
		}
		go func() {
			for e := range ch {
				select {
				case events <- e:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	flushInterval := time.Duration(cfg.Kafka.BatchTimeoutSeconds) * time.Second
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]feed.TickEvent, 0, cfg.Kafka.BatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := ingest.ProcessEvents(ctx, runner, batch); err != nil {
			log.WithError(err).WithField("batch_size", len(batch)).Error("feed batch failed")
		}
		batch = batch[:0]
	}

	for {
		select {
		case e := <-events:
			batch = append(batch, e)
			if len(batch) >= cfg.Kafka.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			flush()
			return
		}
	}
}

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

func splitSymbols(s string) []string {
	var symbols []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			symbols = append(symbols, trimmed)
		}
	}
	return symbols
}
