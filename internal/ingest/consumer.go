// Package ingest consumes raw tick events from Kafka and feeds them through
// the processing pipeline.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"tickflow/internal/config"
	"tickflow/internal/domain"
	"tickflow/internal/feed"
	"tickflow/internal/observability"
	"tickflow/internal/pipeline"
	"tickflow/internal/storage"
)

// batchColumns is the header attached to batches rebuilt from stream events.
var batchColumns = []string{"time", "price", "volume", "amount", "nature"}

// Consumer reads tick events from Kafka, groups them into (symbol, day)
// batches and runs the pipeline on each flush.
type Consumer struct {
	reader       *kafka.Reader
	runner       *pipeline.Runner
	workerCount  int
	batchSize    int
	batchTimeout time.Duration
	messagesChan chan kafka.Message
	logger       *logrus.Entry
	wg           sync.WaitGroup
}

// NewConsumer creates a Consumer from Kafka settings and a pipeline runner.
func NewConsumer(cfg config.KafkaConfig, runner *pipeline.Runner, logger *logrus.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})

	workerCount := 4

	return &Consumer{
		reader:       reader,
		runner:       runner,
		workerCount:  workerCount,
		batchSize:    cfg.BatchSize,
		batchTimeout: time.Duration(cfg.BatchTimeoutSeconds) * time.Second,
		messagesChan: make(chan kafka.Message, workerCount*2),
		logger:       logger.WithField("component", "ingest"),
	}
}

// Start runs the consumer until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.WithFields(logrus.Fields{
		"workers":       c.workerCount,
		"topic":         c.reader.Config().Topic,
		"group_id":      c.reader.Config().GroupID,
		"batch_size":    c.batchSize,
		"batch_timeout": c.batchTimeout,
	}).Info("starting kafka consumer")

	for i := 0; i < c.workerCount; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i+1)
	}

	go c.readMessages(ctx)

	<-ctx.Done()
	c.logger.Info("shutting down consumer")

	close(c.messagesChan)

	c.wg.Wait()

	if err := c.reader.Close(); err != nil {
		c.logger.WithError(err).Error("error closing reader")
		return err
	}

	c.logger.Info("kafka consumer shut down cleanly")
	return nil
}

func (c *Consumer) readMessages(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			m, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.WithError(err).Error("error fetching message")
				observability.RecordIngestError("fetch")
				continue
			}

			select {
			case c.messagesChan <- m:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *Consumer) worker(ctx context.Context, workerID int) {
	defer c.wg.Done()

	log := c.logger.WithField("worker_id", workerID)
	log.Info("worker started")

	batch := make([]feed.TickEvent, 0, c.batchSize)
	messagesToCommit := make([]kafka.Message, 0, c.batchSize)
	ticker := time.NewTicker(c.batchTimeout)
	defer ticker.Stop()

	flushBatch := func() {
		if len(batch) == 0 {
			return
		}

		if err := c.processEvents(ctx, batch); err != nil {
			log.WithError(err).WithField("batch_size", len(batch)).Error("error processing batch")
			observability.RecordIngestError("process")
		} else {
			if err := c.reader.CommitMessages(ctx, messagesToCommit...); err != nil {
				log.WithError(err).Error("error committing messages")
				observability.RecordIngestError("commit")
			} else {
				log.WithField("batch_size", len(batch)).Info("processed batch")
				observability.DefaultMetrics.LastSuccessfulIngestion.SetToCurrentTime()
			}
		}

		batch = batch[:0]
		messagesToCommit = messagesToCommit[:0]
		ticker.Reset(c.batchTimeout)
	}

	for {
		select {
		case msg, ok := <-c.messagesChan:
			if !ok {
				flushBatch()
				log.Info("worker stopped")
				return
			}

			events, err := parseMessage(msg)
			if err != nil {
				log.WithError(err).WithField("offset", msg.Offset).Error("error parsing message")
				observability.RecordIngestError("parse")
				continue
			}

			batch = append(batch, events...)
			messagesToCommit = append(messagesToCommit, msg)

			if len(batch) >= c.batchSize {
				flushBatch()
			}

		case <-ticker.C:
			if len(batch) > 0 {
				log.WithField("batch_size", len(batch)).Info("flushing partial batch due to timeout")
				flushBatch()
			}

		case <-ctx.Done():
			flushBatch()
			log.Info("worker stopped")
			return
		}
	}
}

func (c *Consumer) processEvents(ctx context.Context, events []feed.TickEvent) error {
	return ProcessEvents(ctx, c.runner, events)
}

// ProcessEvents groups stream events into (symbol, day) batches and runs the
// pipeline on each. Already-processed batches are skipped, not failed.
func ProcessEvents(ctx context.Context, runner *pipeline.Runner, events []feed.TickEvent) error {
	for key, raw := range groupEvents(events) {
		observability.RecordBatchReceived(len(raw.Rows))
		if _, err := runner.Run(ctx, raw); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			return fmt.Errorf("run pipeline for %s: %w", key, err)
		}
	}
	return nil
}

// groupEvents rebuilds raw batches keyed by "symbol|day".
func groupEvents(events []feed.TickEvent) map[string]*domain.RawBatch {
	groups := make(map[string]*domain.RawBatch)

	for _, e := range events {
		day := eventDay(e.Time)
		key := e.Symbol + "|" + day.Format("2006-01-02")

		raw, ok := groups[key]
		if !ok {
			raw = &domain.RawBatch{
				Symbol:  e.Symbol,
				Date:    day,
				Columns: batchColumns,
			}
			groups[key] = raw
		}
		raw.Rows = append(raw.Rows, []string{e.Time, e.Price, e.Volume, e.Turnover, e.Nature})
	}

	return groups
}

// eventDay extracts the trading day from the event timestamp. Events with
// time-only stamps belong to the current day.
func eventDay(timeStr string) time.Time {
	layouts := []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", time.RFC3339, "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, timeStr); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		}
	}
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// parseMessage decodes a Kafka payload holding one event or an array.
func parseMessage(msg kafka.Message) ([]feed.TickEvent, error) {
	var many []feed.TickEvent
	if err := json.Unmarshal(msg.Value, &many); err == nil && len(many) > 0 {
		return many, nil
	}

	var one feed.TickEvent
	if err := json.Unmarshal(msg.Value, &one); err != nil {
		return nil, fmt.Errorf("parse tick event: %w", err)
	}
	if one.Symbol == "" {
		return nil, fmt.Errorf("tick event missing symbol")
	}

	return []feed.TickEvent{one}, nil
}
