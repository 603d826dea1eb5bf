// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	BatchesReceived       prometheus.Counter
	RowsReceived          prometheus.Counter
	IngestErrors          *prometheus.CounterVec
	ConsumerLagMessages   prometheus.Gauge
	FeedMessagesReceived  prometheus.Counter
	FeedReconnects        prometheus.Counter
	FeedMessageLatency    prometheus.Histogram

	// Cleaning metrics
	TicksCleaned     prometheus.Counter
	TicksDropped     *prometheus.CounterVec
	QualityFlags     *prometheus.CounterVec
	DirectionsInferred *prometheus.CounterVec

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	BarsAggregated    *prometheus.CounterVec
	LargeOrdersFound  prometheus.Counter
	BurstsDetected    prometheus.Counter
	ReportsGenerated  prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulIngestion prometheus.Gauge
	LastSuccessfulPipeline  prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tickflow"
	}

	return &Metrics{
		// Ingestion metrics
		BatchesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "batches_received_total",
			Help:      "Total number of raw tick batches received",
		}),
		RowsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "rows_received_total",
			Help:      "Total number of raw tick rows received",
		}),
		IngestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "errors_total",
			Help:      "Total number of ingestion errors by type",
		}, []string{"error_type"}),
		ConsumerLagMessages: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "consumer_lag_messages",
			Help:      "Current Kafka consumer lag in messages",
		}),
		FeedMessagesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "messages_received_total",
			Help:      "Total number of websocket feed messages received",
		}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of websocket feed reconnects",
		}),
		FeedMessageLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "message_latency_seconds",
			Help:      "WebSocket message processing latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Cleaning metrics
		TicksCleaned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleaning",
			Name:      "ticks_cleaned_total",
			Help:      "Total number of ticks that survived cleaning",
		}),
		TicksDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleaning",
			Name:      "ticks_dropped_total",
			Help:      "Total number of ticks dropped during cleaning by reason",
		}, []string{"reason"}),
		QualityFlags: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleaning",
			Name:      "quality_flags_total",
			Help:      "Total number of quality flags raised by flag name",
		}, []string{"flag"}),
		DirectionsInferred: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cleaning",
			Name:      "directions_inferred_total",
			Help:      "Total number of trade directions inferred by outcome",
		}, []string{"outcome"}),

		// Pipeline metrics
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"phase", "status"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"phase"}),
		BarsAggregated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "bars_aggregated_total",
			Help:      "Total number of window bars aggregated by width",
		}, []string{"width_minutes"}),
		LargeOrdersFound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "large_orders_total",
			Help:      "Total number of ticks classified as large orders",
		}),
		BurstsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "bursts_detected_total",
			Help:      "Total number of burst windows detected",
		}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulIngestion: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingestion_timestamp",
			Help:      "Unix timestamp of last successful ingestion",
		}),
		LastSuccessfulPipeline: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordBatchReceived increments the batch and row counters.
func RecordBatchReceived(rows int) {
	DefaultMetrics.BatchesReceived.Inc()
	DefaultMetrics.RowsReceived.Add(float64(rows))
}

// RecordIngestError records an ingestion error.
func RecordIngestError(errorType string) {
	DefaultMetrics.IngestErrors.WithLabelValues(errorType).Inc()
}

// RecordTicksCleaned increments the cleaned ticks counter.
func RecordTicksCleaned(count int) {
	DefaultMetrics.TicksCleaned.Add(float64(count))
}

// RecordTicksDropped records ticks dropped during cleaning.
func RecordTicksDropped(reason string, count int) {
	if count > 0 {
		DefaultMetrics.TicksDropped.WithLabelValues(reason).Add(float64(count))
	}
}

// RecordQualityFlag increments the quality flag counter.
func RecordQualityFlag(flag string) {
	DefaultMetrics.QualityFlags.WithLabelValues(flag).Inc()
}

// RecordInferenceOutcome records a direction inference outcome.
func RecordInferenceOutcome(outcome string) {
	DefaultMetrics.DirectionsInferred.WithLabelValues(outcome).Inc()
}

// RecordPipelineRun records a pipeline run.
func RecordPipelineRun(phase, status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(phase, status).Inc()
	DefaultMetrics.PipelineDuration.WithLabelValues(phase).Observe(durationSeconds)
}

// RecordBarsAggregated records aggregated bar counts for one width.
func RecordBarsAggregated(widthMinutes, count int) {
	DefaultMetrics.BarsAggregated.WithLabelValues(strconv.Itoa(widthMinutes)).Add(float64(count))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
