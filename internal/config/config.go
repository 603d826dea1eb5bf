// Package config provides application configuration loaded from environment
// variables. A local .env file is honored when present.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds all application configuration.
// Load it once at startup using Load().
type AppConfig struct {
	// Cleaning contains tick normalization thresholds.
	Cleaning CleaningConfig

	// Flow contains large-order classification thresholds.
	Flow FlowConfig

	// Widths are the aggregation bar widths in minutes.
	Widths []int

	// PostgresDSN enables tick and summary persistence when non-empty.
	PostgresDSN string

	// ClickhouseDSN enables window-bar persistence when non-empty.
	ClickhouseDSN string

	// Feed contains websocket feed settings.
	Feed FeedConfig

	// Kafka contains consumer settings for streamed raw batches.
	Kafka KafkaConfig

	// MetricsAddr is the listen address for the /metrics endpoint.
	MetricsAddr string

	// OutputDir is where reports are written.
	OutputDir string

	// LogLevel is the logrus level name (debug, info, warn, error).
	LogLevel string
}

// CleaningConfig holds tick normalization thresholds.
type CleaningConfig struct {
	// LotSize is the shares-per-lot conversion factor.
	LotSize int

	// PctChangeFloor is the minimum direction inference threshold.
	PctChangeFloor float64

	// PctChangeQuantile selects the adaptive inference threshold from the
	// absolute percent-change distribution.
	PctChangeQuantile float64

	// ExtremeJumpCut marks percent changes beyond this magnitude.
	ExtremeJumpCut float64

	// MinValidNatureRatio is the coverage below which raw labels are flagged
	// low quality.
	MinValidNatureRatio float64
}

// FlowConfig holds large-order classification thresholds.
type FlowConfig struct {
	// LargeOrderQuantile is the turnover quantile for the adaptive threshold.
	LargeOrderQuantile float64

	// LargeOrderMin is the absolute turnover floor for large orders.
	LargeOrderMin float64
}

// FeedConfig holds websocket feed settings.
type FeedConfig struct {
	// URL is the websocket endpoint. Empty disables the feed.
	URL string

	// RatePerSecond limits outbound subscribe requests.
	RatePerSecond int
}

// KafkaConfig holds Kafka consumer connection settings.
type KafkaConfig struct {
	// Brokers are the broker addresses.
	Brokers []string

	// Topic is the raw tick batch topic.
	Topic string

	// GroupID is the consumer group ID.
	GroupID string

	// BatchSize is the maximum rows to accumulate before flushing.
	BatchSize int

	// BatchTimeoutSeconds is the maximum seconds to wait before flushing.
	BatchTimeoutSeconds int
}

// Load loads all application configuration from environment variables.
// It attempts to load a .env file first (for local development).
// Call this once at application startup.
func Load() *AppConfig {
	_ = godotenv.Load() // Ignore error - .env is optional

	return &AppConfig{
		Cleaning: CleaningConfig{
			LotSize:             getEnvInt("TICKFLOW_LOT_SIZE", 100),
			PctChangeFloor:      getEnvFloat("TICKFLOW_PCT_CHANGE_FLOOR", 0.0001),
			PctChangeQuantile:   getEnvFloat("TICKFLOW_PCT_CHANGE_QUANTILE", 0.30),
			ExtremeJumpCut:      getEnvFloat("TICKFLOW_EXTREME_JUMP_CUT", 5.0),
			MinValidNatureRatio: getEnvFloat("TICKFLOW_MIN_VALID_NATURE_RATIO", 0.5),
		},
		Flow: FlowConfig{
			LargeOrderQuantile: getEnvFloat("TICKFLOW_LARGE_ORDER_QUANTILE", 0.90),
			LargeOrderMin:      getEnvFloat("TICKFLOW_LARGE_ORDER_MIN", 200000),
		},
		Widths:        getEnvInts("TICKFLOW_BAR_WIDTHS", []int{1, 5}),
		PostgresDSN:   getEnv("TICKFLOW_POSTGRES_DSN", ""),
		ClickhouseDSN: getEnv("TICKFLOW_CLICKHOUSE_DSN", ""),
		Feed: FeedConfig{
			URL:           getEnv("TICKFLOW_FEED_URL", ""),
			RatePerSecond: getEnvInt("TICKFLOW_FEED_RATE_PER_SECOND", 5),
		},
		Kafka: KafkaConfig{
			Brokers:             getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:               getEnv("KAFKA_TICK_TOPIC", "tickflow_raw_batches"),
			GroupID:             getEnv("KAFKA_TICK_GROUP_ID", "tickflow-consumer"),
			BatchSize:           getEnvInt("KAFKA_BATCH_SIZE", 200),
			BatchTimeoutSeconds: getEnvInt("KAFKA_BATCH_TIMEOUT_SECONDS", 5),
		},
		MetricsAddr: getEnv("TICKFLOW_METRICS_ADDR", ":9100"),
		OutputDir:   getEnv("TICKFLOW_OUTPUT_DIR", "reports"),
		LogLevel:    getEnv("TICKFLOW_LOG_LEVEL", "info"),
	}
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvFloat returns the environment variable as float64 or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvList returns a comma-separated environment variable as a slice.
func getEnvList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

// getEnvInts returns a comma-separated environment variable as ints.
func getEnvInts(key string, defaultValue []int) []int {
	var values []int
	for _, part := range getEnvList(key, nil) {
		v, err := strconv.Atoi(part)
		if err != nil || v <= 0 {
			return defaultValue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
