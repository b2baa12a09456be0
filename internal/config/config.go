package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatabaseURL string
	DBMaxConns  int32
	Schema      string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional Kafka publishing of assembled rows and forecasts.
	KafkaBrokers      []string
	KafkaDatasetTopic string
	KafkaEnabled      bool

	// Model runner configuration (feature-flagged via MODEL_RUNNER_URL).
	ModelRunnerURL     string
	ModelRunnerTimeout time.Duration
	ModelEnabled       bool

	// Cron expression for scheduled retraining; empty means run once.
	Schedule string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	modelTimeout, err := parseDuration("MODEL_RUNNER_TIMEOUT", "120s")
	if err != nil {
		return nil, err
	}
	maxConns, err := parseInt("DB_MAX_CONNS", 4)
	if err != nil {
		return nil, err
	}

	modelURL := os.Getenv("MODEL_RUNNER_URL")
	modelEnabled := modelURL != ""
	if v := os.Getenv("MODEL_ENABLED"); v != "" {
		modelEnabled = v == "true"
	}

	brokers := splitBrokers(envOrDefault("KAFKA_BROKERS", ""))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBMaxConns:  int32(maxConns),
		Schema:      envOrDefault("DB_SCHEMA", "national_analysis"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers:      brokers,
		KafkaDatasetTopic: envOrDefault("KAFKA_DATASET_TOPIC", "assembled-training-rows"),
		KafkaEnabled:      kafkaEnabled,

		ModelRunnerURL:     modelURL,
		ModelRunnerTimeout: modelTimeout,
		ModelEnabled:       modelEnabled,

		Schedule: os.Getenv("CRON_SCHEDULE"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.ModelEnabled && cfg.ModelRunnerURL == "" {
		return nil, errors.New("MODEL_ENABLED is true but MODEL_RUNNER_URL is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

func splitBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
