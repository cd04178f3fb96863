package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/opioid-sample-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	ManifestPath string
	OutputPath   string // empty disables the CSV sink
	MissingValue float64

	HTTPAddr        string // empty disables the health/metrics listener
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	missing, err := parseMissingValue()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		ManifestPath: sharedcfg.EnvOrDefault("MANIFEST_PATH", "manifest.yaml"),
		OutputPath:   envAllowEmpty("OUTPUT_PATH", "sample.csv"),
		MissingValue: missing,

		HTTPAddr:        envAllowEmpty("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "opioid-samples"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if cfg.ManifestPath == "" {
		return nil, errors.New("MANIFEST_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
	}
	if cfg.OutputPath == "" && !cfg.KafkaEnabled {
		return nil, errors.New("no sink configured: set OUTPUT_PATH or KAFKA_ENABLED")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// envAllowEmpty is EnvOrDefault for settings where an explicit empty value
// means "disabled".
func envAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func parseMissingValue() (float64, error) {
	s := sharedcfg.EnvOrDefault("MISSING_VALUE", "-999")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("invalid MISSING_VALUE: must be a number")
	}
	if err := domain.ValidateMissingValue(v); err != nil {
		return 0, fmt.Errorf("invalid MISSING_VALUE: %w", err)
	}
	return v, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
