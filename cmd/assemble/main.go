package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/opioid-sample-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/opioid-sample-etl/internal/adapter/kafka"
	"github.com/couchcryptid/opioid-sample-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/opioid-sample-etl/internal/adapter/tabular"
	"github.com/couchcryptid/opioid-sample-etl/internal/config"
	"github.com/couchcryptid/opioid-sample-etl/internal/domain"
	"github.com/couchcryptid/opioid-sample-etl/internal/observability"
	"github.com/couchcryptid/opioid-sample-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if err := run(cfg, logger, metrics); err != nil {
		logger.Error("assembly failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	manifest, err := tabular.LoadManifest(cfg.ManifestPath)
	if err != nil {
		return err
	}

	// Geocoder is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox backfill enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox backfill disabled")
	}

	var loaders []pipeline.Loader
	if cfg.OutputPath != "" {
		loaders = append(loaders, tabular.NewCSVWriter(cfg.OutputPath, logger))
	}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
	}

	source := tabular.NewSource(manifest, logger)
	transformer := pipeline.NewTransformer(geocoder, domain.AssembleOptions{MissingValue: cfg.MissingValue}, metrics, logger)
	p := pipeline.New(source, transformer, loaders, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.HTTPAddr == "" {
		return p.Run(ctx)
	}

	// With an HTTP address a successful run keeps serving probes, /status and
	// /metrics until the process is signalled. A failed run exits.
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	runErr := p.Run(ctx)
	if runErr == nil {
		<-ctx.Done()
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}
