package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/opioid-sample-etl/internal/domain"
	"github.com/couchcryptid/opioid-sample-etl/internal/observability"
)

// SampleTransformer implements Transformer with the domain assembly,
// backfilling gazetteer misses through an optional geocoder first.
type SampleTransformer struct {
	geocoder domain.Geocoder
	opts     domain.AssembleOptions
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewTransformer creates a SampleTransformer. Pass a nil geocoder to disable
// coordinate backfill.
func NewTransformer(geocoder domain.Geocoder, opts domain.AssembleOptions, metrics *observability.Metrics, logger *slog.Logger) *SampleTransformer {
	return &SampleTransformer{
		geocoder: geocoder,
		opts:     opts,
		metrics:  metrics,
		logger:   logger,
	}
}

func (t *SampleTransformer) Transform(ctx context.Context, ds domain.Dataset) (*domain.SampleMatrix, error) {
	features, err := domain.BuildUniversalIndex(ds.Years, domain.IndexOptions{IncludeGeography: ds.IncludeGeography})
	if err != nil {
		return nil, fmt.Errorf("build universal feature index: %w", err)
	}
	t.metrics.UniversalFeatures.Set(float64(features.Len()))
	t.logger.Info("universal features resolved", "features", features.Len(), "years", features.Years())

	geo, backfill, err := domain.BackfillCoordinates(ctx, ds, domain.NewGeoIndex(ds.Geo), t.geocoder, t.logger)
	if err != nil {
		return nil, fmt.Errorf("backfill coordinates: %w", err)
	}
	if backfill.Attempted > 0 {
		t.logger.Info("coordinates backfilled",
			"attempted", backfill.Attempted,
			"resolved", backfill.Resolved,
			"failed", backfill.Failed,
			"empty", backfill.Empty,
		)
	}

	sample, err := domain.Assemble(domain.SampleInputs{
		Years:      ds.Years,
		Features:   features,
		Reports:    ds.Reports,
		Substances: ds.Substances,
		Geo:        geo,
		States:     ds.States,
	}, t.opts)
	if err != nil {
		return nil, fmt.Errorf("assemble sample: %w", err)
	}
	return sample, nil
}
