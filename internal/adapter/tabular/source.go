package tabular

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/opioid-sample-etl/internal/domain"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentLoads bounds open files while reading a manifest.
const maxConcurrentLoads = 4

// Source loads every table a manifest names.
// It implements pipeline.Extractor.
type Source struct {
	manifest *Manifest
	logger   *slog.Logger
}

// NewSource creates a Source for a validated manifest.
func NewSource(m *Manifest, logger *slog.Logger) *Source {
	return &Source{manifest: m, logger: logger}
}

// Extract reads surveys, metadata, drug reports and the gazetteer
// concurrently and builds the run's catalogs. The first failure cancels the
// remaining loads.
func (s *Source) Extract(ctx context.Context) (domain.Dataset, error) {
	m := s.manifest
	years := make([]domain.YearTables, len(m.Years))
	var (
		reports []domain.DrugReport
		geo     []domain.GeoRecord
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)

	for i, y := range m.Years {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			survey, err := LoadSurvey(y.Survey)
			if err != nil {
				return fmt.Errorf("year %d: %w", y.Year, err)
			}
			meta, err := LoadMetadata(y.Metadata)
			if err != nil {
				return fmt.Errorf("year %d: %w", y.Year, err)
			}
			years[i] = domain.YearTables{Year: y.Year, Survey: survey, Metadata: meta}
			s.logger.Debug("loaded survey year",
				"year", y.Year,
				"columns", len(survey.Columns),
				"rows", survey.NumRows(),
				"metadata_entries", len(meta.Entries),
			)
			return nil
		})
	}

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		reports, err = LoadDrugReports(m.DrugReports, m.DrugSheet)
		return err
	})

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		geo, err = LoadGazetteer(m.GeoReference)
		return err
	})

	if err := g.Wait(); err != nil {
		return domain.Dataset{}, err
	}

	states, err := m.StateCatalog()
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("state catalog: %w", err)
	}
	substances, err := m.SubstanceCatalog(reports)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("substance catalog: %w", err)
	}

	s.logger.Info("inputs loaded",
		"years", len(years),
		"drug_records", len(reports),
		"reference_counties", len(geo),
		"substances", substances.Len(),
	)

	return domain.Dataset{
		Years:            years,
		Reports:          reports,
		Geo:              geo,
		Substances:       substances,
		States:           states,
		IncludeGeography: m.IncludeGeography,
	}, nil
}
