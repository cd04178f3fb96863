package domain

import (
	"context"
	"log/slog"
	"strings"
)

// BackfillReport counts geocoding outcomes for reference-table misses.
type BackfillReport struct {
	Attempted int
	Resolved  int
	Failed    int // provider error
	Empty     int // provider had no coordinates
}

// BackfillCoordinates geocodes each distinct survey geography that geo cannot
// locate and returns a new index with the resolved rows appended after the
// reference rows. Rows whose labels do not parse are left for Assemble to
// reject. Provider errors are logged and skipped; if geocoder is nil, geo is
// returned unchanged. A cancelled context stops the backfill and returns
// what was resolved so far along with ctx.Err().
func BackfillCoordinates(ctx context.Context, ds Dataset, geo *GeoIndex, geocoder Geocoder, logger *slog.Logger) (*GeoIndex, BackfillReport, error) {
	var report BackfillReport
	if geocoder == nil {
		return geo, report, nil
	}

	var extra []GeoRecord
	tried := make(map[GeographyUnit]struct{})

	for _, y := range ds.Years {
		for r := 1; r < y.Survey.NumRows(); r++ {
			display, err := y.Survey.Cell(r, GeographyLabel)
			if err != nil {
				continue
			}
			unit, err := ParseGeography(display, ds.States)
			if err != nil {
				continue
			}
			if _, done := tried[unit]; done {
				continue
			}
			tried[unit] = struct{}{}
			if _, ok := geo.Locate(unit.StateInitials, unit.County); ok {
				continue
			}

			if err := ctx.Err(); err != nil {
				return geo.withRecords(extra), report, err
			}

			report.Attempted++
			name := unit.County + " County"
			state := strings.ToUpper(unit.StateInitials)
			result, err := geocoder.ForwardGeocode(ctx, name, state)
			if err != nil {
				logger.Warn("forward geocoding failed",
					"county", name,
					"state", state,
					"year", y.Year,
					"error", err,
				)
				report.Failed++
				continue
			}
			if result.Lat == 0 && result.Lon == 0 {
				report.Empty++
				continue
			}

			extra = append(extra, GeoRecord{Name: name, State: state, Lat: result.Lat, Lon: result.Lon})
			report.Resolved++
			logger.Debug("backfilled coordinate",
				"county", name,
				"state", state,
				"lat", result.Lat,
				"lon", result.Lon,
				"confidence", result.Confidence,
			)
		}
	}

	return geo.withRecords(extra), report, nil
}
