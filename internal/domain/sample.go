package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultMissingValue marks absent coordinates and non-numeric feature cells.
// It lies outside every valid latitude and longitude and compares with ==.
const DefaultMissingValue = -999.0

// Leading sample-matrix columns.
const (
	LatitudeColumn  = "latitude"
	LongitudeColumn = "longitude"
)

// AssembleOptions tunes sample assembly.
type AssembleOptions struct {
	MissingValue float64
}

// ValidateMissingValue rejects sentinels that could be read as data: NaN,
// infinities, and anything inside the longitude range [-180, 180], which also
// covers every latitude and zero.
func ValidateMissingValue(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v is not finite", ErrMissingValue, v)
	}
	if v >= -180 && v <= 180 {
		return fmt.Errorf("%w: %v is a valid coordinate", ErrMissingValue, v)
	}
	return nil
}

// DefaultAssembleOptions uses DefaultMissingValue.
func DefaultAssembleOptions() AssembleOptions {
	return AssembleOptions{MissingValue: DefaultMissingValue}
}

// SampleInputs are the collaborators of one assembly. Years are assembled
// in slice order.
type SampleInputs struct {
	Years      []YearTables
	Features   *UniversalFeatureMap
	Reports    []DrugReport
	Substances *SubstanceIndex
	Geo        *GeoIndex
	States     *StateCatalog
}

// SampleRowKey identifies the observation behind one sample row.
type SampleRowKey struct {
	Year    int
	Row     int // index in the year's survey table
	Label   string
	Unit    GeographyUnit
	Located bool
}

// AssemblyReport counts recoverable gaps found while filling the matrix.
type AssemblyReport struct {
	Rows            int
	GeoMisses       int
	NonNumericCells int
	MissedUnits     []GeographyUnit // distinct, in first-seen order
}

// SampleMatrix is the assembled rows × columns matrix:
// [latitude, longitude, features..., substances...]. It is not modified
// after Assemble returns.
type SampleMatrix struct {
	rows, cols int
	features   int
	data       []float64
	columns    []string
	keys       []SampleRowKey
	report     AssemblyReport
}

// Rows is the number of observations.
func (s *SampleMatrix) Rows() int { return s.rows }

// Cols is the number of columns.
func (s *SampleMatrix) Cols() int { return s.cols }

// At returns the value at (row, col).
func (s *SampleMatrix) At(i, j int) float64 { return s.data[i*s.cols+j] }

// Row returns a read-only view of one observation.
func (s *SampleMatrix) Row(i int) []float64 { return s.data[i*s.cols : (i+1)*s.cols] }

// Columns returns the column names.
func (s *SampleMatrix) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// NumFeatures is the number of survey feature columns after the coordinates.
func (s *SampleMatrix) NumFeatures() int { return s.features }

// Key returns the observation behind row i.
func (s *SampleMatrix) Key(i int) SampleRowKey { return s.keys[i] }

// Report summarizes recoverable gaps.
func (s *SampleMatrix) Report() AssemblyReport { return s.report }

// Assemble fills one sample row per data row of every year's survey, in year
// order then table order. A GeographyDescription feature is not a numeric
// column; the row's geography label is kept in its SampleRowKey instead. Absent coordinates and non-numeric feature cells
// get opts.MissingValue; an unparseable geography label, a state outside the
// catalog, an unresolvable feature label, or an unknown substance aborts the
// whole assembly.
func Assemble(in SampleInputs, opts AssembleOptions) (*SampleMatrix, error) {
	if in.Features == nil || in.Substances == nil || in.Geo == nil || in.States == nil {
		return nil, errors.New("assemble: features, substances, geo index and states are required")
	}
	if err := ValidateMissingValue(opts.MissingValue); err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}

	rows := 0
	for _, y := range in.Years {
		if y.Survey.NumRows() < 1 {
			return nil, fmt.Errorf("year %d: survey has no description row", y.Year)
		}
		rows += y.Survey.NumRows() - 1
	}

	descs := numericDescriptions(in.Features)
	featureOffset := 2
	drugOffset := featureOffset + len(descs)
	cols := drugOffset + in.Substances.Len()

	drugs, err := NewDrugAggregator(in.Reports, in.Substances)
	if err != nil {
		return nil, fmt.Errorf("build drug matrix: %w", err)
	}

	s := &SampleMatrix{
		rows:     rows,
		cols:     cols,
		features: len(descs),
		data:     make([]float64, rows*cols),
		columns:  sampleColumns(descs, in.Substances),
		keys:     make([]SampleRowKey, rows),
	}
	missed := make(map[GeographyUnit]struct{})

	i := 0
	for _, y := range in.Years {
		labels, err := yearLabels(in.Features, descs, y)
		if err != nil {
			return nil, err
		}

		for r := 1; r < y.Survey.NumRows(); r++ {
			row := s.data[i*cols : (i+1)*cols]

			display, err := y.Survey.Cell(r, GeographyLabel)
			if err != nil {
				return nil, &RowError{Year: y.Year, Row: r, Err: err}
			}
			unit, err := ParseGeography(display, in.States)
			if err != nil {
				return nil, &RowError{Year: y.Year, Row: r, Value: display, Err: err}
			}

			coord, located := in.Geo.Locate(unit.StateInitials, unit.County)
			if located {
				row[0], row[1] = coord.Lat, coord.Lon
			} else {
				row[0], row[1] = opts.MissingValue, opts.MissingValue
				s.report.GeoMisses++
				if _, seen := missed[unit]; !seen {
					missed[unit] = struct{}{}
					s.report.MissedUnits = append(s.report.MissedUnits, unit)
				}
			}

			for k, label := range labels {
				v, _ := y.Survey.Cell(r, label)
				f, ok := parseNumeric(v)
				if !ok {
					f = opts.MissingValue
					s.report.NonNumericCells++
				}
				row[featureOffset+k] = f
			}

			for j, n := range drugs.Vector(y.Year, unit.StateInitials, unit.County) {
				row[drugOffset+j] = float64(n)
			}

			s.keys[i] = SampleRowKey{Year: y.Year, Row: r, Label: display, Unit: unit, Located: located}
			i++
		}
	}

	s.report.Rows = rows
	return s, nil
}

// yearLabels resolves every feature to this year's column, failing on the
// first feature the year cannot supply.
func yearLabels(features *UniversalFeatureMap, descs []string, y YearTables) ([]string, error) {
	labels := make([]string, len(descs))
	for k, desc := range descs {
		label, err := features.Label(desc, y.Year)
		if err != nil {
			return nil, fmt.Errorf("year %d: %w", y.Year, err)
		}
		if !y.Survey.HasColumn(label) {
			return nil, fmt.Errorf("year %d: feature %q: %w: %q", y.Year, desc, ErrMissingColumn, label)
		}
		labels[k] = label
	}
	return labels, nil
}

// numericDescriptions drops the geography feature, whose values are labels.
func numericDescriptions(features *UniversalFeatureMap) []string {
	descs := features.Descriptions()
	out := descs[:0]
	for _, d := range descs {
		if d != GeographyDescription {
			out = append(out, d)
		}
	}
	return out
}

func sampleColumns(descs []string, substances *SubstanceIndex) []string {
	cols := make([]string, 0, 2+len(descs)+substances.Len())
	cols = append(cols, LatitudeColumn, LongitudeColumn)
	cols = append(cols, descs...)
	return append(cols, substances.Names()...)
}

// parseNumeric accepts finite decimal values only.
func parseNumeric(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
