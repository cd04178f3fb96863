package domain

import (
	"fmt"
	"strings"
)

// DrugReportMatrix is a dense records × substances matrix of report counts.
// Each row has exactly one non-zero cell: its record's substance column.
type DrugReportMatrix struct {
	rows, cols int
	data       []int
}

// Rows is the number of records.
func (m *DrugReportMatrix) Rows() int { return m.rows }

// Cols is the number of substances.
func (m *DrugReportMatrix) Cols() int { return m.cols }

// At returns the count at (record, substance).
func (m *DrugReportMatrix) At(i, j int) int { return m.data[i*m.cols+j] }

// Row returns a read-only view of one record's vector.
func (m *DrugReportMatrix) Row(i int) []int { return m.data[i*m.cols : (i+1)*m.cols] }

// BuildDrugMatrix writes each record's report count into its substance
// column of a fresh zero matrix. Every substance in reports must be in the
// catalog.
func BuildDrugMatrix(reports []DrugReport, substances *SubstanceIndex) (*DrugReportMatrix, error) {
	m := &DrugReportMatrix{
		rows: len(reports),
		cols: substances.Len(),
		data: make([]int, len(reports)*substances.Len()),
	}
	for i, r := range reports {
		j, ok := substances.Index(r.Substance)
		if !ok {
			return nil, fmt.Errorf("record %d: %w: %q", i, ErrUnknownSubstance, r.Substance)
		}
		m.data[i*m.cols+j] = r.Reports
	}
	return m, nil
}

// DrugAggregator sums drug-report vectors per (year, state, county). The
// matrix is built once and reused for every query.
type DrugAggregator struct {
	reports    []DrugReport
	substances *SubstanceIndex
	matrix     *DrugReportMatrix
}

// NewDrugAggregator builds the report matrix for later queries.
func NewDrugAggregator(reports []DrugReport, substances *SubstanceIndex) (*DrugAggregator, error) {
	m, err := BuildDrugMatrix(reports, substances)
	if err != nil {
		return nil, err
	}
	return &DrugAggregator{reports: reports, substances: substances, matrix: m}, nil
}

// Matrix exposes the underlying report matrix.
func (a *DrugAggregator) Matrix() *DrugReportMatrix { return a.matrix }

// Vector sums the rows whose record has the given year (exact) and state and
// county (case-insensitive). No match yields a zero vector.
func (a *DrugAggregator) Vector(year int, state, county string) []int {
	vec := make([]int, a.matrix.cols)
	for _, i := range a.matching(year, state, county) {
		for j, v := range a.matrix.Row(i) {
			vec[j] += v
		}
	}
	return vec
}

// Identify returns Vector plus a substance → count map built directly from
// the matching records, so the two can be cross-checked. Repeated records of
// one substance are summed in the map as they are in the vector.
func (a *DrugAggregator) Identify(year int, state, county string) ([]int, map[string]int) {
	idx := a.matching(year, state, county)
	vec := make([]int, a.matrix.cols)
	byName := make(map[string]int)
	for _, i := range idx {
		for j, v := range a.matrix.Row(i) {
			vec[j] += v
		}
		byName[a.reports[i].Substance] += a.reports[i].Reports
	}
	return vec, byName
}

func (a *DrugAggregator) matching(year int, state, county string) []int {
	var idx []int
	for i, r := range a.reports {
		if r.Year == year && strings.EqualFold(r.State, state) && strings.EqualFold(r.County, county) {
			idx = append(idx, i)
		}
	}
	return idx
}

// AggregateDrugReports is the one-shot form of DrugAggregator.Vector.
func AggregateDrugReports(year int, state, county string, reports []DrugReport, substances *SubstanceIndex) ([]int, error) {
	a, err := NewDrugAggregator(reports, substances)
	if err != nil {
		return nil, err
	}
	return a.Vector(year, state, county), nil
}

// IdentifyDrugReports is the one-shot form of DrugAggregator.Identify.
func IdentifyDrugReports(year int, state, county string, reports []DrugReport, substances *SubstanceIndex) ([]int, map[string]int, error) {
	a, err := NewDrugAggregator(reports, substances)
	if err != nil {
		return nil, nil, err
	}
	vec, byName := a.Identify(year, state, county)
	return vec, byName, nil
}
