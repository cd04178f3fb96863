package domain

import (
	"strconv"
	"time"
)

// SampleRecord is one sample row keyed by column name, for sinks that emit
// self-describing messages instead of a positional matrix.
type SampleRecord struct {
	Year        int                `json:"year"`
	Geography   string             `json:"geography"`
	State       string             `json:"state"`
	County      string             `json:"county"`
	Located     bool               `json:"located"`
	Coordinate  Coordinate         `json:"coordinate"`
	Features    map[string]float64 `json:"features"`
	DrugReports map[string]int     `json:"drug_reports"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// Key identifies the record across runs: year, state initials and county.
func (r SampleRecord) Key() string {
	return r.State + ":" + r.County + ":" + strconv.Itoa(r.Year)
}

// Record converts row i into a SampleRecord stamped with generatedAt.
func (s *SampleMatrix) Record(i int, generatedAt time.Time) SampleRecord {
	row := s.Row(i)
	key := s.keys[i]

	rec := SampleRecord{
		Year:        key.Year,
		Geography:   key.Label,
		State:       key.Unit.StateInitials,
		County:      key.Unit.County,
		Located:     key.Located,
		Coordinate:  Coordinate{Lat: row[0], Lon: row[1]},
		Features:    make(map[string]float64, s.features),
		DrugReports: make(map[string]int, s.cols-2-s.features),
		GeneratedAt: generatedAt,
	}
	for j := 2; j < 2+s.features; j++ {
		rec.Features[s.columns[j]] = row[j]
	}
	for j := 2 + s.features; j < s.cols; j++ {
		rec.DrugReports[s.columns[j]] = int(row[j])
	}
	return rec
}
