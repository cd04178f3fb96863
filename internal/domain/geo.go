package domain

import "strings"

// countySuffix is appended to bare county names before matching gazetteer
// names such as "Jefferson County".
const countySuffix = " county"

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoIndex resolves (state initials, county) pairs against a gazetteer.
// Lookups are linear scans; the first matching row wins.
type GeoIndex struct {
	records []GeoRecord
}

// NewGeoIndex wraps a reference table. The slice is copied.
func NewGeoIndex(records []GeoRecord) *GeoIndex {
	rs := make([]GeoRecord, len(records))
	copy(rs, records)
	return &GeoIndex{records: rs}
}

// Len is the number of reference rows.
func (g *GeoIndex) Len() int { return len(g.records) }

// Locate finds the coordinate of county (given without the word "county")
// in the state with the given initials. Matching is case-insensitive.
// The boolean is false when no reference row matches.
func (g *GeoIndex) Locate(stateInitials, county string) (Coordinate, bool) {
	name := strings.ToLower(county) + countySuffix
	for _, r := range g.records {
		if strings.ToLower(r.Name) != name {
			continue
		}
		if strings.EqualFold(r.State, stateInitials) {
			return Coordinate{Lat: r.Lat, Lon: r.Lon}, true
		}
	}
	return Coordinate{}, false
}

// withRecords returns a new index with extra rows appended after the
// existing ones, so original rows still win on duplicates.
func (g *GeoIndex) withRecords(extra []GeoRecord) *GeoIndex {
	rs := make([]GeoRecord, 0, len(g.records)+len(extra))
	rs = append(rs, g.records...)
	rs = append(rs, extra...)
	return &GeoIndex{records: rs}
}
