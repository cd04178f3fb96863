package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gazetteer() []GeoRecord {
	return []GeoRecord{
		{Name: "Jefferson County", State: "KY", Lat: 38.2, Lon: -85.7},
		{Name: "Jefferson County", State: "WV", Lat: 39.3, Lon: -77.9},
		{Name: "Adams County", State: "OH", Lat: 38.8, Lon: -83.5},
		{Name: "Adams County", State: "OH", Lat: 0, Lon: 0},
	}
}

func TestGeoIndex_Locate(t *testing.T) {
	geo := NewGeoIndex(gazetteer())

	tests := []struct {
		name     string
		state    string
		county   string
		expected Coordinate
		found    bool
	}{
		{"exact", "ky", "Jefferson", Coordinate{Lat: 38.2, Lon: -85.7}, true},
		{"case-insensitive state and county", "KY", "JEFFERSON", Coordinate{Lat: 38.2, Lon: -85.7}, true},
		{"same name other state", "wv", "jefferson", Coordinate{Lat: 39.3, Lon: -77.9}, true},
		{"state filter excludes", "oh", "Jefferson", Coordinate{}, false},
		{"unknown county", "ky", "Nowhere", Coordinate{}, false},
		{"county word must not be repeated", "ky", "Jefferson County", Coordinate{}, false},
		{"first duplicate wins", "oh", "Adams", Coordinate{Lat: 38.8, Lon: -83.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coord, ok := geo.Locate(tt.state, tt.county)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, coord)
		})
	}
}

func TestGeoIndex_EveryReferenceRowIsLocatable(t *testing.T) {
	records := gazetteer()[:3]
	geo := NewGeoIndex(records)

	for _, r := range records {
		coord, ok := geo.Locate(r.State, r.Name[:len(r.Name)-len(" County")])
		require.True(t, ok, r.Name)
		assert.Equal(t, Coordinate{Lat: r.Lat, Lon: r.Lon}, coord)
	}
}

func TestGeoIndex_CopiesInput(t *testing.T) {
	records := gazetteer()
	geo := NewGeoIndex(records)
	records[0].Lat = 0

	coord, ok := geo.Locate("ky", "Jefferson")
	require.True(t, ok)
	assert.Equal(t, 38.2, coord.Lat)
	assert.Equal(t, 4, geo.Len())
}

func TestGeoIndex_WithRecordsKeepsReferencePrecedence(t *testing.T) {
	geo := NewGeoIndex(gazetteer()[:1]).withRecords([]GeoRecord{
		{Name: "Jefferson County", State: "KY", Lat: 1, Lon: 1},
		{Name: "Pike County", State: "KY", Lat: 37.5, Lon: -82.4},
	})

	coord, ok := geo.Locate("ky", "Jefferson")
	require.True(t, ok)
	assert.Equal(t, 38.2, coord.Lat)

	coord, ok = geo.Locate("ky", "Pike")
	require.True(t, ok)
	assert.Equal(t, 37.5, coord.Lat)
}
