package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/opioid-sample-etl/internal/domain"
)

// Gazetteer columns. Header names carry trailing padding in the Census
// file and are trimmed before lookup.
const (
	gazState = "USPS"
	gazName  = "NAME"
	gazLat   = "INTPTLAT"
	gazLon   = "INTPTLONG"
)

// ReadGazetteer parses a tab-separated Census county gazetteer.
func ReadGazetteer(r io.Reader) ([]domain.GeoRecord, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("gazetteer is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read gazetteer header: %w", err)
	}

	idx, err := columnIndex(header, gazState, gazName, gazLat, gazLon)
	if err != nil {
		return nil, fmt.Errorf("gazetteer: %w", err)
	}

	var records []domain.GeoRecord
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gazetteer line %d: %w", line, err)
		}

		lat, err := parseCoordinate(field(rec, idx[gazLat]))
		if err != nil {
			return nil, fmt.Errorf("gazetteer line %d: %s: %w", line, gazLat, err)
		}
		lon, err := parseCoordinate(field(rec, idx[gazLon]))
		if err != nil {
			return nil, fmt.Errorf("gazetteer line %d: %s: %w", line, gazLon, err)
		}

		records = append(records, domain.GeoRecord{
			Name:  strings.TrimSpace(field(rec, idx[gazName])),
			State: strings.TrimSpace(field(rec, idx[gazState])),
			Lat:   lat,
			Lon:   lon,
		})
	}
	return records, nil
}

// LoadGazetteer reads a gazetteer from path.
func LoadGazetteer(path string) ([]domain.GeoRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gazetteer: %w", err)
	}
	defer f.Close()

	records, err := ReadGazetteer(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func parseCoordinate(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// columnIndex maps each wanted column to its position in a header whose
// names are whitespace-trimmed first.
func columnIndex(header []string, want ...string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	idx := make(map[string]int, len(want))
	for _, w := range want {
		i, ok := pos[w]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrMissingColumn, w)
		}
		idx[w] = i
	}
	return idx, nil
}

// field returns rec[i], or "" when the row is shorter than the header.
func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}
