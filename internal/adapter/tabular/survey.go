package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/opioid-sample-etl/internal/domain"
)

const utf8BOM = "\ufeff"

// ReadSurvey parses an ACS table export: a header line of column labels, the
// description row, then one row per county.
func ReadSurvey(r io.Reader) (*domain.SurveyTable, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read survey csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("survey csv is empty")
	}

	header := records[0]
	header[0] = strings.TrimPrefix(header[0], utf8BOM)
	return domain.NewSurveyTable(header, records[1:])
}

// ReadMetadata parses an ACS metadata export of (label, description) pairs.
// The first line is itself the GEO.id pair and is treated as the header.
func ReadMetadata(r io.Reader) (domain.MetadataTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return domain.MetadataTable{}, fmt.Errorf("read metadata csv: %w", err)
	}
	if len(records) == 0 {
		return domain.MetadataTable{}, errors.New("metadata csv is empty")
	}

	var meta domain.MetadataTable
	for i, rec := range records[1:] {
		if len(rec) < 2 {
			return domain.MetadataTable{}, fmt.Errorf("metadata line %d: want 2 fields, got %d", i+2, len(rec))
		}
		meta.Entries = append(meta.Entries, domain.MetadataEntry{ID: rec[0], Label: rec[1]})
	}
	return meta, nil
}

// LoadSurvey reads a survey table from path.
func LoadSurvey(path string) (*domain.SurveyTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open survey: %w", err)
	}
	defer f.Close()

	t, err := ReadSurvey(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadMetadata reads a metadata table from path.
func LoadMetadata(path string) (domain.MetadataTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.MetadataTable{}, fmt.Errorf("open metadata: %w", err)
	}
	defer f.Close()

	m, err := ReadMetadata(f)
	if err != nil {
		return domain.MetadataTable{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
