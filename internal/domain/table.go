package domain

import "fmt"

// GeographyLabel is the survey column holding each row's display label,
// e.g. "Jefferson County, Kentucky".
const GeographyLabel = "GEO.display-label"

// SurveyTable is one year of survey data. Rows[0] holds the human-readable
// description of every column; data rows start at index 1.
type SurveyTable struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewSurveyTable builds a table from ordered column labels and rows.
// Short rows are allowed; missing cells read as empty.
func NewSurveyTable(columns []string, rows [][]string) (*SurveyTable, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate column %q", c)
		}
		index[c] = i
	}
	return &SurveyTable{Columns: columns, Rows: rows, index: index}, nil
}

// NumRows counts all rows including the description row.
func (t *SurveyTable) NumRows() int { return len(t.Rows) }

// HasColumn reports whether label is a column of the table.
func (t *SurveyTable) HasColumn(label string) bool {
	_, ok := t.index[label]
	return ok
}

// Cell returns the value at (row, label).
func (t *SurveyTable) Cell(row int, label string) (string, error) {
	col, ok := t.index[label]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingColumn, label)
	}
	if row < 0 || row >= len(t.Rows) {
		return "", fmt.Errorf("row %d out of range [0,%d)", row, len(t.Rows))
	}
	r := t.Rows[row]
	if col >= len(r) {
		return "", nil
	}
	return r[col], nil
}

// Description returns the row-0 description of a column.
func (t *SurveyTable) Description(label string) (string, error) {
	return t.Cell(0, label)
}

// LabelForDescription scans row 0 in column order and returns the first
// column whose description equals desc byte for byte.
func (t *SurveyTable) LabelForDescription(desc string) (string, bool) {
	if len(t.Rows) == 0 {
		return "", false
	}
	for i, v := range t.Rows[0] {
		if i < len(t.Columns) && v == desc {
			return t.Columns[i], true
		}
	}
	return "", false
}

// MetadataEntry is one row of a survey's metadata table.
type MetadataEntry struct {
	ID    string
	Label string
}

// MetadataTable enumerates the candidate column labels of one year's survey.
// It is not used to classify columns.
type MetadataTable struct {
	Entries []MetadataEntry
}

// IDs returns the candidate labels in metadata order.
func (m MetadataTable) IDs() []string {
	ids := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		ids[i] = e.ID
	}
	return ids
}

// YearTables pairs a year's survey with its metadata.
type YearTables struct {
	Year     int
	Survey   *SurveyTable
	Metadata MetadataTable
}

// GeoRecord is one row of the geographic reference table (Census gazetteer).
type GeoRecord struct {
	Name  string // e.g. "Jefferson County"
	State string // USPS initials, e.g. "KY"
	Lat   float64
	Lon   float64
}

// DrugReport is one NFLIS record: reports of a single substance in a county-year.
type DrugReport struct {
	Year      int
	State     string
	County    string
	Substance string
	Reports   int
}

// Dataset is every input a run needs, already materialized in memory.
type Dataset struct {
	Years            []YearTables
	Reports          []DrugReport
	Geo              []GeoRecord
	Substances       *SubstanceIndex
	States           *StateCatalog
	IncludeGeography bool
}
