package domain

import (
	"errors"
	"fmt"
)

// Caller-input errors. Each one means the data contradicts an invariant the
// pipeline relies on, so assembly stops instead of defaulting.
var (
	ErrNoTables          = errors.New("no survey tables")
	ErrMissingColumn     = errors.New("column not found")
	ErrMalformedLabel    = errors.New("malformed column label")
	ErrUnresolvedFeature = errors.New("feature description not found")
	ErrUnknownSubstance  = errors.New("unknown substance")
	ErrGeographyFormat   = errors.New("unparseable geography label")
	ErrUnknownState      = errors.New("unknown state")
	ErrCatalog           = errors.New("invalid catalog")
	ErrMissingValue      = errors.New("invalid missing value")
)

// RowError pins a failure to one row of one year's survey table.
type RowError struct {
	Year  int
	Row   int // index into the survey table, description row = 0
	Value string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("year %d row %d (%q): %v", e.Year, e.Row, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
