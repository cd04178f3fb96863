package domain

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustSurvey(t *testing.T, columns []string, rows ...[]string) *SurveyTable {
	t.Helper()
	s, err := NewSurveyTable(columns, rows)
	require.NoError(t, err)
	return s
}

func metaFor(ids ...string) MetadataTable {
	m := MetadataTable{}
	for _, id := range ids {
		m.Entries = append(m.Entries, MetadataEntry{ID: id, Label: id})
	}
	return m
}

// yearTable builds a census-shaped survey. Each feature is (label,
// description); every data row carries the same values.
func yearTable(t *testing.T, year int, features [][2]string, geos []string, values []string) YearTables {
	t.Helper()
	columns := []string{"GEO.id", "GEO.id2", GeographyLabel}
	descs := []string{"Id", "Id2", GeographyDescription}
	ids := []string{"GEO.id2", GeographyLabel}
	for _, f := range features {
		columns = append(columns, f[0])
		descs = append(descs, f[1])
		ids = append(ids, f[0])
	}
	rows := [][]string{descs}
	for _, g := range geos {
		row := []string{"0500000US", "0", g}
		row = append(row, values...)
		rows = append(rows, row)
	}
	return YearTables{Year: year, Survey: mustSurvey(t, columns, rows...), Metadata: metaFor(ids...)}
}
