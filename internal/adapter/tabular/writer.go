package tabular

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/opioid-sample-etl/internal/domain"
)

// Leading row-label columns in the CSV output.
const (
	yearColumn      = "year"
	geographyColumn = "geography"
)

// CSVWriter writes the sample matrix to a file.
// It implements pipeline.Loader.
type CSVWriter struct {
	path   string
	logger *slog.Logger
}

// NewCSVWriter creates a writer for path. The file is replaced atomically.
func NewCSVWriter(path string, logger *slog.Logger) *CSVWriter {
	return &CSVWriter{path: path, logger: logger}
}

// Name identifies the sink in metrics and logs.
func (w *CSVWriter) Name() string { return "csv" }

// LoadSample writes s to a temporary file beside the destination and
// renames it into place.
func (w *CSVWriter) LoadSample(ctx context.Context, s *domain.SampleMatrix, _ time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".sample-*.csv")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if err := WriteSample(tmp, s); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp output: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("replace output: %w", err)
	}

	w.logger.Info("sample written", "path", w.path, "rows", s.Rows(), "columns", s.Cols())
	return nil
}

// WriteSample emits a header of year, geography and the matrix columns,
// then one line per sample row.
func WriteSample(out io.Writer, s *domain.SampleMatrix) error {
	cw := csv.NewWriter(out)

	header := append([]string{yearColumn, geographyColumn}, s.Columns()...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(header))
	for i := 0; i < s.Rows(); i++ {
		key := s.Key(i)
		record[0] = strconv.Itoa(key.Year)
		record[1] = key.Label
		for j, v := range s.Row(i) {
			record[2+j] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush sample: %w", err)
	}
	return nil
}
