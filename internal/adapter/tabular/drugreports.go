package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/opioid-sample-etl/internal/domain"
	"github.com/xuri/excelize/v2"
)

// NFLIS extract columns.
const (
	nflisYear      = "YYYY"
	nflisState     = "State"
	nflisCounty    = "COUNTY"
	nflisSubstance = "SubstanceName"
	nflisReports   = "DrugReports"
)

// LoadDrugReports reads the NFLIS extract from an .xlsx workbook or a .csv
// export. sheet selects the workbook sheet; empty means the first one.
func LoadDrugReports(path, sheet string) ([]domain.DrugReport, error) {
	var (
		reports []domain.DrugReport
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		reports, err = loadDrugReportsXLSX(path, sheet)
	case ".csv":
		reports, err = loadDrugReportsCSV(path)
	default:
		return nil, fmt.Errorf("drug reports %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reports, nil
}

// ReadDrugReportsCSV parses a CSV export of the NFLIS extract.
func ReadDrugReportsCSV(r io.Reader) ([]domain.DrugReport, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read drug reports csv: %w", err)
	}
	return parseDrugReports(rows)
}

func loadDrugReportsCSV(path string) ([]domain.DrugReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open drug reports: %w", err)
	}
	defer f.Close()
	return ReadDrugReportsCSV(f)
}

func loadDrugReportsXLSX(path, sheet string) ([]domain.DrugReport, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return parseDrugReports(rows)
}

// parseDrugReports converts a header row plus data rows. Blank rows are
// skipped; trailing empty cells may be missing, as excelize omits them.
func parseDrugReports(rows [][]string) ([]domain.DrugReport, error) {
	if len(rows) == 0 {
		return nil, errors.New("drug reports are empty")
	}

	idx, err := columnIndex(rows[0], nflisYear, nflisState, nflisCounty, nflisSubstance, nflisReports)
	if err != nil {
		return nil, fmt.Errorf("drug reports: %w", err)
	}

	reports := make([]domain.DrugReport, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		line := i + 2

		year, err := strconv.Atoi(strings.TrimSpace(field(row, idx[nflisYear])))
		if err != nil {
			return nil, fmt.Errorf("drug reports row %d: %s: %w", line, nflisYear, err)
		}
		count, err := strconv.Atoi(strings.TrimSpace(field(row, idx[nflisReports])))
		if err != nil {
			return nil, fmt.Errorf("drug reports row %d: %s: %w", line, nflisReports, err)
		}

		reports = append(reports, domain.DrugReport{
			Year:      year,
			State:     strings.TrimSpace(field(row, idx[nflisState])),
			County:    strings.TrimSpace(field(row, idx[nflisCounty])),
			Substance: strings.TrimSpace(field(row, idx[nflisSubstance])),
			Reports:   count,
		})
	}
	return reports, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
