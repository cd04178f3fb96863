// Command validate checks an assembled sample CSV against the manifest it
// was built from. It verifies row count and order, column layout, coordinate
// ranges, and that every drug-report column matches a direct lookup of the
// NFLIS records.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -manifest data/manifest.yaml \
//	  -sample data/sample.csv \
//	  -missing -999
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"strconv"

	"github.com/couchcryptid/opioid-sample-etl/internal/adapter/tabular"
	"github.com/couchcryptid/opioid-sample-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// sampleFile is a parsed sample CSV.
type sampleFile struct {
	header []string
	rows   [][]string
}

func main() {
	manifestPath := flag.String("manifest", "", "path to the manifest the sample was assembled from")
	samplePath := flag.String("sample", "", "path to the assembled sample CSV")
	missing := flag.Float64("missing", domain.DefaultMissingValue, "missing-value sentinel used during assembly")
	flag.Parse()

	if *manifestPath == "" || *samplePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*manifestPath, *samplePath, *missing); code != 0 {
		os.Exit(code)
	}
}

func run(manifestPath, samplePath string, missing float64) int {
	fmt.Println("=== Opioid Sample Integrity Validation ===")
	fmt.Println()

	manifest, err := tabular.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load manifest: %v\n", err)
		return 1
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	ds, err := tabular.NewSource(manifest, quiet).Extract(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load inputs: %v\n", err)
		return 1
	}

	features, err := domain.BuildUniversalIndex(ds.Years, domain.IndexOptions{IncludeGeography: ds.IncludeGeography})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: build feature index: %v\n", err)
		return 1
	}

	sample, err := loadSample(samplePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load sample: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRows(sample, ds),
		validateLayout(sample, features, ds.Substances),
		validateCoordinates(sample, missing),
		validateDrugReports(sample, features, ds),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Sample: %d rows, %d columns (%d features, %d substances) over %d years\n",
		len(sample.rows), len(sample.header), len(sampleFeatures(features)), ds.Substances.Len(), len(ds.Years))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadSample(path string) (*sampleFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	return &sampleFile{header: all[0], rows: all[1:]}, nil
}

// sampleFeatures lists the feature columns of a sample. The geography
// feature is carried by the geography column, not a numeric one.
func sampleFeatures(features *domain.UniversalFeatureMap) []string {
	var out []string
	for _, d := range features.Descriptions() {
		if d != domain.GeographyDescription {
			out = append(out, d)
		}
	}
	return out
}

// ── Phase 1: Rows ──
// One row per survey data row, in year order then table order.

func validateRows(s *sampleFile, ds domain.Dataset) *phase {
	p := &phase{name: "Phase 1: Rows (count and order)"}

	want := 0
	for _, y := range ds.Years {
		want += y.Survey.NumRows() - 1
	}
	if len(s.rows) != want {
		p.errorf("sample has %d rows, surveys have %d data rows", len(s.rows), want)
		return p
	}

	i := 0
	for _, y := range ds.Years {
		for r := 1; r < y.Survey.NumRows(); r++ {
			line := s.rows[i]
			i++
			if len(line) < 2 {
				p.errorf("line %d: too few fields", i+1)
				continue
			}
			if line[0] != strconv.Itoa(y.Year) {
				p.errorf("line %d: year=%q, want %d", i+1, line[0], y.Year)
			}
			label, _ := y.Survey.Cell(r, domain.GeographyLabel)
			if line[1] != label {
				p.errorf("line %d: geography=%q, want %q", i+1, line[1], label)
			}
		}
	}
	return p
}

// ── Phase 2: Layout ──
// year, geography, latitude, longitude, features..., substances...

func validateLayout(s *sampleFile, features *domain.UniversalFeatureMap, substances *domain.SubstanceIndex) *phase {
	p := &phase{name: "Phase 2: Column Layout"}

	want := []string{"year", "geography", domain.LatitudeColumn, domain.LongitudeColumn}
	want = append(want, sampleFeatures(features)...)
	want = append(want, substances.Names()...)

	if !slices.Equal(s.header, want) {
		p.errorf("header has %d columns, want %d", len(s.header), len(want))
		for j := range min(len(s.header), len(want)) {
			if s.header[j] != want[j] {
				p.errorf("first mismatch at column %d: %q, want %q", j, s.header[j], want[j])
				break
			}
		}
	}
	for i, line := range s.rows {
		if len(line) != len(want) {
			p.errorf("line %d: %d fields, want %d", i+2, len(line), len(want))
		}
	}
	return p
}

// ── Phase 3: Coordinates ──
// Each coordinate is in range or is the missing sentinel for both axes.

func validateCoordinates(s *sampleFile, missing float64) *phase {
	p := &phase{name: "Phase 3: Coordinates"}

	for i, line := range s.rows {
		if len(line) < 4 {
			continue
		}
		lat, errLat := strconv.ParseFloat(line[2], 64)
		lon, errLon := strconv.ParseFloat(line[3], 64)
		if errLat != nil || errLon != nil {
			p.errorf("line %d: non-numeric coordinate %q, %q", i+2, line[2], line[3])
			continue
		}
		if lat == missing || lon == missing {
			if lat != lon {
				p.errorf("line %d: only one axis is missing (%v, %v)", i+2, lat, lon)
			}
			continue
		}
		if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
			p.errorf("line %d: coordinate out of range (%v, %v)", i+2, lat, lon)
		}
	}
	return p
}

// ── Phase 4: Drug Reports ──
// Substance columns are non-negative integers equal to a direct lookup.

func validateDrugReports(s *sampleFile, features *domain.UniversalFeatureMap, ds domain.Dataset) *phase {
	p := &phase{name: "Phase 4: Drug Reports (NFLIS cross-check)"}

	offset := 4 + len(sampleFeatures(features))
	names := ds.Substances.Names()
	agg, err := domain.NewDrugAggregator(ds.Reports, ds.Substances)
	if err != nil {
		p.errorf("build drug matrix: %v", err)
		return p
	}

	for i, line := range s.rows {
		if len(line) != offset+len(names) {
			continue
		}
		year, err := strconv.Atoi(line[0])
		if err != nil {
			p.errorf("line %d: year %q: %v", i+2, line[0], err)
			continue
		}
		unit, err := domain.ParseGeography(line[1], ds.States)
		if err != nil {
			p.errorf("line %d: %v", i+2, err)
			continue
		}

		vec, byName := agg.Identify(year, unit.StateInitials, unit.County)
		for j, name := range names {
			cell := line[offset+j]
			n, err := strconv.Atoi(cell)
			if err != nil || n < 0 {
				p.errorf("line %d: %s=%q is not a non-negative integer", i+2, name, cell)
				continue
			}
			if n != vec[j] || n != byName[name] {
				p.errorf("line %d: %s=%d, NFLIS has %d", i+2, name, n, byName[name])
			}
		}
	}
	return p
}
