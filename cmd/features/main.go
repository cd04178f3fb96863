// Command features reports how the survey years of a manifest reconcile:
// the qualifying feature count per year and, for every feature shared by all
// years, its column label in each year.
//
// Usage:
//
//	go run ./cmd/features -manifest data/manifest.yaml
//	go run ./cmd/features -manifest data/manifest.yaml -include-geography -tables
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/couchcryptid/opioid-sample-etl/internal/adapter/tabular"
	"github.com/couchcryptid/opioid-sample-etl/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	manifestPath := flag.String("manifest", "", "path to the input manifest")
	includeGeo := flag.Bool("include-geography", false, "prepend the geography feature (overrides the manifest when set)")
	tables := flag.Bool("tables", false, "also build the table-set index and check it agrees")
	flag.Parse()

	if *manifestPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -manifest")
	}

	manifest, err := tabular.LoadManifest(*manifestPath)
	if err != nil {
		return err
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	ds, err := tabular.NewSource(manifest, quiet).Extract(context.Background())
	if err != nil {
		return err
	}

	opts := domain.IndexOptions{IncludeGeography: ds.IncludeGeography || *includeGeo}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "YEAR\tCOLUMNS\tCOUNTIES\tQUALIFYING")
	for _, y := range ds.Years {
		labels, err := domain.ExtractFeatures(y.Survey, y.Metadata)
		if err != nil {
			return fmt.Errorf("year %d: %w", y.Year, err)
		}
		// ExtractFeatures always leads with the geography label.
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\n", y.Year, len(y.Survey.Columns), y.Survey.NumRows()-1, len(labels)-1)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	features, err := domain.BuildUniversalIndex(ds.Years, opts)
	if err != nil {
		return fmt.Errorf("build universal index: %w", err)
	}
	fmt.Printf("\n%d universal features\n\n", features.Len())

	years := features.Years()
	header := "FEATURE"
	for _, y := range years {
		header += "\t" + strconv.Itoa(y)
	}
	fmt.Fprintln(w, header)
	for _, desc := range features.Descriptions() {
		byYear, _ := features.Labels(desc)
		line := desc
		for _, y := range years {
			line += "\t" + byYear[y]
		}
		fmt.Fprintln(w, line)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if *tables {
		if err := checkTableSet(ds, opts, features); err != nil {
			return err
		}
		fmt.Println("\ntable-set index agrees with the universal index")
	}

	printStates(ds)
	return nil
}

// checkTableSet rebuilds the index over the bare table pairs and compares.
func checkTableSet(ds domain.Dataset, opts domain.IndexOptions, features *domain.UniversalFeatureMap) error {
	pairs := make([]domain.TablePair, len(ds.Years))
	for i, y := range ds.Years {
		pairs[i] = domain.TablePair{Survey: y.Survey, Metadata: y.Metadata}
	}
	set, err := domain.BuildTableSetIndex(pairs, opts)
	if err != nil {
		return fmt.Errorf("build table-set index: %w", err)
	}
	if set.Len() != features.Len() {
		return fmt.Errorf("table-set index has %d features, universal index has %d", set.Len(), features.Len())
	}
	for _, desc := range features.Descriptions() {
		seq, _ := set.Labels(desc)
		for i, y := range ds.Years {
			want, _ := features.Label(desc, y.Year)
			if seq[i] != want {
				return fmt.Errorf("feature %q year %d: table-set label %q, universal label %q", desc, y.Year, seq[i], want)
			}
		}
	}
	return nil
}

// printStates lists the counties each year covers per catalog state.
func printStates(ds domain.Dataset) {
	counts := make(map[string]int)
	var order []string
	for _, y := range ds.Years {
		for r := 1; r < y.Survey.NumRows(); r++ {
			label, _ := y.Survey.Cell(r, domain.GeographyLabel)
			unit, err := domain.ParseGeography(label, ds.States)
			if err != nil {
				fmt.Printf("year %d row %d: %v\n", y.Year, r, err)
				continue
			}
			if _, seen := counts[unit.StateInitials]; !seen {
				order = append(order, unit.StateInitials)
			}
			counts[unit.StateInitials]++
		}
	}

	fmt.Println()
	for _, in := range order {
		name, _ := ds.States.Name(in)
		fmt.Printf("%-16s %-3s %d county-years\n", name, in, counts[in])
	}
}
