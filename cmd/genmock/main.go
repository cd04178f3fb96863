// Command genmock writes a deterministic synthetic input set: one ACS survey
// and metadata CSV per year, a Census gazetteer, an NFLIS workbook, and the
// manifest tying them together. Column labels drift between years while
// descriptions stay fixed, one feature exists only in later years, and one
// county is left out of the gazetteer, so the output exercises every
// reconciliation path of the assembler.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -years 2014,2015,2016 -seed 42
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/opioid-sample-etl/internal/adapter/tabular"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

type county struct {
	name     string
	state    string // full name
	initials string
	fips     string
	lat, lon float64
	geocoded bool // listed in the gazetteer
}

var counties = []county{
	{"Jefferson", "Kentucky", "KY", "21111", 38.189468, -85.657690, true},
	{"Pike", "Kentucky", "KY", "21195", 37.469749, -82.395580, true},
	{"Fayette", "Kentucky", "KY", "21067", 38.040157, -84.458443, true},
	{"Franklin", "Ohio", "OH", "39049", 39.969447, -83.008258, true},
	{"Scioto", "Ohio", "OH", "39145", 38.815417, -82.999360, false},
	{"Allegheny", "Pennsylvania", "PA", "42003", 40.467355, -79.986198, true},
	{"Wise", "Virginia", "VA", "51195", 36.976050, -82.575650, true},
	{"Cabell", "West Virginia", "WV", "54011", 38.420315, -82.243340, true},
	{"Jefferson", "West Virginia", "WV", "54037", 39.307377, -77.863284, true},
}

type featureDef struct {
	desc      string
	base      int
	fromYear  int  // first year the table carries it; 0 means always
	fractions bool // first value has decimals and fails the integer check
}

var featureDefs = []featureDef{
	{desc: "HOUSEHOLDS BY TYPE - Total households", base: 120000},
	{desc: "INCOME AND BENEFITS - Median household income (dollars)", base: 45000},
	{desc: "EMPLOYMENT STATUS - Population 16 years and over - In labor force", base: 150000},
	{desc: "VETERAN STATUS - Civilian veterans", base: 9000},
	{desc: "COMMUTING TO WORK - Mean travel time to work (minutes)", base: 24, fractions: true},
	{desc: "COMPUTERS AND INTERNET USE - With a broadband Internet subscription", base: 80000, fromYear: 2016},
}

var substances = []string{"Heroin", "Fentanyl", "Oxycodone", "Hydrocodone", "Buprenorphine", "Morphine"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory for the generated inputs")
	yearsFlag := flag.String("years", "2014,2015,2016", "comma-separated survey years")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	years, err := parseYears(*yearsFlag)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	manifest := tabular.Manifest{
		DrugReports:  "nflis.xlsx",
		GeoReference: "gazetteer.txt",
	}

	for i, year := range years {
		survey := fmt.Sprintf("survey_%d.csv", year)
		metadata := fmt.Sprintf("metadata_%d.csv", year)
		header, descs := surveyColumns(year, i)

		if err := writeCSV(filepath.Join(*outDir, survey), surveyRows(rng, header, descs, year)); err != nil {
			return fmt.Errorf("writing %s: %w", survey, err)
		}
		if err := writeCSV(filepath.Join(*outDir, metadata), metadataRows(header, descs)); err != nil {
			return fmt.Errorf("writing %s: %w", metadata, err)
		}
		manifest.Years = append(manifest.Years, tabular.YearSource{Year: year, Survey: survey, Metadata: metadata})
		log.Printf("%d: %d columns, %d counties", year, len(header), len(counties))
	}

	if err := writeGazetteer(filepath.Join(*outDir, manifest.GeoReference)); err != nil {
		return fmt.Errorf("writing gazetteer: %w", err)
	}
	n, err := writeDrugReports(rng, filepath.Join(*outDir, manifest.DrugReports), years)
	if err != nil {
		return fmt.Errorf("writing drug reports: %w", err)
	}
	log.Printf("nflis: %d records", n)

	data, err := yaml.Marshal(&manifest)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	path := filepath.Join(*outDir, "manifest.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	log.Printf("wrote manifest: %s", path)
	return nil
}

func parseYears(s string) ([]int, error) {
	var years []int
	for _, part := range strings.Split(s, ",") {
		y, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid year %q: %w", part, err)
		}
		years = append(years, y)
	}
	return years, nil
}

// surveyColumns lays out the geography fields then, per feature, an
// estimate, its margin of error and a percent column. Variable numbers shift
// by the year's position so labels drift while descriptions stay fixed.
func surveyColumns(year, shift int) (header, descs []string) {
	header = []string{"GEO.id", "GEO.id2", "GEO.display-label"}
	descs = []string{"Id", "Id2", "Geography"}

	for k, f := range featureDefs {
		if f.fromYear != 0 && year < f.fromYear {
			continue
		}
		vc := 3 + 2*k + shift
		header = append(header,
			fmt.Sprintf("HC01_VC%02d", vc),
			fmt.Sprintf("HC02_VC%02d", vc),
			fmt.Sprintf("HC03_VC%02d", vc),
		)
		descs = append(descs,
			"Estimate; "+f.desc,
			"Margin of Error; "+f.desc,
			"Percent; "+f.desc,
		)
	}
	return header, descs
}

func surveyRows(rng *rand.Rand, header, descs []string, year int) [][]string {
	rows := [][]string{header, descs}
	for i, c := range counties {
		row := []string{
			"0500000US" + c.fips,
			c.fips,
			fmt.Sprintf("%s County, %s", c.name, c.state),
		}
		for _, f := range featureDefs {
			if f.fromYear != 0 && year < f.fromYear {
				continue
			}
			scale := 0.5 + rng.Float64()
			estimate := strconv.Itoa(int(float64(f.base) * scale))
			if f.fractions {
				estimate = strconv.FormatFloat(float64(f.base)*scale, 'f', 1, 64)
			}
			// Suppressed cells never land on the first data row, which
			// decides a column's type.
			if i > 0 && rng.IntN(20) == 0 {
				estimate = "(X)"
			}
			row = append(row,
				estimate,
				strconv.Itoa(rng.IntN(f.base/10+1)),
				strconv.FormatFloat(100*rng.Float64(), 'f', 1, 64),
			)
		}
		rows = append(rows, row)
	}
	return rows
}

func metadataRows(header, descs []string) [][]string {
	rows := make([][]string, 0, len(header))
	for i := range header {
		rows = append(rows, []string{header[i], descs[i]})
	}
	return rows
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

func writeGazetteer(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'
	rows := [][]string{{"USPS", "GEOID", "NAME", "INTPTLAT", "INTPTLONG"}}
	for _, c := range counties {
		if !c.geocoded {
			continue
		}
		rows = append(rows, []string{
			c.initials,
			c.fips,
			c.name + " County",
			strconv.FormatFloat(c.lat, 'f', 6, 64),
			strconv.FormatFloat(c.lon, 'f', 6, 64),
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}

// writeDrugReports emits NFLIS-style rows with upper-case county names. Some
// county-years get no rows and some substances repeat within a county-year.
func writeDrugReports(rng *rand.Rand, path string, years []int) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	header := []any{"YYYY", "State", "COUNTY", "FIPS_State", "FIPS_County", "SubstanceName", "DrugReports"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return 0, err
	}

	n := 0
	for _, year := range years {
		for _, c := range counties {
			if rng.IntN(8) == 0 {
				continue
			}
			for _, s := range substances {
				repeats := rng.IntN(3)
				for range repeats {
					row := []any{year, c.initials, strings.ToUpper(c.name), c.fips[:2], c.fips[2:], s, 1 + rng.IntN(60)}
					cell, err := excelize.CoordinatesToCellName(1, n+2)
					if err != nil {
						return 0, err
					}
					if err := f.SetSheetRow(sheet, cell, &row); err != nil {
						return 0, err
					}
					n++
				}
			}
		}
	}

	return n, f.SaveAs(path)
}
