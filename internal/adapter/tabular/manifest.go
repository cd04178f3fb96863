package tabular

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/opioid-sample-etl/internal/domain"
	"gopkg.in/yaml.v3"
)

// Manifest lists the input files of one assembly run.
type Manifest struct {
	Years            []YearSource      `yaml:"years"`
	DrugReports      string            `yaml:"drug_reports"`
	DrugSheet        string            `yaml:"drug_sheet"`
	GeoReference     string            `yaml:"geo_reference"`
	IncludeGeography bool              `yaml:"include_geography"`
	Substances       []string          `yaml:"substances"`
	States           map[string]string `yaml:"states"` // full name -> initials
}

// YearSource is one survey year's table pair.
type YearSource struct {
	Year     int    `yaml:"year"`
	Survey   string `yaml:"survey"`
	Metadata string `yaml:"metadata"`
}

// LoadManifest reads a YAML manifest. Relative paths in it resolve against
// the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes and validates a manifest, resolving relative paths
// against baseDir and sorting years ascending. Unknown keys are rejected.
func ParseManifest(data []byte, baseDir string) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}

	sort.SliceStable(m.Years, func(i, j int) bool { return m.Years[i].Year < m.Years[j].Year })
	for i := range m.Years {
		m.Years[i].Survey = resolve(baseDir, m.Years[i].Survey)
		m.Years[i].Metadata = resolve(baseDir, m.Years[i].Metadata)
	}
	m.DrugReports = resolve(baseDir, m.DrugReports)
	m.GeoReference = resolve(baseDir, m.GeoReference)
	return &m, nil
}

func (m *Manifest) validate() error {
	if len(m.Years) == 0 {
		return fmt.Errorf("manifest: %w", domain.ErrNoTables)
	}
	seen := make(map[int]struct{}, len(m.Years))
	for _, y := range m.Years {
		if y.Survey == "" || y.Metadata == "" {
			return fmt.Errorf("manifest: year %d: survey and metadata are required", y.Year)
		}
		if _, dup := seen[y.Year]; dup {
			return fmt.Errorf("manifest: duplicate year %d", y.Year)
		}
		seen[y.Year] = struct{}{}
	}
	if m.DrugReports == "" {
		return errors.New("manifest: drug_reports is required")
	}
	if m.GeoReference == "" {
		return errors.New("manifest: geo_reference is required")
	}
	return nil
}

// StateCatalog returns the manifest's state bijection, or the default
// five-state catalog when none is listed.
func (m *Manifest) StateCatalog() (*domain.StateCatalog, error) {
	if len(m.States) == 0 {
		return domain.DefaultStates(), nil
	}
	return domain.NewStateCatalog(m.States)
}

// SubstanceCatalog returns the manifest's substance list, or one derived
// from reports in first-seen order when none is listed.
func (m *Manifest) SubstanceCatalog(reports []domain.DrugReport) (*domain.SubstanceIndex, error) {
	if len(m.Substances) > 0 {
		return domain.NewSubstanceIndex(m.Substances)
	}
	return domain.SubstancesFromReports(reports)
}

func resolve(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
