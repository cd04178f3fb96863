package domain

import "fmt"

// GeographyDescription is the row-0 description census tables give the
// GeographyLabel column.
const GeographyDescription = "Geography"

// IndexOptions tunes universal feature indexing.
type IndexOptions struct {
	// IncludeGeography prepends GeographyDescription to the feature list.
	// Its per-year label is resolved by the same row-0 scan as every other
	// feature, so a table whose row 0 lacks "Geography" fails the build.
	IncludeGeography bool
}

// TablePair is a survey with its metadata, without a year key.
type TablePair struct {
	Survey   *SurveyTable
	Metadata MetadataTable
}

// UniversalFeatureMap maps each feature description present in every year to
// that year's column label. Descriptions iterate in the order they first
// appear among the first year's qualifying features.
type UniversalFeatureMap struct {
	descriptions []string
	years        []int
	labels       map[string]map[int]string
}

// BuildUniversalIndex runs ExtractFeatures over every year, intersects the
// description sets, and resolves each surviving description to a label per
// year. Descriptions are joined by exact byte equality; no whitespace or case
// normalization is applied.
func BuildUniversalIndex(years []YearTables, opts IndexOptions) (*UniversalFeatureMap, error) {
	pairs := make([]TablePair, len(years))
	seen := make(map[int]struct{}, len(years))
	for i, y := range years {
		if _, dup := seen[y.Year]; dup {
			return nil, fmt.Errorf("duplicate year %d", y.Year)
		}
		seen[y.Year] = struct{}{}
		pairs[i] = TablePair{Survey: y.Survey, Metadata: y.Metadata}
	}

	descs, err := universalDescriptions(pairs, opts)
	if err != nil {
		return nil, err
	}

	m := &UniversalFeatureMap{
		descriptions: descs,
		years:        make([]int, len(years)),
		labels:       make(map[string]map[int]string, len(descs)),
	}
	for i, y := range years {
		m.years[i] = y.Year
	}
	for _, desc := range descs {
		byYear := make(map[int]string, len(years))
		for _, y := range years {
			label, ok := y.Survey.LabelForDescription(desc)
			if !ok {
				return nil, fmt.Errorf("year %d: %w: %q", y.Year, ErrUnresolvedFeature, desc)
			}
			byYear[y.Year] = label
		}
		m.labels[desc] = byYear
	}
	return m, nil
}

// Len is the number of universal features.
func (m *UniversalFeatureMap) Len() int { return len(m.descriptions) }

// Descriptions returns the feature descriptions in iteration order.
func (m *UniversalFeatureMap) Descriptions() []string {
	out := make([]string, len(m.descriptions))
	copy(out, m.descriptions)
	return out
}

// Years returns the years the map was built from, in input order.
func (m *UniversalFeatureMap) Years() []int {
	out := make([]int, len(m.years))
	copy(out, m.years)
	return out
}

// Label resolves a feature to its column label in one year.
func (m *UniversalFeatureMap) Label(desc string, year int) (string, error) {
	byYear, ok := m.labels[desc]
	if !ok {
		return "", fmt.Errorf("%w: %q is not a universal feature", ErrUnresolvedFeature, desc)
	}
	label, ok := byYear[year]
	if !ok {
		return "", fmt.Errorf("%w: %q has no label for year %d", ErrUnresolvedFeature, desc, year)
	}
	return label, nil
}

// Labels returns a copy of the year → label mapping of one feature.
func (m *UniversalFeatureMap) Labels(desc string) (map[int]string, bool) {
	byYear, ok := m.labels[desc]
	if !ok {
		return nil, false
	}
	out := make(map[int]string, len(byYear))
	for y, l := range byYear {
		out[y] = l
	}
	return out, true
}

// TableSetFeatureMap is the fixed-table-set variant of UniversalFeatureMap:
// each description maps to one label per input table, in input order.
type TableSetFeatureMap struct {
	descriptions []string
	labels       map[string][]string
}

// BuildTableSetIndex is BuildUniversalIndex over an ordered list of tables.
func BuildTableSetIndex(pairs []TablePair, opts IndexOptions) (*TableSetFeatureMap, error) {
	descs, err := universalDescriptions(pairs, opts)
	if err != nil {
		return nil, err
	}

	m := &TableSetFeatureMap{
		descriptions: descs,
		labels:       make(map[string][]string, len(descs)),
	}
	for _, desc := range descs {
		seq := make([]string, len(pairs))
		for i, p := range pairs {
			label, ok := p.Survey.LabelForDescription(desc)
			if !ok {
				return nil, fmt.Errorf("table %d: %w: %q", i, ErrUnresolvedFeature, desc)
			}
			seq[i] = label
		}
		m.labels[desc] = seq
	}
	return m, nil
}

// Len is the number of universal features.
func (m *TableSetFeatureMap) Len() int { return len(m.descriptions) }

// Descriptions returns the feature descriptions in iteration order.
func (m *TableSetFeatureMap) Descriptions() []string {
	out := make([]string, len(m.descriptions))
	copy(out, m.descriptions)
	return out
}

// Labels returns one label per input table for a feature.
func (m *TableSetFeatureMap) Labels(desc string) ([]string, bool) {
	seq, ok := m.labels[desc]
	if !ok {
		return nil, false
	}
	out := make([]string, len(seq))
	copy(out, seq)
	return out, true
}

// universalDescriptions returns the descriptions shared by every table's
// qualifying features, ordered by first appearance in the first table.
func universalDescriptions(pairs []TablePair, opts IndexOptions) ([]string, error) {
	if len(pairs) == 0 {
		return nil, ErrNoTables
	}

	perTable := make([]map[string]string, len(pairs))
	var firstOrder []string
	for i, p := range pairs {
		descToLabel, order, err := describeFeatures(p)
		if err != nil {
			return nil, fmt.Errorf("table %d: %w", i, err)
		}
		perTable[i] = descToLabel
		if i == 0 {
			firstOrder = order
		}
	}

	var descs []string
	if opts.IncludeGeography {
		descs = append(descs, GeographyDescription)
	}
	for _, desc := range firstOrder {
		if opts.IncludeGeography && desc == GeographyDescription {
			continue
		}
		shared := true
		for _, other := range perTable[1:] {
			if _, ok := other[desc]; !ok {
				shared = false
				break
			}
		}
		if shared {
			descs = append(descs, desc)
		}
	}
	return descs, nil
}

// describeFeatures maps each qualifying feature's description to its label.
// Later columns with the same description overwrite earlier ones; order lists
// each description once, at its first appearance.
func describeFeatures(p TablePair) (map[string]string, []string, error) {
	labels, err := ExtractFeatures(p.Survey, p.Metadata)
	if err != nil {
		return nil, nil, err
	}

	descToLabel := make(map[string]string, len(labels)-1)
	order := make([]string, 0, len(labels)-1)
	for _, label := range labels[1:] {
		desc, err := p.Survey.Description(label)
		if err != nil {
			return nil, nil, err
		}
		if _, seen := descToLabel[desc]; !seen {
			order = append(order, desc)
		}
		descToLabel[desc] = label
	}
	return descToLabel, order, nil
}
