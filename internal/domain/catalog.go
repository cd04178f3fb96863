package domain

import (
	"fmt"
	"strings"
)

// StateCatalog is an immutable bijection between lowercase full state names
// and lowercase two-letter initials.
type StateCatalog struct {
	toInitials map[string]string
	toName     map[string]string
}

// NewStateCatalog validates that names map one-to-one onto initials.
// Keys and values are lowercased.
func NewStateCatalog(nameToInitials map[string]string) (*StateCatalog, error) {
	c := &StateCatalog{
		toInitials: make(map[string]string, len(nameToInitials)),
		toName:     make(map[string]string, len(nameToInitials)),
	}
	for name, in := range nameToInitials {
		name, in = strings.ToLower(strings.TrimSpace(name)), strings.ToLower(strings.TrimSpace(in))
		if name == "" || in == "" {
			return nil, fmt.Errorf("%w: empty state entry %q -> %q", ErrCatalog, name, in)
		}
		if _, dup := c.toInitials[name]; dup {
			return nil, fmt.Errorf("%w: duplicate state %q", ErrCatalog, name)
		}
		if prev, dup := c.toName[in]; dup {
			return nil, fmt.Errorf("%w: initials %q shared by %q and %q", ErrCatalog, in, prev, name)
		}
		c.toInitials[name] = in
		c.toName[in] = name
	}
	return c, nil
}

// DefaultStates covers the five states in the NFLIS extract.
func DefaultStates() *StateCatalog {
	c, err := NewStateCatalog(map[string]string{
		"kentucky":      "ky",
		"ohio":          "oh",
		"pennsylvania":  "pa",
		"virginia":      "va",
		"west virginia": "wv",
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Initials maps a full state name (any case) to its initials.
func (c *StateCatalog) Initials(name string) (string, bool) {
	in, ok := c.toInitials[strings.ToLower(name)]
	return in, ok
}

// Name maps initials (any case) back to the full state name.
func (c *StateCatalog) Name(initials string) (string, bool) {
	n, ok := c.toName[strings.ToLower(initials)]
	return n, ok
}

// Len is the number of states in the catalog.
func (c *StateCatalog) Len() int { return len(c.toInitials) }

// SubstanceIndex assigns each substance name a fixed zero-based column.
// It defines the column order of every drug-report vector and matrix.
type SubstanceIndex struct {
	names []string
	index map[string]int
}

// NewSubstanceIndex indexes names in the order given. Names are matched
// exactly, so "Heroin" and "heroin" are different substances.
func NewSubstanceIndex(names []string) (*SubstanceIndex, error) {
	idx := &SubstanceIndex{
		names: make([]string, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	for _, n := range names {
		if n == "" {
			return nil, fmt.Errorf("%w: empty substance name", ErrCatalog)
		}
		if _, dup := idx.index[n]; dup {
			return nil, fmt.Errorf("%w: duplicate substance %q", ErrCatalog, n)
		}
		idx.index[n] = len(idx.names)
		idx.names = append(idx.names, n)
	}
	return idx, nil
}

// SubstancesFromReports derives a catalog from the distinct substance names
// of a report table, in first-seen order.
func SubstancesFromReports(reports []DrugReport) (*SubstanceIndex, error) {
	seen := make(map[string]struct{})
	var names []string
	for _, r := range reports {
		if _, ok := seen[r.Substance]; ok {
			continue
		}
		seen[r.Substance] = struct{}{}
		names = append(names, r.Substance)
	}
	return NewSubstanceIndex(names)
}

// Index returns the column of a substance.
func (s *SubstanceIndex) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Len is the number of substances.
func (s *SubstanceIndex) Len() int { return len(s.names) }

// Names returns a copy of the catalog in column order.
func (s *SubstanceIndex) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}
