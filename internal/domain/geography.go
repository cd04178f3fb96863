package domain

import (
	"fmt"
	"strings"
)

// GeographyUnit is the county/state a survey row describes.
type GeographyUnit struct {
	StateInitials string // lowercase, e.g. "ky"
	County        string // without its trailing "County" word
	StateName     string // as written in the label, e.g. "Kentucky"
}

// ParseGeography splits a display label such as "Jefferson County, Kentucky"
// into its geography unit. The county part must have at least two words; its
// last word (normally "County") is dropped. The state must be in the catalog.
//
// A one-word county part such as "Jefferson, Kentucky" is rejected with
// ErrGeographyFormat rather than yielding an empty county name, which would
// silently match no gazetteer row and no drug reports.
func ParseGeography(label string, states *StateCatalog) (GeographyUnit, error) {
	parts := strings.Split(label, ", ")
	if len(parts) != 2 {
		return GeographyUnit{}, fmt.Errorf("%w: %q: want \"<county> County, <state>\"", ErrGeographyFormat, label)
	}
	countyPart, state := parts[0], parts[1]

	initials, ok := states.Initials(state)
	if !ok {
		return GeographyUnit{}, fmt.Errorf("%w: %q", ErrUnknownState, state)
	}

	words := strings.Fields(countyPart)
	if len(words) < 2 {
		return GeographyUnit{}, fmt.Errorf("%w: %q: county part %q has no trailing county word", ErrGeographyFormat, label, countyPart)
	}

	return GeographyUnit{
		StateInitials: initials,
		County:        strings.Join(words[:len(words)-1], " "),
		StateName:     state,
	}, nil
}
