package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeography(t *testing.T) {
	states := DefaultStates()

	tests := []struct {
		name     string
		label    string
		expected GeographyUnit
	}{
		{"single word county", "Jefferson County, Kentucky", GeographyUnit{"ky", "Jefferson", "Kentucky"}},
		{"multi word county", "Van Wert County, Ohio", GeographyUnit{"oh", "Van Wert", "Ohio"}},
		{"multi word state", "Berkeley County, West Virginia", GeographyUnit{"wv", "Berkeley", "West Virginia"}},
		{"independent city drops last word", "Richmond city, Virginia", GeographyUnit{"va", "Richmond", "Virginia"}},
		{"state case-insensitive", "Adams County, PENNSYLVANIA", GeographyUnit{"pa", "Adams", "PENNSYLVANIA"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := ParseGeography(tt.label, states)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, unit)
		})
	}
}

func TestParseGeography_Errors(t *testing.T) {
	states := DefaultStates()

	tests := []struct {
		name  string
		label string
		want  error
	}{
		{"no separator", "Jefferson County Kentucky", ErrGeographyFormat},
		{"too many parts", "Jefferson County, Louisville, Kentucky", ErrGeographyFormat},
		{"separator without space", "Jefferson County,Kentucky", ErrGeographyFormat},
		{"unknown state", "Harris County, Texas", ErrUnknownState},
		{"county without county word", "Jefferson, Kentucky", ErrGeographyFormat},
		{"empty", "", ErrGeographyFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGeography(tt.label, states)
			require.ErrorIs(t, err, tt.want)
		})
	}
}
