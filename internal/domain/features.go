package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// percentPrefix marks derived percentage columns in survey descriptions,
// e.g. "Percent; HOUSEHOLDS BY TYPE - Total households".
const percentPrefix = "Percent;"

// IsEstimateColumn applies the census label convention HCxy_VCnn, where the
// fourth character x is odd for value estimates and even for their margin of
// error siblings. It reads the raw byte at offset 3; labels shorter than four
// bytes or without a decimal digit there return ErrMalformedLabel.
func IsEstimateColumn(label string) (bool, error) {
	if len(label) < 4 {
		return false, fmt.Errorf("%w: %q shorter than 4 characters", ErrMalformedLabel, label)
	}
	c := label[3]
	if c < '0' || c > '9' {
		return false, fmt.Errorf("%w: %q has non-digit %q at offset 3", ErrMalformedLabel, label, c)
	}
	return (c-'0')%2 == 1, nil
}

// ExtractFeatures returns the survey columns usable as numeric features,
// in metadata order and always prefixed with GeographyLabel. A candidate is
// dropped when it is a geography field, a margin-of-error column, a
// percentage column, or when its first data value is not an integer.
func ExtractFeatures(table *SurveyTable, meta MetadataTable) ([]string, error) {
	features := []string{GeographyLabel}

	for _, label := range meta.IDs() {
		if strings.HasPrefix(label, "G") {
			continue
		}
		estimate, err := IsEstimateColumn(label)
		if err != nil {
			return nil, err
		}
		if !estimate {
			continue
		}

		desc, err := table.Description(label)
		if err != nil {
			return nil, fmt.Errorf("describe %q: %w", label, err)
		}
		if words := strings.Fields(desc); len(words) > 0 && words[0] == percentPrefix {
			continue
		}

		if !firstValueIsInteger(table, label) {
			continue
		}
		features = append(features, label)
	}

	return features, nil
}

// firstValueIsInteger is the type check that keeps categorical columns out.
func firstValueIsInteger(table *SurveyTable, label string) bool {
	if table.NumRows() < 2 {
		return false
	}
	v, err := table.Cell(1, label)
	if err != nil {
		return false
	}
	_, err = strconv.Atoi(strings.TrimSpace(v))
	return err == nil
}
