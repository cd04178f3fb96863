package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var acsColumns = []string{"GEO.id", "GEO.id2", GeographyLabel, "HC01_VC03", "HC02_VC03", "HC03_VC03", "HC01_VC04", "HC01_VC05"}

func acsSurvey(t *testing.T) (*SurveyTable, MetadataTable) {
	t.Helper()
	table := mustSurvey(t, acsColumns,
		[]string{"Id", "Id2", "Geography", "Estimate; Total households", "Margin of Error; Total households", "Percent; Total households", "Estimate; Median income", "Estimate; Status"},
		[]string{"0500000US21111", "21111", "Jefferson County, Kentucky", "300000", "1200", "100", "52000", "urban"},
		[]string{"0500000US21067", "21067", "Fayette County, Kentucky", "120000", "900", "100", "(X)", "urban"},
	)
	return table, metaFor(acsColumns[1:]...)
}

func TestIsEstimateColumn(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		expected bool
		wantErr  bool
	}{
		{"odd estimate", "HC01_VC03", true, false},
		{"odd third category", "HC03_VC03", true, false},
		{"even margin of error", "HC02_VC03", false, false},
		{"zero is even", "HC00_VC01", false, false},
		{"exactly four characters", "HC01", true, false},
		{"only offset 3 counts", "HC10_VC03", false, false},
		{"too short", "HC0", false, true},
		{"non-digit at offset 3", "HC0A_VC03", false, true},
		{"empty", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := IsEstimateColumn(tt.label)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedLabel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExtractFeatures(t *testing.T) {
	table, meta := acsSurvey(t)

	features, err := ExtractFeatures(table, meta)
	require.NoError(t, err)

	assert.Equal(t, []string{GeographyLabel, "HC01_VC03", "HC01_VC04"}, features)
}

func TestExtractFeatures_GeographyAlwaysFirst(t *testing.T) {
	table := mustSurvey(t, []string{GeographyLabel, "HC01_VC03"},
		[]string{"Geography", "Percent; Total households"},
		[]string{"Jefferson County, Kentucky", "100"},
	)

	features, err := ExtractFeatures(table, metaFor(GeographyLabel, "HC01_VC03"))
	require.NoError(t, err)
	assert.Equal(t, []string{GeographyLabel}, features)
}

func TestExtractFeatures_PercentPrefixIsExactFirstWord(t *testing.T) {
	table := mustSurvey(t, []string{GeographyLabel, "HC01_VC01", "HC01_VC02", "HC01_VC03"},
		[]string{"Geography", "Percent households", "Estimate; Percent; odd", "  Percent; padded"},
		[]string{"Adams County, Ohio", "1", "2", "3"},
	)

	features, err := ExtractFeatures(table, metaFor("HC01_VC01", "HC01_VC02", "HC01_VC03"))
	require.NoError(t, err)
	assert.Equal(t, []string{GeographyLabel, "HC01_VC01", "HC01_VC02"}, features)
}

func TestExtractFeatures_IntegerCheckUsesFirstDataRow(t *testing.T) {
	table := mustSurvey(t, []string{GeographyLabel, "HC01_VC01", "HC01_VC02", "HC01_VC03", "HC01_VC04"},
		[]string{"Geography", "Estimate; a", "Estimate; b", "Estimate; c", "Estimate; d"},
		[]string{"Adams County, Ohio", "12.5", " 42 ", "-7", ""},
		[]string{"Allen County, Ohio", "1", "x", "1", "1"},
	)

	features, err := ExtractFeatures(table, metaFor("HC01_VC01", "HC01_VC02", "HC01_VC03", "HC01_VC04"))
	require.NoError(t, err)
	assert.Equal(t, []string{GeographyLabel, "HC01_VC02", "HC01_VC03"}, features)
}

func TestExtractFeatures_NoDataRows(t *testing.T) {
	table := mustSurvey(t, []string{GeographyLabel, "HC01_VC01"},
		[]string{"Geography", "Estimate; a"},
	)

	features, err := ExtractFeatures(table, metaFor("HC01_VC01"))
	require.NoError(t, err)
	assert.Equal(t, []string{GeographyLabel}, features)
}

func TestExtractFeatures_MalformedLabel(t *testing.T) {
	table := mustSurvey(t, []string{GeographyLabel, "X1"},
		[]string{"Geography", "Estimate; a"},
		[]string{"Adams County, Ohio", "1"},
	)

	_, err := ExtractFeatures(table, metaFor("X1"))
	require.ErrorIs(t, err, ErrMalformedLabel)
}

func TestExtractFeatures_MetadataColumnMissingFromTable(t *testing.T) {
	table, _ := acsSurvey(t)

	_, err := ExtractFeatures(table, metaFor("HC01_VC99"))
	require.ErrorIs(t, err, ErrMissingColumn)
}
