// Package domain aligns yearly American Community Survey (ACS) county tables
// with NFLIS drug-report counts and assembles them into one numeric sample
// matrix.
//
// # Data Sources
//
// Survey tables are ACS 5-year county extracts (one file per year) plus a
// metadata file listing every column label. Drug reports come from the
// National Forensic Laboratory Information System (NFLIS) county extract.
// Coordinates come from the Census county gazetteer.
//
// # Survey Conventions
//
// Column labels:
//
//	"HC01_VC03"  →  HC + two-digit category + _VC + variable number.
//	The fourth character is odd for value estimates (HC01, HC03) and even
//	for their margin-of-error siblings (HC02, HC04). See [IsEstimateColumn].
//	Labels starting with "G" are geography fields (GEO.id, GEO.id2,
//	GEO.display-label).
//
// Row 0 holds a description per column, e.g.
//
//	"Estimate; HOUSEHOLDS BY TYPE - Total households"
//	"Percent; HOUSEHOLDS BY TYPE - Total households"
//
// Descriptions are the cross-year join key: two columns from different years
// are the same feature iff their descriptions are byte-identical. Labels for
// the same feature drift between years, descriptions usually do not.
//
// Geography display labels:
//
//	"Jefferson County, Kentucky"  →  state "ky", county "Jefferson".
//
// # Sample Layout
//
// One row per (year, county) in year order, then table order:
//
//	[latitude, longitude, feature_1 … feature_k, substance_1 … substance_m]
//
// Features follow [UniversalFeatureMap] order, substances follow
// [SubstanceIndex] order. An included geography feature gets no column; the
// display label travels in [SampleRowKey]. Absent coordinates and non-numeric feature cells
// hold [AssembleOptions].MissingValue, [DefaultMissingValue] unless
// overridden.
//
// # Errors
//
// A county missing from the gazetteer and a county-year with no drug reports
// are expected and never errors. Unknown substances, unparseable geography
// labels, states outside the [StateCatalog], and features a year cannot
// resolve stop the run; see errors.go.
package domain
