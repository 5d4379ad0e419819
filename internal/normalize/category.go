package normalize

import "github.com/crimeprep/internal/records"

// CategoryTable collapses primary_type spellings that changed over the life of
// the dataset.
var CategoryTable = MustTable("primary_type",
	Mapping{Canonical: "CRIMINAL SEXUAL ASSAULT", Sources: []string{"CRIM SEXUAL ASSAULT"}},
	Mapping{Canonical: "NARCOTICS", Sources: []string{"OTHER NARCOTIC VIOLATION"}},
	Mapping{Canonical: "NON-CRIMINAL", Sources: []string{"NON - CRIMINAL", "NON-CRIMINAL (SUBJECT SPECIFIED)"}},
	Mapping{Canonical: "OTHER OFFENSE", Sources: []string{"RITUALISM"}},
)

// NormalizeCategories rewrites primary_type to canonical labels in place and
// returns the number of rewritten rows.
func NormalizeCategories(f *records.Frame) (int, error) {
	return CategoryTable.RewriteColumn(f, records.ColPrimaryType)
}
