package normalize

import (
	"errors"
	"fmt"

	"github.com/crimeprep/internal/records"
)

// ErrOverlappingRules is returned when two imputation rules claim the same category.
var ErrOverlappingRules = errors.New("imputation rules share a category")

// ImputeRule fills a missing location for incidents of the listed categories.
type ImputeRule struct {
	Categories []string `json:"categories" yaml:"categories"`
	Location   string   `json:"location" yaml:"location"`
}

// ImputeRules are tried in order and the first rule naming the category wins.
// Categories must be disjoint across rules so that rule order never matters.
type ImputeRules []ImputeRule

// LocationImputeRules hold the most frequent location per category. Categories
// are the canonical labels, so these rules assume primary_type was normalized.
var LocationImputeRules = MustImputeRules(
	ImputeRule{Categories: []string{"DECEPTIVE PRACTICE"}, Location: "RESIDENCE"},
	ImputeRule{Categories: []string{"THEFT"}, Location: "STREET"},
	ImputeRule{
		Categories: []string{"BURGLARY", "ROBBERY", "BATTERY", "CRIMINAL DAMAGE", "ARSON", "CRIMINAL SEXUAL ASSAULT", "OTHER OFFENSE"},
		Location:   "RESIDENCE",
	},
)

// MustImputeRules validates rules and panics when two of them overlap.
func MustImputeRules(rules ...ImputeRule) ImputeRules {
	rs := ImputeRules(rules)
	if err := rs.Validate(); err != nil {
		panic(err)
	}
	return rs
}

// Validate checks that no category belongs to two rules.
func (rs ImputeRules) Validate() error {
	owner := make(map[string]int)
	for i, rule := range rs {
		for _, c := range rule.Categories {
			if j, ok := owner[c]; ok {
				return fmt.Errorf("%w: %q in rules %d and %d", ErrOverlappingRules, c, j, i)
			}
			owner[c] = i
		}
	}
	return nil
}

// Fill returns the location the first matching rule assigns to category.
func (rs ImputeRules) Fill(category string) (string, bool) {
	for _, rule := range rs {
		for _, c := range rule.Categories {
			if c == category {
				return rule.Location, true
			}
		}
	}
	return "", false
}

// Apply fills null location_description values in place and returns how many
// rows were filled. Rows whose category matches no rule stay null.
func (rs ImputeRules) Apply(f *records.Frame) (int, error) {
	if err := f.Require(records.ColPrimaryType, records.ColLocation); err != nil {
		return 0, err
	}

	filled := 0
	for _, r := range f.Rows {
		if r.LocationDescription != nil || r.PrimaryType == nil {
			continue
		}
		if loc, ok := rs.Fill(*r.PrimaryType); ok {
			r.LocationDescription = &loc
			filled++
		}
	}
	return filled, nil
}

// ImputeLocations applies LocationImputeRules to the frame.
func ImputeLocations(f *records.Frame) (int, error) {
	return LocationImputeRules.Apply(f)
}
