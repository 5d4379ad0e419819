// Package normalize rewrites noisy categorical values to canonical labels using
// many-to-one substitution tables, and imputes missing locations from the
// incident category.
package normalize

import (
	"errors"
	"fmt"
	"sort"

	"github.com/crimeprep/internal/records"
)

// Table construction errors.
var (
	ErrEmptyCanonical    = errors.New("mapping has an empty canonical label")
	ErrDuplicateSource   = errors.New("source value appears in more than one mapping")
	ErrCanonicalIsSource = errors.New("canonical label is also a source value")
)

// Mapping collapses every source value into one canonical label.
type Mapping struct {
	Canonical string   `json:"canonical" yaml:"canonical"`
	Sources   []string `json:"sources" yaml:"sources"`
}

// Table is an ordered set of mappings whose source sets are pairwise disjoint.
// Because no source belongs to two mappings and no canonical label is itself a
// source, the order in which mappings apply never changes the result and a
// second application is a no-op.
type Table struct {
	Name     string
	Mappings []Mapping
	index    map[string]string
}

// NewTable validates the mappings and builds the flattened lookup index.
func NewTable(name string, mappings ...Mapping) (*Table, error) {
	t := &Table{Name: name, Mappings: mappings, index: make(map[string]string)}

	owner := make(map[string]string)
	for _, m := range mappings {
		if m.Canonical == "" {
			return nil, fmt.Errorf("%s: %w", name, ErrEmptyCanonical)
		}
		for _, s := range m.Sources {
			if prev, ok := owner[s]; ok {
				return nil, fmt.Errorf("%s: %w: %q in %s and %s", name, ErrDuplicateSource, s, prev, m.Canonical)
			}
			owner[s] = m.Canonical
			t.index[s] = m.Canonical
		}
	}
	for _, m := range mappings {
		if prev, ok := owner[m.Canonical]; ok {
			return nil, fmt.Errorf("%s: %w: %q maps to %s", name, ErrCanonicalIsSource, m.Canonical, prev)
		}
	}

	return t, nil
}

// MustTable is NewTable for package-level tables; it panics on invalid input.
func MustTable(name string, mappings ...Mapping) *Table {
	t, err := NewTable(name, mappings...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the canonical label for a source value.
func (t *Table) Lookup(v string) (string, bool) {
	c, ok := t.index[v]
	return c, ok
}

// Apply returns the replacement for p, or p itself when it is null or not a
// known source value.
func (t *Table) Apply(p *string) *string {
	if p == nil {
		return nil
	}
	if c, ok := t.index[*p]; ok {
		return &c
	}
	return p
}

// RewriteColumn rewrites a string column of the frame in place and returns how
// many values changed.
func (t *Table) RewriteColumn(f *records.Frame, column string) (int, error) {
	if err := f.Require(column); err != nil {
		return 0, err
	}

	changed := 0
	for _, r := range f.Rows {
		cur := f.Text(r, column)
		if next := t.Apply(cur); next != cur {
			f.SetText(r, column, next)
			changed++
		}
	}
	return changed, nil
}

// Canonicals returns the canonical labels in table order.
func (t *Table) Canonicals() []string {
	out := make([]string, len(t.Mappings))
	for i, m := range t.Mappings {
		out[i] = m.Canonical
	}
	return out
}

// Sources returns every source value, sorted.
func (t *Table) Sources() []string {
	out := make([]string, 0, len(t.index))
	for s := range t.index {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Size returns the number of source values.
func (t *Table) Size() int {
	return len(t.index)
}
