package records

import (
	"fmt"
	"sort"
	"time"
)

// Maps renders each row as a column → value map with null as nil. Timestamps
// are RFC 3339 strings.
func (f *Frame) Maps() []map[string]any {
	out := make([]map[string]any, len(f.Rows))
	for i, r := range f.Rows {
		m := make(map[string]any, len(f.columns))
		for _, c := range f.columns {
			m[c] = f.typed(r, c)
		}
		out[i] = m
	}
	return out
}

func (f *Frame) typed(r *Incident, name string) any {
	switch f.Kind(name) {
	case KindTime:
		if r.Date == nil {
			return nil
		}
		return r.Date.Format(time.RFC3339)
	case KindBool:
		if r.Arrest == nil {
			return nil
		}
		return *r.Arrest
	case KindInt:
		p := r.Month
		if name == ColHour {
			p = r.Hour
		}
		if p == nil {
			return nil
		}
		return *p
	}
	if p := f.stringField(r, name); p != nil {
		return *p
	}
	return nil
}

// FromMaps builds a frame from decoded JSON objects. Columns are the union of
// keys, sorted.
func FromMaps(rows []map[string]any) (*Frame, error) {
	seen := make(map[string]bool)
	var columns []string
	for _, m := range rows {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)

	values := make([][]any, len(rows))
	for i, m := range rows {
		values[i] = make([]any, len(columns))
		for j, c := range columns {
			values[i][j] = m[c]
		}
	}
	return FromRows(columns, values)
}

// FromRows builds a frame from positional values, one slice per row in column
// order. A date column whose values do not all parse is kept as text so that
// temporal derivation reports the type mismatch.
func FromRows(columns []string, rows [][]any) (*Frame, error) {
	f := NewFrame(columns...)
	if f.HasColumn(ColDate) {
		at := -1
		for i, c := range columns {
			if c == ColDate {
				at = i
			}
		}
		if !datesParse(rows, at) {
			f.AddColumn(ColDate, KindString)
		}
	}

	for i, vals := range rows {
		if len(vals) != len(columns) {
			return nil, fmt.Errorf("row %d: %d values for %d columns", i, len(vals), len(columns))
		}
		r := &Incident{}
		for j, c := range columns {
			if err := f.Set(r, c, vals[j]); err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
		}
		f.Append(r)
	}
	return f, nil
}

func datesParse(rows [][]any, at int) bool {
	for _, vals := range rows {
		if at >= len(vals) {
			continue
		}
		switch v := vals[at].(type) {
		case nil, time.Time:
		case []byte:
			if _, err := ParseTime(string(v)); err != nil {
				return false
			}
		case string:
			if _, err := ParseTime(v); err != nil {
				return false
			}
		default:
			return false
		}
	}
	return true
}
