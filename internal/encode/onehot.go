// Package encode turns cleaned incidents into model inputs: a one-hot sparse
// feature matrix and the arrest label vector.
package encode

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/crimeprep/internal/records"
)

// Encoding errors.
var (
	ErrNoColumns       = errors.New("no columns to encode")
	ErrUnknownCategory = errors.New("category not seen during fit")
	ErrNullClash       = errors.New("column holds both null and the null category label")
)

// nullCategory is the category of a null value. It sorts after every other.
const nullCategory = "nan"

// Encoder holds the categories learned for each column.
type Encoder struct {
	Columns    []string
	Categories [][]string

	// hasNull marks columns whose last category stands for null.
	hasNull []bool
	index   []map[string]int
	offsets []int
}

// Fit learns the sorted categories of each column. Columns whose values are
// all integers sort numerically; null becomes a trailing category, so a column
// may not hold both null and a literal "nan".
func Fit(f *records.Frame, columns []string) (*Encoder, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	if err := f.Require(columns...); err != nil {
		return nil, err
	}

	e := &Encoder{Columns: append([]string(nil), columns...)}
	for _, col := range columns {
		seen := make(map[string]bool)
		var values []string
		null := false
		for _, r := range f.Rows {
			v, ok := f.Value(r, col)
			if !ok {
				null = true
				continue
			}
			if !seen[v] {
				seen[v] = true
				values = append(values, v)
			}
		}
		if null && seen[nullCategory] {
			return nil, fmt.Errorf("%w: %s", ErrNullClash, col)
		}
		sortCategories(values)

		cats := values
		if null {
			cats = append(cats, nullCategory)
		}
		e.Categories = append(e.Categories, cats)
		e.hasNull = append(e.hasNull, null)
	}
	e.build()
	return e, nil
}

func (e *Encoder) build() {
	e.index = make([]map[string]int, len(e.Columns))
	e.offsets = make([]int, len(e.Columns)+1)
	for i, cats := range e.Categories {
		n := len(cats)
		if e.hasNull[i] {
			n--
		}
		idx := make(map[string]int, n)
		for j := 0; j < n; j++ {
			idx[cats[j]] = j
		}
		e.index[i] = idx
		e.offsets[i+1] = e.offsets[i] + len(cats)
	}
}

// Width is the number of output features.
func (e *Encoder) Width() int {
	return e.offsets[len(e.Columns)]
}

// FeatureNames returns column_value for every output feature in order.
func (e *Encoder) FeatureNames() []string {
	names := make([]string, 0, e.Width())
	for i, col := range e.Columns {
		for _, c := range e.Categories[i] {
			names = append(names, col+"_"+c)
		}
	}
	return names
}

// Transform encodes f with the fitted categories. A value or null that was not
// present at fit time is an error.
func (e *Encoder) Transform(f *records.Frame) (*Matrix, error) {
	if err := f.Require(e.Columns...); err != nil {
		return nil, err
	}

	m := &Matrix{
		Rows:    f.Len(),
		Cols:    e.Width(),
		IndPtr:  make([]int, 1, f.Len()+1),
		Indices: make([]int, 0, f.Len()*len(e.Columns)),
	}
	for ri, r := range f.Rows {
		for i, col := range e.Columns {
			j, err := e.position(f, r, i, col)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", ri, err)
			}
			m.Indices = append(m.Indices, e.offsets[i]+j)
		}
		m.IndPtr = append(m.IndPtr, len(m.Indices))
	}
	m.Data = make([]float64, len(m.Indices))
	for k := range m.Data {
		m.Data[k] = 1
	}
	return m, nil
}

func (e *Encoder) position(f *records.Frame, r *records.Incident, i int, col string) (int, error) {
	v, ok := f.Value(r, col)
	if !ok {
		if !e.hasNull[i] {
			return 0, fmt.Errorf("%w: %s is null", ErrUnknownCategory, col)
		}
		return len(e.Categories[i]) - 1, nil
	}
	j, ok := e.index[i][v]
	if !ok {
		return 0, fmt.Errorf("%w: %s=%q", ErrUnknownCategory, col, v)
	}
	return j, nil
}

// OneHot fits an encoder on f and encodes it.
func OneHot(f *records.Frame, columns []string) (*Matrix, *Encoder, error) {
	e, err := Fit(f, columns)
	if err != nil {
		return nil, nil, err
	}
	m, err := e.Transform(f)
	if err != nil {
		return nil, nil, err
	}
	return m, e, nil
}

// sortCategories orders values numerically when every one is an integer,
// lexically otherwise.
func sortCategories(values []string) {
	nums := make(map[string]int64, len(values))
	for _, v := range values {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			sort.Strings(values)
			return
		}
		nums[v] = n
	}
	sort.Slice(values, func(a, b int) bool {
		return nums[values[a]] < nums[values[b]]
	})
}
