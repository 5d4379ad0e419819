package encode

import "github.com/crimeprep/internal/records"

// Labels returns 1 for every incident with arrest true and 0 otherwise,
// null included.
func Labels(f *records.Frame) ([]int, error) {
	if err := f.Require(records.ColArrest); err != nil {
		return nil, err
	}
	y := make([]int, f.Len())
	for i, r := range f.Rows {
		if r.Arrest != nil && *r.Arrest {
			y[i] = 1
		}
	}
	return y, nil
}

// Prepared is a feature matrix with its labels.
type Prepared struct {
	X        *Matrix
	Y        []int
	Features []string
}

// Prepare one-hot encodes columns of f and builds the arrest labels.
func Prepare(f *records.Frame, columns []string) (*Prepared, error) {
	x, e, err := OneHot(f, columns)
	if err != nil {
		return nil, err
	}
	y, err := Labels(f)
	if err != nil {
		return nil, err
	}
	return &Prepared{X: x, Y: y, Features: e.FeatureNames()}, nil
}
