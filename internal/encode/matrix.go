package encode

// Matrix is a compressed sparse row matrix. Row i holds the entries
// Indices[IndPtr[i]:IndPtr[i+1]] with values Data[IndPtr[i]:IndPtr[i+1]].
type Matrix struct {
	Rows    int       `json:"rows"`
	Cols    int       `json:"cols"`
	IndPtr  []int     `json:"indptr"`
	Indices []int     `json:"indices"`
	Data    []float64 `json:"data"`
}

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int {
	return len(m.Data)
}

// Row returns the column indices stored for row i.
func (m *Matrix) Row(i int) []int {
	return m.Indices[m.IndPtr[i]:m.IndPtr[i+1]]
}

// At returns the value at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	for k := m.IndPtr[i]; k < m.IndPtr[i+1]; k++ {
		if m.Indices[k] == j {
			return m.Data[k]
		}
	}
	return 0
}

// Dense expands the matrix.
func (m *Matrix) Dense() [][]float64 {
	out := make([][]float64, m.Rows)
	for i := range out {
		out[i] = make([]float64, m.Cols)
		for k := m.IndPtr[i]; k < m.IndPtr[i+1]; k++ {
			out[i][m.Indices[k]] = m.Data[k]
		}
	}
	return out
}
