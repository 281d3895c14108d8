package sparse

import (
	"fmt"
)

// Solve returns x for A*x = rhs using the factors left by Factor: L*c = rhs
// by forward substitution down the columns, then U*x = c by back
// substitution along the rows. Both vectors use external numbering; index 0
// is ground, ignored on input and 0 on output.
func (m *Matrix) Solve(rhs []float64) ([]float64, error) {
	if !m.Factored {
		return nil, fmt.Errorf("matrix is not factored")
	}
	if len(rhs) < int(m.Size)+1 {
		return nil, fmt.Errorf("rhs array size(%d) is smaller than matrix size(%d)+1", len(rhs), m.Size)
	}

	work := m.Intermediate
	for step := int64(1); step <= m.Size; step++ {
		work[step] = rhs[m.IntToExtMap[step]]
	}

	for step := int64(1); step <= m.Size; step++ {
		if work[step] == 0.0 {
			continue
		}
		pivot := m.Diags[step]
		if pivot == nil {
			return nil, fmt.Errorf("nil diagonal element at %d", step)
		}

		c := work[step] * pivot.Real
		work[step] = c
		for lower := pivot.NextInCol; lower != nil; lower = lower.NextInCol {
			work[lower.Row] -= c * lower.Real
		}
	}

	for step := m.Size; step >= 1; step-- {
		x := work[step]
		for upper := m.Diags[step].NextInRow; upper != nil; upper = upper.NextInRow {
			x -= upper.Real * work[upper.Col]
		}
		work[step] = x
	}

	solution := make([]float64, len(rhs))
	for step := int64(1); step <= m.Size; step++ {
		solution[m.IntToExtMap[step]] = work[step]
	}
	return solution, nil
}
