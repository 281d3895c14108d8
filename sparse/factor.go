package sparse

import (
	"fmt"
)

// Factor computes the LU factorization in place, pivoting on the diagonal in
// internal order. A missing or numerically zero pivot stops the
// factorization and reports ErrSingular.
func (m *Matrix) Factor() error {
	if m.Factored {
		return nil
	}
	if m.Size == 0 {
		m.Factored = true
		return nil
	}

	if m.Config.Reorder && !m.Reordered {
		m.Reorder()
	}
	if !m.RowsLinked {
		m.LinkRows()
	}

	largestDiag := 0.0
	for step := int64(1); step <= m.Size; step++ {
		if diag := m.Diags[step]; diag != nil {
			largestDiag = max(largestDiag, absolute(diag.Real))
		}
	}
	threshold := m.Config.PivotThreshold * largestDiag

	for step := int64(1); step <= m.Size; step++ {
		pivot := m.Diags[step]
		if pivot == nil || absolute(pivot.Real) <= threshold {
			m.SingularRow = m.IntToExtMap[step]
			m.SingularCol = m.IntToExtMap[step]
			return fmt.Errorf("%w at step %d (row %d)", ErrSingular, step, m.SingularRow)
		}

		if err := m.RealRowColElimination(pivot); err != nil {
			return err
		}
	}

	m.Factored = true
	return nil
}
