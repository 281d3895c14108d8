package sparse

import (
	"fmt"
)

// RealRowColElimination performs one step of the factorization at pivot.
// Afterwards the pivot holds 1/a_kk, the rest of row k holds the U factor
// (row divided by the pivot), column k below the pivot is left as the L
// factor, and every a_rc with r, c > k has lost l_rk*u_kc. Missing a_rc
// entries are created as fill-ins.
func (m *Matrix) RealRowColElimination(pivot *Element) error {
	if pivot.Real == 0.0 {
		m.SingularRow = m.IntToExtMap[pivot.Row]
		m.SingularCol = m.IntToExtMap[pivot.Col]
		return fmt.Errorf("%w at row %d", ErrSingular, m.SingularRow)
	}

	pivot.Real = 1.0 / pivot.Real

	for upper := pivot.NextInRow; upper != nil; upper = upper.NextInRow {
		upper.Real *= pivot.Real
		m.updateColumn(upper, pivot.NextInCol)
	}
	return nil
}

// updateColumn subtracts lower*upper from column upper.Col for every lower
// entry in the pivot column. Both lists are sorted by row, so one walk down
// the target column finds or places every updated entry.
func (m *Matrix) updateColumn(upper, lower *Element) {
	link := &upper.NextInCol
	target := upper.NextInCol

	for ; lower != nil; lower = lower.NextInCol {
		for target != nil && target.Row < lower.Row {
			link = &target.NextInCol
			target = target.NextInCol
		}
		if target == nil || target.Row > lower.Row {
			target = m.createElement(lower.Row, upper.Col, &lower.NextInRow, link, true)
		}

		target.Real -= upper.Real * lower.Real
		link = &target.NextInCol
		target = target.NextInCol
	}
}
