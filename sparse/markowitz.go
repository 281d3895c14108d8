package sparse

import (
	"sort"
)

// CountMarkowitz counts the off-diagonal elements of every row and column and
// forms their Markowitz products.
func (m *Matrix) CountMarkowitz() {
	for i := int64(1); i <= m.Size; i++ {
		m.MarkowitzRow[i] = 0
		m.MarkowitzCol[i] = 0
	}

	for col := int64(1); col <= m.Size; col++ {
		for element := m.FirstInCol[col]; element != nil; element = element.NextInCol {
			if element.Row == element.Col {
				continue
			}
			m.MarkowitzRow[element.Row]++
			m.MarkowitzCol[col]++
		}
	}

	for i := int64(1); i <= m.Size; i++ {
		m.MarkowitzProd[i] = markowitzProduct(m.MarkowitzRow[i], m.MarkowitzCol[i])
	}
}

func markowitzProduct(op1, op2 int64) int64 {
	const (
		LargestShortInteger = 32767
		LargestLongInteger  = 2147483647
	)

	if (op1 > LargestShortInteger && op2 != 0) || (op2 > LargestShortInteger && op1 != 0) {
		fProduct := float64(op1) * float64(op2)
		if fProduct >= float64(LargestLongInteger) {
			return LargestLongInteger
		}
		return int64(fProduct)
	}
	return op1 * op2
}

// Reorder applies a symmetric permutation that puts rows with the smallest
// Markowitz product first. Diagonal pivots stay on the diagonal, so symmetric
// positive definite matrices remain safe to factor without pivot search.
func (m *Matrix) Reorder() {
	if m.Reordered || m.Factored {
		return
	}

	m.CountMarkowitz()

	order := make([]int64, m.Size)
	for i := range order {
		order[i] = int64(i) + 1
	}
	sort.SliceStable(order, func(a, b int) bool {
		return m.MarkowitzProd[order[a]] < m.MarkowitzProd[order[b]]
	})

	elements := make([]*Element, 0, m.Elements)
	for col := int64(1); col <= m.Size; col++ {
		for element := m.FirstInCol[col]; element != nil; element = element.NextInCol {
			elements = append(elements, element)
		}
	}

	rowCount := make([]int64, m.Size+1)
	colCount := make([]int64, m.Size+1)
	for internal, external := range order {
		m.IntToExtMap[internal+1] = external
		m.ExtToIntMap[external] = int64(internal) + 1
		rowCount[internal+1] = m.MarkowitzRow[external]
		colCount[internal+1] = m.MarkowitzCol[external]
	}
	for i := int64(1); i <= m.Size; i++ {
		m.MarkowitzRow[i] = rowCount[i]
		m.MarkowitzCol[i] = colCount[i]
		m.MarkowitzProd[i] = markowitzProduct(rowCount[i], colCount[i])
		m.FirstInCol[i] = nil
		m.FirstInRow[i] = nil
		m.Diags[i] = nil
	}

	// Until now internal and external indices coincide.
	for _, element := range elements {
		element.Row = m.ExtToIntMap[element.Row]
		element.Col = m.ExtToIntMap[element.Col]
		element.NextInRow = nil
		element.NextInCol = nil
	}

	sort.Slice(elements, func(a, b int) bool {
		return elements[a].Row > elements[b].Row
	})
	for _, element := range elements {
		element.NextInCol = m.FirstInCol[element.Col]
		m.FirstInCol[element.Col] = element
		if element.Row == element.Col {
			m.Diags[element.Row] = element
		}
	}

	m.RowsLinked = false
	m.Reordered = true
}
