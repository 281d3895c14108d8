package sparse

import (
	"fmt"
)

func Create(size int64, config *Configuration) (*Matrix, error) {
	if size < 0 {
		return nil, fmt.Errorf("invalid size: %d", size)
	}

	defaultConfig := Configuration{
		Reorder:        true,
		PivotThreshold: DEFAULT_PIVOT_THRESHOLD,
		PrinterWidth:   DEFAULT_PRINTER_WIDTH,
	}

	if config == nil {
		config = &defaultConfig
	}
	if config.PivotThreshold < 0 || config.PivotThreshold >= 1 {
		return nil, fmt.Errorf("invalid pivot threshold: %g", config.PivotThreshold)
	}

	matrixSize := size + 1 // 1-based indexing

	m := &Matrix{
		Config:        *config,
		Size:          size,
		Diags:         make([]*Element, matrixSize),
		FirstInRow:    make([]*Element, matrixSize),
		FirstInCol:    make([]*Element, matrixSize),
		Intermediate:  make([]float64, matrixSize),
		MarkowitzRow:  make([]int64, matrixSize),
		MarkowitzCol:  make([]int64, matrixSize),
		MarkowitzProd: make([]int64, matrixSize),
		IntToExtMap:   make([]int64, matrixSize),
		ExtToIntMap:   make([]int64, matrixSize),
	}
	if m.Config.PrinterWidth <= 0 {
		m.Config.PrinterWidth = DEFAULT_PRINTER_WIDTH
	}

	for i := int64(0); i <= size; i++ {
		m.IntToExtMap[i] = i
		m.ExtToIntMap[i] = i
	}

	return m, nil
}

// GetElement returns the element at external (row, col), creating it when
// absent. Any index 0 returns a scratch element that is not part of the matrix.
func (m *Matrix) GetElement(row, col int64) *Element {
	if row < 0 || col < 0 || row > m.Size || col > m.Size {
		return nil
	}
	if row == 0 || col == 0 {
		m.ground = Element{}
		return &m.ground
	}
	if m.Factored {
		return nil
	}

	internalRow, internalCol := m.ExtToIntMap[row], m.ExtToIntMap[col]

	if internalRow == internalCol {
		if element := m.Diags[internalRow]; element != nil {
			return element
		}
	}

	return m.createElement(internalRow, internalCol, &m.FirstInRow[internalRow], &m.FirstInCol[internalCol], false)
}

// AddAdmittance stamps a two-terminal admittance between external nodes
// node1 and node2. Terminals on node 0 are grounded.
func (m *Matrix) AddAdmittance(node1, node2 int64, value float64) error {
	e11 := m.GetElement(node1, node1)
	e22 := m.GetElement(node2, node2)
	e21 := m.GetElement(node2, node1)
	e12 := m.GetElement(node1, node2)

	if e11 == nil || e22 == nil || e21 == nil || e12 == nil {
		return fmt.Errorf("admittance %d-%d outside matrix of size %d", node1, node2, m.Size)
	}

	e11.Real += value
	e22.Real += value
	e21.Real -= value
	e12.Real -= value
	return nil
}

func (m *Matrix) createElement(row, col int64, firstInRow, firstInCol **Element, fillin bool) *Element {
	current := *firstInCol
	var prev **Element = firstInCol
	for current != nil && current.Row < row {
		prev = &current.NextInCol
		current = current.NextInCol
	}

	if current != nil && current.Row == row {
		return current
	}

	element := &Element{Row: row, Col: col}
	if fillin {
		m.Fillins++
	}
	m.Elements++

	element.NextInCol = current
	*prev = element

	if m.RowsLinked {
		current = *firstInRow
		prev = firstInRow
		for current != nil && current.Col < col {
			prev = &current.NextInRow
			current = current.NextInRow
		}
		element.NextInRow = current
		*prev = element
	}

	if row == col {
		m.Diags[row] = element
	}

	return element
}

func (m *Matrix) LinkRows() {
	for row := m.Size; row >= 1; row-- {
		m.FirstInRow[row] = nil
	}

	for col := m.Size; col >= 1; col-- {
		element := m.FirstInCol[col]
		for element != nil {
			element.Col = col
			element.NextInRow = m.FirstInRow[element.Row]
			m.FirstInRow[element.Row] = element
			element = element.NextInCol
		}
	}

	m.RowsLinked = true
}

func (m *Matrix) ElementCount() int {
	return m.Elements
}

func (m *Matrix) FillinCount() int {
	return m.Fillins
}
