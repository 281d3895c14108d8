package sparse

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// Fprint writes the matrix in external ordering. With data false only the
// sparsity pattern is written.
func (m *Matrix) Fprint(w io.Writer, data bool, header bool) {
	if m == nil {
		return
	}

	if header {
		fmt.Fprintf(w, "MATRIX SUMMARY\n\n")
		fmt.Fprintf(w, "Size of matrix = %d x %d.\n", m.Size, m.Size)
		if m.Reordered {
			fmt.Fprintf(w, "Matrix has been reordered.\n")
		}
		fmt.Fprintln(w)

		if m.Factored {
			fmt.Fprintf(w, "Matrix after factorization:\n")
		} else {
			fmt.Fprintf(w, "Matrix before factorization:\n")
		}
	}

	if m.Size == 0 {
		return
	}

	columns := m.Config.PrinterWidth
	if header {
		columns -= 5
	}
	if data {
		columns = (columns + 1) / 10
	}
	columns = max(columns, 1)

	startCol := int64(1)
	for startCol <= m.Size {
		stopCol := min(startCol+int64(columns)-1, m.Size)

		if header {
			if data {
				fmt.Fprintf(w, "    ")
				for col := startCol; col <= stopCol; col++ {
					fmt.Fprintf(w, " %9d", col)
				}
				fmt.Fprintf(w, "\n\n")
			} else {
				fmt.Fprintf(w, "Columns %d to %d.\n", startCol, stopCol)
			}
		}

		for row := int64(1); row <= m.Size; row++ {
			if header {
				fmt.Fprintf(w, "%4d", row)
				if !data {
					fmt.Fprintf(w, " ")
				}
			}

			for col := startCol; col <= stopCol; col++ {
				element := m.find(m.ExtToIntMap[row], m.ExtToIntMap[col])
				switch {
				case element != nil && data:
					fmt.Fprintf(w, " %9.3g", element.Real)
				case element != nil:
					fmt.Fprintf(w, "x")
				case data:
					fmt.Fprintf(w, "       ...")
				default:
					fmt.Fprintf(w, ".")
				}
			}
			fmt.Fprintln(w)
		}

		fmt.Fprintln(w)
		startCol = stopCol + 1
	}

	if header {
		stats := m.calculateStatistics()
		fmt.Fprintf(w, "\nLargest element in matrix = %-1.4g.\n", stats.largestElement)
		fmt.Fprintf(w, "Smallest element in matrix = %-1.4g.\n", stats.smallestElement)

		if m.Factored {
			fmt.Fprintf(w, "\nLargest diagonal element = %-1.4g.\n", stats.largestDiag)
			fmt.Fprintf(w, "Smallest diagonal element = %-1.4g.\n", stats.smallestDiag)
		} else {
			fmt.Fprintf(w, "\nLargest pivot element = %-1.4g.\n", stats.largestDiag)
			fmt.Fprintf(w, "Smallest pivot element = %-1.4g.\n", stats.smallestDiag)
		}

		density := float64(stats.elementCount) * 100.0 / float64(m.Size*m.Size)
		fmt.Fprintf(w, "\nDensity = %.2f%%.\n", density)
		if m.Factored {
			fmt.Fprintf(w, "Number of fill-ins = %d.\n", m.Fillins)
		}
		fmt.Fprintln(w)
	}
}

func (m *Matrix) String() string {
	var b strings.Builder
	m.Fprint(&b, true, true)
	return b.String()
}

// find looks up an internal (row, col) without creating it.
func (m *Matrix) find(row, col int64) *Element {
	for e := m.FirstInCol[col]; e != nil && e.Row <= row; e = e.NextInCol {
		if e.Row == row {
			return e
		}
	}
	return nil
}

type matrixStats struct {
	largestElement  float64
	smallestElement float64
	largestDiag     float64
	smallestDiag    float64
	elementCount    int64
}

func (m *Matrix) calculateStatistics() matrixStats {
	stats := matrixStats{
		smallestElement: math.MaxFloat64,
		smallestDiag:    math.MaxFloat64,
	}

	for col := int64(1); col <= m.Size; col++ {
		for element := m.FirstInCol[col]; element != nil; element = element.NextInCol {
			stats.elementCount++
			magnitude := absolute(element.Real)

			if magnitude > stats.largestElement {
				stats.largestElement = magnitude
			}
			if magnitude < stats.smallestElement && magnitude != 0 {
				stats.smallestElement = magnitude
			}

			if element.Row == col {
				if magnitude > stats.largestDiag {
					stats.largestDiag = magnitude
				}
				if magnitude < stats.smallestDiag && magnitude != 0 {
					stats.smallestDiag = magnitude
				}
			}
		}
	}

	if stats.elementCount == 0 {
		stats.smallestElement = 0
		stats.largestElement = 0
		stats.smallestDiag = 0
		stats.largestDiag = 0
	}
	if stats.smallestDiag == math.MaxFloat64 {
		stats.smallestDiag = 0
	}

	return stats
}
