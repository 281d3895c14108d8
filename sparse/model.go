package sparse

import "errors"

const (
	DEFAULT_PIVOT_THRESHOLD float64 = 1e-12
	DEFAULT_PRINTER_WIDTH   int     = 80
)

// ErrSingular is wrapped by every factorization failure caused by a zero pivot.
var ErrSingular = errors.New("matrix is singular")

type Configuration struct {
	Reorder        bool    // static Markowitz ordering before the first factorization
	PivotThreshold float64 // pivots at or below PivotThreshold*largest diagonal are zero
	PrinterWidth   int     // Default: 80
}

// Matrix is a real square matrix stored as orthogonal linked lists, indexed
// 1...Size. Row and column 0 are ground: stamps into them are discarded.
type Matrix struct {
	Config Configuration

	Size int64 // Matrix size

	Diags        []*Element // Diagonal elements (as reciprocal after factor) [1...Size]
	FirstInRow   []*Element // First element in each row [1...Size]
	FirstInCol   []*Element // First element in each column [1...Size]
	Intermediate []float64  // Temporary vector for rhs, solution [1...Size]

	MarkowitzRow  []int64 // Off-diagonal counts of each row [1...Size]
	MarkowitzCol  []int64 // Off-diagonal counts of each column [1...Size]
	MarkowitzProd []int64 // Markowitz products [1...Size]

	// Symmetric permutation applied by the ordering
	IntToExtMap []int64 // Internal->External [1...Size]
	ExtToIntMap []int64 // External->Internal [1...Size]

	// Status flags
	Reordered  bool // ordering applied
	Factored   bool // factor done
	RowsLinked bool // rows linked

	SingularRow int64 // Singular row number (external)
	SingularCol int64 // Singular column number (external)

	// Counts
	Elements int // Element count
	Fillins  int // Fill-in count

	ground Element
}

type Element struct {
	Real      float64
	Row       int64
	Col       int64
	NextInRow *Element
	NextInCol *Element
}
