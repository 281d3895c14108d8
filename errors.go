package currentflow

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMalformedTopology marks a wire set that cannot be turned into a
	// graph: dangling runs, one-sided connections, duplicate cells.
	ErrMalformedTopology = errors.New("malformed topology")

	// ErrSingularSystem marks a network whose reduced susceptance matrix
	// cannot be solved, usually because part of it is cut off from the slack node.
	ErrSingularSystem = errors.New("singular system")
)

// TopologyError locates a graph-build failure.
type TopologyError struct {
	Cell   int
	Reason string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("%s: cell %d: %s", ErrMalformedTopology, e.Cell, e.Reason)
}

func (e *TopologyError) Unwrap() error {
	return ErrMalformedTopology
}

// SingularError describes why angles could not be solved. Islands is the
// number of connected components when that is the cause; Node is the node
// whose pivot vanished during factorization; Residual is the largest
// power-balance mismatch when the solve went through but did not hold.
type SingularError struct {
	Islands  int
	Node     int
	Residual float64
	cause    error
}

func (e *SingularError) Error() string {
	switch {
	case e.Islands > 1:
		return fmt.Sprintf("%s: network splits into %d islands", ErrSingularSystem, e.Islands)
	case e.cause != nil:
		return fmt.Sprintf("%s: %v", ErrSingularSystem, e.cause)
	case e.Residual != 0:
		return fmt.Sprintf("%s: power balance residual %g", ErrSingularSystem, e.Residual)
	}
	return ErrSingularSystem.Error()
}

func (e *SingularError) Is(target error) bool {
	return target == ErrSingularSystem
}

func (e *SingularError) Unwrap() error {
	return e.cause
}

func malformed(cell int, format string, args ...interface{}) error {
	return &TopologyError{Cell: cell, Reason: fmt.Sprintf(format, args...)}
}
