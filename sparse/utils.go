package sparse

import (
	"golang.org/x/exp/constraints"
)

func absolute[T constraints.Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}
