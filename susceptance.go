package currentflow

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Susceptance is the nodal susceptance matrix B of a graph: a weighted
// Laplacian with each branch contributing 1/x to its endpoints' diagonals
// and -1/x to the two off-diagonal positions. Rows are kept sparse, and the
// stamps that built them are kept in order for loading the reduced matrix.
type Susceptance struct {
	size   int
	rows   []map[int]float64
	stamps []stamp
}

type stamp struct {
	s, d int
	y    float64
}

func NewSusceptance(size int) *Susceptance {
	b := &Susceptance{size: size, rows: make([]map[int]float64, size)}
	for i := range b.rows {
		b.rows[i] = make(map[int]float64)
	}
	return b
}

// BuildSystem assembles B and the injection vector P for g.
func BuildSystem(g *Graph) (*Susceptance, []float64, error) {
	b := NewSusceptance(len(g.Nodes))
	for _, br := range g.Branches {
		if br.Loop() {
			return nil, nil, errors.Errorf("branch %d is a loop on node %d", br.ID, br.Source)
		}
		if !(br.Reactance > 0) || math.IsInf(br.Reactance, 1) {
			return nil, nil, errors.Errorf("branch %d has non-positive reactance %g", br.ID, br.Reactance)
		}
		if err := b.Stamp(br.Source, br.Destination, br.Susceptance()); err != nil {
			return nil, nil, errors.Wrapf(err, "branch %d", br.ID)
		}
	}
	return b, g.Injections(), nil
}

func (b *Susceptance) Size() int {
	return b.size
}

// Stamp adds a branch of susceptance y between nodes s and d. Parallel
// branches accumulate.
func (b *Susceptance) Stamp(s, d int, y float64) error {
	if s < 0 || d < 0 || s >= b.size || d >= b.size {
		return errors.Errorf("node pair %d-%d outside matrix of size %d", s, d, b.size)
	}
	b.rows[s][s] += y
	b.rows[d][d] += y
	b.rows[s][d] -= y
	b.rows[d][s] -= y
	b.stamps = append(b.stamps, stamp{s: s, d: d, y: y})
	return nil
}

func (b *Susceptance) At(i, j int) float64 {
	return b.rows[i][j]
}

// Each visits the stored entries row by row in ascending column order.
func (b *Susceptance) Each(fn func(i, j int, v float64)) {
	for i, row := range b.rows {
		cols := make([]int, 0, len(row))
		for j := range row {
			cols = append(cols, j)
		}
		sort.Ints(cols)
		for _, j := range cols {
			fn(i, j, row[j])
		}
	}
}

// MulVec returns B*theta.
func (b *Susceptance) MulVec(theta []float64) []float64 {
	out := make([]float64, b.size)
	b.Each(func(i, j int, v float64) {
		out[i] += v * theta[j]
	})
	return out
}
