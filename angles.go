package currentflow

import (
	"math"

	"github.com/pkg/errors"

	"currentflow/sparse"
)

// ReducedMatrix replays B's branch stamps into a sparse matrix with node 0
// on ground, which drops the slack node's row and column. Matrix index i is
// node i.
func ReducedMatrix(b *Susceptance, config *Configuration) (*sparse.Matrix, error) {
	cfg := DefaultConfiguration()
	if config != nil {
		cfg = *config
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	m, err := sparse.Create(int64(b.Size()-1), &sparse.Configuration{
		Reorder:        !cfg.NaturalOrder,
		PivotThreshold: cfg.PivotThreshold,
		PrinterWidth:   sparse.DEFAULT_PRINTER_WIDTH,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create reduced matrix")
	}

	for _, st := range b.stamps {
		if err := m.AddAdmittance(int64(st.s), int64(st.d), st.y); err != nil {
			return nil, errors.Wrap(err, "load reduced matrix")
		}
	}
	return m, nil
}

// SolveAngles solves B*theta = P with theta[0] fixed at 0.
func SolveAngles(b *Susceptance, p []float64, config *Configuration) ([]float64, error) {
	theta, _, err := solveAngles(b, p, config)
	return theta, err
}

type solveStats struct {
	elements int
	fillins  int
	residual float64
}

func solveAngles(b *Susceptance, p []float64, config *Configuration) ([]float64, solveStats, error) {
	var stats solveStats

	n := b.Size()
	if len(p) != n {
		return nil, stats, errors.Errorf("injection vector has %d entries for %d nodes", len(p), n)
	}
	if n <= 1 {
		return nil, stats, &SingularError{}
	}

	cfg := DefaultConfiguration()
	if config != nil {
		cfg = *config
	}
	if err := cfg.Validate(); err != nil {
		return nil, stats, errors.Wrap(err, "invalid configuration")
	}

	m, err := ReducedMatrix(b, &cfg)
	if err != nil {
		return nil, stats, err
	}
	stats.elements = m.ElementCount()

	if err := m.Factor(); err != nil {
		return nil, stats, &SingularError{Node: int(m.SingularRow), cause: err}
	}
	stats.fillins = m.FillinCount()

	theta, err := m.Solve(p)
	if err != nil {
		return nil, stats, errors.Wrap(err, "solve reduced system")
	}

	stats.residual, err = checkBalance(b, theta, p, cfg.ResidualTolerance)
	if err != nil {
		return nil, stats, err
	}

	return theta, stats, nil
}

// checkBalance measures the largest |(B*theta)[i] - P[i]| over non-slack
// nodes and fails when it exceeds tolerance*max(1, max|P|). A NaN or
// infinite mismatch always fails with an infinite residual.
func checkBalance(b *Susceptance, theta, p []float64, tolerance float64) (float64, error) {
	scale := 1.0
	for _, v := range p {
		scale = math.Max(scale, math.Abs(v))
	}

	residual := 0.0
	mismatch := b.MulVec(theta)
	for i := 1; i < len(p); i++ {
		r := math.Abs(mismatch[i] - p[i])
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return math.Inf(1), &SingularError{Residual: math.Inf(1)}
		}
		residual = math.Max(residual, r)
	}
	if residual > tolerance*scale {
		return residual, &SingularError{Residual: residual}
	}
	return residual, nil
}
