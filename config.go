package currentflow

import (
	"math"
	"runtime"

	"github.com/pkg/errors"
)

// SlackPolicy picks which node becomes node 0, the angle reference.
type SlackPolicy string

const (
	// SlackLowestCell makes the node on the lowest cell id the slack node.
	SlackLowestCell SlackPolicy = "lowest-cell"
	// SlackLargestGenerator makes the node with the most generation the
	// slack node, so the network's power mismatch is absorbed at a source.
	SlackLargestGenerator SlackPolicy = "largest-generator"
)

const (
	DEFAULT_REACTANCE          float64 = 1.0
	DEFAULT_PIVOT_THRESHOLD    float64 = 1e-12
	DEFAULT_RESIDUAL_TOLERANCE float64 = 1e-6
)

type Configuration struct {
	Reactance         float64     `toml:"reactance"`          // per-branch reactance
	PivotThreshold    float64     `toml:"pivot_threshold"`    // relative zero-pivot threshold
	ResidualTolerance float64     `toml:"residual_tolerance"` // relative power-balance tolerance
	Slack             SlackPolicy `toml:"slack"`
	Workers           int         `toml:"workers"` // SolveAll concurrency, 0: GOMAXPROCS
	NaturalOrder      bool        `toml:"natural_order"` // skip Markowitz ordering before factorization
}

func DefaultConfiguration() Configuration {
	return Configuration{
		Reactance:         DEFAULT_REACTANCE,
		PivotThreshold:    DEFAULT_PIVOT_THRESHOLD,
		ResidualTolerance: DEFAULT_RESIDUAL_TOLERANCE,
		Slack:             SlackLowestCell,
		Workers:           runtime.GOMAXPROCS(0),
	}
}

// Validate fills unset fields with defaults and rejects invalid ones. The
// zero Configuration validates to DefaultConfiguration.
func (c *Configuration) Validate() error {
	defaults := DefaultConfiguration()

	if c.Reactance == 0 {
		c.Reactance = defaults.Reactance
	}
	if !finite(c.Reactance) || c.Reactance < 0 {
		return errors.Errorf("reactance must be positive and finite, got %g", c.Reactance)
	}
	if c.PivotThreshold == 0 {
		c.PivotThreshold = defaults.PivotThreshold
	}
	if !finite(c.PivotThreshold) || c.PivotThreshold < 0 || c.PivotThreshold >= 1 {
		return errors.Errorf("pivot threshold must be in (0, 1), got %g", c.PivotThreshold)
	}
	if c.ResidualTolerance == 0 {
		c.ResidualTolerance = defaults.ResidualTolerance
	}
	if !finite(c.ResidualTolerance) || c.ResidualTolerance < 0 {
		return errors.Errorf("residual tolerance must be positive and finite, got %g", c.ResidualTolerance)
	}
	switch c.Slack {
	case "":
		c.Slack = defaults.Slack
	case SlackLowestCell, SlackLargestGenerator:
	default:
		return errors.Errorf("unknown slack policy %q", c.Slack)
	}
	if c.Workers <= 0 {
		c.Workers = defaults.Workers
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
