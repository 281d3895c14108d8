package currentflow

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Observer is told about every finished solve, successful or not.
type Observer interface {
	ObserveSolve(network Network, result *Result, err error, elapsed time.Duration)
}

type Option func(*Solver)

func WithLogger(log *zap.Logger) Option {
	return func(s *Solver) {
		if log != nil {
			s.log = log
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Solver) {
		s.observers = append(s.observers, o)
	}
}

// Solver runs wires -> graph -> matrices -> angles -> flows. A Solver keeps
// no per-network state and may be shared between goroutines.
type Solver struct {
	config    Configuration
	log       *zap.Logger
	builder   *Builder
	observers []Observer
}

func NewSolver(config *Configuration, opts ...Option) (*Solver, error) {
	cfg := DefaultConfiguration()
	if config != nil {
		cfg = *config
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	s := &Solver{config: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	builder, err := NewBuilder(&s.config, s.log)
	if err != nil {
		return nil, err
	}
	s.builder = builder
	return s, nil
}

func (s *Solver) Configuration() Configuration {
	return s.config
}

// Result is the outcome of one solve. Flows[i] belongs to Graph.Branches[i].
type Result struct {
	ID      uuid.UUID
	Network string
	Graph   *Graph
	Angles  []float64
	Flows   []float64
}

// Empty reports a network with at most one node, which has nothing to solve.
func (r *Result) Empty() bool {
	return len(r.Graph.Nodes) <= 1
}

// Magnitudes returns |flow| per branch.
func (r *Result) Magnitudes() []float64 {
	out := make([]float64, len(r.Flows))
	for i, f := range r.Flows {
		out[i] = math.Abs(f)
	}
	return out
}

// Loading is the branch's flow as a fraction of its rating.
func (r *Result) Loading(branch int) float64 {
	rating := r.Graph.Branches[branch].Rating
	if math.IsInf(rating, 1) {
		return 0
	}
	return math.Abs(r.Flows[branch]) / rating
}

// Overload is a branch carrying more than its rating.
type Overload struct {
	Branch int
	Flow   float64
	Rating float64
}

func (r *Result) Overloads() []Overload {
	var overloads []Overload
	for i, b := range r.Graph.Branches {
		if math.Abs(r.Flows[i]) > b.Rating {
			overloads = append(overloads, Overload{Branch: i, Flow: r.Flows[i], Rating: b.Rating})
		}
	}
	return overloads
}

// Solve computes per-branch flows for one network. Malformed wiring is
// reported as ErrMalformedTopology, an unsolvable network as
// ErrSingularSystem; neither returns a partial result.
func (s *Solver) Solve(net Network) (result *Result, err error) {
	start := time.Now()
	id := uuid.New()
	log := s.log.With(zap.String("network", net.ID), zap.Stringer("solve", id))

	defer func() {
		elapsed := time.Since(start)
		if err != nil {
			log.Warn("solve failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		}
		for _, o := range s.observers {
			o.ObserveSolve(net, result, err, elapsed)
		}
	}()

	g, err := s.builder.Build(net)
	if err != nil {
		return nil, errors.Wrap(err, "build graph")
	}

	result = &Result{ID: id, Network: net.ID, Graph: g, Angles: []float64{}, Flows: []float64{}}
	if result.Empty() {
		result.Angles = make([]float64, len(g.Nodes))
		log.Debug("empty network", zap.Int("nodes", len(g.Nodes)))
		return result, nil
	}

	if islands := g.Islands(); len(islands) > 1 {
		return nil, errors.Wrap(&SingularError{Islands: len(islands)}, "check connectivity")
	}

	b, p, err := BuildSystem(g)
	if err != nil {
		return nil, errors.Wrap(err, "build susceptance matrix")
	}

	theta, stats, err := solveAngles(b, p, &s.config)
	if err != nil {
		return nil, errors.Wrap(err, "solve angles")
	}

	flows, err := BranchFlows(g.Branches, theta)
	if err != nil {
		return nil, errors.Wrap(err, "branch flows")
	}
	result.Angles = theta
	result.Flows = flows

	log.Debug("solved",
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("branches", len(g.Branches)),
		zap.Int("elements", stats.elements),
		zap.Int("fillins", stats.fillins),
		zap.Float64("residual", stats.residual),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// Outcome pairs a network with its result or error.
type Outcome struct {
	Network string
	Result  *Result
	Err     error
}

// SolveAll solves networks concurrently on at most Workers goroutines.
// Per-network failures land in the matching Outcome; the returned error is
// only set when ctx ends before every network was solved.
func (s *Solver) SolveAll(ctx context.Context, networks []Network) ([]Outcome, error) {
	outcomes := make([]Outcome, len(networks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)

	skipped := false
	for i := range networks {
		if gctx.Err() != nil {
			skipped = true
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := s.Solve(networks[i])
			outcomes[i] = Outcome{Network: networks[i].ID, Result: result, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	if skipped {
		return outcomes, ctx.Err()
	}
	return outcomes, nil
}
