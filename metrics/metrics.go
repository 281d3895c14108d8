// Package metrics exports solver outcomes as Prometheus metrics.
package metrics

import (
	"bytes"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"currentflow"
)

const (
	OutcomeOK                = "ok"
	OutcomeEmpty             = "empty"
	OutcomeMalformedTopology = "malformed_topology"
	OutcomeSingularSystem    = "singular_system"
	OutcomeError             = "error"
)

// Recorder is a currentflow.Observer that keeps solve counters, timings and
// network sizes in its own registry.
type Recorder struct {
	registry      *prometheus.Registry
	solvesTotal   *prometheus.CounterVec
	solveDuration *prometheus.HistogramVec
	overloads     prometheus.Counter
	nodes         prometheus.Histogram
	branches      prometheus.Histogram
}

var sizeBuckets = prometheus.ExponentialBuckets(1, 4, 8)

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	r := &Recorder{
		registry: registry,
		solvesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "currentflow_solves_total", Help: "Solves by outcome"},
			[]string{"outcome"},
		),
		solveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "currentflow_solve_duration_seconds",
				Help:    "Wall time of one solve in seconds",
				Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
			},
			[]string{"outcome"},
		),
		overloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "currentflow_overloaded_branches_total",
			Help: "Branches found carrying more than their rating",
		}),
		nodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "currentflow_graph_nodes",
			Help:    "Nodes per solved network",
			Buckets: sizeBuckets,
		}),
		branches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "currentflow_graph_branches",
			Help:    "Branches per solved network",
			Buckets: sizeBuckets,
		}),
	}

	registry.MustRegister(r.solvesTotal, r.solveDuration, r.overloads, r.nodes, r.branches)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ObserveSolve(_ currentflow.Network, result *currentflow.Result, err error, elapsed time.Duration) {
	outcome := Outcome(result, err)
	r.solvesTotal.WithLabelValues(outcome).Inc()
	r.solveDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())

	if err != nil || result == nil {
		return
	}
	r.nodes.Observe(float64(len(result.Graph.Nodes)))
	r.branches.Observe(float64(len(result.Graph.Branches)))
	r.overloads.Add(float64(len(result.Overloads())))
}

// Outcome classifies a finished solve for the outcome label.
func Outcome(result *currentflow.Result, err error) string {
	switch {
	case errors.Is(err, currentflow.ErrMalformedTopology):
		return OutcomeMalformedTopology
	case errors.Is(err, currentflow.ErrSingularSystem):
		return OutcomeSingularSystem
	case err != nil:
		return OutcomeError
	case result != nil && result.Empty():
		return OutcomeEmpty
	}
	return OutcomeOK
}

// Write writes all metrics to a Prometheus text file.
func (r *Recorder) Write(path string) error {
	families, err := r.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return errors.Wrapf(err, "encode %s", family.GetName())
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
