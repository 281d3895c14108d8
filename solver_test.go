package currentflow

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const eps = 1e-9

// ring is four device nodes wired into a square: a generator feeding three
// consumers both ways round.
func ring() Network {
	return Network{
		ID:    "ring",
		Width: testWidth,
		Wires: []Wire{
			wire(0, 0, Right|Up, 1000),
			wire(1, 0, Left|Up, 1000),
			wire(0, 1, Right|Down, 1000),
			wire(1, 1, Left|Down, 100),
		},
		Devices: NewDeviceSnapshot(
			generator(0, 0, 300),
			consumer(1, 0, 100),
			consumer(0, 1, 50),
			consumer(1, 1, 150),
		),
	}
}

func twoNode(generation, draw float64) Network {
	return Network{
		ID:    "pair",
		Width: testWidth,
		Wires: []Wire{
			wire(0, 0, Right, 80),
			wire(1, 0, Left, 80),
		},
		Devices: NewDeviceSnapshot(generator(0, 0, generation), consumer(1, 0, draw)),
	}
}

func newSolver(t *testing.T, opts ...Option) *Solver {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	s, err := NewSolver(nil, opts...)
	require.NoError(t, err)
	return s
}

func TestSolveTwoNodes(t *testing.T) {
	s := newSolver(t)

	result, err := s.Solve(twoNode(100, 100))
	require.NoError(t, err)
	require.Len(t, result.Flows, 1)
	assert.InDelta(t, 100, result.Flows[0], eps)
	assert.Equal(t, 0.0, result.Angles[0])
	assert.InDelta(t, -100, result.Angles[1], eps)
	assert.Equal(t, "pair", result.Network)
	assert.False(t, result.Empty())
}

func TestSolveSlackAbsorbsMismatch(t *testing.T) {
	s := newSolver(t)

	result, err := s.Solve(twoNode(150, 100))
	require.NoError(t, err)
	assert.InDelta(t, 100, result.Flows[0], eps)
}

func TestSolveRing(t *testing.T) {
	s := newSolver(t)

	result, err := s.Solve(ring())
	require.NoError(t, err)

	want := []float64{162.5, 137.5, 62.5, 87.5}
	require.Len(t, result.Flows, len(want))
	for i, w := range want {
		assert.InDelta(t, w, result.Flows[i], 1e-6, "branch %d", i)
	}

	// Kirchhoff: what leaves each node equals its injection.
	net := make([]float64, len(result.Graph.Nodes))
	for i, b := range result.Graph.Branches {
		net[b.Source] += result.Flows[i]
		net[b.Destination] -= result.Flows[i]
	}
	for i, p := range result.Graph.Injections() {
		assert.InDelta(t, p, net[i], 1e-6, "node %d", i)
	}

	overloads := result.Overloads()
	require.Len(t, overloads, 0)
	assert.InDelta(t, 0.1625, result.Loading(0), 1e-9)
}

func TestSolveOverloads(t *testing.T) {
	s := newSolver(t)

	result, err := s.Solve(twoNode(100, 100))
	require.NoError(t, err)

	overloads := result.Overloads()
	require.Len(t, overloads, 1)
	assert.Equal(t, Overload{Branch: 0, Flow: result.Flows[0], Rating: 80}, overloads[0])
	assert.InDelta(t, 1.25, result.Loading(0), eps)
}

func TestSolveMagnitudes(t *testing.T) {
	s := newSolver(t)

	result, err := s.Solve(tee())
	require.NoError(t, err)

	// Node 0 is the consumer on the short arm, so its branch runs against the current.
	require.Len(t, result.Flows, 3)
	assert.InDelta(t, -100, result.Flows[0], 1e-6)
	assert.InDelta(t, 300, result.Flows[1], 1e-6)
	assert.InDelta(t, 200, result.Flows[2], 1e-6)

	mags := result.Magnitudes()
	assert.InDelta(t, 100, mags[0], 1e-6)
	assert.InDelta(t, 300, mags[1], 1e-6)
}

func TestSolveLargestGeneratorSlack(t *testing.T) {
	s, err := NewSolver(&Configuration{Slack: SlackLargestGenerator})
	require.NoError(t, err)

	lowest := newSolver(t)

	a, err := s.Solve(tee())
	require.NoError(t, err)
	b, err := lowest.Solve(tee())
	require.NoError(t, err)

	assert.Equal(t, cell(0, 2), a.Graph.Nodes[0].Cell)
	assert.Equal(t, 0.0, a.Angles[0])

	// Flow per wire run does not depend on which node is the reference.
	byCells := func(r *Result) map[[2]int]float64 {
		out := make(map[[2]int]float64)
		for i, br := range r.Graph.Branches {
			out[[2]int{br.SourceCell, br.DestinationCell}] = r.Flows[i]
		}
		return out
	}
	got, want := byCells(a), byCells(b)
	require.Len(t, got, len(want))
	for k, w := range want {
		assert.InDelta(t, w, got[k], 1e-6, "run %v", k)
	}
}

func TestSolveDisconnected(t *testing.T) {
	s := newSolver(t)

	net := twoNode(100, 100)
	net.Wires = append(net.Wires, hline(4, 0, 2, rated(1000))...)
	net.Devices = NewDeviceSnapshot(
		generator(0, 0, 100), consumer(1, 0, 100),
		generator(0, 4, 10), consumer(2, 4, 10),
	)

	result, err := s.Solve(net)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrSingularSystem)

	var singular *SingularError
	require.ErrorAs(t, err, &singular)
	assert.Equal(t, 2, singular.Islands)
	assert.Contains(t, err.Error(), "2 islands")
}

func TestSolveMalformed(t *testing.T) {
	s := newSolver(t)

	result, err := s.Solve(Network{Width: testWidth, Wires: []Wire{wire(0, 0, Up, 100)}})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrMalformedTopology)
	assert.NotErrorIs(t, err, ErrSingularSystem)
}

func TestSolveEmpty(t *testing.T) {
	s := newSolver(t)

	tests := []struct {
		name  string
		net   Network
		nodes int
	}{
		{"no wires", Network{Width: testWidth}, 0},
		{"lone generator", Network{
			Width:   testWidth,
			Wires:   []Wire{wire(3, 3, 0, 100)},
			Devices: NewDeviceSnapshot(generator(3, 3, 100)),
		}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.Solve(tt.net)
			require.NoError(t, err)
			assert.True(t, result.Empty())
			assert.Len(t, result.Graph.Nodes, tt.nodes)
			assert.Len(t, result.Angles, tt.nodes)
			assert.Empty(t, result.Flows)
			assert.Empty(t, result.Overloads())
		})
	}
}

type recordingObserver struct {
	mu    sync.Mutex
	seen  []string
	fails int
}

func (o *recordingObserver) ObserveSolve(net Network, result *Result, err error, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, net.ID)
	if err != nil {
		o.fails++
	}
}

func TestSolveAll(t *testing.T) {
	observer := &recordingObserver{}
	s := newSolver(t, WithObserver(observer))

	bad := Network{ID: "bad", Width: testWidth, Wires: []Wire{wire(0, 0, Left, 100)}}
	networks := []Network{ring(), bad, tee(), twoNode(100, 100)}

	outcomes, err := s.SolveAll(context.Background(), networks)
	require.NoError(t, err)
	require.Len(t, outcomes, len(networks))

	for i, o := range outcomes {
		assert.Equal(t, networks[i].ID, o.Network)
	}
	assert.ErrorIs(t, outcomes[1].Err, ErrMalformedTopology)
	assert.Nil(t, outcomes[1].Result)
	for _, i := range []int{0, 2, 3} {
		require.NoError(t, outcomes[i].Err)
		assert.NotNil(t, outcomes[i].Result)
	}
	assert.InDelta(t, 162.5, outcomes[0].Result.Flows[0], 1e-6)

	assert.ElementsMatch(t, []string{"ring", "bad", "tee", "pair"}, observer.seen)
	assert.Equal(t, 1, observer.fails)
}

func TestSolveAllCanceled(t *testing.T) {
	s := newSolver(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.SolveAll(ctx, []Network{ring(), tee()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResultIDsAreUnique(t *testing.T) {
	s := newSolver(t)

	a, err := s.Solve(ring())
	require.NoError(t, err)
	b, err := s.Solve(ring())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNewSolverRejectsBadConfiguration(t *testing.T) {
	_, err := NewSolver(&Configuration{Reactance: -1})
	assert.Error(t, err)

	_, err = NewSolver(&Configuration{Slack: "random"})
	assert.Error(t, err)
}

func TestSolveReactance(t *testing.T) {
	s, err := NewSolver(&Configuration{Reactance: 0.5})
	require.NoError(t, err)

	result, err := s.Solve(twoNode(100, 100))
	require.NoError(t, err)
	assert.InDelta(t, 100, result.Flows[0], eps)
	assert.InDelta(t, -50, result.Angles[1], eps)
	assert.False(t, math.IsNaN(result.Angles[1]))
}
