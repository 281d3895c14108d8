package currentflow

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWidth = 16

func cell(x, y int) int {
	return x + y*testWidth
}

func wire(x, y int, c Connections, rating float64) Wire {
	return Wire{Cell: cell(x, y), Connections: c, MaxWattage: rating}
}

// hline lays a straight horizontal run from x0 to x1 on row y.
func hline(y, x0, x1 int, rating func(x int) float64) []Wire {
	wires := make([]Wire, 0, x1-x0+1)
	for x := x0; x <= x1; x++ {
		var c Connections
		if x > x0 {
			c |= Left
		}
		if x < x1 {
			c |= Right
		}
		wires = append(wires, wire(x, y, c, rating(x)))
	}
	return wires
}

func rated(w float64) func(int) float64 {
	return func(int) float64 { return w }
}

func generator(x, y int, watts float64) Device {
	return Device{Kind: Generator, Cell: cell(x, y), WattageRating: watts}
}

func consumer(x, y int, watts float64) Device {
	return Device{Kind: Consumer, Cell: cell(x, y), WattsUsed: watts}
}

// tee is a generator feeding a T junction with consumers on the other two arms.
//
//	G - . - T - . - C2
//	        |
//	        .
//	        C1
func tee() Network {
	wires := []Wire{
		wire(0, 2, Right, 2000),
		wire(1, 2, Left|Right, 2000),
		wire(2, 2, Left|Right|Down, 2000),
		wire(3, 2, Left|Right, 1000),
		wire(4, 2, Left, 2000),
		wire(2, 1, Up|Down, 500),
		wire(2, 0, Up, 2000),
	}
	return Network{
		ID:    "tee",
		Width: testWidth,
		Wires: wires,
		Devices: NewDeviceSnapshot(
			generator(0, 2, 300),
			consumer(2, 0, 100),
			consumer(4, 2, 200),
		),
	}
}

func TestBuildChainCollapse(t *testing.T) {
	net := Network{
		Width:   testWidth,
		Wires:   hline(1, 0, 6, rated(1000)),
		Devices: NewDeviceSnapshot(generator(0, 1, 100), consumer(6, 1, 100)),
	}

	g, err := BuildGraph(net)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 2)
	require.Len(t, g.Branches, 1)

	b := g.Branches[0]
	assert.Len(t, b.Wires, 5)
	assert.Equal(t, []int{cell(1, 1), cell(2, 1), cell(3, 1), cell(4, 1), cell(5, 1)}, b.Wires)
	assert.Equal(t, 0, b.Source)
	assert.Equal(t, 1, b.Destination)
	assert.Equal(t, cell(0, 1), b.SourceCell)
	assert.Equal(t, cell(6, 1), b.DestinationCell)
	assert.Equal(t, 1.0, b.Reactance)

	assert.Equal(t, Generator, g.Nodes[0].Device)
	assert.Equal(t, 100.0, g.Nodes[0].Power.Generation)
	assert.Equal(t, Consumer, g.Nodes[1].Device)
	assert.Equal(t, 100.0, g.Nodes[1].Power.Draw)
	assert.Equal(t, 1, g.Nodes[0].Valence)
}

func TestBuildBottleneckRating(t *testing.T) {
	ratings := map[int]float64{0: 20000, 1: 1000, 2: 500, 3: 2000, 4: 20000}
	net := Network{
		Width:   testWidth,
		Wires:   hline(3, 0, 4, func(x int) float64 { return ratings[x] }),
		Devices: NewDeviceSnapshot(generator(0, 3, 100), consumer(4, 3, 100)),
	}

	g, err := BuildGraph(net)
	require.NoError(t, err)
	require.Len(t, g.Branches, 1)
	assert.Equal(t, 500.0, g.Branches[0].Rating)
}

func TestBuildAdjacentNodes(t *testing.T) {
	net := Network{
		Width: testWidth,
		Wires: []Wire{
			wire(5, 5, Right, 2000),
			wire(6, 5, Left, 1000),
		},
		Devices: NewDeviceSnapshot(generator(5, 5, 100), consumer(6, 5, 50)),
	}

	g, err := BuildGraph(net)
	require.NoError(t, err)
	require.Len(t, g.Branches, 1)
	assert.Empty(t, g.Branches[0].Wires)
	assert.Equal(t, 1000.0, g.Branches[0].Rating)
}

func TestBuildUnratedWires(t *testing.T) {
	net := Network{
		Width:   testWidth,
		Wires:   hline(0, 0, 3, rated(0)),
		Devices: NewDeviceSnapshot(generator(0, 0, 10), consumer(3, 0, 10)),
	}

	g, err := BuildGraph(net)
	require.NoError(t, err)
	assert.True(t, math.IsInf(g.Branches[0].Rating, 1))
}

func TestBuildTee(t *testing.T) {
	g, err := BuildGraph(tee())
	require.NoError(t, err)

	cells := make([]int, len(g.Nodes))
	for i, n := range g.Nodes {
		assert.Equal(t, i, n.ID)
		cells[i] = n.Cell
	}
	assert.Equal(t, []int{cell(2, 0), cell(0, 2), cell(2, 2), cell(4, 2)}, cells)

	junction, ok := g.NodeAt(cell(2, 2))
	require.True(t, ok)
	assert.Equal(t, 3, junction.Valence)
	assert.Equal(t, NoDevice, junction.Device)

	require.Len(t, g.Branches, 3)
	want := []struct {
		source, destination int
		wires               []int
		rating              float64
	}{
		{0, 2, []int{cell(2, 1)}, 500},
		{1, 2, []int{cell(1, 2)}, 2000},
		{2, 3, []int{cell(3, 2)}, 1000},
	}
	for i, w := range want {
		b := g.Branches[i]
		assert.Equal(t, i, b.ID)
		assert.Equal(t, w.source, b.Source, "branch %d", i)
		assert.Equal(t, w.destination, b.Destination, "branch %d", i)
		assert.Equal(t, w.wires, b.Wires, "branch %d", i)
		assert.Equal(t, w.rating, b.Rating, "branch %d", i)
	}
}

func TestBuildNodeIDsAreDense(t *testing.T) {
	nets := []Network{tee(), ring()}
	for _, net := range nets {
		g, err := BuildGraph(net)
		require.NoError(t, err)

		seen := make(map[int]bool)
		for _, n := range g.Nodes {
			seen[n.ID] = true
		}
		for id := 0; id < len(g.Nodes); id++ {
			assert.True(t, seen[id], "%s: missing node id %d", net.ID, id)
		}
		assert.Len(t, seen, len(g.Nodes))

		for _, b := range g.Branches {
			assert.NotEqual(t, b.Source, b.Destination)
			assert.GreaterOrEqual(t, b.Source, 0)
			assert.Less(t, b.Destination, len(g.Nodes))
		}
	}
}

func TestBuildIgnoresInputOrder(t *testing.T) {
	net := tee()
	want, err := BuildGraph(net)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := net
		shuffled.Wires = make([]Wire, len(net.Wires))
		for to, from := range rng.Perm(len(net.Wires)) {
			shuffled.Wires[to] = net.Wires[from]
		}

		got, err := BuildGraph(shuffled)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("graph depends on wire order (-want +got):\n%s", diff)
		}
	}
}

func TestBuildDropsLoops(t *testing.T) {
	// The consumer's right and up exits lead around a small loop back to itself.
	net := Network{
		Width: testWidth,
		Wires: []Wire{
			wire(0, 1, Right, 1000),
			wire(1, 1, Left|Right|Up, 1000),
			wire(2, 1, Left|Up, 1000),
			wire(2, 2, Down|Left, 1000),
			wire(1, 2, Right|Down, 1000),
		},
		Devices: NewDeviceSnapshot(generator(0, 1, 100), consumer(1, 1, 100)),
	}

	g, err := BuildGraph(net)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 2)
	require.Len(t, g.Branches, 1)
	assert.Equal(t, cell(0, 1), g.Branches[0].SourceCell)
	assert.Equal(t, cell(1, 1), g.Branches[0].DestinationCell)
}

func TestBuildMalformed(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		net   Network
		cell  int
		wants string
	}{
		{
			name: "dangling connection",
			net: Network{Width: testWidth, Wires: []Wire{
				wire(0, 0, Right, 1000),
				wire(1, 0, Left|Right, 1000),
			}},
			cell:  cell(1, 0),
			wants: "has no wire",
		},
		{
			name: "one-sided connection",
			net: Network{Width: testWidth, Wires: []Wire{
				wire(0, 0, Right, 1000),
				wire(1, 0, Up, 1000),
			}},
			cell:  cell(0, 0),
			wants: "does not connect back",
		},
		{
			name: "duplicate cell",
			net: Network{Width: testWidth, Wires: []Wire{
				wire(3, 3, 0, 1000),
				wire(3, 3, 0, 1000),
			}},
			cell:  cell(3, 3),
			wants: "more than one wire",
		},
		{
			name: "closed ring without nodes",
			net: Network{Width: testWidth, Wires: []Wire{
				wire(0, 0, Right|Up, 1000),
				wire(1, 0, Left|Up, 1000),
				wire(0, 1, Right|Down, 1000),
				wire(1, 1, Left|Down, 1000),
			}},
			cell:  cell(0, 0),
			wants: "never reaches a node",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildGraph(tt.net)
			require.ErrorIs(t, err, ErrMalformedTopology)

			var topo *TopologyError
			require.ErrorAs(t, err, &topo)
			assert.Equal(t, tt.cell, topo.Cell)
			assert.Contains(t, err.Error(), tt.wants)
		})
	}
}

func TestBuildRejectsBadWidth(t *testing.T) {
	_, err := BuildGraph(Network{Width: 0})
	assert.Error(t, err)
}

func TestBuildSlackPolicy(t *testing.T) {
	net := Network{
		Width: testWidth,
		Wires: hline(0, 0, 4, rated(1000)),
		Devices: NewDeviceSnapshot(
			consumer(0, 0, 50),
			generator(2, 0, 40),
			generator(4, 0, 60),
		),
	}

	g, err := BuildGraph(net)
	require.NoError(t, err)
	assert.Equal(t, cell(0, 0), g.Nodes[0].Cell)

	b, err := NewBuilder(&Configuration{Slack: SlackLargestGenerator}, nil)
	require.NoError(t, err)
	g, err = b.Build(net)
	require.NoError(t, err)

	cells := []int{}
	for _, n := range g.Nodes {
		cells = append(cells, n.Cell)
	}
	assert.Equal(t, []int{cell(4, 0), cell(0, 0), cell(2, 0)}, cells)
	assert.Equal(t, 0, g.Nodes[0].ID)
}
