package currentflow

import (
	"currentflow/graph"
)

// PowerProfile is the power a node takes from and gives to the network, in watts.
type PowerProfile struct {
	Draw       float64
	Generation float64
}

// Injection is the net power a node pushes into the network.
func (p PowerProfile) Injection() float64 {
	return p.Generation - p.Draw
}

// Node is a structurally significant wire cell: a junction, a line end, a
// corner or anything with a device attached.
type Node struct {
	graph.Vertex
	Cell    int
	Valence int
	Device  DeviceKind
	Power   PowerProfile
}

// Branch is a conductor run between two nodes. Wires lists the cells of the
// pass-through wires merged into the run; a run between two adjacent nodes
// has none.
type Branch struct {
	graph.Edge
	SourceCell      int
	DestinationCell int
	Reactance       float64
	Rating          float64
	Wires           []int
}

// Susceptance is the branch's inverse reactance.
func (b Branch) Susceptance() float64 {
	return 1 / b.Reactance
}

// Graph is the node/branch view of one network. Node 0 is the slack node.
type Graph struct {
	Nodes    []Node
	Branches []Branch
}

func (g *Graph) Edges() []graph.Edge {
	edges := make([]graph.Edge, len(g.Branches))
	for i, b := range g.Branches {
		edges[i] = b.Edge
	}
	return edges
}

// Islands groups node ids into connected components.
func (g *Graph) Islands() [][]int {
	return graph.Islands(len(g.Nodes), g.Edges())
}

// NodeAt returns the node built for cell.
func (g *Graph) NodeAt(cell int) (Node, bool) {
	for _, n := range g.Nodes {
		if n.Cell == cell {
			return n, true
		}
	}
	return Node{}, false
}

func (g *Graph) Injections() []float64 {
	p := make([]float64, len(g.Nodes))
	for _, n := range g.Nodes {
		p[n.ID] = n.Power.Injection()
	}
	return p
}
