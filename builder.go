package currentflow

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"currentflow/graph"
)

// Network is everything the host hands over for one solve.
type Network struct {
	ID      string
	Width   int // grid width in cells
	Wires   []Wire
	Devices DeviceLookup
}

// Builder turns wire segments into a Graph.
//
// Pass-through wires (valence 2, no device) are grouped into runs with a
// disjoint-set forest over their mutual connections; every run becomes one
// branch between the two nodes it ends on. Wires are visited in ascending
// cell order, so node ids, branch ids and endpoints do not depend on the
// order the host lists wires in.
type Builder struct {
	config Configuration
	log    *zap.Logger
}

func NewBuilder(config *Configuration, log *zap.Logger) (*Builder, error) {
	cfg := DefaultConfiguration()
	if config != nil {
		cfg = *config
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{config: cfg, log: log}, nil
}

// BuildGraph builds net's graph with the default configuration.
func BuildGraph(net Network) (*Graph, error) {
	b, err := NewBuilder(nil, nil)
	if err != nil {
		return nil, err
	}
	return b.Build(net)
}

// run is a branch under construction: its terminal node wires in the order
// they were met and the pass-through wires merged into it.
type run struct {
	terminals []int
	members   []int
}

// link is a raw connection between two wires, by index into the sorted wire
// slice, a < b.
type link struct {
	a, b int
}

func (bld *Builder) Build(net Network) (*Graph, error) {
	if net.Width <= 0 {
		return nil, errors.Errorf("invalid grid width: %d", net.Width)
	}

	devices := net.Devices
	if devices == nil {
		devices = DeviceSnapshot{}
	}

	wires := make([]Wire, len(net.Wires))
	copy(wires, net.Wires)
	sort.Slice(wires, func(i, j int) bool { return wires[i].Cell < wires[j].Cell })

	index := make(map[int]int, len(wires))
	for i, w := range wires {
		if _, dup := index[w.Cell]; dup {
			return nil, malformed(w.Cell, "more than one wire on the cell")
		}
		index[w.Cell] = i
	}

	isNode := make([]bool, len(wires))
	nodes := make([]Node, 0)
	kinds := make(map[DeviceKind]int)
	for i, w := range wires {
		device, hasDevice := devices.DeviceAt(w.Cell)
		if w.Valence() == 2 && !hasDevice {
			continue
		}
		isNode[i] = true

		n := Node{Cell: w.Cell, Valence: w.Valence()}
		if hasDevice {
			n.Device = device.Kind
			n.Power = device.Profile()
		}
		kinds[n.Device]++
		nodes = append(nodes, n)
	}
	bld.placeSlack(nodes)

	nodeID := make(map[int]int, len(nodes))
	for i := range nodes {
		nodes[i].ID = i
		nodeID[nodes[i].Cell] = i
	}

	links, err := collectLinks(wires, index, net.Width)
	if err != nil {
		return nil, err
	}

	forest := graph.NewDisjointSet(len(wires))
	for _, l := range links {
		if !isNode[l.a] && !isNode[l.b] {
			forest.Union(l.a, l.b)
		}
	}

	runs := make([]*run, 0)
	byRoot := make(map[int]*run)
	for _, l := range links {
		switch {
		case isNode[l.a] && isNode[l.b]:
			runs = append(runs, &run{terminals: []int{l.a, l.b}})
		case isNode[l.a] || isNode[l.b]:
			node, through := l.a, l.b
			if isNode[l.b] {
				node, through = l.b, l.a
			}
			root := forest.Find(through)
			r, ok := byRoot[root]
			if !ok {
				r = &run{}
				byRoot[root] = r
				runs = append(runs, r)
			}
			r.terminals = append(r.terminals, node)
		}
	}

	for i, w := range wires {
		if isNode[i] {
			continue
		}
		r, ok := byRoot[forest.Find(i)]
		if !ok {
			return nil, malformed(w.Cell, "run of pass-through wires never reaches a node")
		}
		r.members = append(r.members, i)
	}

	g := &Graph{Nodes: nodes, Branches: make([]Branch, 0, len(runs))}
	for _, r := range runs {
		if len(r.terminals) != 2 {
			cell := wires[r.terminals[0]].Cell
			return nil, malformed(cell, "run of pass-through wires ends on %d nodes", len(r.terminals))
		}

		src, dst := wires[r.terminals[0]], wires[r.terminals[1]]
		if src.Cell == dst.Cell {
			bld.log.Debug("dropping loop branch",
				zap.String("network", net.ID),
				zap.Int("cell", src.Cell),
				zap.Int("wires", len(r.members)))
			continue
		}

		b := Branch{
			Edge: graph.Edge{
				ID:          len(g.Branches),
				Source:      nodeID[src.Cell],
				Destination: nodeID[dst.Cell],
			},
			SourceCell:      src.Cell,
			DestinationCell: dst.Cell,
			Reactance:       bld.config.Reactance,
			Wires:           make([]int, 0, len(r.members)),
		}

		ratings := make([]float64, 0, len(r.members))
		for _, m := range r.members {
			b.Wires = append(b.Wires, wires[m].Cell)
			ratings = append(ratings, wires[m].MaxWattage)
		}
		if len(ratings) == 0 {
			ratings = append(ratings, src.MaxWattage, dst.MaxWattage)
		}
		b.Rating = bottleneck(ratings)

		g.Branches = append(g.Branches, b)
	}

	bld.log.Debug("graph built",
		zap.String("network", net.ID),
		zap.Int("width", net.Width),
		zap.Int("wires", len(wires)),
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("branches", len(g.Branches)),
		zap.Int("generators", kinds[Generator]),
		zap.Int("consumers", kinds[Consumer]),
		zap.Int("batteries", kinds[Battery]))

	return g, nil
}

// collectLinks lists every connection once, from the lower-cell side, in
// ascending cell then left, right, up, down order. Both ends must agree.
func collectLinks(wires []Wire, index map[int]int, width int) ([]link, error) {
	links := make([]link, 0, len(wires))
	for i, w := range wires {
		for _, d := range directions {
			if !w.Connections.Has(d.flag) {
				continue
			}
			cell := Neighbor(w.Cell, d.flag, width)
			j, ok := index[cell]
			if !ok {
				return nil, malformed(w.Cell, "connects %s to cell %d which has no wire", d.name, cell)
			}
			if !wires[j].Connections.Has(d.flag.Opposite()) {
				return nil, malformed(w.Cell, "connects %s to cell %d which does not connect back", d.name, cell)
			}
			if i < j {
				links = append(links, link{a: i, b: j})
			}
		}
	}
	return links, nil
}

// placeSlack moves the slack node to the front of nodes, which arrive in
// ascending cell order.
func (bld *Builder) placeSlack(nodes []Node) {
	if bld.config.Slack != SlackLargestGenerator {
		return
	}

	best := -1
	for i, n := range nodes {
		if n.Power.Generation > 0 && (best < 0 || n.Power.Generation > nodes[best].Power.Generation) {
			best = i
		}
	}
	if best <= 0 {
		return
	}

	slack := nodes[best]
	copy(nodes[1:best+1], nodes[:best])
	nodes[0] = slack
}

// bottleneck is the weakest rating; non-positive ratings count as unrated.
func bottleneck(ratings []float64) float64 {
	weakest := math.Inf(1)
	for _, r := range ratings {
		if r > 0 && r < weakest {
			weakest = r
		}
	}
	return weakest
}
