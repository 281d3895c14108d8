// Package graph holds the domain-free pieces of a network graph: dense
// integer vertices, undirected edges between them, a disjoint-set forest and
// island (connected component) discovery.
package graph

// Vertex is a graph vertex identified by a dense, 0-based id.
type Vertex struct {
	ID int
}

// Edge joins two vertices. Source and Destination fix the orientation used
// for signed quantities; equality ignores it.
type Edge struct {
	ID          int
	Source      int
	Destination int
}

// Equal reports whether e and other join the same pair of vertices.
func (e Edge) Equal(other Edge) bool {
	return (e.Source == other.Source && e.Destination == other.Destination) ||
		(e.Source == other.Destination && e.Destination == other.Source)
}

// Loop reports whether both ends sit on the same vertex.
func (e Edge) Loop() bool {
	return e.Source == e.Destination
}
