package graph

// Islands partitions vertices 0..n-1 into connected components. Islands are
// ordered by their smallest vertex and each island lists its vertices in
// ascending order, so the result depends only on the edge set.
func Islands(n int, edges []Edge) [][]int {
	set := NewDisjointSet(n)
	for _, e := range edges {
		set.Union(e.Source, e.Destination)
	}

	islands := [][]int{}
	index := make(map[int]int, n)
	for v := 0; v < n; v++ {
		root := set.Find(v)
		i, ok := index[root]
		if !ok {
			i = len(islands)
			index[root] = i
			islands = append(islands, nil)
		}
		islands[i] = append(islands[i], v)
	}
	return islands
}
