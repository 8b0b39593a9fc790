package codemap

// DependencyGraph is an adjacency view over a sorted edge list. Edges are
// the source of truth; the forward/reverse adjacency maps are a transient
// index rebuilt at load time for constant-time neighbor queries (§9 design
// notes: "a second, transient adjacency index is built at load time").
type DependencyGraph struct {
	edges   []Edge
	forward map[string][]Edge // source -> outgoing edges
	reverse map[string][]Edge // target -> incoming edges
}

// NewDependencyGraph builds a graph over edges, which must already be
// sorted by (source, kind, target) per the indexing service's invariant.
func NewDependencyGraph(edges []Edge) *DependencyGraph {
	g := &DependencyGraph{
		edges:   edges,
		forward: make(map[string][]Edge, len(edges)),
		reverse: make(map[string][]Edge, len(edges)),
	}
	for _, e := range edges {
		g.forward[e.Source] = append(g.forward[e.Source], e)
		g.reverse[e.Target] = append(g.reverse[e.Target], e)
	}
	return g
}

// Edges returns the full sorted edge list backing this graph.
func (g *DependencyGraph) Edges() []Edge {
	return g.edges
}

// Dependencies returns the nodes that node directly depends on (outgoing
// edges).
func (g *DependencyGraph) Dependencies(node string) []string {
	return targets(g.forward[node])
}

// Dependents returns the nodes that directly depend on node (incoming
// edges).
func (g *DependencyGraph) Dependents(node string) []string {
	return sources(g.reverse[node])
}

// Neighbors returns every node reachable from node within depth hops,
// following edges in either direction. depth 0 returns an empty slice.
func (g *DependencyGraph) Neighbors(node string, depth int) []string {
	if depth <= 0 {
		return nil
	}
	seen := map[string]bool{node: true}
	frontier := []string{node}
	var result []string
	for d := 0; d < depth; d++ {
		var next []string
		for _, n := range frontier {
			for _, t := range targets(g.forward[n]) {
				if !seen[t] {
					seen[t] = true
					result = append(result, t)
					next = append(next, t)
				}
			}
			for _, s := range sources(g.reverse[n]) {
				if !seen[s] {
					seen[s] = true
					result = append(result, s)
					next = append(next, s)
				}
			}
		}
		frontier = next
	}
	return result
}

func targets(edges []Edge) []string {
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.Target
	}
	return out
}

func sources(edges []Edge) []string {
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.Source
	}
	return out
}
