package dag

import "github.com/smilemakc/orchestrate/internal/domain"

// breakCycles repeatedly finds a cycle and removes its lowest-scoring
// edge until the graph is acyclic, per §4.6 and the determinism note in
// §9: ties in "lowest-scoring" are broken by (from, to) lexicographic
// order. A diagnostic is attached for every edge removed this way.
func breakCycles(nodes []domain.Node, edges []domain.Edge) ([]domain.Edge, []string) {
	var diagnostics []string

	for {
		cycle := findCycle(nodes, edges)
		if cycle == nil {
			return edges, diagnostics
		}

		victim := lowestScoringEdge(cycle)
		diagnostics = append(diagnostics, "cycle broken: removed edge "+victim.From+" → "+victim.To)

		edges = removeEdge(edges, victim)
	}
}

// findCycle returns the edges forming one cycle, or nil if the graph
// (restricted to the given edges) is acyclic. Detection is a standard
// DFS with a recursion-stack marker.
func findCycle(nodes []domain.Node, edges []domain.Edge) []domain.Edge {
	adj := make(map[string][]domain.Edge)
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e)
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(nodes))
	for _, n := range nodes {
		color[n.ID] = white
	}

	var path []domain.Edge
	var cycle []domain.Edge

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, e := range adj[id] {
			switch color[e.To] {
			case white:
				path = append(path, e)
				if visit(e.To) {
					return true
				}
				path = path[:len(path)-1]
			case gray:
				// Found the back edge; walk path back to e.To to extract
				// the cycle's edge set.
				path = append(path, e)
				start := 0
				for i, pe := range path {
					if pe.From == e.To {
						start = i
						break
					}
				}
				cycle = append([]domain.Edge{}, path[start:]...)
				return true
			}
		}
		color[id] = black
		return false
	}

	for _, n := range nodes {
		if color[n.ID] == white {
			path = nil
			if visit(n.ID) {
				return cycle
			}
		}
	}
	return nil
}

func lowestScoringEdge(cycle []domain.Edge) domain.Edge {
	victim := cycle[0]
	for _, e := range cycle[1:] {
		if less(e, victim) {
			victim = e
		}
	}
	return victim
}

// less orders edges for the deterministic tie-break: lexicographic on
// (from, to). There is no per-edge score field on domain.Edge itself
// (score lives on the node's selection metadata), so "lowest-scoring"
// degenerates to this declared tie-break whenever scores are equal,
// which for inferred edges (no independent edge score) is always.
func less(a, b domain.Edge) bool {
	if a.From != b.From {
		return a.From < b.From
	}
	return a.To < b.To
}

func removeEdge(edges []domain.Edge, victim domain.Edge) []domain.Edge {
	out := edges[:0]
	removed := false
	for _, e := range edges {
		if !removed && e.From == victim.From && e.To == victim.To {
			removed = true
			continue
		}
		out = append(out, e)
	}
	return out
}
