package dag

// BackEdges returns the edges that close a cycle in a depth-first walk
// started from the sources, then from any node left unvisited. Removing
// them leaves the graph acyclic. Traversal is in ID order, so the result
// is deterministic.
func BackEdges(g *DAG) []Edge {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, g.NodeCount())
	var back []Edge

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range g.Children(id) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				back = append(back, Edge{From: id, To: child})
			}
		}
		color[id] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	return back
}

// BreakCycles removes every back edge and returns them.
func BreakCycles(g *DAG) []Edge {
	back := BackEdges(g)
	for _, e := range back {
		g.RemoveEdge(e.From, e.To)
	}
	return back
}

// CyclePath returns the dependency path that a back edge closes, starting
// and ending at e.To. It returns nil when no path leads from e.To back to
// e.From.
func CyclePath(g *DAG, e Edge) []string {
	prev := map[string]string{e.To: ""}
	queue := []string{e.To}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == e.From {
			var path []string
			for n := cur; n != ""; n = prev[n] {
				path = append([]string{n}, path...)
			}
			return append(path, e.To)
		}
		for _, c := range g.Children(cur) {
			if _, seen := prev[c]; !seen {
				prev[c] = cur
				queue = append(queue, c)
			}
		}
	}
	return nil
}
