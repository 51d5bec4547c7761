package dag

import "slices"

// Reachable returns the IDs reachable from roots through dependency
// edges, roots included, sorted. Unknown roots are ignored.
func Reachable(g *DAG, roots ...string) []string {
	seen := make(map[string]bool)
	var visit func(id string)
	visit = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		for _, c := range g.Children(id) {
			visit(c)
		}
	}
	for _, r := range roots {
		if _, ok := g.Node(r); ok {
			visit(r)
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Subgraph returns a copy of g restricted to ids and the edges between
// them. Node metadata maps are shared with g.
func Subgraph(g *DAG, ids []string) *DAG {
	sub := New(g.Meta())
	for _, id := range ids {
		if n, ok := g.Node(id); ok {
			_ = sub.AddNode(*n)
		}
	}
	for _, e := range g.Edges() {
		_ = sub.AddEdge(e)
	}
	return sub
}

// BuildOrder returns every node ID with dependencies before dependents.
// Among nodes that are ready at the same time, IDs are taken in sorted
// order. Returns ErrGraphHasCycle when the graph is cyclic.
func BuildOrder(g *DAG) ([]string, error) {
	pending := make(map[string]int, g.NodeCount())
	var ready []string
	for _, n := range g.Nodes() {
		pending[n.ID] = g.OutDegree(n.ID)
		if pending[n.ID] == 0 {
			ready = append(ready, n.ID)
		}
	}

	order := make([]string, 0, g.NodeCount())
	for len(ready) > 0 {
		slices.Sort(ready)
		cur := ready[0]
		ready = ready[1:]
		order = append(order, cur)
		for _, p := range g.Parents(cur) {
			pending[p]--
			if pending[p] == 0 {
				ready = append(ready, p)
			}
		}
	}
	if len(order) != g.NodeCount() {
		return nil, ErrGraphHasCycle
	}
	return order, nil
}

// AssignLayers sets each node's Row to its build stage: 0 for packages
// without dependencies, otherwise one more than the highest stage of its
// dependencies. Packages of one stage can be built in parallel.
//
// AssignLayers assumes the graph is acyclic. Nodes on a cycle keep row 0;
// run [BreakCycles] first.
func AssignLayers(g *DAG) {
	pending := make(map[string]int, g.NodeCount())
	rows := make(map[string]int, g.NodeCount())
	var queue []string
	for _, n := range g.Nodes() {
		pending[n.ID] = g.OutDegree(n.ID)
		if pending[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range g.Parents(cur) {
			if row := rows[cur] + 1; row > rows[p] {
				rows[p] = row
			}
			pending[p]--
			if pending[p] == 0 {
				queue = append(queue, p)
			}
		}
	}

	for _, n := range g.Nodes() {
		n.Row = rows[n.ID]
	}
}
