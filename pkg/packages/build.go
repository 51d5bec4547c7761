package packages

import (
	"slices"

	"github.com/matzehuels/spkwatch/pkg/dag"
)

// BuildStep is one package of a build plan.
type BuildStep struct {
	ID string `json:"id" yaml:"id"`
	// Stage groups packages that can be built in parallel; stage 0 first.
	Stage int    `json:"stage" yaml:"stage"`
	From  string `json:"from,omitempty" yaml:"from,omitempty"`
	To    string `json:"to,omitempty" yaml:"to,omitempty"`
	// Dependency marks packages included only because an updated package
	// depends on them.
	Dependency bool `json:"dependency,omitempty" yaml:"dependency,omitempty"`
}

// Plan orders the packages with updates for building, dependencies
// first. With withDeps the dependency closure of every updated package is
// included. Cycles are broken before ordering.
func Plan(reg *Registry, results []Result, withDeps bool) []BuildStep {
	updates := make(map[string]Result)
	var roots []string
	for _, r := range results {
		if r.Err == nil && r.HasUpdate {
			updates[r.ID] = r
			roots = append(roots, r.ID)
		}
	}
	if len(roots) == 0 {
		return nil
	}

	g := reg.Graph()
	ids := roots
	if withDeps {
		ids = dag.Reachable(g, roots...)
	}
	sub := dag.Subgraph(g, ids)
	dag.BreakCycles(sub)
	dag.AssignLayers(sub)
	order, _ := dag.BuildOrder(sub)

	steps := make([]BuildStep, 0, len(order))
	for _, id := range order {
		n, _ := sub.Node(id)
		if n.Kind == dag.NodeKindMissing {
			continue
		}
		step := BuildStep{ID: id, Stage: n.Row}
		if r, ok := updates[id]; ok {
			step.From, step.To = r.Current, r.Next
		} else {
			step.Dependency = true
		}
		steps = append(steps, step)
	}
	slices.SortStableFunc(steps, func(a, b BuildStep) int { return a.Stage - b.Stage })
	return steps
}
