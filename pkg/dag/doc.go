// Package dag provides the package dependency graph.
//
// # Overview
//
// Each node is a package ID ("cross/zlib", "spk/ffmpeg") and each edge
// points from a package to one of its dependencies, as declared by the
// recipe's DEPENDS and BUILD_DEPENDS variables. Nodes carry a [NodeKind]
// telling library packages (cross, native) from shippable ones (spk), and
// a [Metadata] map for version information.
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "spk/ffmpeg", Kind: dag.NodeKindShippable})
//	g.AddNode(dag.Node{ID: "cross/zlib"})
//	g.AddEdge(dag.Edge{From: "spk/ffmpeg", To: "cross/zlib"})
//
// # Cycles
//
// Recipe trees are expected to be acyclic but nothing enforces it. The
// graph accepts cycles; [BackEdges] finds the edges that close them,
// [CyclePath] explains one, and [BreakCycles] removes them. Algorithms
// that need a partial order ([BuildOrder]) report [ErrGraphHasCycle].
//
// # Build order
//
// [BuildOrder] lists dependencies before dependents. [AssignLayers] groups
// packages into build stages stored in [Node.Row].
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. The graph is built once
// before any worker starts and is read-only afterwards.
package dag
