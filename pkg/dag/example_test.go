package dag_test

import (
	"fmt"

	"github.com/matzehuels/spkwatch/pkg/dag"
)

func ExampleDAG_traversal() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "spk/ffmpeg", Kind: dag.NodeKindShippable})
	_ = g.AddNode(dag.Node{ID: "cross/x264"})
	_ = g.AddNode(dag.Node{ID: "cross/zlib"})
	_ = g.AddEdge(dag.Edge{From: "spk/ffmpeg", To: "cross/x264"})
	_ = g.AddEdge(dag.Edge{From: "spk/ffmpeg", To: "cross/zlib"})

	fmt.Println("Dependencies of ffmpeg:", g.Children("spk/ffmpeg"))
	fmt.Println("Dependents of zlib:", g.Parents("cross/zlib"))
	// Output:
	// Dependencies of ffmpeg: [cross/x264 cross/zlib]
	// Dependents of zlib: [spk/ffmpeg]
}

func ExampleBuildOrder() {
	g := dag.New(nil)
	for _, id := range []string{"spk/ffmpeg", "cross/x264", "cross/zlib", "native/nasm"} {
		_ = g.AddNode(dag.Node{ID: id, Kind: dag.KindOf(id)})
	}
	_ = g.AddEdge(dag.Edge{From: "spk/ffmpeg", To: "cross/x264"})
	_ = g.AddEdge(dag.Edge{From: "spk/ffmpeg", To: "cross/zlib"})
	_ = g.AddEdge(dag.Edge{From: "cross/x264", To: "native/nasm"})

	order, _ := dag.BuildOrder(g)
	fmt.Println(order)
	// Output:
	// [cross/zlib native/nasm cross/x264 spk/ffmpeg]
}

func ExampleBackEdges() {
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "cross/a"})
	_ = g.AddNode(dag.Node{ID: "cross/b"})
	_ = g.AddEdge(dag.Edge{From: "cross/a", To: "cross/b"})
	_ = g.AddEdge(dag.Edge{From: "cross/b", To: "cross/a"})

	for _, e := range dag.BackEdges(g) {
		fmt.Println(e.From, "->", e.To, dag.CyclePath(g, e))
	}
	// Output:
	// cross/b -> cross/a [cross/a cross/b cross/a]
}
