package render

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/spkwatch/pkg/dag"
	"github.com/matzehuels/spkwatch/pkg/errors"
)

func testGraph(t *testing.T) *dag.DAG {
	t.Helper()
	g := dag.New(nil)
	for _, id := range []string{"spk/app", "cross/zlib", "cross/ghost"} {
		n := dag.Node{ID: id, Kind: dag.KindOf(id)}
		if id == "cross/ghost" {
			n.Kind = dag.NodeKindMissing
		}
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, to := range []string{"cross/zlib", "cross/ghost"} {
		if err := g.AddEdge(dag.Edge{From: "spk/app", To: to}); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testGraph(t), Options{Highlight: map[string]bool{"cross/zlib": true}})

	for _, want := range []string{
		`"spk/app" [label="spk/app", fillcolor=lightblue];`,
		`"cross/ghost" [label="cross/ghost", style="rounded,dashed", color=red, fontcolor=red];`,
		`"cross/zlib" [label="cross/zlib", color=darkgreen, penwidth=2, fontcolor=darkgreen];`,
		`"spk/app" -> "cross/zlib";`,
		`"spk/app" -> "cross/ghost";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s\n%s", want, dot)
		}
	}
	if !strings.HasPrefix(dot, "digraph G {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("malformed DOT:\n%s", dot)
	}
}

func TestToDOTDetailed(t *testing.T) {
	g := testGraph(t)
	n, _ := g.Node("cross/zlib")
	n.Row = 0
	n.Meta["version"] = "1.2.11"
	n.Meta["method"] = ""

	dot := ToDOT(g, Options{Detailed: true})
	if want := `label="cross/zlib\nstage: 0\nversion: 1.2.11"`; !strings.Contains(dot, want) {
		t.Errorf("DOT missing %s\n%s", want, dot)
	}
}

func TestRenderDOT(t *testing.T) {
	var buf bytes.Buffer
	dot := ToDOT(testGraph(t), Options{})
	if err := Render(context.Background(), &buf, dot, FormatDOT); err != nil {
		t.Fatal(err)
	}
	if buf.String() != dot {
		t.Error("dot format should write the source unchanged")
	}
}

func TestRenderUnsupported(t *testing.T) {
	err := Render(context.Background(), &bytes.Buffer{}, "digraph G {}", "pdf")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
}

func TestRenderSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(context.Background(), &buf, ToDOT(testGraph(t), Options{}), FormatSVG); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<svg") || !strings.Contains(buf.String(), "cross/zlib") {
		t.Errorf("unexpected SVG output:\n%.200s", buf.String())
	}
}
