package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/spkwatch/pkg/dag"
	"github.com/matzehuels/spkwatch/pkg/errors"
)

// Output formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Formats lists the supported output formats.
var Formats = []string{FormatDOT, FormatSVG, FormatPNG}

// Options configures diagram generation.
type Options struct {
	// Detailed adds the build stage and node metadata to labels.
	Detailed bool
	// Highlight marks packages drawn in the accent color.
	Highlight map[string]bool
}

// ToDOT converts g to Graphviz DOT source. Edges point from a package to
// its dependencies; nodes and edges are emitted in ID order so the output
// is stable.
func ToDOT(g *dag.DAG, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		attrs := fmtAttrs(*n, fmtLabel(*n, opts.Detailed), opts.Highlight[n.ID])
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n dag.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}
	parts := []string{fmt.Sprintf("stage: %d", n.Row)}
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		if v := fmt.Sprint(n.Meta[k]); v != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", k, v))
		}
	}
	return n.ID + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n dag.Node, label string, highlight bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Kind {
	case dag.NodeKindShippable:
		attrs = append(attrs, "fillcolor=lightblue")
	case dag.NodeKindMissing:
		attrs = append(attrs, "style=\"rounded,dashed\"", "color=red", "fontcolor=red")
	}
	if highlight {
		attrs = append(attrs, "color=darkgreen", "penwidth=2", "fontcolor=darkgreen")
	}
	return attrs
}

// Render writes dot to w in format. FormatDOT writes the source as is;
// the other formats are laid out with Graphviz.
func Render(ctx context.Context, w io.Writer, dot, format string) error {
	var gvFormat graphviz.Format
	switch format {
	case FormatDOT:
		_, err := io.WriteString(w, dot)
		return err
	case FormatSVG:
		gvFormat = graphviz.SVG
	case FormatPNG:
		gvFormat = graphviz.PNG
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return errors.Wrap(errors.ErrCodeParse, err, "parse DOT")
	}
	defer g.Close()

	if err := gv.Render(ctx, g, gvFormat, w); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}
	return nil
}
