// Package render draws package dependency graphs as node-link diagrams.
//
// [ToDOT] turns a [dag.DAG] into Graphviz DOT source; [Render] lays it out
// in-process with go-graphviz and writes SVG or PNG:
//
//	dot := render.ToDOT(g, render.Options{Highlight: updated})
//	err := render.Render(ctx, w, dot, render.FormatSVG)
//
// Node styles follow the package kind: shippable packages are filled,
// dependencies without a recipe are dashed, and highlighted packages
// (typically those with an update) are drawn in the accent color.
package render
