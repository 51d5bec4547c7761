package cli

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spkwatch/pkg/dag"
	"github.com/matzehuels/spkwatch/pkg/errors"
	"github.com/matzehuels/spkwatch/pkg/render"
)

type graphFlags struct {
	format   string
	output   string
	detailed bool
	updates  bool
}

// graphCommand creates the "graph" command.
func (c *CLI) graphCommand() *cobra.Command {
	var f graphFlags
	cmd := &cobra.Command{
		Use:   "graph [package...]",
		Short: "Draw the dependency graph of packages",
		Long: `Draw the dependency graph of packages with Graphviz.

With package arguments only their dependency closure is drawn. With --updates
the packages are checked first and those with an update are highlighted.`,
		Example: `  spkwatch graph spk/ffmpeg -o ffmpeg.svg
  spkwatch graph --format dot > all.dot`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd, args, f)
		},
	}
	cmd.Flags().StringVarP(&f.format, "format", "f", render.FormatSVG, "output format (dot, svg, png)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&f.detailed, "detailed", false, "show build stage and version in nodes")
	cmd.Flags().BoolVar(&f.updates, "updates", false, "check for updates and highlight them")
	cmd.ValidArgsFunction = completePackages
	completeFormats(cmd, render.Formats...)
	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, args []string, f graphFlags) error {
	ctx, cancel := c.withRunTimeout(cmd.Context())
	defer cancel()

	s, err := c.load(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	g := s.registry.Graph()
	if len(args) > 0 {
		ids, err := s.manager.Requested(args)
		if err != nil {
			return err
		}
		g = dag.Subgraph(g, dag.Reachable(g, ids...))
	}
	dag.BreakCycles(g)
	dag.AssignLayers(g)

	opts := render.Options{Detailed: f.detailed, Highlight: make(map[string]bool)}
	if f.updates {
		var ids []string
		for _, n := range g.Nodes() {
			if s.registry.Has(n.ID) {
				ids = append(ids, n.ID)
			}
		}
		for _, r := range c.check(ctx, s, ids) {
			if r.Err == nil && r.HasUpdate {
				opts.Highlight[r.ID] = true
			}
		}
	}

	var buf bytes.Buffer
	if err := render.Render(ctx, &buf, render.ToDOT(g, opts), f.format); err != nil {
		return err
	}
	if f.output == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(f.output, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", f.output)
	}
	printSuccess("Rendered %s", pluralize(g.NodeCount(), "package"))
	printFile(f.output)
	return nil
}
