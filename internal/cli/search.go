package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/spkwatch/pkg/errors"
	"github.com/matzehuels/spkwatch/pkg/packages"
)

// Report formats.
const (
	formatTable = "table"
	formatYAML  = "yaml"
)

// searchCommand creates the "search" command.
func (c *CLI) searchCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "search [package...]",
		Short: "Check packages for new upstream versions",
		Long: `Check packages for new upstream versions.

Without arguments every cross and native package is checked. The table shows
whether an update is available under the configured release policy.`,
		Example: `  spkwatch search
  spkwatch search cross/zlib native/nasm --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := c.search(cmd.Context(), args)
			if err != nil {
				return err
			}
			if err := writeResults(cmd.OutOrStdout(), format, results, packages.WriteSearch); err != nil {
				return err
			}
			if format == formatTable {
				printSummary(results)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format (table, yaml)")
	cmd.ValidArgsFunction = completePackages
	completeFormats(cmd, formatTable, formatYAML)
	return cmd
}

// searchAllCommand creates the "search-all" command.
func (c *CLI) searchAllCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "search-all [package...]",
		Short: "List every upstream version found for packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := c.search(cmd.Context(), args)
			if err != nil {
				return err
			}
			return writeResults(cmd.OutOrStdout(), format, results, packages.WriteAllVersions)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format (table, yaml)")
	cmd.ValidArgsFunction = completePackages
	completeFormats(cmd, formatTable, formatYAML)
	return cmd
}

// search loads the recipe tree and checks the requested packages.
func (c *CLI) search(ctx context.Context, ids []string) ([]packages.Result, error) {
	ctx, cancel := c.withRunTimeout(ctx)
	defer cancel()

	s, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	ids, err = s.manager.Requested(ids)
	if err != nil {
		return nil, err
	}
	results := c.check(ctx, s, ids)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// resultRecord is the YAML form of one result.
type resultRecord struct {
	packages.Result `yaml:",inline"`
	Versions        []string `yaml:"versions,omitempty"`
	Error           string   `yaml:"error,omitempty"`
}

func writeResults(w io.Writer, format string, results []packages.Result, table func(io.Writer, []packages.Result) error) error {
	switch format {
	case formatTable:
		return table(w, results)
	case formatYAML:
		records := make([]resultRecord, len(results))
		for i, r := range results {
			records[i] = resultRecord{Result: r, Error: r.Error()}
			for _, cand := range r.Candidates {
				records[i].Versions = append(records[i].Versions, cand.Version)
			}
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	}
	return errors.New(errors.ErrCodeInvalidInput, "unsupported format %q (want %s or %s)", format, formatTable, formatYAML)
}
