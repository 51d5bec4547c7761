package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spkwatch/pkg/packages"
)

// treeCommand builds a command printing one tree per package argument.
func (c *CLI) treeCommand(use, short string, write func(io.Writer, *packages.Registry, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <package>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			ids, err := s.manager.Requested(args)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if err := write(cmd.OutOrStdout(), s.registry, id); err != nil {
					return err
				}
			}
			return nil
		},
		ValidArgsFunction: completePackages,
	}
}

// depsCommand creates the "print-deps" command.
func (c *CLI) depsCommand() *cobra.Command {
	return c.treeCommand("print-deps", "Print the dependency tree of packages", packages.WriteDeps)
}

// parentDepsCommand creates the "print-parent-deps" command.
func (c *CLI) parentDepsCommand() *cobra.Command {
	return c.treeCommand("print-parent-deps", "Print the packages depending on packages", packages.WriteParents)
}

// unusedCommand creates the "unused" command.
func (c *CLI) unusedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unused",
		Short: "List cross and native packages no spk package depends on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			for _, id := range packages.Unused(s.registry) {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			if len(s.registry.Missing) > 0 {
				printDetail("%s referenced without a recipe", pluralize(len(s.registry.Missing), "package"))
			}
			return nil
		},
	}
}
