package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/spkwatch/pkg/packages"
)

// buildCommand creates the "build" command.
func (c *CLI) buildCommand() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "build [package...]",
		Short: "List packages with updates in build order",
		Long: `List packages with updates in build order, dependencies first.

With --update-deps (or update_deps in the configuration) the dependencies of
every updated package are listed as well. Nothing is built; with --write the
new versions are written to the recipes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.withRunTimeout(cmd.Context())
			defer cancel()

			s, err := c.load(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			ids, err := s.manager.Requested(args)
			if err != nil {
				return err
			}
			results := c.check(ctx, s, ids)
			if err := ctx.Err(); err != nil {
				return err
			}
			printSummary(results)
			printPlan(packages.Plan(s.registry, results, c.Config.UpdateDeps))
			if write {
				printPatches(packages.Patch(s.registry, results, false), false)
				s.manager.Save(ctx)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write new versions to the recipes")
	cmd.Flags().Bool("update-deps", false, "include the dependencies of updated packages")
	cmd.ValidArgsFunction = completePackages
	return cmd
}

// updateCommand creates the "update" command.
func (c *CLI) updateCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "update [package...]",
		Short: "Write new upstream versions to package recipes",
		Long: `Write new upstream versions to package recipes.

Only packages downloaded from HTTP or FTP sites are updated, by rewriting the
first PKG_VERS assignment. Recipes computing PKG_VERS are reported and left
alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.withRunTimeout(cmd.Context())
			defer cancel()

			s, err := c.load(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			ids, err := s.manager.Requested(args)
			if err != nil {
				return err
			}
			results := c.check(ctx, s, ids)
			if err := ctx.Err(); err != nil {
				return err
			}
			printSummary(results)
			patches := packages.Patch(s.registry, results, dryRun)
			if len(patches) == 0 {
				printInfo("No recipe to update")
				return nil
			}
			printPatches(patches, dryRun)
			if !dryRun {
				s.manager.Save(ctx)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "report the changes without writing")
	cmd.ValidArgsFunction = completePackages
	return cmd
}
