package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spkwatch/pkg/config"
	"github.com/matzehuels/spkwatch/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached download pages, versions and registry",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [package...]",
		Short: "Remove cached entries of packages, or everything",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if err := errors.ValidatePackageID(id); err != nil {
					return err
				}
			}
			cc, err := c.openCache(cmd.Context())
			if err != nil {
				return err
			}
			defer cc.Store().Close()

			if len(args) == 0 {
				n, err := cc.Purge(cmd.Context())
				if err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "clear cache")
				}
				printSuccess("Cleared %s", pluralize(n, "cached entry"))
				printDetail("Location: %s", c.cacheLocation())
				return nil
			}

			total := 0
			for _, id := range args {
				n, err := cc.Namespace(id).Purge(cmd.Context())
				if err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "clear %s", id)
				}
				total += n
			}
			printSuccess("Cleared %s for %s", pluralize(total, "cached entry"), pluralize(len(args), "package"))
			return nil
		},
		ValidArgsFunction: completePackages,
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), c.cacheLocation())
			return nil
		},
	}
}

// cacheLocation is the cache directory, or the Redis address and key
// prefix for the redis backend.
func (c *CLI) cacheLocation() string {
	if c.Config.CacheBackend == config.BackendRedis {
		return "redis://" + c.Config.RedisAddr + "/" + redisPrefix
	}
	return c.Config.CacheDir
}
