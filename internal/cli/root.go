package cli

import (
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/spkwatch/pkg/buildinfo"
	"github.com/matzehuels/spkwatch/pkg/config"
	"github.com/matzehuels/spkwatch/pkg/errors"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	verbose    bool
	noCache    bool
}

// flagKeys maps persistent flags to the configuration keys they override.
var flagKeys = map[string]string{
	"work-dir":         config.KeyWorkDir,
	"root":             config.KeyRootDir,
	"jobs":             config.KeyJobs,
	"cache-duration":   config.KeyCacheDuration,
	"allow-major":      config.KeyAllowMajorRelease,
	"allow-prerelease": config.KeyAllowPrerelease,
	"update-deps":      config.KeyUpdateDeps,
	"log-level":        config.KeyLogLevel,
	"task-timeout":     config.KeyTaskTimeout,
	"run-timeout":      config.KeyRunTimeout,
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   appName,
		Short: "spkwatch finds new upstream versions for spksrc packages",
		Long: `spkwatch reads the package recipes of an spksrc tree, discovers newer
upstream releases by crawling download sites, git tags and svn revisions, and
reports, orders or writes back the updates it finds.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.configure(cmd, g)
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "configuration file (default ./"+appName+".toml if present)")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose logging")
	pf.BoolVar(&g.noCache, "no-cache", false, "ignore cached pages, versions and registry")
	pf.String("work-dir", "", "working directory for the recipe tree, cache and mirrors")
	pf.StringP("root", "r", "", "recipe tree root (default <work-dir>/spksrc-git)")
	pf.IntP("jobs", "j", 0, "concurrent package checks (default CPU count)")
	pf.String("cache-duration", "", "cache time-to-live, e.g. 36h, 7d, 1w")
	pf.Bool("allow-major", false, "accept major version updates")
	pf.Bool("allow-prerelease", false, "accept prerelease versions")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("task-timeout", "", "time limit for one package check")
	pf.String("run-timeout", "", "time limit for the whole run")

	root.AddCommand(c.searchCommand())
	root.AddCommand(c.searchAllCommand())
	root.AddCommand(c.depsCommand())
	root.AddCommand(c.parentDepsCommand())
	root.AddCommand(c.unusedCommand())
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.updateCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.repoCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// configure resolves the configuration for this invocation and sets the
// log level from it.
func (c *CLI) configure(cmd *cobra.Command, g globalFlags) error {
	cfg, err := resolveConfig(cmd, g)
	if err != nil {
		return err
	}
	c.Config = cfg

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", config.KeyLogLevel)
	}
	if g.verbose {
		level = log.DebugLevel
	}
	c.SetLogLevel(level)
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))

	if cfg.File != "" {
		c.Logger.Debug("configuration loaded", "file", cfg.File)
	}
	return nil
}

// resolveConfig loads the configuration file named by --config, or
// ./spkwatch.toml when present, and applies the flag overrides.
func resolveConfig(cmd *cobra.Command, g globalFlags) (config.Config, error) {
	path := g.configPath
	if path == "" {
		if _, err := os.Stat(appName + ".toml"); err == nil {
			path = appName + ".toml"
		}
	}
	return config.Load(path, flagOverrides(cmd, g))
}

// flagOverrides collects the configuration overrides of flags set on the
// command line.
func flagOverrides(cmd *cobra.Command, g globalFlags) map[string]string {
	out := make(map[string]string)
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			out[key] = f.Value.String()
		}
	}
	if g.noCache {
		out[config.KeyCacheEnabled] = strconv.FormatBool(false)
	}
	return out
}
