package cli

import (
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// configCommand creates the "config" command.
func (c *CLI) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration as TOML",
		Long: `Print the resolved configuration as TOML: defaults, the configuration file,
SPKWATCH_* environment variables and flags, with %key% references expanded.
The output is a valid configuration file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(c.Config.Values())
		},
	}
}
