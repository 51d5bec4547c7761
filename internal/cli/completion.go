package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spkwatch/pkg/packages"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for spkwatch.

To load completions:

Bash:
  $ source <(spkwatch completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ spkwatch completion bash > /etc/bash_completion.d/spkwatch
  # macOS:
  $ spkwatch completion bash > $(brew --prefix)/etc/bash_completion.d/spkwatch

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ spkwatch completion zsh > "${fpath[1]}/_spkwatch"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ spkwatch completion fish | source

  # To load completions for each session, execute once:
  $ spkwatch completion fish > ~/.config/fish/completions/spkwatch.fish

PowerShell:
  PS> spkwatch completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> spkwatch completion powershell > spkwatch.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}

// completePackages completes package ids from the recipe tree. The
// pre-run hook does not run during completion, so the configuration is
// resolved from the flags typed so far.
func completePackages(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	var g globalFlags
	if f := cmd.Flag("config"); f != nil {
		g.configPath = f.Value.String()
	}
	cfg, err := resolveConfig(cmd, g)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	ids, err := packages.Discover(cfg.RootDir, slices.Concat(packages.LibraryCategories, packages.ShippableCategories)...)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var out []cobra.Completion
	for _, id := range ids {
		if strings.HasPrefix(id, toComplete) && !slices.Contains(args, id) {
			out = append(out, id)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeFormats registers the values accepted by a --format flag.
func completeFormats(cmd *cobra.Command, formats ...string) {
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(formats, cobra.ShellCompDirectiveNoFileComp))
}
