package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spkwatch/pkg/errors"
	"github.com/matzehuels/spkwatch/pkg/vcs"
)

// repoCommand creates the recipe tree management command.
func (c *CLI) repoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage the spksrc recipe tree",
	}
	cmd.AddCommand(c.repoCloneCommand())
	cmd.AddCommand(c.repoPullCommand())
	cmd.AddCommand(c.repoResetCommand())
	return cmd
}

// repoCloneCommand creates the "repo clone" subcommand.
func (c *CLI) repoCloneCommand() *cobra.Command {
	var branch string
	cmd := &cobra.Command{
		Use:   "clone",
		Short: "Clone the recipe tree unless it already exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if branch == "" {
				branch = c.Config.RepoBranch
			}
			repo, cloned, err := prepareRepo(cmd.Context(), c.Config.RepoURI, c.Config.RootDir, branch)
			if err != nil {
				return err
			}
			if !cloned {
				printInfo("Recipe tree already present")
				printDetail("Directory: %s", repo.Dir())
				return nil
			}
			printSuccess("Cloned %s", c.Config.RepoURI)
			printFile(repo.Dir())
			return nil
		},
	}
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "branch to check out (default repo_branch)")
	return cmd
}

// repoPullCommand creates the "repo pull" subcommand.
func (c *CLI) repoPullCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Fetch all remotes and fast-forward the recipe tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(c.Config.RootDir)
			if err != nil {
				return err
			}
			sp := newSpinnerWithContext(cmd.Context(), "Updating "+repo.Dir())
			sp.Start()
			err = updateRepo(cmd.Context(), repo)
			if err != nil {
				sp.StopWithError("Update failed")
				return err
			}
			head, _ := repo.Head()
			sp.StopWithSuccess("Recipe tree up to date")
			printDetail("HEAD: %s", head)
			return nil
		},
	}
}

// repoResetCommand creates the "repo reset" subcommand.
func (c *CLI) repoResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard local changes to the recipe tree",
		Long: `Discard local changes to the recipe tree, including versions written by
"spkwatch update". The working tree is hard-reset to HEAD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(c.Config.RootDir)
			if err != nil {
				return err
			}
			if err := repo.Reset(); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "reset %s", repo.Dir())
			}
			printSuccess("Reset %s", repo.Dir())
			return nil
		},
	}
}

// prepareRepo clones uri into dir when dir does not exist yet and checks
// out branch. It reports whether a clone happened.
func prepareRepo(ctx context.Context, uri, dir, branch string) (*vcs.Repo, bool, error) {
	if _, err := os.Stat(dir); err == nil {
		repo, err := openRepo(dir)
		if err != nil {
			return nil, false, err
		}
		if branch != "" {
			if err := repo.Checkout(branch); err != nil {
				return nil, false, errors.Wrap(errors.ErrCodeInvalidInput, err, "checkout %s", branch)
			}
		}
		return repo, false, nil
	}
	repo, err := vcs.Clone(ctx, uri, dir, branch)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeNetwork, err, "clone recipe tree")
	}
	return repo, true, nil
}

// updateRepo fetches every remote and pulls the current branch.
func updateRepo(ctx context.Context, repo *vcs.Repo) error {
	if err := repo.Fetch(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "fetch")
	}
	if err := repo.Pull(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "pull")
	}
	return nil
}

func openRepo(dir string) (*vcs.Repo, error) {
	repo, err := vcs.Open(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "%s is not a git working copy", dir)
	}
	return repo, nil
}
