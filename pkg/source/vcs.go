package source

import (
	"context"
	"os"
	"path/filepath"

	"github.com/matzehuels/spkwatch/pkg/errors"
	"github.com/matzehuels/spkwatch/pkg/vcs"
)

// Sentinel files marking a completed initial clone or checkout. A mirror
// directory without its sentinel is discarded and recreated.
const (
	gitSentinel = ".git_clone"
	svnSentinel = ".svn_checkout"
)

// GitAdapter reports tags newer than PKG_GIT_HASH, or commits when the
// repository has no tags, most recent first.
type GitAdapter struct{}

// Search implements [Adapter].
func (a *GitAdapter) Search(ctx context.Context, pkg Package) ([]Candidate, error) {
	uri, err := requireURL(pkg)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(pkg.WorkDir, "git")
	sentinel := filepath.Join(pkg.WorkDir, gitSentinel)

	repo, err := a.mirror(ctx, pkg, uri, dir, sentinel)
	if err != nil {
		return nil, err
	}
	if err := repo.Fetch(ctx); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", uri)
	}
	if err := repo.Pull(ctx); err != nil {
		pkg.Logger.Warn("pull failed, using fetched refs", "err", err)
	}

	hasTags, err := repo.HasTags()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list tags")
	}
	var names []string
	if hasTags {
		names, err = repo.TagsSince(pkg.Metadata.Version)
	} else {
		names, err = repo.CommitsSince(pkg.Metadata.Version)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeVersionNotFound, err, "history since %s", pkg.Metadata.Version)
	}

	out := make([]Candidate, len(names))
	for i, n := range names {
		out[i] = candidate(n)
	}
	pkg.Logger.Debug("git candidates", "count", len(out), "tags", hasTags)
	return out, nil
}

func (a *GitAdapter) mirror(ctx context.Context, pkg Package, uri, dir, sentinel string) (*vcs.Repo, error) {
	if exists(sentinel) {
		repo, err := vcs.Open(dir)
		if err == nil {
			return repo, nil
		}
		pkg.Logger.Warn("mirror unusable, cloning again", "dir", dir, "err", err)
		_ = os.Remove(sentinel)
	}
	if err := os.RemoveAll(dir); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "remove partial clone")
	}
	pkg.Logger.Info("cloning", "url", uri)
	repo, err := vcs.Clone(ctx, uri, dir, "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "clone %s", uri)
	}
	if err := touch(sentinel); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "mark clone")
	}
	return repo, nil
}

// SvnAdapter reports revisions touching /tags after PKG_SVN_REV, oldest
// first.
type SvnAdapter struct {
	Client vcs.Svn
}

// Search implements [Adapter].
func (a *SvnAdapter) Search(ctx context.Context, pkg Package) ([]Candidate, error) {
	uri, err := requireURL(pkg)
	if err != nil {
		return nil, err
	}
	if !a.Client.Available() {
		return nil, errors.New(errors.ErrCodeUnsupportedMethod, "svn client not installed")
	}
	dir := filepath.Join(pkg.WorkDir, "svn")
	sentinel := filepath.Join(pkg.WorkDir, svnSentinel)

	if !exists(sentinel) {
		if err := os.RemoveAll(dir); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "remove partial checkout")
		}
		if err := os.MkdirAll(pkg.WorkDir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "create %s", pkg.WorkDir)
		}
		pkg.Logger.Info("checking out", "url", uri)
		if err := a.Client.Checkout(ctx, uri, dir); err != nil {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "checkout %s", uri)
		}
		if err := touch(sentinel); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "mark checkout")
		}
	}
	if err := a.Client.Update(ctx, dir); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "update %s", dir)
	}

	revs, err := a.Client.TagRevisions(ctx, dir, vcs.NextRevision(pkg.Metadata.Version))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "log %s", uri)
	}
	out := make([]Candidate, len(revs))
	for i, r := range revs {
		out[i] = Candidate{Version: r}
	}
	return out, nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func touch(p string) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p, nil, 0o644)
}
