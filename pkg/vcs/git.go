package vcs

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Repo is a local git working copy.
type Repo struct {
	r   *git.Repository
	dir string
}

// Clone clones uri into dir. An empty branch clones the remote default.
func Clone(ctx context.Context, uri, dir, branch string) (*Repo, error) {
	opts := &git.CloneOptions{URL: uri, Tags: git.AllTags}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
	}
	r, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", uri, err)
	}
	return &Repo{r: r, dir: dir}, nil
}

// Open opens the working copy at dir.
func Open(dir string) (*Repo, error) {
	r, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dir, err)
	}
	return &Repo{r: r, dir: dir}, nil
}

// Dir returns the working copy path.
func (r *Repo) Dir() string { return r.dir }

// Fetch fetches every remote, tags included.
func (r *Repo) Fetch(ctx context.Context) error {
	remotes, err := r.r.Remotes()
	if err != nil {
		return err
	}
	for _, rem := range remotes {
		err := rem.FetchContext(ctx, &git.FetchOptions{RemoteName: rem.Config().Name, Tags: git.AllTags, Force: true})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("fetch %s: %w", rem.Config().Name, err)
		}
	}
	return nil
}

// Pull fast-forwards the current branch from every remote.
func (r *Repo) Pull(ctx context.Context) error {
	wt, err := r.r.Worktree()
	if err != nil {
		return err
	}
	remotes, err := r.r.Remotes()
	if err != nil {
		return err
	}
	for _, rem := range remotes {
		err := wt.PullContext(ctx, &git.PullOptions{RemoteName: rem.Config().Name})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("pull %s: %w", rem.Config().Name, err)
		}
	}
	return nil
}

// Reset hard-resets the index and working tree to HEAD.
func (r *Repo) Reset() error {
	wt, err := r.r.Worktree()
	if err != nil {
		return err
	}
	return wt.Reset(&git.ResetOptions{Mode: git.HardReset})
}

// Checkout switches to branch, creating it from origin when only the
// remote-tracking branch exists.
func (r *Repo) Checkout(branch string) error {
	wt, err := r.r.Worktree()
	if err != nil {
		return err
	}
	name := plumbing.NewBranchReferenceName(branch)
	err = wt.Checkout(&git.CheckoutOptions{Branch: name})
	if err == nil || !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return err
	}
	remote, rerr := r.r.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if rerr != nil {
		return fmt.Errorf("checkout %s: %w", branch, err)
	}
	return wt.Checkout(&git.CheckoutOptions{Branch: name, Hash: remote.Hash(), Create: true})
}

// Head returns the commit hash HEAD points to.
func (r *Repo) Head() (string, error) {
	ref, err := r.r.Head()
	if err != nil {
		return "", err
	}
	return ref.Hash().String(), nil
}

// HasTags reports whether the repository has at least one tag.
func (r *Repo) HasTags() (bool, error) {
	tags, err := r.tagsByCommit()
	return len(tags) > 0, err
}

// CommitsSince returns the commits reachable from HEAD but not from rev
// (git's rev..HEAD), most recent first.
func (r *Repo) CommitsSince(rev string) ([]string, error) {
	commits, err := r.since(rev)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(commits))
	for i, c := range commits {
		out[i] = c.Hash.String()
	}
	return out, nil
}

// TagsSince returns the tags pointing at commits in rev..HEAD, most
// recent commit first. Tags on the same commit are sorted by name.
func (r *Repo) TagsSince(rev string) ([]string, error) {
	byCommit, err := r.tagsByCommit()
	if err != nil {
		return nil, err
	}
	commits, err := r.since(rev)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, c := range commits {
		out = append(out, byCommit[c.Hash]...)
	}
	return out, nil
}

func (r *Repo) since(rev string) ([]*object.Commit, error) {
	base, err := r.r.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rev, err)
	}
	head, err := r.r.Head()
	if err != nil {
		return nil, err
	}

	seen := make(map[plumbing.Hash]bool)
	iter, err := r.r.Log(&git.LogOptions{From: *base})
	if err != nil {
		return nil, err
	}
	err = iter.ForEach(func(c *object.Commit) error {
		seen[c.Hash] = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	iter, err = r.r.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, err
	}
	var out []*object.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if !seen[c.Hash] {
			out = append(out, c)
		}
		return nil
	})
	return out, err
}

func (r *Repo) tagsByCommit() (map[plumbing.Hash][]string, error) {
	iter, err := r.r.Tags()
	if err != nil {
		return nil, err
	}
	out := make(map[plumbing.Hash][]string)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if tag, err := r.r.TagObject(ref.Hash()); err == nil {
			c, err := tag.Commit()
			if err != nil {
				return nil
			}
			target = c.Hash
		}
		out[target] = append(out[target], ref.Name().Short())
		return nil
	})
	for _, names := range out {
		slices.Sort(names)
	}
	return out, err
}
