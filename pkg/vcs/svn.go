package vcs

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"os/exec"
	"slices"
	"strconv"
	"strings"
)

// Svn runs the svn command-line client.
type Svn struct {
	// Bin is the client executable. Empty means "svn" from PATH.
	Bin string
}

func (s Svn) bin() string {
	if s.Bin == "" {
		return "svn"
	}
	return s.Bin
}

// Available reports whether the svn client can be found.
func (s Svn) Available() bool {
	_, err := exec.LookPath(s.bin())
	return err == nil
}

// Checkout checks out url into dir.
func (s Svn) Checkout(ctx context.Context, url, dir string) error {
	_, err := s.run(ctx, "", "checkout", url, dir)
	return err
}

// Update updates the working copy at dir.
func (s Svn) Update(ctx context.Context, dir string) error {
	_, err := s.run(ctx, "", "update", dir)
	return err
}

// TagRevisions lists revisions from rev up to HEAD that touched the
// repository's /tags subtree, oldest first. rev is a revision number or
// "HEAD".
func (s Svn) TagRevisions(ctx context.Context, dir, rev string) ([]string, error) {
	out, err := s.run(ctx, dir, "log", "--xml", "-r", rev+":HEAD", "^/tags")
	if err != nil {
		return nil, err
	}
	return parseLog(out)
}

type svnLog struct {
	Entries []struct {
		Revision int `xml:"revision,attr"`
	} `xml:"logentry"`
}

func parseLog(data []byte) ([]string, error) {
	var l svnLog
	if err := xml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("svn log: %w", err)
	}
	revs := make([]int, 0, len(l.Entries))
	for _, e := range l.Entries {
		revs = append(revs, e.Revision)
	}
	slices.Sort(revs)
	revs = slices.Compact(revs)
	out := make([]string, len(revs))
	for i, r := range revs {
		out[i] = strconv.Itoa(r)
	}
	return out, nil
}

// NextRevision returns rev+1, or "HEAD" when rev is "HEAD" or not a
// number.
func NextRevision(rev string) string {
	n, err := strconv.Atoi(strings.TrimSpace(rev))
	if err != nil {
		return "HEAD"
	}
	return strconv.Itoa(n + 1)
}

func (s Svn) run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	args = append([]string{"--non-interactive"}, args...)
	cmd := exec.CommandContext(ctx, s.bin(), args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("svn %s: %w", args[1], err)
		}
		return nil, fmt.Errorf("svn %s: %w: %s", args[1], err, msg)
	}
	return stdout.Bytes(), nil
}
