// Package vcs wraps the version-control operations the updater needs:
// keeping the recipe tree current and mirroring upstream repositories to
// discover new tags, commits and revisions.
//
// Git is implemented in-process with go-git. Subversion shells out to the
// svn command-line client; [Svn.Available] reports whether it is
// installed.
package vcs
