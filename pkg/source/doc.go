// Package source discovers candidate upstream versions for a recipe.
//
// A [Searcher] dispatches on the recipe's download method:
//
//   - git: mirror the repository, report tags (or commits) newer than
//     PKG_GIT_HASH, most recent first
//   - svn: check out the repository, report revisions touching /tags
//     after PKG_SVN_REV, oldest first
//   - common, wget: crawl the HTTP or FTP pages around the distribution
//     URL, the homepage and the download page, and match archive file
//     names built from the recipe's PKG_DIST_NAME template
//
// # Crawling
//
// The crawler walks a URL upward: depth N requests the URL with its last
// N path segments removed, until no page is left. Well-known hosts are
// rewritten first (GitHub release and tag listings, SourceForge file
// browser, PyPI index pages, the Google Code archive API, Launchpad). A
// path segment equal to the current version counts as one extra level.
// Each page is fetched at most once per crawl, redirects to another host
// or path are walked from their destination, and the walk is capped by
// depth, redirect and page limits.
//
// Fetched listings are cached per package, so a second run within the
// download TTL performs no network access.
//
// # Patterns
//
// The file name pattern is derived from the recipe itself: PKG_VERS is set
// to a placeholder, PKG_DIST_NAME re-evaluated, the result escaped, the
// placeholder replaced by a generic version expression and every known
// archive extension replaced by a single alternation. See [BuildPatterns].
package source
