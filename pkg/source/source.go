package source

import (
	"context"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spkwatch/pkg/cache"
	"github.com/matzehuels/spkwatch/pkg/errors"
	"github.com/matzehuels/spkwatch/pkg/httputil"
	"github.com/matzehuels/spkwatch/pkg/recipe"
	"github.com/matzehuels/spkwatch/pkg/vcs"
	"github.com/matzehuels/spkwatch/pkg/version"
)

// Cache keys inside a package namespace.
const (
	keyVersions = "versions.json"
	keyPages    = "download/pages.json"
)

// Location is one place a candidate version was seen.
type Location struct {
	// URL is scheme-relative ("//host/path/file.tar.gz").
	URL       string   `json:"url"`
	Filename  string   `json:"filename,omitempty"`
	Extension string   `json:"extension,omitempty"`
	Schemes   []string `json:"schemes,omitempty"`
}

// Preferred returns URL with https when it was observed, otherwise with
// the first observed scheme.
func (l Location) Preferred() string {
	if len(l.Schemes) == 0 || slices.Contains(l.Schemes, "https") {
		return "https:" + l.URL
	}
	return l.Schemes[0] + ":" + l.URL
}

// Candidate is a discovered version and the locations that evidenced it.
type Candidate struct {
	Version    string     `json:"version"`
	Prerelease bool       `json:"prerelease"`
	URLs       []Location `json:"urls,omitempty"`
}

// Versions returns the version strings of cs in order.
func Versions(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Version
	}
	return out
}

// Package is the immutable snapshot an adapter works from.
type Package struct {
	ID string
	// Text is the recipe source. Adapters that need a mutable interpreter
	// parse their own copy.
	Text     string
	Metadata recipe.Metadata
	// Cache is scoped to this package.
	Cache *cache.Cache
	// WorkDir holds repository mirrors for this package.
	WorkDir string
	Logger  *log.Logger
}

// Adapter discovers candidates for one download method.
type Adapter interface {
	Search(ctx context.Context, pkg Package) ([]Candidate, error)
}

// Result is the outcome of [Searcher.Search].
type Result struct {
	Metadata   recipe.Metadata `json:"metadata"`
	Candidates []Candidate     `json:"candidates"`
	Cached     bool            `json:"-"`
}

// Options configures a [Searcher].
type Options struct {
	// Cache is the root cache; each package gets a namespace below it.
	Cache       *cache.Cache
	DownloadTTL time.Duration
	VersionsTTL time.Duration
	// MirrorDir is the root for git and svn working copies.
	MirrorDir string
	Client    *httputil.Client
	Svn       vcs.Svn
	Limits    Limits
	Logger    *log.Logger
}

// Searcher dispatches packages to the adapter for their method.
type Searcher struct {
	adapters    map[recipe.Method]Adapter
	cache       *cache.Cache
	versionsTTL time.Duration
	mirrorDir   string
	logger      *log.Logger
}

// NewSearcher creates a Searcher with the git, svn and crawler adapters
// registered.
func NewSearcher(opts Options) *Searcher {
	if opts.Cache == nil {
		opts.Cache = cache.Disabled()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(nil)
	}
	if opts.Client == nil {
		opts.Client = httputil.NewClient(httputil.Options{})
	}
	crawler := NewCrawler(NewFetcher(opts.Client), opts.DownloadTTL, opts.Limits)
	s := &Searcher{
		adapters:    make(map[recipe.Method]Adapter),
		cache:       opts.Cache,
		versionsTTL: opts.VersionsTTL,
		mirrorDir:   opts.MirrorDir,
		logger:      opts.Logger,
	}
	s.Register(recipe.MethodCommon, crawler)
	s.Register(recipe.MethodWget, crawler)
	s.Register(recipe.MethodGit, &GitAdapter{})
	s.Register(recipe.MethodSvn, &SvnAdapter{Client: opts.Svn})
	return s
}

// Register installs or replaces the adapter for m.
func (s *Searcher) Register(m recipe.Method, a Adapter) {
	s.adapters[m] = a
}

// Search parses the recipe text of id and runs the adapter for its
// method. A fresh result cached within the versions TTL is returned
// without running the adapter.
func (s *Searcher) Search(ctx context.Context, id, text string) (Result, error) {
	meta := recipe.Parse(text).Metadata()
	res := Result{Metadata: meta}

	a, ok := s.adapters[meta.Method]
	if !ok {
		return res, errors.New(errors.ErrCodeUnsupportedMethod, "unsupported download method %q", meta.Method)
	}

	ns := s.cache.Namespace(id)
	versions := ns.WithTTL(s.versionsTTL)
	var cached []Candidate
	if ok, _ := versions.Load(ctx, keyVersions, &cached); ok {
		res.Candidates, res.Cached = cached, true
		return res, nil
	}

	pkg := Package{
		ID:       id,
		Text:     text,
		Metadata: meta,
		Cache:    ns,
		WorkDir:  filepath.Join(s.mirrorDir, filepath.FromSlash(id)),
		Logger:   s.logger.With("pkg", id),
	}
	cands, err := a.Search(ctx, pkg)
	if err != nil {
		return res, err
	}
	res.Candidates = cands
	if err := versions.Save(ctx, keyVersions, cands); err != nil {
		pkg.Logger.Warn("cache versions", "err", err)
	}
	return res, nil
}

// candidate builds a Candidate for a tag, commit or revision.
func candidate(v string) Candidate {
	return Candidate{Version: v, Prerelease: version.IsPrerelease(v)}
}

func requireVersion(pkg Package) error {
	if pkg.Metadata.Version == "" {
		return errors.New(errors.ErrCodeVersionNotFound, "no current version in recipe")
	}
	return nil
}

func requireURL(pkg Package) (string, error) {
	u := pkg.Metadata.DistURL()
	if u == "" {
		return "", errors.New(errors.ErrCodeVersionNotFound, "no %s in recipe", recipe.VarDistSite)
	}
	return u, nil
}
