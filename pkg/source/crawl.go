package source

import (
	"context"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spkwatch/pkg/errors"
	"github.com/matzehuels/spkwatch/pkg/recipe"
	"github.com/matzehuels/spkwatch/pkg/version"
)

// Limits bounds a single package crawl. Zero values select defaults.
type Limits struct {
	MaxDepth     int `toml:"max_depth" yaml:"max_depth"`
	MaxRedirects int `toml:"max_redirects" yaml:"max_redirects"`
	MaxPages     int `toml:"max_pages" yaml:"max_pages"`
}

// DefaultLimits are used for zero fields of [Limits].
var DefaultLimits = Limits{MaxDepth: 8, MaxRedirects: 10, MaxPages: 64}

func (l Limits) withDefaults() Limits {
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultLimits.MaxDepth
	}
	if l.MaxRedirects <= 0 {
		l.MaxRedirects = DefaultLimits.MaxRedirects
	}
	if l.MaxPages <= 0 {
		l.MaxPages = DefaultLimits.MaxPages
	}
	return l
}

var (
	schemesFollowed = []string{"", "http", "https", "ftp"}
	versionHrefRE   = regexp.MustCompile(`(([0-9]+)([._-]([0-9][0-9a-zA-Z]*|[0-9a-zA-Z]*[0-9]))+(-[a-zA-Z0-9_]+)*)(/(\w+.(html|php))?)?$`)
	versionTextRE   = regexp.MustCompile(`^(([0-9]+)([._-]([0-9][0-9a-zA-Z]*|[0-9a-zA-Z]*[0-9]))+(-[a-zA-Z0-9_]+)*)$`)
)

// Crawler discovers versions of common and wget packages from HTTP and
// FTP listings.
type Crawler struct {
	fetcher     Fetcher
	downloadTTL time.Duration
	limits      Limits
}

// NewCrawler creates a Crawler. Listings cached within downloadTTL are
// reused without network access.
func NewCrawler(f Fetcher, downloadTTL time.Duration, limits Limits) *Crawler {
	return &Crawler{fetcher: f, downloadTTL: downloadTTL, limits: limits.withDefaults()}
}

// Search implements [Adapter].
func (c *Crawler) Search(ctx context.Context, pkg Package) ([]Candidate, error) {
	if err := requireVersion(pkg); err != nil {
		return nil, err
	}
	current, err := version.Parse(pkg.Metadata.Version)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeVersionNotFound, err, "current version %q", pkg.Metadata.Version)
	}
	dist, err := requireURL(pkg)
	if err != nil {
		return nil, err
	}
	pats, err := BuildPatterns(recipe.Parse(pkg.Text))
	if err != nil {
		return nil, err
	}

	pages, err := c.pages(ctx, pkg, dist, current)
	if err != nil {
		return nil, err
	}

	cs := newCandidateSet(current)
	matchLinks(pages, pats, cs)
	if cs.len() == 0 {
		matchContent(pages, pats, cs)
	}
	out := cs.sorted()
	pkg.Logger.Debug("crawl candidates", "pages", len(pages), "count", len(out))
	return out, nil
}

// pages returns the cached listings of pkg or crawls them.
func (c *Crawler) pages(ctx context.Context, pkg Package, dist string, current *version.Version) ([]*Page, error) {
	store := pkg.Cache.WithTTL(c.downloadTTL)
	var pages []*Page
	if ok, _ := store.Load(ctx, keyPages, &pages); ok {
		pkg.Logger.Debug("using cached listings", "pages", len(pages))
		return pages, nil
	}

	w := &walk{
		fetcher: c.fetcher,
		limits:  c.limits,
		version: pkg.Metadata.Version,
		current: current,
		seen:    make(map[string]bool),
		logger:  pkg.Logger,
	}
	if err := w.run(ctx, pkg.Metadata, dist); err != nil {
		return nil, err
	}
	if err := store.Save(ctx, keyPages, w.pages); err != nil {
		pkg.Logger.Warn("cache listings", "err", err)
	}
	return w.pages, nil
}

// walk is the state of one package crawl.
type walk struct {
	fetcher   Fetcher
	limits    Limits
	version   string
	current   *version.Version
	seen      map[string]bool
	pages     []*Page
	redirects int
	logger    *log.Logger
}

func (w *walk) run(ctx context.Context, meta recipe.Metadata, dist string) error {
	starts := []string{parentURL(dist)}
	if len(meta.Homepage) > 0 {
		starts = append(starts, meta.Homepage[0])
	}
	if len(meta.DownloadPage) > 0 {
		starts = append(starts, meta.DownloadPage[0])
	}
	for _, s := range starts {
		if err := w.climb(ctx, s, true); err != nil {
			return err
		}
	}
	for _, u := range w.versionLinks() {
		if _, err := w.visit(ctx, u, 0, false); err != nil {
			return err
		}
	}
	return nil
}

// climb requests rawURL at increasing depth until no page is left.
func (w *walk) climb(ctx context.Context, rawURL string, stripVersion bool) error {
	for depth := 0; depth < w.limits.MaxDepth; depth++ {
		ok, err := w.visit(ctx, rawURL, depth, stripVersion)
		if err != nil || !ok {
			return err
		}
	}
	return nil
}

// visit fetches the page for rawURL at depth. It reports false when the
// walk should stop. Only context errors are returned; fetch failures end
// the walk quietly.
func (w *walk) visit(ctx context.Context, rawURL string, depth int, stripVersion bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	target, ok := pageURL(rawURL, depth, stripVersion, w.version)
	if !ok || w.seen[target] {
		return false, nil
	}
	if len(w.pages) >= w.limits.MaxPages {
		w.logger.Debug("page limit reached", "limit", w.limits.MaxPages)
		return false, nil
	}
	w.seen[target] = true

	page, err := w.fetcher.Fetch(ctx, target, rawURL)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		w.logger.Debug("fetch failed", "url", target, "err", err)
		return false, nil
	}
	w.logger.Debug("fetched", "url", target, "links", len(page.Links))
	w.pages = append(w.pages, page)

	if page.Redirected() {
		if w.redirects >= w.limits.MaxRedirects {
			w.logger.Debug("redirect limit reached", "url", page.Final)
			return true, nil
		}
		w.redirects++
		if err := w.climb(ctx, page.Final, true); err != nil {
			return false, err
		}
	}
	return true, nil
}

// versionLinks returns unvisited URLs of links that look like version
// directories not older than the current version.
func (w *walk) versionLinks() []string {
	hosts := []string{""}
	for _, p := range w.pages {
		if u, err := url.Parse(p.URL); err == nil && !slices.Contains(hosts, u.Host) {
			hosts = append(hosts, u.Host)
		}
	}

	var out []string
	for _, p := range w.pages {
		pu, err := url.Parse(p.URL)
		if err != nil {
			continue
		}
		for _, l := range p.Links {
			hu, err := url.Parse(l.Href)
			if err != nil || !slices.Contains(schemesFollowed, hu.Scheme) || !slices.Contains(hosts, hu.Host) {
				continue
			}
			raw := ""
			if m := versionHrefRE.FindStringSubmatch(hu.Path); m != nil {
				raw = m[1]
			} else if m := versionTextRE.FindStringSubmatch(l.Text); m != nil {
				raw = m[1]
			}
			if raw == "" || !w.notOlder(raw) {
				continue
			}

			var b strings.Builder
			switch {
			case hu.Host != "":
				scheme := hu.Scheme
				if scheme == "" {
					scheme = pu.Scheme
				}
				b.WriteString(scheme + "://" + hu.Host)
			case strings.HasPrefix(hu.Path, "/"):
				b.WriteString(pu.Scheme + "://" + pu.Host)
			default:
				b.WriteString(strings.TrimRight(p.URL, "/"))
			}
			b.WriteString("/" + strings.TrimLeft(hu.Path, "/"))
			u := b.String()
			if !w.seen[u] && !slices.Contains(out, u) {
				out = append(out, u)
			}
		}
	}
	return out
}

func (w *walk) notOlder(raw string) bool {
	v, err := version.Parse(raw)
	return err == nil && v.Compare(w.current) >= 0
}
