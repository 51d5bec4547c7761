package source

import (
	"net/url"
	"slices"
	"strings"

	"github.com/matzehuels/spkwatch/pkg/version"
)

// candidateSet accumulates candidates keyed by version.
type candidateSet struct {
	current *version.Version
	byVer   map[string]*Candidate
}

func newCandidateSet(current *version.Version) *candidateSet {
	return &candidateSet{current: current, byVer: make(map[string]*Candidate)}
}

// add records loc for raw when raw parses and is not older than the
// current version.
func (cs *candidateSet) add(raw string, loc Location) {
	v, err := version.Parse(raw)
	if err != nil || v.Compare(cs.current) < 0 {
		return
	}
	key := v.String()
	c, ok := cs.byVer[key]
	if !ok {
		cs.byVer[key] = &Candidate{Version: key, Prerelease: v.Prerelease(), URLs: []Location{loc}}
		return
	}
	i := slices.IndexFunc(c.URLs, func(l Location) bool { return l.URL == loc.URL })
	if i < 0 {
		c.URLs = append(c.URLs, loc)
		return
	}
	for _, s := range loc.Schemes {
		if !slices.Contains(c.URLs[i].Schemes, s) {
			c.URLs[i].Schemes = append(c.URLs[i].Schemes, s)
		}
	}
}

func (cs *candidateSet) len() int { return len(cs.byVer) }

// sorted returns the candidates in ascending version order.
func (cs *candidateSet) sorted() []Candidate {
	keys := make([]string, 0, len(cs.byVer))
	for k := range cs.byVer {
		keys = append(keys, k)
	}
	version.Sort(keys)
	out := make([]Candidate, len(keys))
	for i, k := range keys {
		out[i] = *cs.byVer[k]
	}
	return out
}

// matchLinks extracts candidates from the anchors of pages.
func matchLinks(pages []*Page, pats *Patterns, cs *candidateSet) {
	re := pats.Filename
	for _, p := range pages {
		pu, err := url.Parse(p.URL)
		if err != nil {
			continue
		}
		for _, l := range p.Links {
			hu, err := url.Parse(l.Href)
			if err != nil {
				continue
			}
			m := re.FindStringSubmatchIndex(hu.Path)
			if m == nil {
				continue
			}
			raw := group(re, hu.Path, m, groupVersion)
			if raw == "" {
				continue
			}
			full := locate(pu, hu, strings.Trim(hu.Path[:m[1]], "/"))
			cs.add(raw, Location{
				URL:       full,
				Filename:  group(re, hu.Path, m, groupFile),
				Extension: group(re, hu.Path, m, groupExt),
				Schemes:   []string{schemeOf(pu, hu)},
			})
		}
	}
}

// matchContent searches raw page bodies for archive paths. Used when no
// anchor matched, for listings rendered by scripts.
func matchContent(pages []*Page, pats *Patterns, cs *candidateSet) {
	re := pats.Path
	for _, p := range pages {
		if p.Content == "" {
			continue
		}
		pu, err := url.Parse(p.URL)
		if err != nil {
			continue
		}
		for _, m := range re.FindAllStringSubmatchIndex(p.Content, -1) {
			raw := group(re, p.Content, m, groupVersion)
			if raw == "" {
				continue
			}
			hu, err := url.Parse(p.Content[m[0]:m[1]])
			if err != nil || hu.Path == "" {
				continue
			}
			cs.add(raw, Location{
				URL:       locate(pu, hu, strings.TrimPrefix(hu.Path, "/")),
				Filename:  group(re, p.Content, m, groupFile),
				Extension: group(re, p.Content, m, groupExt),
				Schemes:   []string{schemeOf(pu, hu)},
			})
		}
	}
}

// locate builds the scheme-relative URL of a file found at href on page.
// Relative hrefs are resolved under the page path.
func locate(page, href *url.URL, file string) string {
	host := href.Host
	if host == "" {
		host = page.Host
	}
	var b strings.Builder
	b.WriteString("//" + host + "/")
	if !strings.HasPrefix(href.Path, "/") {
		if dir := strings.Trim(page.Path, "/"); dir != "" {
			b.WriteString(dir + "/")
		}
	}
	b.WriteString(file)
	return b.String()
}

func schemeOf(page, href *url.URL) string {
	s := href.Scheme
	if href.Host == "" {
		s = page.Scheme
	}
	if s == "" {
		return "https"
	}
	return s
}
