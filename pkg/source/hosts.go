package source

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

var githubListings = []string{"", "releases", "tags"}

// pageURL returns the page to request when walking rawURL at depth, or
// false when the walk has no page at that depth.
//
// When stripVersion is set and version is one of the path segments, the
// walk starts one level higher.
func pageURL(rawURL string, depth int, stripVersion bool, version string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	host := u.Hostname()
	base := u.Scheme + "://" + u.Host
	segs := strings.Split(u.Path, "/")

	var target string
	switch {
	case host == "github.com":
		if depth >= len(githubListings) {
			return "", false
		}
		if len(segs) > 1 && segs[1] == "downloads" {
			segs = slices.Delete(segs, 1, 2)
			target = base + strings.Join(segs, "/") + "/" + githubListings[depth]
		} else {
			target = base + strings.Join(segs[:min(3, len(segs))], "/") + "/" + githubListings[depth]
		}
	case host == "files.pythonhosted.org":
		if depth > 0 {
			return "", false
		}
		target = "https://pypi.python.org/pypi/" + segs[len(segs)-1]
	case strings.HasSuffix(host, ".googlecode.com"):
		project := strings.TrimSuffix(host, ".googlecode.com")
		target = "https://www.googleapis.com/storage/v1/b/google-code-archive/o/v2%2Fcode.google.com%2F" +
			project + "%2Fdownloads-page-" + strconv.Itoa(depth+1) + ".json?alt=media&stripTrailingSlashes=false"
	case host == "launchpad.net":
		if i := slices.Index(segs, "+download"); i >= 0 {
			segs = slices.Delete(segs, i, i+1)
		}
	}

	if stripVersion && version != "" && slices.Contains(segs, version) {
		depth++
	}
	if depth >= len(segs) {
		return "", false
	}
	if target != "" {
		return target, true
	}
	if depth > 0 {
		segs = segs[:len(segs)-depth]
	}

	switch host {
	case "sourceforge.net", "code.google.com":
		if len(segs) < 4 {
			return "", false
		}
	case "download.sourceforge.net":
		if len(segs) < 2 {
			return "", false
		}
		base = "https://sourceforge.net"
		segs = sourceforgeFiles(segs[1], segs[2:])
	case "downloads.sourceforge.net":
		if len(segs) > 2 && segs[1] == "project" {
			base = "https://sourceforge.net"
			segs = sourceforgeFiles(segs[2], segs[3:])
		} else {
			if len(segs) < 2 {
				return "", false
			}
			base = "https://sourceforge.net"
			segs = sourceforgeFiles(segs[1], segs[2:])
		}
	}
	return base + strings.Join(segs, "/"), true
}

// sourceforgeFiles maps a mirror path onto the project file browser.
func sourceforgeFiles(project string, rest []string) []string {
	return append([]string{"", "projects", project, "files"}, rest...)
}

// parentURL drops the last path segment of rawURL.
func parentURL(rawURL string) string {
	i := strings.LastIndex(rawURL, "/")
	if i < 0 {
		return rawURL
	}
	return rawURL[:i]
}
