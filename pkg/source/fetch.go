package source

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jlaffaye/ftp"
	"golang.org/x/net/html"

	"github.com/matzehuels/spkwatch/pkg/errors"
	"github.com/matzehuels/spkwatch/pkg/httputil"
)

// Link is an anchor found on a page.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text,omitempty"`
}

// Page is a fetched listing.
type Page struct {
	// URL is the requested URL.
	URL string `json:"url"`
	// Final is the URL after redirects, without a trailing slash.
	Final   string `json:"final"`
	Links   []Link `json:"links,omitempty"`
	Content string `json:"content,omitempty"`
}

// Redirected reports whether the page was served from another host or
// path than requested.
func (p *Page) Redirected() bool {
	req, err1 := url.Parse(p.URL)
	fin, err2 := url.Parse(p.Final)
	if err1 != nil || err2 != nil || p.Final == "" {
		return false
	}
	return req.Host != fin.Host || strings.TrimRight(req.Path, "/") != strings.TrimRight(fin.Path, "/")
}

// Fetcher retrieves one page. origin is the URL whose walk produced the
// request; some hosts need it to interpret their answer.
type Fetcher interface {
	Fetch(ctx context.Context, target, origin string) (*Page, error)
}

// Page-content filters for hosts whose listings carry unrelated links.
var hostSections = map[string][]string{
	"sourceforge.net": {"div#files", "div#download-bar"},
	"pypi.python.org": {"table#list", "ul#nodot"},
}

// FTPLister lists a directory on an FTP server.
type FTPLister func(ctx context.Context, u *url.URL) ([]*ftp.Entry, error)

// WebFetcher fetches pages over HTTP(S) and FTP.
type WebFetcher struct {
	client *httputil.Client
	list   FTPLister
}

// NewFetcher creates a WebFetcher using client for HTTP and anonymous
// FTP logins for ftp:// URLs.
func NewFetcher(client *httputil.Client) *WebFetcher {
	return &WebFetcher{client: client, list: listFTP}
}

// WithFTP replaces the FTP lister.
func (f *WebFetcher) WithFTP(l FTPLister) *WebFetcher {
	f.list = l
	return f
}

// Fetch implements [Fetcher].
func (f *WebFetcher) Fetch(ctx context.Context, target, origin string) (*Page, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", target)
	}
	if u.Scheme == "ftp" {
		return f.fetchFTP(ctx, u)
	}
	return f.fetchHTTP(ctx, u, origin)
}

func (f *WebFetcher) fetchFTP(ctx context.Context, u *url.URL) (*Page, error) {
	entries, err := f.list(ctx, u)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "list %s", u)
	}
	page := &Page{URL: u.String(), Final: strings.TrimRight(u.String(), "/")}
	for _, e := range entries {
		name := e.Name
		if e.Type == ftp.EntryTypeFolder {
			name += "/"
		}
		page.Links = append(page.Links, Link{Href: name})
	}
	return page, nil
}

func listFTP(ctx context.Context, u *url.URL) ([]*ftp.Entry, error) {
	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "21")
	}
	c, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, err
	}
	defer c.Quit()
	if err := c.Login("anonymous", "anonymous"); err != nil {
		return nil, err
	}
	dir := u.Path
	if dir == "" {
		dir = "/"
	}
	return c.List(dir)
}

func (f *WebFetcher) fetchHTTP(ctx context.Context, u *url.URL, origin string) (*Page, error) {
	resp, err := f.client.Get(ctx, u.String())
	if err != nil {
		if stderrors.Is(err, httputil.ErrNotFound) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "get %s", u)
		}
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "get %s", u)
	}
	page := &Page{URL: u.String(), Final: strings.TrimRight(resp.URL.String(), "/")}
	body := resp.Body

	if u.Hostname() == "www.googleapis.com" && path.Ext(u.Path) == ".json" {
		page.Links, err = googleCodeLinks(body, origin)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "decode %s", u)
		}
		return page, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse %s", u)
	}
	if sels, ok := hostSections[u.Hostname()]; ok {
		var b strings.Builder
		for _, sel := range sels {
			doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
				h, _ := goquery.OuterHtml(s)
				b.WriteString(h)
			})
		}
		body = []byte(b.String())
		doc, err = goquery.NewDocumentFromReader(strings.NewReader(b.String()))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "parse %s", u)
		}
	}
	page.Content = string(body)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		page.Links = append(page.Links, Link{Href: href, Text: anchorText(s)})
	})
	return page, nil
}

// anchorText returns the text immediately inside an anchor, before any
// nested element.
func anchorText(s *goquery.Selection) string {
	n := s.Nodes[0].FirstChild
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	return strings.TrimSpace(s.Text())
}

type googleCodeDownloads struct {
	Downloads []struct {
		Filename string `json:"filename"`
	} `json:"downloads"`
}

// googleCodeLinks converts a Google Code archive download page into links
// on the project's original file host.
func googleCodeLinks(body []byte, origin string) ([]Link, error) {
	var d googleCodeDownloads
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, err
	}
	o, err := url.Parse(origin)
	if err != nil {
		return nil, err
	}
	project := strings.TrimSuffix(o.Hostname(), ".googlecode.com")
	links := make([]Link, 0, len(d.Downloads))
	for _, f := range d.Downloads {
		links = append(links, Link{Href: "http://" + project + ".googlecode.com/files/" + f.Filename})
	}
	return links, nil
}
