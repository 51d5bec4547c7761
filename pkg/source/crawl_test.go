package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/jlaffaye/ftp"

	"github.com/matzehuels/spkwatch/pkg/cache"
	"github.com/matzehuels/spkwatch/pkg/errors"
	"github.com/matzehuels/spkwatch/pkg/httputil"
	"github.com/matzehuels/spkwatch/pkg/recipe"
)

// newMirror serves a download directory with a nested version directory
// and a redirect to it.
func newMirror(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/dl", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<a href="foo-1.1.tar.gz">foo-1.1.tar.gz</a>
<a href="foo-1.2.3.tar.gz">foo-1.2.3.tar.gz</a>
<a href="/dl/foo-1.3.0.tar.gz">foo-1.3.0.tar.gz</a>
<a href="foo-2.0.0-rc1.tar.gz">foo-2.0.0-rc1.tar.gz</a>
<a href="1.4/">1.4/</a>
<a href="1.0/">1.0/</a>
<a href="README">README</a>
</body></html>`)
	})
	r.Get("/dl/1.4/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="foo-1.4.0.tar.bz2">foo-1.4.0.tar.bz2</a>`)
	})
	r.Get("/dl/1.0/", func(w http.ResponseWriter, r *http.Request) {
		t.Error("older version directory should not be crawled")
	})
	r.Get("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dl", http.StatusMovedPermanently)
	})
	r.Get("/scripted", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<script>var files = ["bar-0.9.zip", "bar-1.0.zip", "bar-1.1.zip"];</script>`)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testPackage(t *testing.T, text string, c *cache.Cache) Package {
	t.Helper()
	if c == nil {
		c = cache.Disabled()
	}
	return Package{
		ID:       "cross/foo",
		Text:     text,
		Metadata: recipe.Parse(text).Metadata(),
		Cache:    c,
		WorkDir:  t.TempDir(),
		Logger:   log.New(nil),
	}
}

func testCrawler() *Crawler {
	client := httputil.NewClient(httputil.Options{Attempts: 1, Timeout: 5 * time.Second})
	return NewCrawler(NewFetcher(client), time.Hour, Limits{})
}

func fooText(site string) string {
	return fmt.Sprintf(`PKG_NAME = foo
PKG_VERS = 1.2.3
PKG_EXT = tar.gz
PKG_DIST_NAME = $(PKG_NAME)-$(PKG_VERS).$(PKG_EXT)
PKG_DIST_SITE = %s
`, site)
}

func TestCrawlerSearch(t *testing.T) {
	srv, _ := newMirror(t)
	pkg := testPackage(t, fooText(srv.URL+"/dl"), nil)

	got, err := testCrawler().Search(context.Background(), pkg)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"1.2.3", "1.3.0", "1.4.0", "2.0.0-rc1"}
	if !slices.Equal(Versions(got), want) {
		t.Fatalf("versions = %v, want %v", Versions(got), want)
	}

	host := srv.Listener.Addr().String()
	if loc := got[1].URLs[0]; loc.URL != "//"+host+"/dl/foo-1.3.0.tar.gz" || loc.Extension != "tar.gz" {
		t.Errorf("1.3.0 location = %+v", loc)
	}
	if loc := got[2].URLs[0]; loc.URL != "//"+host+"/dl/1.4/foo-1.4.0.tar.bz2" || loc.Preferred() != "http://"+host+"/dl/1.4/foo-1.4.0.tar.bz2" {
		t.Errorf("1.4.0 location = %+v", loc)
	}
	if !got[3].Prerelease || got[0].Prerelease {
		t.Error("prerelease flags wrong")
	}
}

func TestCrawlerFollowsRedirect(t *testing.T) {
	srv, _ := newMirror(t)
	pkg := testPackage(t, fooText(srv.URL+"/old"), nil)
	got, err := testCrawler().Search(context.Background(), pkg)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(Versions(got), "1.4.0") {
		t.Errorf("versions = %v", Versions(got))
	}
}

func TestCrawlerContentFallback(t *testing.T) {
	srv, _ := newMirror(t)
	text := `PKG_NAME = bar
PKG_VERS = 1.0
PKG_DIST_NAME = $(PKG_NAME)-$(PKG_VERS).zip
PKG_DIST_SITE = ` + srv.URL + "/scripted\n"
	got, err := testCrawler().Search(context.Background(), testPackage(t, text, nil))
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"1.0", "1.1"}; !slices.Equal(Versions(got), want) {
		t.Errorf("versions = %v, want %v", Versions(got), want)
	}
}

func TestCrawlerUsesCachedListings(t *testing.T) {
	srv, hits := newMirror(t)
	store, err := cache.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := cache.New(store, cache.Options{Enabled: true}).Namespace("cross/foo")
	pkg := testPackage(t, fooText(srv.URL+"/dl"), c)
	cr := testCrawler()

	first, err := cr.Search(context.Background(), pkg)
	if err != nil {
		t.Fatal(err)
	}
	n := hits.Load()
	second, err := cr.Search(context.Background(), pkg)
	if err != nil {
		t.Fatal(err)
	}
	if hits.Load() != n {
		t.Errorf("second search made %d requests", hits.Load()-n)
	}
	if !slices.Equal(Versions(first), Versions(second)) {
		t.Errorf("cached %v != fresh %v", Versions(second), Versions(first))
	}
}

func TestCrawlerPageLimit(t *testing.T) {
	srv, hits := newMirror(t)
	cr := NewCrawler(NewFetcher(httputil.NewClient(httputil.Options{Attempts: 1})), 0, Limits{MaxPages: 1})
	got, err := cr.Search(context.Background(), testPackage(t, fooText(srv.URL+"/dl"), nil))
	if err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 1 {
		t.Errorf("requests = %d, want 1", hits.Load())
	}
	if slices.Contains(Versions(got), "1.4.0") {
		t.Error("version directory crawled past page limit")
	}
}

func TestCrawlerCanceled(t *testing.T) {
	srv, _ := newMirror(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testCrawler().Search(ctx, testPackage(t, fooText(srv.URL+"/dl"), nil))
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestCrawlerRequiresVersion(t *testing.T) {
	text := "PKG_NAME = foo\nPKG_DIST_SITE = http://example.invalid\n"
	_, err := testCrawler().Search(context.Background(), testPackage(t, text, nil))
	if !errors.Is(err, errors.ErrCodeVersionNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestFetchFTP(t *testing.T) {
	f := NewFetcher(httputil.NewClient(httputil.Options{})).WithFTP(func(_ context.Context, u *url.URL) ([]*ftp.Entry, error) {
		if u.Path != "/pub/foo" {
			t.Errorf("listed %q", u.Path)
		}
		return []*ftp.Entry{
			{Name: "foo-1.3.tar.gz", Type: ftp.EntryTypeFile},
			{Name: "1.4", Type: ftp.EntryTypeFolder},
		}, nil
	})
	page, err := f.Fetch(context.Background(), "ftp://ftp.example.org/pub/foo", "")
	if err != nil {
		t.Fatal(err)
	}
	want := []Link{{Href: "foo-1.3.tar.gz"}, {Href: "1.4/"}}
	if !slices.Equal(page.Links, want) {
		t.Errorf("links = %v, want %v", page.Links, want)
	}
}

func TestGoogleCodeLinks(t *testing.T) {
	body := []byte(`{"downloads":[{"filename":"foo-0.3.tar.gz"},{"filename":"foo-0.4.zip"}]}`)
	links, err := googleCodeLinks(body, "http://foo.googlecode.com/files")
	if err != nil {
		t.Fatal(err)
	}
	want := []Link{
		{Href: "http://foo.googlecode.com/files/foo-0.3.tar.gz"},
		{Href: "http://foo.googlecode.com/files/foo-0.4.zip"},
	}
	if !slices.Equal(links, want) {
		t.Errorf("links = %v", links)
	}
}
