package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/go-chi/chi/v5"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/spkwatch/pkg/config"
	"github.com/matzehuels/spkwatch/pkg/errors"
)

// newUpstream serves a download directory listing zlib and nasm releases.
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/zlib", func(w http.ResponseWriter, r *http.Request) {
		for _, f := range []string{"zlib-1.2.11.tar.gz", "zlib-1.2.13.tar.gz", "zlib-2.0.0.tar.gz"} {
			fmt.Fprintf(w, "<a href=%q>%s</a>\n", f, f)
		}
	})
	r.Get("/nasm", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="nasm-2.14.tar.xz">nasm-2.14.tar.xz</a>`)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// newTree writes a recipe tree whose download sites point at upstream.
func newTree(t *testing.T, upstream string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "spksrc")
	recipes := map[string]string{
		"cross/zlib":  "PKG_NAME = zlib\nPKG_VERS = 1.2.11\nPKG_EXT = tar.gz\nPKG_DIST_NAME = $(PKG_NAME)-$(PKG_VERS).$(PKG_EXT)\nPKG_DIST_SITE = " + upstream + "/zlib\n",
		"native/nasm": "PKG_NAME = nasm\nPKG_VERS = 2.14\nPKG_EXT = tar.xz\nPKG_DIST_NAME = $(PKG_NAME)-$(PKG_VERS).$(PKG_EXT)\nPKG_DIST_SITE = " + upstream + "/nasm\n",
		"cross/lonely": "PKG_NAME = lonely\nPKG_VERS = 1.0\nPKG_DOWNLOAD_METHOD = svn\n",
		"spk/app":      "SPK_NAME = app\nPKG_VERS = 1.0\nDEPENDS = cross/zlib\nBUILD_DEPENDS = native/nasm\n",
	}
	if err := os.MkdirAll(filepath.Join(root, "toolchains"), 0o755); err != nil {
		t.Fatal(err)
	}
	for id, text := range recipes {
		dir := filepath.Join(root, filepath.FromSlash(id))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "Makefile"), []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// run executes the CLI with args against root and returns stdout of the
// report writer.
func run(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	cmd := c.RootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	base := []string{"--root", root, "--work-dir", t.TempDir(), "--no-cache", "--jobs", "2"}
	cmd.SetArgs(append(args, base...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPrintDeps(t *testing.T) {
	root := newTree(t, "http://example.invalid")
	out, err := run(t, root, "print-deps", "spk/app")
	if err != nil {
		t.Fatal(err)
	}
	if want := " - spk/app\n   - cross/zlib\n   - native/nasm\n"; out != want {
		t.Errorf("print-deps:\n%s\nwant:\n%s", out, want)
	}

	out, err = run(t, root, "print-parent-deps", "native/nasm")
	if err != nil {
		t.Fatal(err)
	}
	if want := " - native/nasm\n   - spk/app\n"; out != want {
		t.Errorf("print-parent-deps:\n%s\nwant:\n%s", out, want)
	}
}

func TestPrintDepsUnknownPackage(t *testing.T) {
	_, err := run(t, newTree(t, "http://example.invalid"), "print-deps", "cross/nope")
	if !errors.Is(err, errors.ErrCodeInvalidPackage) {
		t.Errorf("err = %v", err)
	}
}

func TestUnused(t *testing.T) {
	out, err := run(t, newTree(t, "http://example.invalid"), "unused")
	if err != nil {
		t.Fatal(err)
	}
	if out != "cross/lonely\n" {
		t.Errorf("unused = %q", out)
	}
}

func TestInvalidRoot(t *testing.T) {
	_, err := run(t, t.TempDir(), "unused")
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("err = %v", err)
	}
}

func TestSearch(t *testing.T) {
	srv := newUpstream(t)
	root := newTree(t, srv.URL)

	out, err := run(t, root, "search", "cross/zlib", "native/nasm")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("search output:\n%s", out)
	}
	if got := strings.Fields(lines[1]); strings.Join(got, " ") != "cross/zlib YES 1.2.11 1.2.13" {
		t.Errorf("zlib row = %q", got)
	}
	if got := strings.Fields(lines[2]); got[1] != "NO" {
		t.Errorf("nasm row = %q", got)
	}

	out, err = run(t, root, "search", "cross/zlib", "--allow-major")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2.0.0") {
		t.Errorf("--allow-major ignored:\n%s", out)
	}
}

func TestSearchYAML(t *testing.T) {
	srv := newUpstream(t)
	out, err := run(t, newTree(t, srv.URL), "search", "cross/zlib", "cross/lonely", "--format", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	var records []struct {
		ID        string   `yaml:"id"`
		Next      string   `yaml:"next"`
		HasUpdate bool     `yaml:"has_update"`
		Versions  []string `yaml:"versions"`
		Error     string   `yaml:"error"`
	}
	if err := yaml.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if len(records) != 2 {
		t.Fatalf("records = %+v", records)
	}
	byID := map[string]int{records[0].ID: 0, records[1].ID: 1}
	zlib := records[byID["cross/zlib"]]
	if zlib.Next != "1.2.13" || !zlib.HasUpdate || len(zlib.Versions) == 0 {
		t.Errorf("zlib = %+v", zlib)
	}
	if lonely := records[byID["cross/lonely"]]; lonely.Error == "" {
		t.Errorf("svn package without a URL should fail: %+v", lonely)
	}
}

func TestSearchAll(t *testing.T) {
	srv := newUpstream(t)
	out, err := run(t, newTree(t, srv.URL), "search-all", "cross/zlib", "--allow-major")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "cross/zlib (1.2.11):\n") || !strings.Contains(out, " - 1.2.13\n") {
		t.Errorf("search-all:\n%s", out)
	}
}

func TestUpdateWritesRecipe(t *testing.T) {
	srv := newUpstream(t)
	root := newTree(t, srv.URL)
	recipe := filepath.Join(root, "cross", "zlib", "Makefile")

	if _, err := run(t, root, "update", "cross/zlib", "--dry-run"); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(recipe); !strings.Contains(string(data), "PKG_VERS = 1.2.11") {
		t.Error("--dry-run wrote the recipe")
	}

	if _, err := run(t, root, "update", "cross/zlib"); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(recipe); !strings.Contains(string(data), "PKG_VERS = 1.2.13") {
		t.Errorf("recipe not updated:\n%s", data)
	}
}

func TestGraphDOT(t *testing.T) {
	out, err := run(t, newTree(t, "http://example.invalid"), "graph", "spk/app", "--format", "dot")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"spk/app" -> "cross/zlib";`, `"spk/app" -> "native/nasm";`} {
		if !strings.Contains(out, want) {
			t.Errorf("graph missing %s:\n%s", want, out)
		}
	}
	if strings.Contains(out, "cross/lonely") {
		t.Error("graph includes a package outside the closure")
	}
}

func TestConfigCommand(t *testing.T) {
	root := newTree(t, "http://example.invalid")
	out, err := run(t, root, "config", "--cache-duration", "2d")
	if err != nil {
		t.Fatal(err)
	}
	var values map[string]string
	if _, err := toml.Decode(out, &values); err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if values[config.KeyRootDir] != root {
		t.Errorf("root_dir = %q, want %q", values[config.KeyRootDir], root)
	}
	if values[config.KeyCacheDurationPackages] != "2d" || values[config.KeyCacheEnabled] != "false" {
		t.Errorf("values = %v", values)
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("jobs = 7\nmax_pages = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, newTree(t, "http://example.invalid"), "config", "--config", path)
	if err != nil {
		t.Fatal(err)
	}
	// --jobs on the command line wins over the file.
	if !strings.Contains(out, `jobs = "2"`) || !strings.Contains(out, `max_pages = "3"`) {
		t.Errorf("config output:\n%s", out)
	}
}

func TestCachePath(t *testing.T) {
	work := t.TempDir()
	c := New(io.Discard, LogInfo)
	cmd := c.RootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"cache", "path", "--work-dir", work})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != filepath.Join(work, "cache") && got != work+"/cache" {
		t.Errorf("cache path = %q", got)
	}
}

func TestCacheClear(t *testing.T) {
	work := t.TempDir()
	entry := filepath.Join(work, "cache", "cross", "zlib", "versions.json")
	if err := os.MkdirAll(filepath.Dir(entry), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(entry, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	cmd := c.RootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"cache", "clear", "cross/zlib", "--work-dir", work})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(entry); !os.IsNotExist(err) {
		t.Error("cache entry still present")
	}
}

func TestUnknownFormat(t *testing.T) {
	srv := newUpstream(t)
	_, err := run(t, newTree(t, srv.URL), "search", "cross/zlib", "--format", "xml")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
}

// complete runs cobra's hidden completion command and returns the
// suggestions followed by the directive line.
func complete(t *testing.T, args ...string) string {
	t.Helper()
	cmd := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"__complete"}, args...))
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	return out.String()
}

func TestCompletePackages(t *testing.T) {
	root := newTree(t, "http://example.invalid")

	if got, want := complete(t, "search", "--root", root, "cross/zlib", "cross/"), "cross/lonely\n:4\n"; got != want {
		t.Errorf("search completion = %q, want %q", got, want)
	}
	if got, want := complete(t, "print-deps", "--root", root, ""), "cross/lonely\ncross/zlib\nnative/nasm\nspk/app\n:4\n"; got != want {
		t.Errorf("print-deps completion = %q, want %q", got, want)
	}
	if got := complete(t, "update", "--root", t.TempDir(), ""); got != ":1\n" {
		t.Errorf("completion without a tree = %q, want error directive", got)
	}
}

func TestCompleteFormats(t *testing.T) {
	if got, want := complete(t, "graph", "--format", ""), "dot\nsvg\npng\n:4\n"; got != want {
		t.Errorf("graph --format completion = %q, want %q", got, want)
	}
	if got, want := complete(t, "search", "--format", ""), "table\nyaml\n:4\n"; got != want {
		t.Errorf("search --format completion = %q, want %q", got, want)
	}
}
