package recipe

import (
	"slices"
	"testing"
)

func TestMetadata(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantVersion string
		wantMethod  Method
		wantURL     string
	}{
		{
			name:        "common",
			text:        "PKG_NAME = zlib\nPKG_VERS = 1.3.1 # current\nPKG_DIST_NAME = $(PKG_NAME)-$(PKG_VERS).tar.gz\nPKG_DIST_SITE = https://zlib.net/fossils",
			wantVersion: "1.3.1", wantMethod: MethodCommon,
			wantURL: "https://zlib.net/fossils/zlib-1.3.1.tar.gz",
		},
		{
			name:        "composed version",
			text:        "PKG_VERS_MAJOR = 3\nPKG_VERS_MINOR = 11\nPKG_VERS_PATCH = 4\nPKG_DOWNLOAD_METHOD = wget",
			wantVersion: "3.11.4", wantMethod: MethodWget,
		},
		{
			name:        "git default hash",
			text:        "PKG_DOWNLOAD_METHOD = git\nPKG_VERS = 1.0",
			wantVersion: DefaultGitHash, wantMethod: MethodGit,
		},
		{
			name:        "git hash",
			text:        "PKG_DOWNLOAD_METHOD = git\nPKG_GIT_HASH = 0a1b2c",
			wantVersion: "0a1b2c", wantMethod: MethodGit,
		},
		{
			name:        "svn",
			text:        "PKG_DOWNLOAD_METHOD = svn\nPKG_SVN_REV = 1234",
			wantVersion: "1234", wantMethod: MethodSvn,
		},
		{
			name:        "svn default",
			text:        "PKG_DOWNLOAD_METHOD = svn",
			wantVersion: DefaultSvnRev, wantMethod: MethodSvn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Parse(tt.text).Metadata()
			if m.Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", m.Version, tt.wantVersion)
			}
			if m.Method != tt.wantMethod {
				t.Errorf("Method = %q, want %q", m.Method, tt.wantMethod)
			}
			if got := m.DistURL(); got != tt.wantURL {
				t.Errorf("DistURL() = %q, want %q", got, tt.wantURL)
			}
		})
	}
}

func TestMetadata_Dependencies(t *testing.T) {
	in := Parse("DEPENDS = cross/bzip2 cross/zlib\nDEPENDS += cross/python\nBUILD_DEPENDS = native/cmake cross/zlib\nHOMEPAGE = https://example.org\n")
	m := in.Metadata()

	if want := []string{"cross/bzip2", "cross/zlib", "cross/python"}; !slices.Equal(m.Depends, want) {
		t.Errorf("Depends = %q, want %q", m.Depends, want)
	}
	want := []string{"cross/bzip2", "cross/python", "cross/zlib", "native/cmake"}
	if got := m.Dependencies(); !slices.Equal(got, want) {
		t.Errorf("Dependencies() = %q, want %q", got, want)
	}
	if !slices.Equal(m.Homepage, []string{"https://example.org"}) {
		t.Errorf("Homepage = %q", m.Homepage)
	}
	if len(m.DownloadPage) != 0 {
		t.Errorf("DownloadPage = %q, want empty", m.DownloadPage)
	}
}

func TestMethod(t *testing.T) {
	for _, m := range []Method{MethodCommon, MethodWget, MethodGit, MethodSvn} {
		if !m.Known() {
			t.Errorf("%q.Known() = false", m)
		}
	}
	if Method("hg").Known() {
		t.Error(`"hg".Known() = true`)
	}
	if !MethodWget.Crawled() || MethodGit.Crawled() {
		t.Error("Crawled() mismatch")
	}
}
