package recipe

import (
	"slices"
	"strings"
)

// Recipe variables read by the updater.
const (
	VarName           = "PKG_NAME"
	VarVersion        = "PKG_VERS"
	VarVersionMajor   = "PKG_VERS_MAJOR"
	VarVersionMinor   = "PKG_VERS_MINOR"
	VarVersionPatch   = "PKG_VERS_PATCH"
	VarDistSite       = "PKG_DIST_SITE"
	VarDistName       = "PKG_DIST_NAME"
	VarDownloadMethod = "PKG_DOWNLOAD_METHOD"
	VarGitHash        = "PKG_GIT_HASH"
	VarSvnRev         = "PKG_SVN_REV"
	VarDepends        = "DEPENDS"
	VarBuildDepends   = "BUILD_DEPENDS"
	VarHomepage       = "HOMEPAGE"
	VarDownloadPage   = "DOWNLOAD_PAGE"
)

// Method is the download mechanism declared by a recipe.
type Method string

const (
	MethodCommon Method = "common"
	MethodWget   Method = "wget"
	MethodGit    Method = "git"
	MethodSvn    Method = "svn"
)

// Known reports whether m is one of the supported methods.
func (m Method) Known() bool {
	switch m {
	case MethodCommon, MethodWget, MethodGit, MethodSvn:
		return true
	}
	return false
}

// Crawled reports whether m discovers versions by crawling HTTP or FTP.
func (m Method) Crawled() bool {
	return m == MethodCommon || m == MethodWget
}

// Defaults for the version-control methods.
const (
	DefaultGitHash = "master"
	DefaultSvnRev  = "HEAD"
)

// Metadata is the typed view of a recipe used by the updater.
type Metadata struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Method       Method   `json:"method"`
	DistSite     string   `json:"dist_site,omitempty"`
	DistName     string   `json:"dist_name,omitempty"`
	Depends      []string `json:"depends,omitempty"`
	BuildDepends []string `json:"build_depends,omitempty"`
	Homepage     []string `json:"homepage,omitempty"`
	DownloadPage []string `json:"download_page,omitempty"`
}

// Metadata extracts the updater's view of the recipe.
//
// The current version depends on the method: PKG_GIT_HASH (default
// "master") for git, PKG_SVN_REV (default "HEAD") for svn, and PKG_VERS
// otherwise, composed from PKG_VERS_MAJOR/_MINOR/_PATCH when PKG_VERS is
// absent.
func (in *Interpreter) Metadata() Metadata {
	m := Metadata{
		Name:         in.field(VarName, ""),
		Method:       Method(in.field(VarDownloadMethod, string(MethodCommon))),
		DistSite:     in.field(VarDistSite, ""),
		DistName:     in.field(VarDistName, ""),
		Depends:      in.words(VarDepends),
		BuildDepends: in.words(VarBuildDepends),
		Homepage:     in.nonEmpty(VarHomepage),
		DownloadPage: in.nonEmpty(VarDownloadPage),
	}
	if m.Method == "" {
		m.Method = MethodCommon
	}
	switch m.Method {
	case MethodGit:
		m.Version = in.field(VarGitHash, DefaultGitHash)
	case MethodSvn:
		m.Version = in.field(VarSvnRev, DefaultSvnRev)
	default:
		m.Version = in.commonVersion()
	}
	return m
}

func (in *Interpreter) field(name, def string) string {
	return strings.TrimSpace(in.Value(name, def))
}

func (in *Interpreter) commonVersion() string {
	if v := in.field(VarVersion, ""); v != "" {
		return v
	}
	var parts []string
	for _, name := range []string{VarVersionMajor, VarVersionMinor, VarVersionPatch} {
		if v := in.field(name, ""); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ".")
}

// words splits every value of name on whitespace and flattens the result,
// dropping duplicates.
func (in *Interpreter) words(name string) []string {
	values, _ := in.Values(name)
	var out []string
	for _, v := range values {
		for _, w := range strings.Fields(v) {
			if !slices.Contains(out, w) {
				out = append(out, w)
			}
		}
	}
	return out
}

func (in *Interpreter) nonEmpty(name string) []string {
	values, _ := in.Values(name)
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// DistURL returns PKG_DIST_SITE + "/" + PKG_DIST_NAME, or "" when the
// recipe has no distribution site.
func (m Metadata) DistURL() string {
	if m.DistSite == "" {
		return ""
	}
	if m.DistName == "" {
		return m.DistSite
	}
	return m.DistSite + "/" + m.DistName
}

// Dependencies returns the union of Depends and BuildDepends, sorted.
func (m Metadata) Dependencies() []string {
	out := slices.Concat(m.Depends, m.BuildDepends)
	slices.Sort(out)
	return slices.Compact(out)
}
