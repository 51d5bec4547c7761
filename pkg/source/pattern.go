package source

import (
	"regexp"
	"strings"

	"github.com/matzehuels/spkwatch/pkg/errors"
	"github.com/matzehuels/spkwatch/pkg/recipe"
)

// Placeholder substituted for PKG_VERS when deriving file name patterns.
const Placeholder = "XXXVERXXX"

// ArchiveExtensions are the archive suffixes recognized in file names.
var ArchiveExtensions = []string{"tar.lz", "tar.bz2", "tar.gz", "tar.xz", "zip", "rar", "tgz", "7z"}

const (
	versionExpr  = `[0-9]+([._-][0-9][0-9a-zA-Z]*|[._-][0-9a-zA-Z]*[0-9])*(-[a-zA-Z0-9_]+)*`
	pathPrefix   = `((([\w/:]*)))`
	groupVersion = "version"
	groupFile    = "filename"
	groupExt     = "extension"
)

var (
	extensionAlt = func() string {
		alts := make([]string, len(ArchiveExtensions))
		for i, e := range ArchiveExtensions {
			alts[i] = regexp.QuoteMeta(e)
		}
		return strings.Join(alts, "|")
	}()
	// escapedExtRE finds an extension inside already escaped text.
	escapedExtRE = func() *regexp.Regexp {
		alts := make([]string, len(ArchiveExtensions))
		for i, e := range ArchiveExtensions {
			alts[i] = regexp.QuoteMeta(regexp.QuoteMeta("." + e))
		}
		return regexp.MustCompile(strings.Join(alts, "|"))
	}()
)

// Patterns holds the expressions matching archive names of one recipe.
type Patterns struct {
	// Filename matches a bare file name inside a link path.
	Filename *regexp.Regexp
	// Path matches a file name with an optional leading URL path in raw
	// page content.
	Path *regexp.Regexp
}

// BuildPatterns derives the file name expressions for in. The
// interpreter's PKG_VERS is overwritten with [Placeholder]; pass a
// private copy.
//
// Both expressions expose the named groups "version" (when the recipe's
// distribution name or site mentions the version), "filename" and
// "extension".
func BuildPatterns(in *recipe.Interpreter) (*Patterns, error) {
	in.Set(recipe.VarVersion, Placeholder)
	name := first(in.Reevaluate(recipe.VarDistName))
	if name == "" {
		return nil, errors.New(errors.ErrCodeVersionNotFound, "recipe has no %s", recipe.VarDistName)
	}

	file := withExtensions(withVersion(regexp.QuoteMeta(name)))
	filenameRE, err := regexp.Compile(`(?P<filename>` + file + `)($|/)`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "file name pattern for %q", name)
	}

	prefix := pathPrefix
	if !strings.Contains(name, Placeholder) {
		site := first(in.Reevaluate(recipe.VarDistSite))
		if sp, ok := sitePath(site); ok {
			prefix = withVersion(regexp.QuoteMeta(sp))
		}
	}
	pathRE, err := regexp.Compile(`(` + prefix + `(?P<filename>` + file + `))`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "path pattern for %q", name)
	}
	return &Patterns{Filename: filenameRE, Path: pathRE}, nil
}

// withVersion replaces placeholders in escaped text by the version
// expression. Only the first one is a named group.
func withVersion(escaped string) string {
	parts := strings.Split(escaped, Placeholder)
	var b strings.Builder
	for i, p := range parts {
		if i == 1 {
			b.WriteString(`(?P<version>` + versionExpr + `)`)
		} else if i > 1 {
			b.WriteString(`(` + versionExpr + `)`)
		}
		b.WriteString(p)
	}
	return b.String()
}

// withExtensions replaces escaped archive suffixes by an alternation of
// all of them. Only the first one is a named group.
func withExtensions(escaped string) string {
	n := 0
	return escapedExtRE.ReplaceAllStringFunc(escaped, func(string) string {
		n++
		if n == 1 {
			return `\.(?P<extension>` + extensionAlt + `)`
		}
		return `\.(` + extensionAlt + `)`
	})
}

// sitePath returns the path of a distribution site with a trailing slash.
func sitePath(site string) (string, bool) {
	i := strings.Index(site, "://")
	if i < 0 {
		return "", false
	}
	rest := site[i+3:]
	j := strings.Index(rest, "/")
	if j < 0 {
		return "/", true
	}
	return strings.TrimRight(rest[j:], "/") + "/", true
}

func first(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// group returns the named submatch of m in s, or "".
func group(re *regexp.Regexp, s string, m []int, name string) string {
	i := re.SubexpIndex(name)
	if i < 0 || m[2*i] < 0 {
		return ""
	}
	return s[m[2*i]:m[2*i+1]]
}
