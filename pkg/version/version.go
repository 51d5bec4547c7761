// Package version orders upstream version strings and decides which
// discovered candidates a package may update to.
//
// Parsing and ordering use hashicorp/go-version after folding "_" to "."
// ("1_2_3" is read as "1.2.3"). Strings that do not parse as versions sort
// after every parsable one, lexically among themselves.
package version

import (
	"regexp"
	"slices"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// Version is a parsed version string.
type Version struct {
	raw string
	v   *goversion.Version
}

// Normalize folds underscores to dots and trims surrounding blanks.
func Normalize(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "_", ".")
}

// Parse parses s after [Normalize].
func Parse(s string) (*Version, error) {
	n := Normalize(s)
	v, err := goversion.NewVersion(n)
	if err != nil {
		return nil, err
	}
	return &Version{raw: n, v: v}, nil
}

// String returns the normalized input.
func (v *Version) String() string { return v.raw }

// Major returns the first numeric segment.
func (v *Version) Major() int { return v.v.Segments()[0] }

// Compare returns -1, 0 or 1 as v is less than, equal to or greater than o.
func (v *Version) Compare(o *Version) int { return v.v.Compare(o.v) }

var prereleaseRE = regexp.MustCompile(`(?i)^[-._]?(alpha|beta|dev|pre|preview|rc|snapshot|a|b|c)[-._]?[0-9.]*$`)

// Prerelease reports whether v carries a prerelease tag such as "rc1",
// "beta.2" or "dev". Other suffixes ("1.1.1w", "2.0-1") are patch levels.
func (v *Version) Prerelease() bool {
	pre := v.v.Prerelease()
	return pre != "" && prereleaseRE.MatchString(pre)
}

// IsPrerelease parses s and reports whether it is a prerelease. Strings
// that do not parse are not prereleases.
func IsPrerelease(s string) bool {
	v, err := Parse(s)
	return err == nil && v.Prerelease()
}

// Compare orders two version strings. Parsable versions sort before
// unparsable ones.
func Compare(a, b string) int {
	va, errA := Parse(a)
	vb, errB := Parse(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// Sort sorts versions ascending in place.
func Sort(versions []string) {
	slices.SortStableFunc(versions, Compare)
}
