package version

import "github.com/matzehuels/spkwatch/pkg/recipe"

// Policy gates which candidates are acceptable updates.
type Policy struct {
	AllowMajor      bool
	AllowPrerelease bool
}

// IsAcceptable reports whether candidate is an acceptable update from
// current:
//
//   - prereleases are rejected unless allowPrerelease is set;
//   - with allowMajor, any candidate greater than current is accepted;
//   - otherwise the candidate must also stay below (major+1).0.0 of the
//     current version, prereleases of the next major included.
//
// Unparsable versions are never acceptable.
func IsAcceptable(current, candidate string, allowMajor, allowPrerelease bool) bool {
	cur, err := Parse(current)
	if err != nil {
		return false
	}
	cand, err := Parse(candidate)
	if err != nil {
		return false
	}
	if cand.Prerelease() && !allowPrerelease {
		return false
	}
	if !allowMajor && cand.Major() >= cur.Major()+1 {
		return false
	}
	return cand.Compare(cur) > 0
}

// Accept applies [IsAcceptable] with the policy's flags.
func (p Policy) Accept(current, candidate string) bool {
	return IsAcceptable(current, candidate, p.AllowMajor, p.AllowPrerelease)
}

// Select picks the version to update to from candidates.
//
// For crawled methods (common, wget) the greatest acceptable candidate
// wins. For git and svn the choice is positional: the first candidate as
// returned by the adapter, without version comparison. ok is false when
// nothing qualifies.
func (p Policy) Select(method recipe.Method, current string, candidates []string) (next string, ok bool) {
	if len(candidates) == 0 {
		return "", false
	}
	if !method.Crawled() {
		return candidates[0], true
	}
	sorted := append([]string(nil), candidates...)
	Sort(sorted)
	for _, c := range sorted {
		if p.Accept(current, c) {
			next, ok = c, true
		}
	}
	return next, ok
}
