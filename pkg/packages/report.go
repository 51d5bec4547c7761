package packages

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/matzehuels/spkwatch/pkg/dag"
)

const searchRow = "%-30s %-10s %-30s %-30s\n"

// WriteSearch prints one line per result: package, whether an update
// exists, the current and the next version. Failed checks show ERR.
func WriteSearch(w io.Writer, results []Result) error {
	if _, err := fmt.Fprintf(w, searchRow, "Package", "New ?", "Current version", "Next version"); err != nil {
		return err
	}
	for _, r := range results {
		state := "NO"
		switch {
		case r.Err != nil:
			state = "ERR"
		case r.HasUpdate:
			state = "YES"
		}
		if _, err := fmt.Fprintf(w, searchRow, r.ID, state, r.Current, r.Next); err != nil {
			return err
		}
	}
	return nil
}

// WriteAllVersions prints every candidate found for each result.
func WriteAllVersions(w io.Writer, results []Result) error {
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "%s (%s):\n", r.ID, r.Current); err != nil {
			return err
		}
		for _, c := range r.Candidates {
			if _, err := fmt.Fprintf(w, " - %s\n", c.Version); err != nil {
				return err
			}
		}
	}
	return nil
}

// Unused returns the library packages that no shippable package depends
// on, directly or transitively.
func Unused(reg *Registry) []string {
	g := reg.Graph()
	used := dag.Reachable(g, reg.ShippableIDs()...)
	var out []string
	for _, id := range reg.LibraryIDs() {
		if _, ok := slices.BinarySearch(used, id); !ok {
			out = append(out, id)
		}
	}
	return out
}

// WriteDeps prints the dependency tree of id, two spaces of indentation
// per level. A package already on the current path is marked and not
// expanded again.
func WriteDeps(w io.Writer, reg *Registry, id string) error {
	return writeTree(w, id, func(id string) []string {
		if rec, ok := reg.Get(id); ok {
			return rec.Dependencies()
		}
		return nil
	})
}

// WriteParents prints the tree of packages depending on id.
func WriteParents(w io.Writer, reg *Registry, id string) error {
	return writeTree(w, id, func(id string) []string {
		if rec, ok := reg.Get(id); ok {
			p := slices.Clone(rec.Parents)
			slices.Sort(p)
			return p
		}
		return nil
	})
}

func writeTree(w io.Writer, root string, next func(string) []string) error {
	onPath := make(map[string]bool)
	var walk func(id string, depth int) error
	walk = func(id string, depth int) error {
		line := strings.Repeat("  ", depth) + " - " + id
		if onPath[id] {
			_, err := fmt.Fprintln(w, line+" (cycle)")
			return err
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		onPath[id] = true
		defer delete(onPath, id)
		for _, c := range next(id) {
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(root, 0)
}
