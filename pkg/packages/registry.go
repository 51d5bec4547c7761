package packages

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/spkwatch/pkg/dag"
	"github.com/matzehuels/spkwatch/pkg/errors"
	"github.com/matzehuels/spkwatch/pkg/recipe"
	"github.com/matzehuels/spkwatch/pkg/source"
)

// RecipeFile is the recipe file name inside a package directory.
const RecipeFile = "Makefile"

// Package categories of a recipe tree.
var (
	LibraryCategories   = []string{"cross", "native"}
	ShippableCategories = []string{"spk"}
	// RequiredDirs must all exist in a valid recipe tree.
	RequiredDirs = []string{"cross", "native", "spk", "toolchains"}
)

// Record is one package of the registry.
type Record struct {
	ID         string             `json:"id"`
	RecipePath string             `json:"recipe_path"`
	Metadata   recipe.Metadata    `json:"metadata"`
	Parents    []string           `json:"parents,omitempty"`
	Candidates []source.Candidate `json:"candidates,omitempty"`
	Checked    time.Time          `json:"checked,omitzero"`
}

// Dependencies returns DEPENDS and BUILD_DEPENDS combined.
func (r *Record) Dependencies() []string { return r.Metadata.Dependencies() }

func (r *Record) addParent(id string) {
	if !slices.Contains(r.Parents, id) {
		r.Parents = append(r.Parents, id)
	}
}

// Registry is the pair of package tables built from one recipe tree.
type Registry struct {
	RunID     string             `json:"run_id"`
	Created   time.Time          `json:"created"`
	Root      string             `json:"root"`
	Libraries map[string]*Record `json:"libraries"`
	Shippable map[string]*Record `json:"shippable"`
	// Missing lists dependencies without a recipe.
	Missing []string `json:"missing,omitempty"`
	// Cycles lists dependency cycles found while building, each starting
	// and ending at the same package.
	Cycles [][]string `json:"cycles,omitempty"`
}

func newRegistry(root string) *Registry {
	return &Registry{
		RunID:     uuid.NewString(),
		Created:   time.Now(),
		Root:      root,
		Libraries: make(map[string]*Record),
		Shippable: make(map[string]*Record),
	}
}

// table returns the table an ID belongs to.
func (r *Registry) table(id string) map[string]*Record {
	if dag.KindOf(id) == dag.NodeKindShippable {
		return r.Shippable
	}
	return r.Libraries
}

// Get returns the record of id from either table.
func (r *Registry) Get(id string) (*Record, bool) {
	rec, ok := r.table(id)[id]
	return rec, ok
}

// Has reports whether id has a record.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// LibraryIDs returns the library package IDs, sorted.
func (r *Registry) LibraryIDs() []string { return sortedKeys(r.Libraries) }

// ShippableIDs returns the shippable package IDs, sorted.
func (r *Registry) ShippableIDs() []string { return sortedKeys(r.Shippable) }

// Graph returns the dependency graph of every record. Dependencies
// without a recipe become [dag.NodeKindMissing] nodes.
func (r *Registry) Graph() *dag.DAG {
	g := dag.New(dag.Metadata{"run_id": r.RunID})
	add := func(id string, kind dag.NodeKind) {
		if _, ok := g.Node(id); !ok {
			_ = g.AddNode(dag.Node{ID: id, Kind: kind})
		}
	}
	records := slices.Concat(r.records(r.Libraries), r.records(r.Shippable))
	for _, rec := range records {
		add(rec.ID, dag.KindOf(rec.ID))
		n, _ := g.Node(rec.ID)
		n.Meta["version"] = rec.Metadata.Version
		n.Meta["method"] = string(rec.Metadata.Method)
	}
	for _, rec := range records {
		for _, dep := range rec.Dependencies() {
			add(dep, dag.NodeKindMissing)
			_ = g.AddEdge(dag.Edge{From: rec.ID, To: dep})
		}
	}
	return g
}

func (r *Registry) records(t map[string]*Record) []*Record {
	out := make([]*Record, 0, len(t))
	for _, id := range sortedKeys(t) {
		out = append(out, t[id])
	}
	return out
}

func sortedKeys(m map[string]*Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ValidateRoot checks that root looks like a recipe tree.
func ValidateRoot(root string) error {
	for _, d := range append([]string{""}, RequiredDirs...) {
		fi, err := os.Stat(filepath.Join(root, d))
		if err != nil || !fi.IsDir() {
			return errors.New(errors.ErrCodeInvalidPath, "%s is not a recipe tree: missing %s/", root, d)
		}
	}
	return nil
}

// RecipePath returns the recipe file of id under root.
func RecipePath(root, id string) string {
	return filepath.Join(root, filepath.FromSlash(id), RecipeFile)
}

// Discover lists the packages of the given categories: every immediate
// subdirectory holding a recipe file. IDs are "category/name", sorted.
func Discover(root string, categories ...string) ([]string, error) {
	var ids []string
	for _, cat := range categories {
		entries, err := os.ReadDir(filepath.Join(root, cat))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "list %s", cat)
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			id := cat + "/" + e.Name()
			if _, err := os.Stat(RecipePath(root, id)); err == nil {
				ids = append(ids, id)
			}
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// builder populates a registry from recipe files.
type builder struct {
	reg        *Registry
	logger     *log.Logger
	inProgress map[string]bool
	stack      []string
	missing    map[string]bool
}

// Build parses every library and shippable recipe under root and their
// dependencies.
func Build(ctx context.Context, root string, logger *log.Logger) (*Registry, error) {
	if logger == nil {
		logger = log.New(nil)
	}
	b := &builder{
		reg:        newRegistry(root),
		logger:     logger,
		inProgress: make(map[string]bool),
		missing:    make(map[string]bool),
	}
	for _, cats := range [][]string{LibraryCategories, ShippableCategories} {
		ids, err := Discover(root, cats...)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			b.metadata(id)
		}
	}
	for id := range b.missing {
		b.reg.Missing = append(b.reg.Missing, id)
	}
	slices.Sort(b.reg.Missing)
	return b.reg, nil
}

// metadata builds the record of id and, recursively, of its
// dependencies. It reports whether id has a record.
func (b *builder) metadata(id string) bool {
	if b.reg.Has(id) {
		return true
	}
	if b.missing[id] {
		return false
	}
	path := RecipePath(b.reg.Root, id)
	in, err := recipe.ParseFile(path)
	if err != nil {
		b.logger.Warn("package has no recipe", "pkg", id)
		b.missing[id] = true
		return false
	}
	for _, perr := range in.Errors() {
		b.logger.Debug("recipe line skipped", "pkg", id, "err", perr)
	}

	rec := &Record{ID: id, RecipePath: path, Metadata: in.Metadata()}
	b.reg.table(id)[id] = rec
	b.inProgress[id] = true
	b.stack = append(b.stack, id)
	defer func() {
		delete(b.inProgress, id)
		b.stack = b.stack[:len(b.stack)-1]
	}()

	for _, dep := range rec.Dependencies() {
		if b.inProgress[dep] {
			cycle := append(slices.Clone(b.stack[slices.Index(b.stack, dep):]), dep)
			b.logger.Warn("dependency cycle", "pkg", id, "cycle", cycle)
			b.reg.Cycles = append(b.reg.Cycles, cycle)
		} else if !b.metadata(dep) {
			continue
		}
		if d, ok := b.reg.Get(dep); ok {
			d.addParent(id)
		}
	}
	return true
}
