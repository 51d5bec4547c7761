package packages

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/spkwatch/pkg/cache"
	"github.com/matzehuels/spkwatch/pkg/errors"
	"github.com/matzehuels/spkwatch/pkg/recipe"
	"github.com/matzehuels/spkwatch/pkg/source"
	"github.com/matzehuels/spkwatch/pkg/version"
)

const (
	registryNamespace = "packages"
	registryKey       = "registry.json"
)

// Searcher discovers candidates for one package. [source.Searcher]
// implements it.
type Searcher interface {
	Search(ctx context.Context, id, text string) (source.Result, error)
}

// Options configures a [Manager].
type Options struct {
	Root string
	// Cache is the root cache. The registry is stored in its "packages"
	// namespace.
	Cache       *cache.Cache
	PackagesTTL time.Duration
	Searcher    Searcher
	Policy      version.Policy
	// Jobs bounds concurrent update checks. Zero means the CPU count.
	Jobs int
	// TaskTimeout bounds one package check. Zero means no limit.
	TaskTimeout time.Duration
	Logger      *log.Logger
	// OnResult, when set, is called from the worker goroutines after each
	// check. It must be safe for concurrent use.
	OnResult func(Result)
}

// Manager owns the registry of one recipe tree.
type Manager struct {
	opts   Options
	cache  *cache.Cache
	logger *log.Logger
	reg    *Registry
}

// NewManager creates a Manager. Call [Manager.Load] before anything else.
func NewManager(opts Options) *Manager {
	if opts.Cache == nil {
		opts.Cache = cache.Disabled()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(nil)
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	return &Manager{
		opts:   opts,
		cache:  opts.Cache.Namespace(registryNamespace).WithTTL(opts.PackagesTTL),
		logger: opts.Logger,
	}
}

// Registry returns the loaded registry, or nil before Load.
func (m *Manager) Registry() *Registry { return m.reg }

// Load restores the registry snapshot when it is fresh and was taken from
// the same tree, and builds it from the recipes otherwise.
func (m *Manager) Load(ctx context.Context) (*Registry, error) {
	var snap Registry
	if ok, _ := m.cache.Load(ctx, registryKey, &snap); ok && snap.Root == m.opts.Root {
		m.logger.Debug("using cached registry", "run", snap.RunID, "created", snap.Created)
		m.reg = &snap
		return m.reg, nil
	}
	reg, err := Build(ctx, m.opts.Root, m.logger)
	if err != nil {
		return nil, err
	}
	m.reg = reg
	m.Save(ctx)
	return reg, nil
}

// Save stores the registry snapshot. Failures are logged, not returned:
// a missing snapshot only costs a rebuild.
func (m *Manager) Save(ctx context.Context) {
	if err := m.cache.Save(ctx, registryKey, m.reg); err != nil {
		m.logger.Warn("cache registry", "err", err)
	}
}

// Requested resolves the package selection. An empty selection means
// every library package; unknown IDs are an error.
func (m *Manager) Requested(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return m.reg.LibraryIDs(), nil
	}
	out := slices.Clone(ids)
	for _, id := range out {
		if !m.reg.Has(id) {
			return nil, errors.New(errors.ErrCodeInvalidPackage, "%s does not exist or is not a valid package", id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// Result is the outcome of checking one package.
type Result struct {
	ID         string             `json:"id" yaml:"id"`
	Method     recipe.Method      `json:"method" yaml:"method"`
	Current    string             `json:"current" yaml:"current"`
	Next       string             `json:"next,omitempty" yaml:"next,omitempty"`
	HasUpdate  bool               `json:"has_update" yaml:"has_update"`
	Candidates []source.Candidate `json:"candidates,omitempty" yaml:"-"`
	Cached     bool               `json:"cached" yaml:"cached"`
	Duration   time.Duration      `json:"duration" yaml:"duration"`
	Err        error              `json:"-" yaml:"-"`
}

// Error returns Err as text, or "".
func (r Result) Error() string {
	if r.Err == nil {
		return ""
	}
	return errors.UserMessage(r.Err)
}

// CheckUpdates searches every id for new versions on a bounded pool and
// returns one result per id, in the order given. Candidates of successful
// checks are merged into the registry after all tasks have returned, and
// the registry snapshot is saved.
func (m *Manager) CheckUpdates(ctx context.Context, ids []string) []Result {
	results := make([]Result, len(ids))
	var g errgroup.Group
	g.SetLimit(m.opts.Jobs)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = m.check(ctx, id)
			if m.opts.OnResult != nil {
				m.opts.OnResult(results[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	now := time.Now()
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if rec, ok := m.reg.Get(r.ID); ok {
			rec.Candidates = r.Candidates
			rec.Checked = now
		}
	}
	m.Save(ctx)
	return results
}

// check runs one package end to end. It never panics.
func (m *Manager) check(ctx context.Context, id string) (res Result) {
	start := time.Now()
	res.ID = id
	logger := m.logger.With("pkg", id)
	defer func() {
		if p := recover(); p != nil {
			res.Err = errors.New(errors.ErrCodeInternal, "panic: %v", p)
		}
		res.Duration = time.Since(start)
		if res.Err != nil {
			logger.Debug("check failed", "err", res.Err)
		}
	}()

	rec, ok := m.reg.Get(id)
	if !ok {
		res.Err = errors.New(errors.ErrCodeInvalidPackage, "unknown package")
		return res
	}
	res.Method, res.Current = rec.Metadata.Method, rec.Metadata.Version

	if m.opts.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.TaskTimeout)
		defer cancel()
	}

	text, err := os.ReadFile(rec.RecipePath)
	if err != nil {
		res.Err = errors.Wrap(errors.ErrCodeNotFound, err, "read recipe")
		return res
	}
	sr, err := m.opts.Searcher.Search(ctx, id, string(text))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = errors.Wrap(errors.ErrCodeTimeout, err, "check exceeded %s", m.opts.TaskTimeout)
		}
		res.Err = err
		return res
	}
	res.Method, res.Current = sr.Metadata.Method, sr.Metadata.Version
	res.Candidates, res.Cached = sr.Candidates, sr.Cached
	res.Next, res.HasUpdate = m.NextVersion(res.Method, res.Current, res.Candidates)
	logger.Debug("checked", "current", res.Current, "next", res.Next, "candidates", len(res.Candidates))
	return res
}

// NextVersion applies the update policy to candidates. It returns the
// selected version and whether it differs from current.
func (m *Manager) NextVersion(method recipe.Method, current string, candidates []source.Candidate) (string, bool) {
	next, ok := m.opts.Policy.Select(method, current, source.Versions(candidates))
	if !ok {
		return "", false
	}
	return next, next != current
}

// Summary counts results by outcome.
type Summary struct {
	Total, Updates, Failed, Cached int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d packages, %d updates, %d failed, %d cached", s.Total, s.Updates, s.Failed, s.Cached)
}

// Summarize counts results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Failed++
		case r.HasUpdate:
			s.Updates++
		}
		if r.Cached {
			s.Cached++
		}
	}
	return s
}
