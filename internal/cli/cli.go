package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spkwatch/pkg/cache"
	"github.com/matzehuels/spkwatch/pkg/config"
	"github.com/matzehuels/spkwatch/pkg/errors"
	"github.com/matzehuels/spkwatch/pkg/httputil"
	"github.com/matzehuels/spkwatch/pkg/packages"
	"github.com/matzehuels/spkwatch/pkg/source"
	"github.com/matzehuels/spkwatch/pkg/vcs"
	"github.com/matzehuels/spkwatch/pkg/version"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for files and display.
	appName = "spkwatch"

	// redisPrefix namespaces spkwatch keys in a shared Redis.
	redisPrefix = appName + ":"

	// mirrorsDir holds git and svn working copies below work_dir.
	mirrorsDir = "mirrors"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands. The configuration is resolved
// once per invocation in the root command's pre-run hook.
type CLI struct {
	Logger *log.Logger
	Config config.Config
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Component Factories
// =============================================================================

// openCache opens the configured cache backend. The caller closes the
// returned cache's store.
func (c *CLI) openCache(ctx context.Context) (*cache.Cache, error) {
	var (
		store cache.Store
		err   error
	)
	switch c.Config.CacheBackend {
	case config.BackendRedis:
		store, err = cache.NewRedisStore(ctx, c.Config.RedisAddr, redisPrefix)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to redis at %s", c.Config.RedisAddr)
		}
	default:
		store, err = cache.NewFileStore(c.Config.CacheDir)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create cache dir")
		}
	}
	return cache.New(store, cache.Options{
		Enabled: c.Config.CacheEnabled,
		TTL:     c.Config.CacheDuration,
	}), nil
}

// newSearcher wires the version sources from the configuration.
func (c *CLI) newSearcher(cc *cache.Cache, logger *log.Logger) *source.Searcher {
	client := httputil.NewClient(httputil.Options{
		UserAgent:    c.Config.UserAgent,
		MaxRedirects: c.Config.MaxRedirects,
	})
	return source.NewSearcher(source.Options{
		Cache:       cc,
		DownloadTTL: c.Config.CacheDurationDownload,
		VersionsTTL: c.Config.CacheDuration,
		MirrorDir:   filepath.Join(c.Config.WorkDir, mirrorsDir),
		Client:      client,
		Svn:         vcs.Svn{},
		Limits: source.Limits{
			MaxDepth:     c.Config.MaxDepth,
			MaxRedirects: c.Config.MaxRedirects,
			MaxPages:     c.Config.MaxPages,
		},
		Logger: logger,
	})
}

// session is one loaded recipe tree with its cache.
type session struct {
	logger   *log.Logger
	cache    *cache.Cache
	manager  *packages.Manager
	registry *packages.Registry
	spinner  *Spinner
	total    int
	checked  atomic.Int32
}

func (s *session) Close() {
	if s.spinner != nil {
		s.spinner.Stop()
	}
	s.cache.Store().Close()
}

// load validates the recipe tree and loads its registry.
func (c *CLI) load(ctx context.Context) (*session, error) {
	if err := packages.ValidateRoot(c.Config.RootDir); err != nil {
		return nil, err
	}
	cc, err := c.openCache(ctx)
	if err != nil {
		return nil, err
	}
	logger := loggerFromContext(ctx)
	s := &session{logger: logger, cache: cc}
	s.manager = packages.NewManager(packages.Options{
		Root:        c.Config.RootDir,
		Cache:       cc,
		PackagesTTL: c.Config.CacheDurationPackages,
		Searcher:    c.newSearcher(cc, logger),
		Policy: version.Policy{
			AllowMajor:      c.Config.AllowMajorRelease,
			AllowPrerelease: c.Config.AllowPrerelease,
		},
		Jobs:        c.Config.Jobs,
		TaskTimeout: c.Config.TaskTimeout,
		Logger:      logger,
		OnResult:    s.progress,
	})

	ph := startPhase(logger)
	reg, err := s.manager.Load(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.registry = reg
	ph.done("Loaded " + pluralize(len(reg.Libraries)+len(reg.Shippable), "package"))
	for _, cycle := range reg.Cycles {
		logger.Debug("dependency cycle", "path", cycle)
	}
	return s, nil
}

// check runs the update checks for ids behind a spinner.
func (c *CLI) check(ctx context.Context, s *session, ids []string) []packages.Result {
	s.total = len(ids)
	s.checked.Store(0)
	s.spinner = newSpinnerWithContext(ctx, "Checking "+pluralize(len(ids), "package"))
	s.spinner.Start()

	ph := startPhase(s.logger)
	results := s.manager.CheckUpdates(ctx, ids)
	s.spinner.Stop()
	ph.done("Checked " + packages.Summarize(results).String())
	return results
}

// progress runs on the worker goroutines. Result lines are printed
// between spinner frames.
func (s *session) progress(r packages.Result) {
	n := s.checked.Add(1)
	sp := s.spinner
	switch {
	case s.logger.GetLevel() > resultLevel(r):
	case sp != nil:
		sp.Interrupt(func() { logResult(s.logger, r) })
	default:
		logResult(s.logger, r)
	}
	if sp != nil {
		sp.Update(fmt.Sprintf("Checked %d/%d packages", n, s.total))
	}
}

// withRunTimeout bounds the whole run when run_timeout is set.
func (c *CLI) withRunTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Config.RunTimeout > 0 {
		return context.WithTimeout(ctx, c.Config.RunTimeout)
	}
	return context.WithCancel(ctx)
}
