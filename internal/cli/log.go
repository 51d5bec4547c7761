// Package cli implements the spkwatch command-line interface.
//
// The commands read an spksrc recipe tree, look up upstream versions and
// report or apply what they find:
//   - search, search-all: check packages for new versions
//   - print-deps, print-parent-deps, unused: dependency reports
//   - build, update: build order of updated packages, recipe write-back
//   - graph: Graphviz rendering of the dependency graph
//   - repo: clone, pull and reset the recipe tree
//   - cache, config: inspect and clear state
//
// # Configuration
//
// Every command resolves a [config.Config] before it runs: defaults, the
// file given with --config (or ./spkwatch.toml), SPKWATCH_* variables and
// the persistent flags, in that order.
//
// # Logging
//
// Logs go to stderr through charmbracelet/log; --verbose selects debug
// level. The logger is attached to the command context and injected into
// the library components.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spkwatch/pkg/errors"
	"github.com/matzehuels/spkwatch/pkg/packages"
)

// newLogger returns the stderr logger of a run, with timestamps such as
// "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// phase times one stage of a run, such as loading the recipe tree or
// checking packages.
type phase struct {
	logger *log.Logger
	start  time.Time
}

func startPhase(l *log.Logger) *phase {
	return &phase{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g.
// "Checked 40 packages, 3 updates, 1 failed, 12 cached took=2.481s".
func (p *phase) done(msg string) {
	p.logger.Info(msg, "took", time.Since(p.start).Round(time.Millisecond))
}

// resultLevel is the level a finished check is logged at: error for
// internal faults, warn for other failures, info for updates and debug
// otherwise.
func resultLevel(r packages.Result) log.Level {
	switch {
	case r.Err != nil && errors.Is(r.Err, errors.ErrCodeInternal):
		return log.ErrorLevel
	case r.Err != nil:
		return log.WarnLevel
	case r.HasUpdate:
		return log.InfoLevel
	default:
		return log.DebugLevel
	}
}

// logResult reports one finished package check under pkg=<id>.
func logResult(l *log.Logger, r packages.Result) {
	l = l.With("pkg", r.ID)
	level := resultLevel(r)
	switch {
	case r.Err != nil:
		l.Log(level, "check failed", "code", errors.GetCode(r.Err), "err", r.Error())
	case r.HasUpdate:
		l.Log(level, "update available", "current", r.Current, "next", r.Next)
	default:
		l.Log(level, "up to date", "current", r.Current, "cached", r.Cached)
	}
}

type loggerKey struct{}

// withLogger attaches the run's logger to ctx.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the run's logger, or log.Default() outside a
// command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
