package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/spkwatch/pkg/errors"
	"github.com/matzehuels/spkwatch/pkg/packages"
)

var (
	updated = packages.Result{ID: "cross/zlib", Current: "1.2.11", Next: "1.2.13", HasUpdate: true}
	current = packages.Result{ID: "cross/nasm", Current: "2.14", Next: "2.14", Cached: true}
	offline = packages.Result{
		ID:      "cross/curl",
		Current: "8.0.1",
		Err:     errors.New(errors.ErrCodeNetwork, "GET https://curl.se/download/: 503"),
	}
	crashed = packages.Result{
		ID:  "cross/boom",
		Err: errors.New(errors.ErrCodeInternal, "panic: runtime error"),
	}
)

func TestResultLevel(t *testing.T) {
	tests := []struct {
		name string
		r    packages.Result
		want log.Level
	}{
		{"update", updated, log.InfoLevel},
		{"up to date", current, log.DebugLevel},
		{"network failure", offline, log.WarnLevel},
		{"panic", crashed, log.ErrorLevel},
		{"uncoded failure", packages.Result{ID: "cross/x", Err: fmt.Errorf("boom")}, log.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resultLevel(tt.r); got != tt.want {
				t.Errorf("resultLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogResult(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		r     packages.Result
		want  []string
	}{
		{"update", log.InfoLevel, updated, []string{"INFO", "update available", "pkg=cross/zlib", "current=1.2.11", "next=1.2.13"}},
		{"failure", log.InfoLevel, offline, []string{"WARN", "check failed", "pkg=cross/curl", "code=NETWORK_ERROR", "503"}},
		{"internal", log.InfoLevel, crashed, []string{"ERRO", "check failed", "pkg=cross/boom", "code=INTERNAL_ERROR"}},
		{"up to date hidden", log.InfoLevel, current, nil},
		{"up to date verbose", log.DebugLevel, current, []string{"DEBU", "up to date", "pkg=cross/nasm", "cached=true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logResult(newLogger(&buf, tt.level), tt.r)
			out := buf.String()
			if tt.want == nil && out != "" {
				t.Fatalf("output = %q, want none", out)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output %q missing %q", out, w)
				}
			}
		})
	}
}

func TestSessionProgress(t *testing.T) {
	var logs bytes.Buffer
	var term syncBuffer
	s := &session{logger: newLogger(&logs, log.InfoLevel), total: 3}
	s.spinner = newSpinner("Checking 3 packages")
	s.spinner.w = &term

	for _, r := range []packages.Result{updated, current, offline} {
		s.progress(r)
	}

	if got := s.checked.Load(); got != 3 {
		t.Errorf("checked = %d, want 3", got)
	}
	s.spinner.mu.Lock()
	msg := s.spinner.message
	s.spinner.mu.Unlock()
	if msg != "Checked 3/3 packages" {
		t.Errorf("spinner message = %q", msg)
	}

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("logged %d lines, want 2:\n%s", len(lines), logs.String())
	}
	if !strings.Contains(lines[0], "pkg=cross/zlib") || !strings.Contains(lines[1], "pkg=cross/curl") {
		t.Errorf("lines = %q", lines)
	}
	// One clear per printed line; the up-to-date result is filtered first.
	if n := strings.Count(term.String(), "\r"); n != 4 {
		t.Errorf("spinner line cleared %d times, want 2 (output %q)", n/2, term.String())
	}
}

func TestSessionProgressWithoutSpinner(t *testing.T) {
	var logs bytes.Buffer
	s := &session{logger: newLogger(&logs, log.DebugLevel), total: 1}
	s.progress(current)
	if !strings.Contains(logs.String(), "up to date") {
		t.Errorf("output = %q", logs.String())
	}
}

func TestPhaseDone(t *testing.T) {
	var buf bytes.Buffer
	ph := startPhase(newLogger(&buf, log.InfoLevel))
	ph.done("Checked " + packages.Summarize([]packages.Result{updated, offline}).String())

	out := buf.String()
	for _, w := range []string{"Checked 2 packages, 1 updates, 1 failed, 0 cached", "took="} {
		if !strings.Contains(out, w) {
			t.Errorf("output %q missing %q", out, w)
		}
	}
}

func TestLoggerContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("loggerFromContext() without logger is not log.Default()")
	}

	var buf bytes.Buffer
	l := newLogger(&buf, log.DebugLevel)
	got := loggerFromContext(withLogger(context.Background(), l))
	if got != l {
		t.Fatal("loggerFromContext() did not return the attached logger")
	}
	got.Debug("configuration loaded", "file", "spkwatch.toml")
	if !strings.Contains(buf.String(), "file=spkwatch.toml") {
		t.Errorf("output = %q", buf.String())
	}
}
