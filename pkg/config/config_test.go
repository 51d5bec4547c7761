package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/spkwatch/pkg/errors"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spkwatch.toml")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.RootDir != "work/spksrc-git" || c.CacheDir != "work/cache" {
		t.Errorf("dirs = %q, %q", c.RootDir, c.CacheDir)
	}
	if c.CacheDuration != 7*24*time.Hour || c.CacheDurationPackages != c.CacheDuration || c.CacheDurationDownload != c.CacheDuration {
		t.Errorf("durations = %v, %v, %v", c.CacheDuration, c.CacheDurationPackages, c.CacheDurationDownload)
	}
	if c.TaskTimeout != 5*time.Minute || c.RunTimeout != 0 {
		t.Errorf("timeouts = %v, %v", c.TaskTimeout, c.RunTimeout)
	}
	if !c.CacheEnabled || c.AllowMajorRelease || c.AllowPrerelease || c.UpdateDeps {
		t.Errorf("flags = %+v", c)
	}
	if c.Jobs < 1 || c.MaxDepth != 8 || c.MaxRedirects != 10 || c.MaxPages != 64 {
		t.Errorf("limits = %+v", c)
	}
}

func TestLoadLayers(t *testing.T) {
	path := writeConfig(t, `
work_dir = "/srv/spk"
jobs = 3
cache_duration = "2d"
cache_duration_download = 3600
allow_prerelease = true
`)
	t.Setenv("SPKWATCH_JOBS", "5")
	t.Setenv("SPKWATCH_LOG_LEVEL", "debug")

	c, err := Load(path, map[string]string{KeyLogLevel: "warn"})
	if err != nil {
		t.Fatal(err)
	}
	if c.File != path {
		t.Errorf("File = %q", c.File)
	}
	if c.RootDir != "/srv/spk/spksrc-git" || c.CacheDir != "/srv/spk/cache" {
		t.Errorf("interpolated dirs = %q, %q", c.RootDir, c.CacheDir)
	}
	if c.Jobs != 5 {
		t.Errorf("Jobs = %d, env should win over file", c.Jobs)
	}
	if c.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, overrides should win over env", c.LogLevel)
	}
	if c.CacheDurationPackages != 48*time.Hour || c.CacheDurationDownload != time.Hour {
		t.Errorf("durations = %v, %v", c.CacheDurationPackages, c.CacheDurationDownload)
	}
	if !c.AllowPrerelease {
		t.Error("AllowPrerelease not read from file")
	}
	if got := c.Values()[KeyRootDir]; got != "/srv/spk/spksrc-git" {
		t.Errorf("Values()[root_dir] = %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		overrides map[string]string
	}{
		{"unknown file key", `colour = "red"`, nil},
		{"bad toml", `jobs = `, nil},
		{"table value", "[cache]\ndir = \"x\"", nil},
		{"unknown override", "", map[string]string{"nope": "1"}},
		{"bad int", "", map[string]string{KeyJobs: "many"}},
		{"zero jobs", "", map[string]string{KeyJobs: "0"}},
		{"bad bool", "", map[string]string{KeyUpdateDeps: "maybe"}},
		{"bad duration", "", map[string]string{KeyTaskTimeout: "soon"}},
		{"bad backend", "", map[string]string{KeyCacheBackend: "s3"}},
		{"redis without addr", "", map[string]string{KeyCacheBackend: BackendRedis}},
		{"circular", "", map[string]string{KeyWorkDir: "%root_dir%"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}
			_, err := Load(path, tt.overrides)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want %s", err, errors.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestLoadKeepsUnknownReference(t *testing.T) {
	c, err := Load("", map[string]string{KeyUserAgent: "bot %version%"})
	if err != nil {
		t.Fatal(err)
	}
	if c.UserAgent != "bot %version%" {
		t.Errorf("UserAgent = %q", c.UserAgent)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		err  bool
	}{
		{"3600", time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"1w", 7 * 24 * time.Hour, false},
		{"1w2d", 9 * 24 * time.Hour, false},
		{"1d12h", 36 * time.Hour, false},
		{"36h", 36 * time.Hour, false},
		{"90s", 90 * time.Second, false},
		{"0", 0, false},
		{"", 0, true},
		{"forever", 0, true},
		{"2x", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseDuration(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
