// Package config loads the spkwatch configuration.
//
// A [Config] is resolved once from four layers, later layers winning:
// built-in defaults, an optional TOML file, SPKWATCH_<KEY> environment
// variables and explicit overrides (usually command-line flags). String
// values may reference other keys as %key%, so the default cache
// directory follows work_dir:
//
//	work_dir = "/srv/spkwatch"
//	# cache_dir resolves to /srv/spkwatch/cache
//
// Durations accept Go syntax plus d (day) and w (week) units, or a bare
// number of seconds.
package config

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/spkwatch/pkg/errors"
)

// EnvPrefix prefixes environment overrides: SPKWATCH_WORK_DIR sets work_dir.
const EnvPrefix = "SPKWATCH_"

// Configuration keys.
const (
	KeyWorkDir               = "work_dir"
	KeyRootDir               = "root_dir"
	KeyRepoURI               = "repo_uri"
	KeyRepoBranch            = "repo_branch"
	KeyJobs                  = "jobs"
	KeyCacheEnabled          = "cache_enabled"
	KeyCacheDir              = "cache_dir"
	KeyCacheBackend          = "cache_backend"
	KeyRedisAddr             = "redis_addr"
	KeyCacheDuration         = "cache_duration"
	KeyCacheDurationPackages = "cache_duration_packages"
	KeyCacheDurationDownload = "cache_duration_download"
	KeyAllowMajorRelease     = "allow_major_release"
	KeyAllowPrerelease       = "allow_prerelease"
	KeyUpdateDeps            = "update_deps"
	KeyLogLevel              = "log_level"
	KeyTaskTimeout           = "task_timeout"
	KeyRunTimeout            = "run_timeout"
	KeyMaxDepth              = "max_depth"
	KeyMaxRedirects          = "max_redirects"
	KeyMaxPages              = "max_pages"
	KeyUserAgent             = "user_agent"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Defaults returns the raw default value of every key.
func Defaults() map[string]string {
	return map[string]string{
		KeyWorkDir:               "work",
		KeyRootDir:               "%work_dir%/spksrc-git",
		KeyRepoURI:               "https://github.com/SynoCommunity/spksrc.git",
		KeyRepoBranch:            "master",
		KeyJobs:                  strconv.Itoa(runtime.NumCPU()),
		KeyCacheEnabled:          "true",
		KeyCacheDir:              "%work_dir%/cache",
		KeyCacheBackend:          BackendFile,
		KeyRedisAddr:             "",
		KeyCacheDuration:         "7d",
		KeyCacheDurationPackages: "%cache_duration%",
		KeyCacheDurationDownload: "%cache_duration%",
		KeyAllowMajorRelease:     "false",
		KeyAllowPrerelease:       "false",
		KeyUpdateDeps:            "false",
		KeyLogLevel:              "info",
		KeyTaskTimeout:           "5m",
		KeyRunTimeout:            "0",
		KeyMaxDepth:              "8",
		KeyMaxRedirects:          "10",
		KeyMaxPages:              "64",
		KeyUserAgent:             "spkwatch (+https://github.com/matzehuels/spkwatch)",
	}
}

// Keys returns every configuration key, sorted.
func Keys() []string {
	d := Defaults()
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Config is the resolved configuration. It is a plain value: copies are
// independent and nothing mutates it after [Load].
type Config struct {
	WorkDir    string
	RootDir    string
	RepoURI    string
	RepoBranch string
	Jobs       int

	CacheEnabled          bool
	CacheDir              string
	CacheBackend          string
	RedisAddr             string
	CacheDuration         time.Duration
	CacheDurationPackages time.Duration
	CacheDurationDownload time.Duration

	AllowMajorRelease bool
	AllowPrerelease   bool
	UpdateDeps        bool

	LogLevel    string
	TaskTimeout time.Duration
	RunTimeout  time.Duration

	MaxDepth     int
	MaxRedirects int
	MaxPages     int
	UserAgent    string

	// File is the configuration file that was read, if any.
	File string

	raw map[string]string
}

// Default returns the configuration with no file, environment or
// overrides applied.
func Default() Config {
	c, err := resolve(Defaults(), "")
	if err != nil {
		panic(err)
	}
	return c
}

// Load resolves the configuration. path names an optional TOML file; an
// empty path skips it. overrides are applied last; unknown keys in the
// file or the overrides are an error.
func Load(path string, overrides map[string]string) (Config, error) {
	raw := Defaults()
	if path != "" {
		if err := readFile(path, raw); err != nil {
			return Config{}, err
		}
	}
	for k := range raw {
		if v, ok := os.LookupEnv(EnvPrefix + strings.ToUpper(k)); ok {
			raw[k] = v
		}
	}
	for k, v := range overrides {
		if _, ok := raw[k]; !ok {
			return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown key %q", k)
		}
		raw[k] = v
	}
	return resolve(raw, path)
}

func readFile(path string, raw map[string]string) error {
	var file map[string]any
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	for k, v := range file {
		if _, ok := raw[k]; !ok {
			return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, k)
		}
		switch v := v.(type) {
		case string:
			raw[k] = v
		case int64, bool, float64:
			raw[k] = fmt.Sprint(v)
		default:
			return errors.New(errors.ErrCodeInvalidConfig, "%s: %s must be a string, number or boolean", path, k)
		}
	}
	return nil
}

var reference = regexp.MustCompile(`%([a-z_]+)%`)

// interpolate expands %key% references. References to unknown keys are
// kept verbatim.
func interpolate(raw map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	var expand func(key string, seen []string) (string, error)
	expand = func(key string, seen []string) (string, error) {
		if v, ok := out[key]; ok {
			return v, nil
		}
		if slices.Contains(seen, key) {
			return "", errors.New(errors.ErrCodeInvalidConfig, "circular reference: %s", strings.Join(append(seen, key), " -> "))
		}
		seen = append(seen, key)
		var ferr error
		v := reference.ReplaceAllStringFunc(raw[key], func(m string) string {
			ref := m[1 : len(m)-1]
			if _, ok := raw[ref]; !ok || ferr != nil {
				return m
			}
			s, err := expand(ref, seen)
			if err != nil {
				ferr = err
			}
			return s
		})
		if ferr != nil {
			return "", ferr
		}
		out[key] = v
		return v, nil
	}
	for k := range raw {
		if _, err := expand(k, nil); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func resolve(raw map[string]string, path string) (Config, error) {
	vals, err := interpolate(raw)
	if err != nil {
		return Config{}, err
	}
	p := parser{vals: vals}
	c := Config{
		WorkDir:    vals[KeyWorkDir],
		RootDir:    vals[KeyRootDir],
		RepoURI:    vals[KeyRepoURI],
		RepoBranch: vals[KeyRepoBranch],
		Jobs:       p.int(KeyJobs),

		CacheEnabled:          p.bool(KeyCacheEnabled),
		CacheDir:              vals[KeyCacheDir],
		CacheBackend:          vals[KeyCacheBackend],
		RedisAddr:             vals[KeyRedisAddr],
		CacheDuration:         p.duration(KeyCacheDuration),
		CacheDurationPackages: p.duration(KeyCacheDurationPackages),
		CacheDurationDownload: p.duration(KeyCacheDurationDownload),

		AllowMajorRelease: p.bool(KeyAllowMajorRelease),
		AllowPrerelease:   p.bool(KeyAllowPrerelease),
		UpdateDeps:        p.bool(KeyUpdateDeps),

		LogLevel:    vals[KeyLogLevel],
		TaskTimeout: p.duration(KeyTaskTimeout),
		RunTimeout:  p.duration(KeyRunTimeout),

		MaxDepth:     p.int(KeyMaxDepth),
		MaxRedirects: p.int(KeyMaxRedirects),
		MaxPages:     p.int(KeyMaxPages),
		UserAgent:    vals[KeyUserAgent],

		File: path,
		raw:  vals,
	}
	if p.err != nil {
		return Config{}, p.err
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	switch {
	case c.Jobs < 1:
		return errors.New(errors.ErrCodeInvalidConfig, "%s must be at least 1", KeyJobs)
	case c.CacheBackend != BackendFile && c.CacheBackend != BackendRedis:
		return errors.New(errors.ErrCodeInvalidConfig, "%s must be %q or %q", KeyCacheBackend, BackendFile, BackendRedis)
	case c.CacheBackend == BackendRedis && c.RedisAddr == "":
		return errors.New(errors.ErrCodeInvalidConfig, "%s is required with the redis backend", KeyRedisAddr)
	case c.RootDir == "":
		return errors.New(errors.ErrCodeInvalidConfig, "%s is empty", KeyRootDir)
	}
	return nil
}

// Values returns the resolved text of every key.
func (c Config) Values() map[string]string {
	out := make(map[string]string, len(c.raw))
	for k, v := range c.raw {
		out[k] = v
	}
	return out
}

// parser converts raw values and keeps the first error.
type parser struct {
	vals map[string]string
	err  error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s = %q", key, p.vals[key])
	}
}

func (p *parser) int(key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(p.vals[key]))
	if err != nil {
		p.fail(key, err)
	}
	return n
}

func (p *parser) bool(key string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(p.vals[key]))
	if err != nil {
		p.fail(key, err)
	}
	return b
}

func (p *parser) duration(key string) time.Duration {
	d, err := ParseDuration(p.vals[key])
	if err != nil {
		p.fail(key, err)
	}
	return d
}

var longUnits = regexp.MustCompile(`(\d+)([wd])`)

// ParseDuration parses a duration such as "36h", "7d", "1w2d12h" or a bare
// number of seconds such as "3600".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	var days int64
	rest := longUnits.ReplaceAllStringFunc(s, func(m string) string {
		sub := longUnits.FindStringSubmatch(m)
		n, _ := strconv.ParseInt(sub[1], 10, 64)
		if sub[2] == "w" {
			n *= 7
		}
		days += n
		return ""
	})
	d := time.Duration(days) * 24 * time.Hour
	if rest == "" {
		return d, nil
	}
	r, err := time.ParseDuration(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d + r, nil
}
