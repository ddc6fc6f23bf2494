// Package config contains the loader and strongly typed model for aid.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	envparse "github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/jonpo-sc/AID/internal/env"
)

// DefaultPath is the default config file location relative to the working directory.
const DefaultPath = "aid.yaml"

// Defaults applied when neither aid.yaml nor AID_* variables set a value.
const (
	defaultVenvDir      = ".venv"
	defaultWheelDir     = "wheels"
	defaultRequirements = "requirements.txt"
	defaultEndpoint     = "https://duckduckgo.com/html/"
	defaultUserAgent    = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	defaultMaxResults   = 10
	defaultMaxPages     = 3
	defaultDelay        = time.Second
	defaultTimeout      = 15 * time.Second
	defaultOutput       = "crawl_results.json"
)

// Config is the top-level aid.yaml model.
type Config struct {
	// Project is the short project name used in logs.
	Project string `yaml:"project,omitempty"`
	// EnvFiles lists .env files loaded before resolving the config.
	EnvFiles []string `yaml:"envFiles,omitempty"`
	// Bootstrap configures the environment bootstrap operation.
	Bootstrap BootstrapConfig `yaml:"bootstrap,omitempty"`
	// Crawler configures the keyword crawler.
	Crawler CrawlerConfig `yaml:"crawler,omitempty"`
	// Hooks defines shell steps run around the bootstrap.
	Hooks HookSet `yaml:"hooks,omitempty"`

	// BaseDir is the directory relative paths resolve against. It is the
	// config file's directory, or the working directory without a file.
	BaseDir string `yaml:"-"`
}

// BootstrapConfig describes where the environment is created and installed from.
type BootstrapConfig struct {
	// Python is the interpreter executable; empty probes python3 then python.
	Python string `yaml:"python,omitempty" env:"AID_PYTHON"`
	// VenvDir is the virtual environment directory.
	VenvDir string `yaml:"venvDir,omitempty" env:"AID_VENV_DIR"`
	// WheelDir is the local wheel cache directory.
	WheelDir string `yaml:"wheelDir,omitempty" env:"AID_WHEEL_DIR"`
	// Requirements is the requirements manifest path.
	Requirements string `yaml:"requirements,omitempty" env:"AID_REQUIREMENTS"`
}

// CrawlerConfig describes keyword crawl defaults. Durations are string-form
// (e.g. "1s", "500ms") and validated by ResolveDelay/ResolveTimeout.
type CrawlerConfig struct {
	// Endpoint is the HTML search endpoint to POST queries to.
	Endpoint string `yaml:"endpoint,omitempty" env:"AID_SEARCH_ENDPOINT"`
	// UserAgent is sent on every outgoing request.
	UserAgent string `yaml:"userAgent,omitempty" env:"AID_USER_AGENT"`
	// MaxResults is the default number of search results to collect.
	MaxResults int `yaml:"maxResults,omitempty" env:"AID_MAX_RESULTS"`
	// MaxPages is the default number of result pages fetched for previews.
	MaxPages int `yaml:"maxPages,omitempty" env:"AID_MAX_PAGES"`
	// Delay is the pause between network requests.
	Delay string `yaml:"delay,omitempty" env:"AID_CRAWL_DELAY"`
	// Timeout is the per-request timeout.
	Timeout string `yaml:"timeout,omitempty" env:"AID_CRAWL_TIMEOUT"`
	// Output is the default JSON output file path.
	Output string `yaml:"output,omitempty" env:"AID_CRAWL_OUTPUT"`
}

// HookSet groups hook steps by phase.
type HookSet struct {
	// BeforeSetup runs before the environment is touched.
	BeforeSetup []HookStep `yaml:"beforeSetup,omitempty"`
	// AfterSetup runs after a successful install, with the environment activated.
	AfterSetup []HookStep `yaml:"afterSetup,omitempty"`
}

// HookStep is a single shell step.
type HookStep struct {
	// Name is an optional label used in logs.
	Name string `yaml:"name,omitempty"`
	// Run is the shell command to execute.
	Run string `yaml:"run"`
	// Env adds extra variables for this step.
	Env map[string]string `yaml:"env,omitempty"`
}

// Load reads aid.yaml from path, loads its envFiles, applies AID_* variable
// overrides and fills defaults. A missing file is not an error: the tool
// works with pure defaults, and explicit paths that do not exist still fail.
func Load(path string, explicit bool) (*Config, env.Vars, error) {
	cfg := &Config{}

	baseDir, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve working directory: %w", err)
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, nil, fmt.Errorf("parse config %q: %w", path, err)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve config path: %w", err)
		}
		baseDir = filepath.Dir(abs)
	case os.IsNotExist(err) && !explicit:
		// Defaults only.
	default:
		return nil, nil, fmt.Errorf("read config %q: %w", path, err)
	}
	cfg.BaseDir = baseDir

	envFileVars, err := env.LoadEnvFiles(baseDir, cfg.EnvFiles)
	if err != nil {
		return nil, nil, err
	}
	envMap := env.Merge(env.FromOS(), envFileVars)

	if err := applyEnvOverrides(cfg, envMap); err != nil {
		return nil, nil, err
	}
	cfg.fillDefaults()

	return cfg, envMap, nil
}

// applyEnvOverrides fills AID_* values from the merged variable map via caarlos0/env.
func applyEnvOverrides(cfg *Config, vars env.Vars) error {
	opts := envparse.Options{Environment: map[string]string(vars)}
	if err := envparse.ParseWithOptions(&cfg.Bootstrap, opts); err != nil {
		return fmt.Errorf("apply bootstrap env overrides: %w", err)
	}
	if err := envparse.ParseWithOptions(&cfg.Crawler, opts); err != nil {
		return fmt.Errorf("apply crawler env overrides: %w", err)
	}
	return nil
}

func (c *Config) fillDefaults() {
	if strings.TrimSpace(c.Bootstrap.VenvDir) == "" {
		c.Bootstrap.VenvDir = defaultVenvDir
	}
	if strings.TrimSpace(c.Bootstrap.WheelDir) == "" {
		c.Bootstrap.WheelDir = defaultWheelDir
	}
	if strings.TrimSpace(c.Bootstrap.Requirements) == "" {
		c.Bootstrap.Requirements = defaultRequirements
	}
	if strings.TrimSpace(c.Crawler.Endpoint) == "" {
		c.Crawler.Endpoint = defaultEndpoint
	}
	if strings.TrimSpace(c.Crawler.UserAgent) == "" {
		c.Crawler.UserAgent = defaultUserAgent
	}
	if c.Crawler.MaxResults <= 0 {
		c.Crawler.MaxResults = defaultMaxResults
	}
	if c.Crawler.MaxPages <= 0 {
		c.Crawler.MaxPages = defaultMaxPages
	}
	if strings.TrimSpace(c.Crawler.Output) == "" {
		c.Crawler.Output = defaultOutput
	}
}

// ResolvePath resolves a possibly relative path against the config base directory.
func (c *Config) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.BaseDir, path)
}

// ResolveDelay parses the configured crawl delay, falling back to the default.
func (c CrawlerConfig) ResolveDelay() (time.Duration, error) {
	return parseDuration(c.Delay, defaultDelay)
}

// ResolveTimeout parses the configured request timeout, falling back to the default.
func (c CrawlerConfig) ResolveTimeout() (time.Duration, error) {
	return parseDuration(c.Timeout, defaultTimeout)
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", value)
	}
	return d, nil
}
