// Package config loads the regeneration settings from a YAML file with
// environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JeffersGlass/benchmarking/pkg/artifact"
)

// Environment variable names recognized as overrides. The two suite hashes
// keep the names used by the original automation.
const (
	EnvRepoDir              = "REGEN_REPO_DIR"
	EnvActor                = "REGEN_ACTOR"
	EnvPyperformanceHash    = "PYPERFORMANCE_HASH"
	EnvPystonBenchmarksHash = "PYSTON_BENCHMARKS_HASH"
)

var (
	hashPattern          = regexp.MustCompile(`^[0-9a-f]{7,40}$`)
	pythonVersionPattern = regexp.MustCompile(`^3\.\d+$`)
)

// ErrInvalidConfig indicates the configuration failed validation
var ErrInvalidConfig = errors.New("invalid configuration")

// SuiteRef pins one benchmark suite repository to an exact commit. The hash is
// an opaque identifier: it is handed to the checkout step unchanged.
type SuiteRef struct {
	URL  string `yaml:"url"`
	Hash string `yaml:"hash"`
}

// ToolRepo identifies the bench_runner repository. It is deliberately fetched
// at branch head rather than a pinned commit so runs track upstream fixes.
type ToolRepo struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch"`
}

// Config holds everything a regeneration run needs
type Config struct {
	RepoDir       string   `yaml:"repo_dir"`
	Tool          ToolRepo `yaml:"tool"`
	Pyperformance SuiteRef `yaml:"pyperformance"`
	Pyston        SuiteRef `yaml:"pyston_benchmarks"`
	PythonVersion string   `yaml:"python_version"`
	Actor         string   `yaml:"actor"`
	Bases         []string `yaml:"bases"`

	Mirror artifact.MirrorConfig `yaml:"mirror"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		RepoDir: ".",
		Tool: ToolRepo{
			URL:    "https://github.com/faster-cpython/bench_runner",
			Branch: "main",
		},
		Pyperformance: SuiteRef{
			URL:  "https://github.com/python/pyperformance",
			Hash: "56d12a8fd7cc1432835965d374929bfa7f6f7a07",
		},
		Pyston: SuiteRef{
			URL:  "https://github.com/pyston/python-macrobenchmarks",
			Hash: "265655e7f03ace13ec1e00e1ba299179e69f8a00",
		},
		PythonVersion: "3.11",
		Bases:         []string{"3.10.4", "3.11.0"},
	}
}

// Load reads a YAML config file, applies environment overrides, and validates.
// An empty path yields the defaults (still subject to overrides).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvRepoDir)); v != "" {
		c.RepoDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvActor)); v != "" {
		c.Actor = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPyperformanceHash)); v != "" {
		c.Pyperformance.Hash = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPystonBenchmarksHash)); v != "" {
		c.Pyston.Hash = v
	}
}

// Validate checks the fields a run depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RepoDir) == "" {
		return fmt.Errorf("%w: repo_dir is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Tool.URL) == "" {
		return fmt.Errorf("%w: tool.url is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Tool.Branch) == "" {
		return fmt.Errorf("%w: tool.branch is required", ErrInvalidConfig)
	}
	for name, ref := range map[string]SuiteRef{
		"pyperformance":     c.Pyperformance,
		"pyston_benchmarks": c.Pyston,
	} {
		if strings.TrimSpace(ref.URL) == "" {
			return fmt.Errorf("%w: %s.url is required", ErrInvalidConfig, name)
		}
		if !hashPattern.MatchString(ref.Hash) {
			return fmt.Errorf("%w: %s.hash %q is not a commit hash", ErrInvalidConfig, name, ref.Hash)
		}
	}
	if !pythonVersionPattern.MatchString(c.PythonVersion) {
		return fmt.Errorf("%w: python_version %q must be a pinned minor version", ErrInvalidConfig, c.PythonVersion)
	}
	if len(c.Bases) == 0 {
		return fmt.Errorf("%w: at least one base version is required", ErrInvalidConfig)
	}
	return nil
}
