package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default configuration must be valid: %v", err)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regen.yaml")
	content := `
repo_dir: /srv/benchmarks
tool:
  url: https://example.com/bench_runner
  branch: main
pyperformance:
  url: https://example.com/pyperformance
  hash: 56d12a8fd7cc1432835965d374929bfa7f6f7a07
pyston_benchmarks:
  url: https://example.com/macrobenchmarks
  hash: 265655e7f03ace13ec1e00e1ba299179e69f8a00
python_version: "3.12"
actor: octocat
bases:
  - 3.11.0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.RepoDir != "/srv/benchmarks" {
		t.Errorf("repo_dir: got %q", cfg.RepoDir)
	}
	if cfg.Tool.URL != "https://example.com/bench_runner" {
		t.Errorf("tool url: got %q", cfg.Tool.URL)
	}
	if cfg.PythonVersion != "3.12" {
		t.Errorf("python_version: got %q", cfg.PythonVersion)
	}
	if cfg.Actor != "octocat" {
		t.Errorf("actor: got %q", cfg.Actor)
	}
	if len(cfg.Bases) != 1 || cfg.Bases[0] != "3.11.0" {
		t.Errorf("bases: got %v", cfg.Bases)
	}
}

func TestEnvOverridesPassHashesThroughUnchanged(t *testing.T) {
	t.Setenv(EnvPyperformanceHash, "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	t.Setenv(EnvPystonBenchmarksHash, "cafebabe1234cafebabe1234cafebabe1234caff")
	t.Setenv(EnvActor, "dispatcher")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Pyperformance.Hash != "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef" {
		t.Errorf("pyperformance hash mutated: %q", cfg.Pyperformance.Hash)
	}
	if cfg.Pyston.Hash != "cafebabe1234cafebabe1234cafebabe1234caff" {
		t.Errorf("pyston hash mutated: %q", cfg.Pyston.Hash)
	}
	if cfg.Actor != "dispatcher" {
		t.Errorf("actor override lost: %q", cfg.Actor)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty repo dir", func(c *Config) { c.RepoDir = "" }},
		{"missing tool url", func(c *Config) { c.Tool.URL = "" }},
		{"missing tool branch", func(c *Config) { c.Tool.Branch = "" }},
		{"bad suite hash", func(c *Config) { c.Pyperformance.Hash = "not-a-hash" }},
		{"uppercase hash", func(c *Config) { c.Pyston.Hash = "DEADBEEF" }},
		{"unpinned python", func(c *Config) { c.PythonVersion = "3" }},
		{"patch version", func(c *Config) { c.PythonVersion = "3.11.4" }},
		{"no bases", func(c *Config) { c.Bases = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("loading a missing file should fail")
	}
}
