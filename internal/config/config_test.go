package config

import (
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	o := cfg.Optimizer
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"MinRunLength", o.MinRunLength, 3},
		{"MaxRepeat", o.MaxRepeat, 1000},
		{"MaxDepth", o.MaxDepth, 64},
		{"MaxLength", o.MaxLength, 65536},
		{"CanonicalizeClasses", o.CanonicalizeClasses, true},
		{"SimplifyClassMembers", o.SimplifyClassMembers, true},
		{"SingleCharClasses", o.SingleCharClasses, true},
		{"SimplifySurface", o.SimplifySurface, true},
		{"MergeRuns", o.MergeRuns, true},
	}

	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")

	yaml := `optimizer:
  min_run_length: 4
  merge_runs: false
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Optimizer.MinRunLength != 4 {
		t.Errorf("MinRunLength: got %d, want 4", cfg.Optimizer.MinRunLength)
	}
	if cfg.Optimizer.MergeRuns {
		t.Error("MergeRuns: got true, want false")
	}

	// Verify unspecified fields retain defaults.
	if cfg.Optimizer.MaxRepeat != 1000 {
		t.Errorf("MaxRepeat: got %d, want 1000 (default)", cfg.Optimizer.MaxRepeat)
	}
	if !cfg.Optimizer.CanonicalizeClasses {
		t.Error("CanonicalizeClasses: got false, want true (default)")
	}
}

func TestLoadNoConfigReturnsDefaults(t *testing.T) {
	// Use an empty temp dir so no config file is discovered.
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	want := DefaultConfig()
	if cfg.Optimizer != want.Optimizer {
		t.Errorf("expected default config, got %+v", cfg.Optimizer)
	}
}

func TestDiscoverPriority(t *testing.T) {
	dir := t.TempDir()

	content := []byte("optimizer:\n  max_repeat: 10\n")

	names := []string{"reopt.yml", "reopt.yaml", ".reopt.yml", ".reopt.yaml"}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	// Each removal exposes the next file in search order.
	for i, name := range names {
		got := Discover(dir)
		want := filepath.Join(dir, name)
		if got != want {
			t.Errorf("step %d: Discover = %q, want %q", i, got, want)
		}
		if err := os.Remove(want); err != nil {
			t.Fatal(err)
		}
	}

	if got := Discover(dir); got != "" {
		t.Errorf("after removing all: Discover = %q, want empty string", got)
	}
}

func TestLoadDiscovery(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".reopt.yaml")

	yaml := `optimizer:
  max_repeat: 50
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Optimizer.MaxRepeat != 50 {
		t.Errorf("MaxRepeat: got %d, want 50", cfg.Optimizer.MaxRepeat)
	}
	if cfg.Optimizer.MinRunLength != 3 {
		t.Errorf("MinRunLength: got %d, want 3 (default)", cfg.Optimizer.MinRunLength)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yml")

	if err := os.WriteFile(path, []byte("{{{{not valid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML, got nil")
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yml"); err == nil {
		t.Error("expected error for missing explicit path, got nil")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yml")

	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	// Empty file should result in all defaults.
	want := DefaultConfig()
	if cfg.Optimizer != want.Optimizer {
		t.Errorf("expected default config for empty file, got %+v", cfg.Optimizer)
	}
}

func TestLoadLintSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lint.yml")

	yaml := `lint:
  rules:
    merge_runs: off
    class_shorthand: warn
  ignore:
    - '^\^'
  exclude:
    - "vendor/*"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Lint.RuleEnabled("merge_runs") {
		t.Error("merge_runs: expected disabled")
	}
	if !cfg.Lint.RuleEnabled("class_shorthand") {
		t.Error("class_shorthand: expected enabled")
	}
	if !cfg.Lint.RuleEnabled("class_single") {
		t.Error("unlisted rule: expected enabled")
	}

	ignore, err := cfg.Lint.CompileIgnore()
	if err != nil {
		t.Fatal(err)
	}
	if !ignore.Match(`^foo$`) {
		t.Error(`expected "^foo$" to be ignored`)
	}
	if ignore.Match(`foo`) {
		t.Error(`expected "foo" not to be ignored`)
	}

	if !cfg.Lint.Excluded("vendor/patterns.re") {
		t.Error("expected vendor/patterns.re to be excluded")
	}
	if cfg.Lint.Excluded("src/patterns.re") {
		t.Error("expected src/patterns.re not to be excluded")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero max repeat", func(c *Config) { c.Optimizer.MaxRepeat = 0 }, true},
		{"negative max depth", func(c *Config) { c.Optimizer.MaxDepth = -1 }, true},
		{"zero max length", func(c *Config) { c.Optimizer.MaxLength = 0 }, true},
		{"min run length of one", func(c *Config) { c.Optimizer.MinRunLength = 1 }, true},
		{"min run length of two", func(c *Config) { c.Optimizer.MinRunLength = 2 }, false},
		{"unknown severity", func(c *Config) { c.Lint.Rules = map[string]string{"merge_runs": "error"} }, true},
		{"bad ignore pattern", func(c *Config) { c.Lint.Ignore = []string{"(unclosed"} }, true},
		{"bad exclude glob", func(c *Config) { c.Lint.Exclude = []string{"[x"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportsEveryError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Optimizer.MaxRepeat = 0
	cfg.Lint.Ignore = []string{"(a", "[b"}

	errs := multierr.Errors(cfg.Validate())
	if len(errs) != 3 {
		t.Fatalf("got %d errors, want 3: %v", len(errs), errs)
	}
}

func TestValidateLeavesConfigUntouched(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lint.Ignore = []string{`^foo`}
	before := *cfg
	before.Lint.Ignore = slices.Clone(cfg.Lint.Ignore)

	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, *cfg); diff != "" {
		t.Errorf("Validate modified the config (-before +after):\n%s", diff)
	}
}

func TestIgnoreListConcurrentMatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lint.Ignore = []string{`^foo`, `bar$`}
	ignore, err := cfg.Lint.CompileIgnore()
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if !ignore.Match("foo+") || ignore.Match("baz") {
					t.Error("unexpected ignore match result")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invalid.yml")

	if err := os.WriteFile(path, []byte("optimizer:\n  min_run_length: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for min_run_length 1, got nil")
	}
}
