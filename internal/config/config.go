// Package config defines the configuration types and defaults for reopt.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/coregx/coregex"
	"go.uber.org/multierr"
)

// Rule severities accepted in the lint.rules map.
const (
	SeverityOff  = "off"
	SeverityWarn = "warn"
)

// Config is the top-level configuration.
type Config struct {
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Lint      LintConfig      `yaml:"lint"`
}

// OptimizerConfig holds all optimizer settings.
type OptimizerConfig struct {
	MinRunLength         int  `yaml:"min_run_length"`
	MaxRepeat            int  `yaml:"max_repeat"`
	MaxDepth             int  `yaml:"max_depth"`
	MaxLength            int  `yaml:"max_length"`
	CanonicalizeClasses  bool `yaml:"canonicalize_classes"`
	SimplifyClassMembers bool `yaml:"simplify_class_members"`
	SingleCharClasses    bool `yaml:"single_char_classes"`
	SimplifySurface      bool `yaml:"simplify_surface"`
	MergeRuns            bool `yaml:"merge_runs"`
}

// LintConfig controls which rules run and which literals are checked.
type LintConfig struct {
	// Rules maps a rule name to "off" or "warn". Rules not listed warn.
	Rules map[string]string `yaml:"rules"`
	// Ignore lists regular expressions; literals whose source matches any
	// of them are left alone.
	Ignore []string `yaml:"ignore"`
	// Exclude lists file globs the runner skips.
	Exclude []string `yaml:"exclude"`
}

// DefaultConfig returns a Config with all default values.
func DefaultConfig() *Config {
	return &Config{
		Optimizer: OptimizerConfig{
			MinRunLength:         3,
			MaxRepeat:            1000,
			MaxDepth:             64,
			MaxLength:            64 << 10,
			CanonicalizeClasses:  true,
			SimplifyClassMembers: true,
			SingleCharClasses:    true,
			SimplifySurface:      true,
			MergeRuns:            true,
		},
	}
}

// Validate checks limits, rule severities, exclude globs and ignore
// patterns. It does not modify the config.
func (c *Config) Validate() error {
	var errs error

	o := c.Optimizer
	limits := []struct {
		name  string
		value int
	}{
		{"max_repeat", o.MaxRepeat},
		{"max_depth", o.MaxDepth},
		{"max_length", o.MaxLength},
	}
	for _, l := range limits {
		if l.value <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("optimizer.%s must be positive, got %d", l.name, l.value))
		}
	}
	if o.MinRunLength < 2 {
		errs = multierr.Append(errs, fmt.Errorf("optimizer.min_run_length must be at least 2, got %d", o.MinRunLength))
	}

	for name, sev := range c.Lint.Rules {
		if sev != SeverityOff && sev != SeverityWarn {
			errs = multierr.Append(errs, fmt.Errorf("lint.rules.%s: unknown severity %q", name, sev))
		}
	}

	for _, pat := range c.Lint.Exclude {
		if _, err := filepath.Match(pat, ""); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("lint.exclude %q: %w", pat, err))
		}
	}

	_, err := c.Lint.CompileIgnore()
	return multierr.Append(errs, err)
}

// IgnoreList is a compiled lint.ignore list. It is safe for concurrent use.
type IgnoreList []*coregex.Regex

// Match reports whether a pattern source matches any entry.
func (l IgnoreList) Match(source string) bool {
	for _, re := range l {
		if re.MatchString(source) {
			return true
		}
	}
	return false
}

// CompileIgnore compiles the ignore patterns. Every invalid pattern is
// reported.
func (l *LintConfig) CompileIgnore() (IgnoreList, error) {
	var errs error
	compiled := make(IgnoreList, 0, len(l.Ignore))
	for _, pat := range l.Ignore {
		re, err := coregex.Compile(pat)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("lint.ignore %q: %w", pat, err))
			continue
		}
		compiled = append(compiled, re)
	}
	if errs != nil {
		return nil, errs
	}
	return compiled, nil
}

// RuleEnabled reports whether the named rule should run.
func (l *LintConfig) RuleEnabled(name string) bool {
	return l.Rules[name] != SeverityOff
}

// Excluded reports whether path matches an exclude glob, either in full or
// by its base name.
func (l *LintConfig) Excluded(path string) bool {
	base := filepath.Base(path)
	for _, pat := range l.Exclude {
		if ok, _ := filepath.Match(pat, path); ok {
			return true
		}
		if ok, _ := filepath.Match(pat, base); ok {
			return true
		}
	}
	return false
}
