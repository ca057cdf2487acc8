// Package runner orchestrates the read -> optimize -> output pipeline over
// literal-list files.
package runner

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/donaldgifford/reopt/internal/config"
	"github.com/donaldgifford/reopt/pkg/diff"
	"github.com/donaldgifford/reopt/pkg/regexopt"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitChanges = 1
	ExitError   = 2
)

// stdinName labels standard input in diffs and findings.
const stdinName = "<stdin>"

// Options configures the runner behavior.
type Options struct {
	Files      []string
	Check      bool
	Diff       bool
	Write      bool
	ConfigPath string
	Quiet      bool
	Verbose    bool
	// Jobs bounds the number of files processed at once. Values below 1
	// use runtime.GOMAXPROCS(0).
	Jobs   int
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Log receives diagnostics. When nil, a console logger on Stderr is
	// used.
	Log *zerolog.Logger
}

// fileResult is the outcome of processing one input.
type fileResult struct {
	path     string
	input    string
	output   string
	findings []Finding
	skipped  bool
	err      error
}

// Run executes the optimize pipeline and returns an exit code.
func Run(opts *Options) int {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	log := NewLogger(opts.Stderr, opts.Verbose)
	if opts.Log != nil {
		log = *opts.Log
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		writeErr(opts.Stderr, "reopt: %v\n", err)
		return ExitError
	}

	opt, err := regexopt.New(regexopt.WithConfig(cfg), regexopt.WithLogger(log))
	if err != nil {
		writeErr(opts.Stderr, "reopt: %v\n", err)
		return ExitError
	}

	// stdin mode: no files given.
	if len(opts.Files) == 0 {
		src, err := io.ReadAll(opts.Stdin)
		if err != nil {
			writeErr(opts.Stderr, "reopt: reading stdin: %v\n", err)
			return ExitError
		}
		input := string(src)
		output, findings := Rewrite(stdinName, input, opt, log)
		res := &fileResult{path: stdinName, input: input, output: output, findings: findings}
		return report(opts, res)
	}

	results := processFiles(opts, cfg, opt, log)

	var errs error
	exitCode := ExitOK
	for _, res := range results {
		if res.err != nil {
			errs = multierr.Append(errs, res.err)
			continue
		}
		if res.skipped {
			continue
		}
		if code := report(opts, res); code > exitCode {
			exitCode = code
		}
	}

	for _, err := range multierr.Errors(errs) {
		writeErr(opts.Stderr, "reopt: %v\n", err)
	}
	if errs != nil {
		return ExitError
	}
	return exitCode
}

// processFiles reads and rewrites every file in parallel. Results are
// returned in input order.
func processFiles(opts *Options, cfg *config.Config, opt *regexopt.Optimizer, log zerolog.Logger) []*fileResult {
	jobs := opts.Jobs
	if jobs < 1 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]*fileResult, len(opts.Files))
	var g errgroup.Group
	g.SetLimit(jobs)

	for i, path := range opts.Files {
		res := &fileResult{path: path}
		results[i] = res

		if cfg.Lint.Excluded(path) {
			log.Debug().Str("file", path).Msg("excluded by config")
			res.skipped = true
			continue
		}

		g.Go(func() error {
			src, err := os.ReadFile(path)
			if err != nil {
				res.err = err
				return nil
			}
			log.Info().Str("file", path).Msg("processing")
			res.input = string(src)
			res.output, res.findings = Rewrite(path, res.input, opt, log)
			return nil
		})
	}

	// Per-file errors are collected on the results, never returned.
	_ = g.Wait()
	return results
}

// report writes the outcome for one input according to the output mode and
// returns its exit code.
func report(opts *Options, res *fileResult) int {
	changed := res.input != res.output

	if opts.Check {
		if !opts.Quiet {
			for _, f := range res.findings {
				writeOut(opts.Stdout, fmt.Sprintf("%s:%d: %s\n", res.path, f.Line, f.Result.Message()))
			}
		}
		if len(res.findings) > 0 {
			return ExitChanges
		}
		return ExitOK
	}

	if opts.Diff {
		d := diff.Unified(res.path, res.input, res.output)
		if d != "" {
			writeOut(opts.Stdout, d)
			return ExitChanges
		}
		return ExitOK
	}

	if opts.Write && res.path != stdinName {
		if !changed {
			return ExitOK
		}
		if err := os.WriteFile(res.path, []byte(res.output), 0o644); err != nil {
			writeErr(opts.Stderr, "reopt: writing %s: %v\n", res.path, err)
			return ExitError
		}
		return ExitOK
	}

	writeOut(opts.Stdout, res.output)
	return ExitOK
}

// writeOut writes to stdout.
func writeOut(w io.Writer, s string) {
	fmt.Fprint(w, s)
}

// writeErr formats and writes to stderr.
func writeErr(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}
