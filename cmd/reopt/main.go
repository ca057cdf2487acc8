// Package main is the entry point for reopt.
package main

import (
	"flag"
	"fmt"
	"os"

	_ "github.com/donaldgifford/reopt/internal/rules" // Register rules via init().
	"github.com/donaldgifford/reopt/internal/runner"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	check := flag.Bool("check", false, "exit 1 if any literal can be optimized")
	diffFlag := flag.Bool("diff", false, "print unified diff of changes")
	write := flag.Bool("w", false, "write result to file")
	configPath := flag.String("config", "", "path to config file")
	quiet := flag.Bool("q", false, "suppress informational output")
	verbose := flag.Bool("v", false, "log files, skipped literals and rewrites")
	jobs := flag.Int("j", 0, "number of files processed in parallel (default GOMAXPROCS)")
	showVersion := flag.Bool("version", false, "print version and exit")

	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("reopt %s (%s) %s\n", version, commit, date)
		return
	}

	log := runner.NewLogger(os.Stderr, *verbose)
	opts := &runner.Options{
		Files:      flag.Args(),
		Check:      *check,
		Diff:       *diffFlag,
		Write:      *write,
		ConfigPath: *configPath,
		Quiet:      *quiet,
		Verbose:    *verbose,
		Jobs:       *jobs,
		Log:        &log,
	}

	os.Exit(runner.Run(opts))
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: reopt [flags] [files...]

Optimize regular expression literals, one /pattern/flags per line.
With no files, reads from stdin.

Flags:
`)
	flag.PrintDefaults()
}
