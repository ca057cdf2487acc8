// Package regexopt rewrites ECMAScript regular expression literals into
// shorter patterns that match exactly the same strings.
//
// A pattern is only rewritten when every individual rewrite has been proven
// equivalent; anything the optimizer cannot model is left as written.
package regexopt

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/donaldgifford/reopt/internal/config"
	"github.com/donaldgifford/reopt/internal/optimizer"
	"github.com/donaldgifford/reopt/internal/parser"
	"github.com/donaldgifford/reopt/internal/rules"
)

// ErrInternal is wrapped by errors caused by a bug in the optimizer itself,
// such as rendered output that does not parse back.
var ErrInternal = errors.New("internal optimizer error")

// ParseError reports a pattern or flag string that could not be analyzed.
// It wraps the underlying *parser.SyntaxError or *parser.LimitError.
type ParseError struct {
	Message string
	err     error
}

func (e *ParseError) Error() string { return e.Message }

func (e *ParseError) Unwrap() error { return e.err }

func newParseError(err error) *ParseError {
	return &ParseError{Message: err.Error(), err: err}
}

// Result is the outcome of optimizing one pattern. When Changed is false,
// Optimized equals Source.
type Result struct {
	Source    string
	Flags     string
	Optimized string
	Changed   bool
	// Reasons lists one entry per accepted rewrite, in the order applied.
	Reasons []string
}

// Message returns a one-line diagnostic such as
// "/foooooo/ can be optimized to /fo{6}/".
func (r Result) Message() string {
	return fmt.Sprintf("/%s/%s can be optimized to /%s/%s", r.Source, r.Flags, r.Optimized, r.Flags)
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *Optimizer) {
		if cfg != nil {
			o.cfg = cfg
		}
	}
}

// WithLogger sets the logger that receives per-candidate debug events.
func WithLogger(log zerolog.Logger) Option {
	return func(o *Optimizer) {
		o.log = log
	}
}

// Optimizer holds a validated configuration and the rule set. It is safe
// for concurrent use.
type Optimizer struct {
	cfg    *config.Config
	log    zerolog.Logger
	rules  []optimizer.Rule
	ignore config.IgnoreList
}

// New returns an Optimizer using the registered rules. The configuration is
// validated once here and is only read afterwards.
func New(opts ...Option) (*Optimizer, error) {
	o := &Optimizer{
		cfg:   config.DefaultConfig(),
		log:   zerolog.Nop(),
		rules: rules.OptimizeRules(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	known := rules.Names()
	for name := range o.cfg.Lint.Rules {
		if !slices.Contains(known, name) {
			return nil, fmt.Errorf("invalid config: lint.rules.%s: unknown rule", name)
		}
	}

	ignore, err := o.cfg.Lint.CompileIgnore()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	o.ignore = ignore
	return o, nil
}

// Optimize is a convenience wrapper around New and (*Optimizer).Optimize.
func Optimize(source, flags string, opts ...Option) (Result, error) {
	o, err := New(opts...)
	if err != nil {
		return Result{Source: source, Flags: flags, Optimized: source}, err
	}
	return o.Optimize(source, flags)
}

// OptimizeLiteral is a convenience wrapper around New and
// (*Optimizer).OptimizeLiteral.
func OptimizeLiteral(literal string, opts ...Option) (Result, error) {
	o, err := New(opts...)
	if err != nil {
		return Result{Optimized: literal}, err
	}
	return o.OptimizeLiteral(literal)
}

// OptimizeLiteral optimizes a "/source/flags" literal. The flags keep the
// order they were written in.
func (o *Optimizer) OptimizeLiteral(literal string) (Result, error) {
	p, err := parser.ParseLiteral(literal)
	if err != nil {
		return Result{Optimized: literal}, newParseError(err)
	}
	return o.Optimize(p.Source, literal[len(p.Source)+2:])
}

// Optimize rewrites one pattern. Unparseable input yields an unchanged
// Result and a *ParseError.
func (o *Optimizer) Optimize(source, flags string) (Result, error) {
	res := Result{Source: source, Flags: flags, Optimized: source}

	f, err := parser.ParseFlags(flags)
	if err != nil {
		return res, newParseError(err)
	}
	if o.ignore.Match(source) {
		return res, nil
	}

	opt := &o.cfg.Optimizer
	parseOpts := []parser.Option{
		parser.WithMaxDepth(opt.MaxDepth),
		parser.WithMaxLength(opt.MaxLength),
	}
	root, err := parser.Parse(source, f, parseOpts...)
	if err != nil {
		return res, newParseError(err)
	}

	p := parser.Pattern{Source: source, Flags: f}
	out, accepted := optimizer.Run(p, root, o.cfg, o.rules, o.log)
	if len(accepted) == 0 {
		return res, nil
	}

	text := optimizer.Write(out, f)
	if text == source || len(text) > len(source) {
		return res, nil
	}

	if err := selfCheck(root, out, text, f, parseOpts); err != nil {
		o.log.Error().Err(err).Str("pattern", p.String()).Msg("discarding rewrite")
		return res, err
	}

	res.Optimized = text
	res.Changed = true
	for _, c := range accepted {
		res.Reasons = append(res.Reasons, c.Reason)
	}
	return res, nil
}

// selfCheck re-parses the rendered text and verifies it describes the
// optimized tree with the original capture layout.
func selfCheck(orig, out *parser.Node, text string, f parser.Flags, opts []parser.Option) error {
	again, err := parser.Parse(text, f, opts...)
	if err != nil {
		return fmt.Errorf("%w: output %q does not parse: %v", ErrInternal, text, err)
	}
	if !parser.Equal(out, again) {
		return fmt.Errorf("%w: output %q does not parse back to the optimized tree", ErrInternal, text)
	}
	if !slices.Equal(parser.Captures(orig), parser.Captures(again)) {
		return fmt.Errorf("%w: output %q changes capture groups", ErrInternal, text)
	}
	return nil
}
