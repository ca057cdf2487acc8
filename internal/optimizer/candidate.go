package optimizer

import (
	"github.com/rs/zerolog"

	"github.com/donaldgifford/reopt/internal/config"
	"github.com/donaldgifford/reopt/internal/parser"
)

// Candidate is a proposed rewrite of a contiguous span of a parent's
// children.
type Candidate struct {
	Rule        string
	Original    []*parser.Node
	Replacement []*parser.Node
	Reason      string
}

// Context carries per-pattern state through the rules of one run.
type Context struct {
	Pattern parser.Pattern
	Config  *config.OptimizerConfig
	Guard   Guard
	Log     zerolog.Logger

	rule     string
	accepted []Candidate
}

// NewContext returns a context for optimizing p.
func NewContext(p parser.Pattern, cfg *config.OptimizerConfig, log zerolog.Logger) *Context {
	return &Context{
		Pattern: p,
		Config:  cfg,
		Guard:   Guard{Flags: p.Flags},
		Log:     log,
	}
}

// Flags returns the flags of the pattern being optimized.
func (c *Context) Flags() parser.Flags { return c.Pattern.Flags }

// Propose runs the candidate through the equivalence guard and records it
// when accepted. Rules apply a rewrite only when Propose returns true.
func (c *Context) Propose(cand Candidate) bool {
	if cand.Rule == "" {
		cand.Rule = c.rule
	}
	before := Render(c.Flags(), cand.Original...)
	after := Render(c.Flags(), cand.Replacement...)

	if err := c.Guard.Check(cand.Original, cand.Replacement); err != nil {
		c.Log.Debug().
			Str("rule", cand.Rule).
			Str("from", before).
			Str("to", after).
			Err(err).
			Msg("candidate rejected")
		return false
	}

	c.Log.Debug().
		Str("rule", cand.Rule).
		Str("from", before).
		Str("to", after).
		Msg("candidate accepted")
	c.accepted = append(c.accepted, cand)
	return true
}

// Accepted returns the candidates accepted so far, in order.
func (c *Context) Accepted() []Candidate {
	return c.accepted
}
