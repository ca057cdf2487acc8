package optimize

import (
	"github.com/donaldgifford/reopt/internal/charset"
	"github.com/donaldgifford/reopt/internal/optimizer"
	"github.com/donaldgifford/reopt/internal/parser"
)

// maxOrbit bounds the classes ClassSingle looks at: a single character
// folds to at most a few case variants.
const maxOrbit = 4

// ClassSingle replaces a positive class that matches the same characters as
// one literal with that literal: [a] becomes a, [.] becomes \., and under
// the i flag [aA] becomes A.
type ClassSingle struct{}

// Name returns the config key for this rule.
func (r *ClassSingle) Name() string {
	return "class_single"
}

// Optimize rewrites every eligible class in the AST.
func (r *ClassSingle) Optimize(root *parser.Node, ctx *optimizer.Context) *parser.Node {
	if !ctx.Config.SingleCharClasses {
		return root
	}

	return optimizer.Transform(root, func(n *parser.Node) *parser.Node {
		if n.Type != parser.NodeCharClass || n.Fields.Negated {
			return n
		}
		members := charset.New(n.Fields.Ranges...)
		if members.IsEmpty() || members.Len() > maxOrbit {
			return n
		}
		set, _ := optimizer.Effective(n, ctx.Flags())

		// The smallest member that spells the whole class wins.
		for _, rg := range members.Ranges() {
			for c := rg.Lo; c <= rg.Hi; c++ {
				lit := &parser.Node{
					Type:   parser.NodeLiteral,
					Fields: parser.NodeFields{Char: c},
				}
				want, _ := optimizer.Effective(lit, ctx.Flags())
				if !set.Equal(want) {
					continue
				}
				if ctx.Propose(optimizer.Candidate{
					Original:    []*parser.Node{n},
					Replacement: []*parser.Node{lit},
					Reason:      "class matches a single character",
				}) {
					return lit
				}
				return n
			}
		}
		return n
	})
}
