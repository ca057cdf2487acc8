// Package optimize contains individual optimization rule implementations.
package optimize

import (
	"fmt"

	"github.com/donaldgifford/reopt/internal/optimizer"
	"github.com/donaldgifford/reopt/internal/parser"
)

// ClassShorthand replaces a character class that matches exactly the set of
// a class escape with that escape: [0-9] becomes \d, [^0-9] becomes \D.
type ClassShorthand struct{}

// Name returns the config key for this rule.
func (r *ClassShorthand) Name() string {
	return "class_shorthand"
}

// Optimize rewrites every eligible class in the AST.
func (r *ClassShorthand) Optimize(root *parser.Node, ctx *optimizer.Context) *parser.Node {
	if !ctx.Config.CanonicalizeClasses {
		return root
	}

	return optimizer.Transform(root, func(n *parser.Node) *parser.Node {
		if n.Type != parser.NodeCharClass {
			return n
		}
		set, _ := optimizer.Effective(n, ctx.Flags())

		// Kinds are tried in a fixed order so the choice is deterministic.
		for _, k := range parser.ShorthandKinds {
			sh := &parser.Node{
				Type:   parser.NodeShorthand,
				Fields: parser.NodeFields{Shorthand: k},
			}
			want, _ := optimizer.Effective(sh, ctx.Flags())
			if !set.Equal(want) {
				continue
			}
			if ctx.Propose(optimizer.Candidate{
				Original:    []*parser.Node{n},
				Replacement: []*parser.Node{sh},
				Reason:      fmt.Sprintf("class matches the same characters as \\%c", k.Letter()),
			}) {
				return sh
			}
		}
		return n
	})
}
