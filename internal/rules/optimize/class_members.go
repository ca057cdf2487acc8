package optimize

import (
	"github.com/donaldgifford/reopt/internal/optimizer"
	"github.com/donaldgifford/reopt/internal/parser"
)

// ClassMembers respells a class in its shortest form: members covered by a
// class escape are written as that escape and adjacent members collapse
// into ranges, so [0-9a-f] becomes [\da-f] and [a-bc] becomes [a-c]. The
// class still matches the same characters; only its surface changes.
type ClassMembers struct{}

// Name returns the config key for this rule.
func (r *ClassMembers) Name() string {
	return "class_members"
}

// Optimize rewrites every eligible class in the AST.
func (r *ClassMembers) Optimize(root *parser.Node, ctx *optimizer.Context) *parser.Node {
	if !ctx.Config.SimplifyClassMembers {
		return root
	}

	return optimizer.Transform(root, func(n *parser.Node) *parser.Node {
		if n.Type != parser.NodeCharClass || n.Raw == "" {
			return n
		}

		repl := optimizer.Modified(n)
		if optimizer.Size(ctx.Flags(), repl) >= len(n.Raw) {
			return n
		}
		if ctx.Propose(optimizer.Candidate{
			Original:    []*parser.Node{n},
			Replacement: []*parser.Node{repl},
			Reason:      "shorter spelling of class " + n.Raw,
		}) {
			return repl
		}
		return n
	})
}
