package optimize

import (
	"github.com/donaldgifford/reopt/internal/optimizer"
	"github.com/donaldgifford/reopt/internal/parser"
)

// SurfaceSimplify rewrites single-character terms and quantifiers in their
// shortest surface form: \e becomes e, {1,} becomes +, {3,3} becomes {3}.
// Class spelling belongs to ClassMembers.
type SurfaceSimplify struct{}

// Name returns the config key for this rule.
func (r *SurfaceSimplify) Name() string {
	return "simplify_surface"
}

// Optimize rewrites every node whose reconstructed form is shorter than its
// source text.
func (r *SurfaceSimplify) Optimize(root *parser.Node, ctx *optimizer.Context) *parser.Node {
	if !ctx.Config.SimplifySurface {
		return root
	}

	return optimizer.Transform(root, func(n *parser.Node) *parser.Node {
		if n.Raw == "" {
			return n
		}
		switch {
		case n.Type == parser.NodeCharClass:
			return n
		case n.IsAtom():
		case n.Type == parser.NodeQuantified && n.Child().IsAtom():
		default:
			return n
		}

		repl := optimizer.Modified(n)
		after := optimizer.Size(ctx.Flags(), repl)
		if after >= len(n.Raw) {
			return n
		}
		if ctx.Propose(optimizer.Candidate{
			Original:    []*parser.Node{n},
			Replacement: []*parser.Node{repl},
			Reason:      "shorter spelling of " + n.Raw,
		}) {
			return repl
		}
		return n
	})
}
