package optimizer

import "github.com/donaldgifford/reopt/internal/parser"

// Rule rewrites a pattern AST. Rules are applied in registered order.
type Rule interface {
	// Name returns the config key for this rule (e.g., "class_shorthand").
	Name() string

	// Optimize receives the full AST and returns a modified AST. Rules must
	// not mutate the input; they return new or cloned nodes where changes
	// are needed, and every change goes through ctx.Propose first.
	Optimize(root *parser.Node, ctx *Context) *parser.Node
}
