package optimize

import (
	"fmt"

	"github.com/donaldgifford/reopt/internal/optimizer"
	"github.com/donaldgifford/reopt/internal/parser"
)

// RunMerge folds runs of the same single-character term into one counted
// quantifier: foooooo becomes fo{6} and \w\w* becomes \w+.
type RunMerge struct{}

// Name returns the config key for this rule.
func (r *RunMerge) Name() string {
	return "merge_runs"
}

// Optimize merges runs inside every sequence of the AST.
func (r *RunMerge) Optimize(root *parser.Node, ctx *optimizer.Context) *parser.Node {
	if !ctx.Config.MergeRuns {
		return root
	}

	return optimizer.Transform(root, func(n *parser.Node) *parser.Node {
		if n.Type != parser.NodeSequence || len(n.Children) < 2 {
			return n
		}
		children, changed := mergeRuns(n.Children, ctx)
		if !changed {
			return n
		}
		seq := optimizer.Modified(n)
		seq.Children = children
		return seq
	})
}

// element is one term of a sequence seen as atom{min,max}.
type element struct {
	node     *parser.Node
	atom     *parser.Node
	key      string
	min, max int
	greedy   bool
	bare     bool
}

func (e element) variable() bool { return e.min != e.max }

func asElement(n *parser.Node, flags parser.Flags) (element, bool) {
	e := element{node: n, atom: n, min: 1, max: 1, greedy: true, bare: true}
	if n.Type == parser.NodeQuantified {
		e.atom = n.Child()
		e.min, e.max, e.greedy = n.Fields.Min, n.Fields.Max, n.Fields.Greedy
		e.bare = false
	}
	if e.atom == nil || !e.atom.IsAtom() {
		return element{}, false
	}
	e.key = optimizer.Render(flags, optimizer.Modified(e.atom))
	return e, true
}

// mergeRuns scans children left to right for maximal runs and replaces each
// run that passes the acceptance heuristic.
func mergeRuns(children []*parser.Node, ctx *optimizer.Context) ([]*parser.Node, bool) {
	flags := ctx.Flags()
	out := make([]*parser.Node, 0, len(children))
	changed := false

	for i := 0; i < len(children); {
		first, ok := asElement(children[i], flags)
		if !ok {
			out = append(out, children[i])
			i++
			continue
		}

		run := []element{first}
		// greedy is the mode shared by the variable elements seen so far.
		greedy, haveVariable := first.greedy, first.variable()
		j := i + 1
		for ; j < len(children); j++ {
			e, ok := asElement(children[j], flags)
			if !ok || e.key != first.key {
				break
			}
			if e.variable() {
				if haveVariable && e.greedy != greedy {
					break
				}
				greedy, haveVariable = e.greedy, true
			}
			run = append(run, e)
		}

		if repl, ok := foldRun(run, greedy || !haveVariable, ctx); ok {
			out = append(out, repl)
			changed = true
		} else {
			for _, e := range run {
				out = append(out, e.node)
			}
		}
		i = j
	}
	return out, changed
}

// foldRun returns the quantified replacement for a run, or false when the
// run should be left alone.
func foldRun(run []element, greedy bool, ctx *optimizer.Context) (*parser.Node, bool) {
	if len(run) < 2 {
		return nil, false
	}

	lo, hi, bare := 0, 0, true
	for _, e := range run {
		lo = addCount(lo, e.min)
		hi = addCount(hi, e.max)
		bare = bare && e.bare
	}
	limit := ctx.Config.MaxRepeat
	if lo > limit || hi > limit {
		ctx.Log.Debug().
			Int("min", lo).
			Int("max", hi).
			Err(parser.ErrLimitExceeded).
			Msg("run not merged")
		return nil, false
	}
	if bare && len(run) < ctx.Config.MinRunLength {
		return nil, false
	}

	orig := make([]*parser.Node, len(run))
	for i, e := range run {
		orig[i] = e.node
	}

	repl := optimizer.Modified(run[0].atom)
	if lo != 1 || hi != 1 {
		repl = &parser.Node{
			Type:     parser.NodeQuantified,
			Children: []*parser.Node{repl},
			Fields:   parser.NodeFields{Min: lo, Max: hi, Greedy: greedy},
		}
	}
	if optimizer.Size(ctx.Flags(), repl) >= optimizer.Size(ctx.Flags(), orig...) {
		return nil, false
	}

	ok := ctx.Propose(optimizer.Candidate{
		Original:    orig,
		Replacement: []*parser.Node{repl},
		Reason:      fmt.Sprintf("%d repetitions of %s merged", len(run), run[0].key),
	})
	return repl, ok
}

// addCount adds repetition bounds; Unbounded absorbs.
func addCount(a, b int) int {
	if a == parser.Unbounded || b == parser.Unbounded {
		return parser.Unbounded
	}
	return a + b
}
