// Package parser turns ECMAScript regular-expression source into an AST.
package parser

import (
	"slices"

	"github.com/donaldgifford/reopt/internal/charset"
)

// NodeType classifies a parsed pattern construct.
type NodeType int

const (
	// NodeLiteral is a single character, escaped or not.
	NodeLiteral NodeType = iota
	// NodeCharClass is a bracketed class such as [a-z] or [^/\\].
	NodeCharClass
	// NodeShorthand is a class escape: \d \D \s \S \w \W.
	NodeShorthand
	// NodeDot is the . wildcard.
	NodeDot
	// NodeSequence is an ordered concatenation of terms.
	NodeSequence
	// NodeAlternation is a list of alternatives separated by |.
	NodeAlternation
	// NodeGroup is a capturing (...) or non-capturing (?:...) group.
	NodeGroup
	// NodeQuantified is a term followed by * + ? or {m,n}.
	NodeQuantified
	// NodeAnchor is one of ^ $ \b \B.
	NodeAnchor
	// NodeBackreference is a numeric backreference such as \1.
	NodeBackreference
	// NodeUnsupported is a construct the optimizer does not model
	// (lookaround, named groups, property escapes, ...). It is preserved
	// verbatim and never rewritten.
	NodeUnsupported
)

var nodeTypeNames = [...]string{
	NodeLiteral:       "Literal",
	NodeCharClass:     "CharClass",
	NodeShorthand:     "Shorthand",
	NodeDot:           "Dot",
	NodeSequence:      "Sequence",
	NodeAlternation:   "Alternation",
	NodeGroup:         "Group",
	NodeQuantified:    "Quantified",
	NodeAnchor:        "Anchor",
	NodeBackreference: "Backreference",
	NodeUnsupported:   "Unsupported",
}

func (t NodeType) String() string {
	if t < 0 || int(t) >= len(nodeTypeNames) {
		return "NodeType(?)"
	}
	return nodeTypeNames[t]
}

// ShorthandKind identifies a class escape.
type ShorthandKind int

const (
	ShorthandDigit ShorthandKind = iota
	ShorthandNonDigit
	ShorthandSpace
	ShorthandNonSpace
	ShorthandWord
	ShorthandNonWord
)

// ShorthandKinds lists every kind in alphabetical order of its name, the
// order in which the canonicalizer tries them.
var ShorthandKinds = []ShorthandKind{
	ShorthandDigit,
	ShorthandNonDigit,
	ShorthandNonSpace,
	ShorthandNonWord,
	ShorthandSpace,
	ShorthandWord,
}

var shorthandInfo = [...]struct {
	name   string
	letter byte
}{
	ShorthandDigit:    {"digit", 'd'},
	ShorthandNonDigit: {"non-digit", 'D'},
	ShorthandSpace:    {"space", 's'},
	ShorthandNonSpace: {"non-space", 'S'},
	ShorthandWord:     {"word", 'w'},
	ShorthandNonWord:  {"non-word", 'W'},
}

func (k ShorthandKind) String() string { return shorthandInfo[k].name }

// Letter returns the escape letter, e.g. 'd' for \d.
func (k ShorthandKind) Letter() byte { return shorthandInfo[k].letter }

// Negated reports whether the kind is \D, \S or \W.
func (k ShorthandKind) Negated() bool { return k%2 == 1 }

// Base returns the positive kind: \d for both \d and \D.
func (k ShorthandKind) Base() ShorthandKind { return k - k%2 }

// shorthandByLetter maps an escape letter to its kind.
func shorthandByLetter(c rune) (ShorthandKind, bool) {
	for k, info := range shorthandInfo {
		if rune(info.letter) == c {
			return ShorthandKind(k), true
		}
	}
	return 0, false
}

// AnchorKind identifies an assertion.
type AnchorKind int

const (
	AnchorStart AnchorKind = iota // ^
	AnchorEnd                     // $
	AnchorWordBoundary            // \b
	AnchorNonWordBoundary         // \B
)

// Unbounded is the Max of a quantifier with no upper bound.
const Unbounded = -1

// Node represents a single construct in a pattern AST.
type Node struct {
	Type     NodeType
	Pos      int     // Byte offset of the first source byte.
	End      int     // Byte offset just past the last source byte.
	Raw      string  // Original text, emitted verbatim by the writer when set.
	Children []*Node // Terms of a sequence, branches of an alternation, body of a group or quantifier.
	Fields   NodeFields
}

// NodeFields holds type-specific parsed data for a Node.
type NodeFields struct {
	// Literal fields.
	Char rune

	// CharClass fields. Ranges are normalized.
	Ranges  []charset.Range
	Negated bool

	// Shorthand fields.
	Shorthand ShorthandKind

	// Group fields. Index is the 1-based capture number.
	Capturing bool
	Index     int

	// Quantified fields. Max is Unbounded when there is no upper limit.
	Min    int
	Max    int
	Greedy bool

	// Anchor fields.
	Anchor AnchorKind

	// Backreference fields.
	Ref int
}

// IsAtom reports whether n matches exactly one character.
func (n *Node) IsAtom() bool {
	switch n.Type {
	case NodeLiteral, NodeCharClass, NodeShorthand, NodeDot:
		return true
	}
	return false
}

// Child returns the single child of a group or quantifier.
func (n *Node) Child() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	clone := &Node{
		Type:   n.Type,
		Pos:    n.Pos,
		End:    n.End,
		Raw:    n.Raw,
		Fields: n.Fields.clone(),
	}

	if n.Children != nil {
		clone.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			clone.Children[i] = child.Clone()
		}
	}

	return clone
}

// clone returns a deep copy of NodeFields.
func (f *NodeFields) clone() NodeFields {
	c := *f

	if f.Ranges != nil {
		c.Ranges = make([]charset.Range, len(f.Ranges))
		copy(c.Ranges, f.Ranges)
	}

	return c
}

// Walk calls fn for n and every descendant in depth-first order. Children
// are skipped when fn returns false.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range n.Children {
		Walk(child, fn)
	}
}

// Captures returns the indexes of the capturing groups in n, in source
// order. Named groups wrapped in NodeUnsupported are included.
func Captures(nodes ...*Node) []int {
	var out []int
	for _, n := range nodes {
		Walk(n, func(x *Node) bool {
			if x.Fields.Capturing {
				out = append(out, x.Fields.Index)
			}
			return true
		})
	}
	return out
}

// ContainsUnsupported reports whether any node in the list is, or contains,
// a NodeUnsupported.
func ContainsUnsupported(nodes ...*Node) bool {
	found := false
	for _, n := range nodes {
		Walk(n, func(x *Node) bool {
			if x.Type == NodeUnsupported {
				found = true
			}
			return !found
		})
	}
	return found
}

// Equal reports whether a and b have the same structure and parsed fields.
// Positions and raw text are ignored.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || len(a.Children) != len(b.Children) {
		return false
	}
	if a.Type == NodeUnsupported && a.Raw != b.Raw {
		return false
	}
	fa, fb := a.Fields, b.Fields
	if fa.Char != fb.Char || fa.Negated != fb.Negated || fa.Shorthand != fb.Shorthand ||
		fa.Capturing != fb.Capturing || fa.Index != fb.Index ||
		fa.Min != fb.Min || fa.Max != fb.Max || fa.Greedy != fb.Greedy ||
		fa.Anchor != fb.Anchor || fa.Ref != fb.Ref {
		return false
	}
	if !slices.Equal(fa.Ranges, fb.Ranges) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
