package optimizer

import (
	"github.com/donaldgifford/reopt/internal/charset"
	"github.com/donaldgifford/reopt/internal/parser"
)

// Folding returns the case equivalence the flags select.
func Folding(flags parser.Flags) charset.Folding {
	switch {
	case !flags.Has(parser.FlagIgnoreCase):
		return charset.FoldNone
	case flags.Unicode():
		return charset.FoldSimple
	}
	return charset.FoldUpper
}

// Limit returns the largest code point (or code unit) a pattern with these
// flags can match.
func Limit(flags parser.Flags) rune {
	if flags.Unicode() {
		return charset.MaxUnicode
	}
	return charset.MaxCodeUnit
}

// Effective returns the set of code points a single-character node matches
// under flags, with case folding applied. It reports false for nodes that
// are not atoms.
func Effective(n *parser.Node, flags parser.Flags) (charset.Set, bool) {
	fold := Folding(flags)
	limit := Limit(flags)

	switch n.Type {
	case parser.NodeLiteral:
		return charset.Of(n.Fields.Char).Fold(fold), true

	case parser.NodeCharClass:
		set := charset.New(n.Fields.Ranges...).Fold(fold)
		if n.Fields.Negated {
			set = set.Complement(limit)
		}
		return set, true

	case parser.NodeShorthand:
		return parser.ShorthandMembers(n.Fields.Shorthand, flags).Fold(fold), true

	case parser.NodeDot:
		if flags.Has(parser.FlagDotAll) {
			return charset.New(charset.Range{Lo: 0, Hi: limit}), true
		}
		return charset.LineTerminators.Complement(limit), true
	}
	return charset.Set{}, false
}
