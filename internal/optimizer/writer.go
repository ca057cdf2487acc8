// Package optimizer provides the rewrite engine, equivalence guard, writer,
// and rule interface.
package optimizer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/donaldgifford/reopt/internal/charset"
	"github.com/donaldgifford/reopt/internal/parser"
)

// Write serializes an AST back into pattern source.
//
// For round-trip fidelity, nodes with a non-empty Raw field emit their Raw
// text verbatim, subtree included. When a rule modifies a node it clears
// Raw on the node and its ancestors so the writer reconstructs them from
// parsed fields instead, in their shortest surface form.
func Write(root *parser.Node, flags parser.Flags) string {
	return Render(flags, root)
}

// Render serializes nodes as consecutive terms of one sequence.
func Render(flags parser.Flags, nodes ...*parser.Node) string {
	w := &writer{flags: flags}
	for _, n := range nodes {
		w.writeNode(n)
	}
	return w.b.String()
}

type writer struct {
	b     strings.Builder
	flags parser.Flags
}

func (w *writer) writeNode(n *parser.Node) {
	// If Raw is set, use it for verbatim round-tripping.
	if n.Raw != "" {
		w.b.WriteString(n.Raw)
		return
	}

	// Reconstruct from parsed fields.
	switch n.Type {
	case parser.NodeSequence:
		for _, child := range n.Children {
			w.writeNode(child)
		}

	case parser.NodeAlternation:
		for i, child := range n.Children {
			if i > 0 {
				w.b.WriteByte('|')
			}
			w.writeNode(child)
		}

	case parser.NodeGroup:
		w.b.WriteByte('(')
		if !n.Fields.Capturing {
			w.b.WriteString("?:")
		}
		for _, child := range n.Children {
			w.writeNode(child)
		}
		w.b.WriteByte(')')

	case parser.NodeQuantified:
		w.writeNode(n.Child())
		w.b.WriteString(quantifierSuffix(n.Fields.Min, n.Fields.Max, n.Fields.Greedy))

	case parser.NodeLiteral:
		w.writeLiteral(n.Fields.Char)

	case parser.NodeCharClass:
		w.writeClass(n)

	case parser.NodeShorthand:
		w.b.WriteByte('\\')
		w.b.WriteByte(n.Fields.Shorthand.Letter())

	case parser.NodeDot:
		w.b.WriteByte('.')

	case parser.NodeAnchor:
		w.b.WriteString(anchorText[n.Fields.Anchor])

	case parser.NodeBackreference:
		w.b.WriteByte('\\')
		w.b.WriteString(strconv.Itoa(n.Fields.Ref))

	case parser.NodeUnsupported:
		// Unsupported nodes always carry Raw; nothing to rebuild from.
	}
}

var anchorText = map[parser.AnchorKind]string{
	parser.AnchorStart:           "^",
	parser.AnchorEnd:             "$",
	parser.AnchorWordBoundary:    `\b`,
	parser.AnchorNonWordBoundary: `\B`,
}

// quantifierSuffix renders a quantifier, preferring * + ? over braces.
func quantifierSuffix(lo, hi int, greedy bool) string {
	var s string
	switch {
	case lo == 0 && hi == parser.Unbounded:
		s = "*"
	case lo == 1 && hi == parser.Unbounded:
		s = "+"
	case lo == 0 && hi == 1:
		s = "?"
	case hi == parser.Unbounded:
		s = fmt.Sprintf("{%d,}", lo)
	case lo == hi:
		s = fmt.Sprintf("{%d}", lo)
	default:
		s = fmt.Sprintf("{%d,%d}", lo, hi)
	}
	if !greedy {
		s += "?"
	}
	return s
}

// writeLiteral renders one character outside a class. A character that
// would fuse with the text already written into a different token is
// written as a hex escape.
func (w *writer) writeLiteral(r rune) {
	if w.absorbs(r) {
		fmt.Fprintf(&w.b, `\x%02X`, r)
		return
	}
	switch {
	case r == '/' || (r < unicode.MaxASCII && strings.ContainsRune(`^$\.*+?()[]{}|`, r)):
		w.b.WriteByte('\\')
		w.b.WriteRune(r)
	default:
		w.writeChar(r)
	}
}

// writeChar renders a character that needs no syntax escaping, using a
// control or hex escape when it is not printable.
func (w *writer) writeChar(r rune) {
	switch r {
	case '\t':
		w.b.WriteString(`\t`)
	case '\n':
		w.b.WriteString(`\n`)
	case '\v':
		w.b.WriteString(`\v`)
	case '\f':
		w.b.WriteString(`\f`)
	case '\r':
		w.b.WriteString(`\r`)
	default:
		switch {
		case isSurrogate(r):
			// A lone surrogate written as \uXXXX would pair with an
			// adjacent escape in unicode mode.
			if w.flags.Unicode() {
				fmt.Fprintf(&w.b, `\u{%X}`, r)
			} else {
				fmt.Fprintf(&w.b, `\u%04X`, r)
			}
		case unicode.IsPrint(r):
			w.b.WriteRune(r)
		case r <= 0xFF:
			fmt.Fprintf(&w.b, `\x%02X`, r)
		case r <= 0xFFFF:
			fmt.Fprintf(&w.b, `\u%04X`, r)
		default:
			fmt.Fprintf(&w.b, `\u{%X}`, r)
		}
	}
}

func isSurrogate(r rune) bool { return r >= 0xD800 && r <= 0xDFFF }

// absorbs reports whether writing r next would extend the token that ends
// the output: a decimal escape, an unfinished \x \u or \c identity escape,
// or an open literal brace that would become a quantifier.
func (w *writer) absorbs(r rune) bool {
	out := w.b.String()
	isDigit := r >= '0' && r <= '9'

	digits := len(out)
	for digits > 0 && out[digits-1] >= '0' && out[digits-1] <= '9' {
		digits--
	}
	if isDigit && digits < len(out) && escapedAt(out, digits) {
		return true
	}

	if escapedAt(out, len(out)-1) {
		switch out[len(out)-1] {
		case 'x', 'u':
			return isHexDigit(r)
		case 'c':
			return r < unicode.MaxASCII && unicode.IsLetter(r)
		}
	}

	if isDigit || r == ',' {
		return openBrace(out)
	}
	return false
}

// escapedAt reports whether out[i] is preceded by an odd number of
// backslashes, i.e. is the letter of an escape.
func escapedAt(out string, i int) bool {
	if i < 1 {
		return false
	}
	n := 0
	for j := i - 1; j >= 0 && out[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// openBrace reports whether out ends with an unescaped '{' followed only by
// digits and at most one comma.
func openBrace(out string) bool {
	commas := 0
	for i := len(out) - 1; i >= 0; i-- {
		switch c := out[i]; {
		case c >= '0' && c <= '9':
		case c == ',':
			commas++
			if commas > 1 {
				return false
			}
		case c == '{':
			return !escapedAt(out, i)
		default:
			return false
		}
	}
	return false
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// escapeOrder lists the escapes a reconstructed class may use for part of
// its members, widest first so \w is preferred over the \d it contains.
var escapeOrder = []parser.ShorthandKind{parser.ShorthandWord, parser.ShorthandDigit}

// writeClass renders a character class in its shorter spelling: with the
// class escapes whose members it contains written as escapes, or as plain
// ranges.
func (w *writer) writeClass(n *parser.Node) {
	members := charset.New(n.Fields.Ranges...)
	text := w.classText(members, n.Fields.Negated, nil)
	if escapes := ClassEscapes(members, w.flags); len(escapes) > 0 {
		if short := w.classText(members, n.Fields.Negated, escapes); len(short) < len(text) {
			text = short
		}
	}
	w.b.WriteString(text)
}

// ClassEscapes returns the class escapes whose members all appear in
// members. Escapes covered by an earlier one are skipped.
func ClassEscapes(members charset.Set, flags parser.Flags) []parser.ShorthandKind {
	var (
		out     []parser.ShorthandKind
		covered charset.Set
	)
	for _, k := range escapeOrder {
		set := parser.ShorthandMembers(k, flags)
		if set.SubsetOf(covered) || !set.SubsetOf(members) {
			continue
		}
		out = append(out, k)
		covered = covered.Union(set)
	}
	return out
}

func (w *writer) classText(members charset.Set, negated bool, escapes []parser.ShorthandKind) string {
	cw := &writer{flags: w.flags}
	cw.b.WriteByte('[')
	if negated {
		cw.b.WriteByte('^')
	}

	rest := members
	for _, k := range escapes {
		cw.b.WriteByte('\\')
		cw.b.WriteByte(k.Letter())
		rest = rest.Subtract(parser.ShorthandMembers(k, w.flags))
	}

	for _, rg := range rest.Ranges() {
		switch {
		case rg.Lo == rg.Hi:
			cw.writeClassChar(rg.Lo)
		case rg.Hi == rg.Lo+1:
			cw.writeClassChar(rg.Lo)
			cw.writeClassChar(rg.Hi)
		default:
			cw.writeClassChar(rg.Lo)
			cw.b.WriteByte('-')
			cw.writeClassChar(rg.Hi)
		}
	}
	cw.b.WriteByte(']')
	return cw.b.String()
}

func (w *writer) writeClassChar(r rune) {
	switch r {
	case '\\', ']', '[', '^', '-':
		w.b.WriteByte('\\')
		w.b.WriteRune(r)
	case '\b':
		w.b.WriteString(`\b`)
	default:
		w.writeChar(r)
	}
}

// Size returns the rendered length of nodes in bytes.
func Size(flags parser.Flags, nodes ...*parser.Node) int {
	return len(Render(flags, nodes...))
}
