package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/donaldgifford/reopt/internal/charset"
)

// classAtom is one member of a character class: either a single code point
// or the member set of a class escape.
type classAtom struct {
	char     rune
	set      *charset.Set
	opaque   bool // Member the optimizer does not model.
	startPos int
}

func (p *state) parseClass() (*Node, error) {
	start := p.pos
	if p.flags.Has(FlagUnicodeSets) {
		return p.skipSetClass()
	}
	p.pos++

	negated := false
	if p.more() && p.peek() == '^' {
		negated = true
		p.pos++
	}

	var (
		ranges []charset.Range
		opaque bool
	)
	add := func(a classAtom) {
		switch {
		case a.opaque:
			opaque = true
		case a.set != nil:
			ranges = append(ranges, a.set.Ranges()...)
		default:
			ranges = append(ranges, charset.Range{Lo: a.char, Hi: a.char})
		}
	}

	for {
		if !p.more() {
			return nil, p.errorf(start, "unterminated character class")
		}
		if p.peek() == ']' {
			p.pos++
			break
		}

		lo, err := p.parseClassAtom()
		if err != nil {
			return nil, err
		}
		if !p.isRangeDash() {
			add(lo)
			continue
		}

		p.pos++ // -
		hi, err := p.parseClassAtom()
		if err != nil {
			return nil, err
		}
		if lo.set != nil || hi.set != nil || lo.opaque || hi.opaque {
			if p.flags.Unicode() && (lo.set != nil || hi.set != nil) {
				return nil, p.errorf(lo.startPos, "invalid character class")
			}
			add(lo)
			add(classAtom{char: '-'})
			add(hi)
			continue
		}
		if lo.char > hi.char {
			return nil, p.errorf(lo.startPos, "range out of order in character class")
		}
		ranges = append(ranges, charset.Range{Lo: lo.char, Hi: hi.char})
	}

	if opaque {
		return p.node(NodeUnsupported, start, nil), nil
	}
	n := p.node(NodeCharClass, start, nil)
	n.Fields.Ranges = charset.Normalize(ranges)
	n.Fields.Negated = negated
	return n, nil
}

// isRangeDash reports whether a '-' at the current position joins two class
// atoms, as opposed to a literal dash before the closing bracket.
func (p *state) isRangeDash() bool {
	return p.pos+1 < len(p.src) && p.src[p.pos] == '-' && p.src[p.pos+1] != ']'
}

func (p *state) parseClassAtom() (classAtom, error) {
	start := p.pos
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	if r != '\\' {
		p.pos += size
		if r > charset.MaxCodeUnit && !p.flags.Unicode() {
			return classAtom{opaque: true, startPos: start}, nil
		}
		return classAtom{char: r, startPos: start}, nil
	}

	p.pos++
	if !p.more() {
		return classAtom{}, p.errorf(start, `\ at end of pattern`)
	}
	r, _ = utf8.DecodeRuneInString(p.src[p.pos:])
	switch {
	case r == 'b':
		p.pos++
		return classAtom{char: '\b', startPos: start}, nil

	case r == '-':
		p.pos++
		return classAtom{char: '-', startPos: start}, nil

	case isShorthandLetter(r):
		p.pos++
		k, _ := shorthandByLetter(r)
		set := ShorthandMembers(k, p.flags)
		return classAtom{set: &set, startPos: start}, nil

	case r >= '0' && r <= '9':
		if p.flags.Unicode() {
			if r == '0' && (p.pos+1 >= len(p.src) || !isDigit(p.src[p.pos+1])) {
				p.pos++
				return classAtom{char: 0, startPos: start}, nil
			}
			return classAtom{}, p.errorf(start, "invalid class escape")
		}
		return classAtom{char: p.legacyOctal(), startPos: start}, nil

	case r == 'p' || r == 'P':
		if p.flags.Unicode() {
			if err := p.skipPropertyName(); err != nil {
				return classAtom{}, err
			}
			return classAtom{opaque: true, startPos: start}, nil
		}

	case r == 'B' || r == 'k':
		if p.flags.Unicode() {
			return classAtom{}, p.errorf(start, "invalid class escape")
		}
		p.pos++
		return classAtom{char: r, startPos: start}, nil
	}

	c, ok, err := p.parseCharacterEscape(true)
	if err != nil {
		return classAtom{}, err
	}
	if !ok {
		return classAtom{opaque: true, startPos: start}, nil
	}
	return classAtom{char: c, startPos: start}, nil
}

// skipSetClass consumes a class in unicode-sets mode, where classes nest and
// support set operators. Such classes are kept opaque.
func (p *state) skipSetClass() (*Node, error) {
	start := p.pos
	var stack []setLevel
	for p.more() {
		at := p.pos
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		p.pos += size
		var top *setLevel
		if len(stack) > 0 {
			top = &stack[len(stack)-1]
		}

		switch {
		case r == '[':
			if top != nil && top.rangeFrom {
				return nil, p.errorf(at, "invalid class range")
			}
			stack = append(stack, setLevel{})
			if p.more() && p.peek() == '^' {
				p.pos++
			}
			continue
		case r == ']':
			if !top.closes() {
				return nil, p.errorf(at, "incomplete class set operation")
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return p.node(NodeUnsupported, start, nil), nil
			}
			if reason := stack[len(stack)-1].operand(false); reason != "" {
				return nil, p.errorf(at, reason)
			}
			continue
		case r == '\\':
			char, err := p.skipSetEscape(at)
			if err != nil {
				return nil, err
			}
			if reason := top.operand(char); reason != "" {
				return nil, p.errorf(at, reason)
			}
			continue
		}

		var next rune = -1
		if p.more() {
			next, _ = utf8.DecodeRuneInString(p.src[p.pos:])
		}
		switch {
		case (r == '&' || r == '-') && next == r:
			p.pos++
			if reason := top.operator(r); reason != "" {
				return nil, p.errorf(at, reason)
			}
		case r == '-':
			if reason := top.dash(); reason != "" {
				return nil, p.errorf(at, reason)
			}
		case strings.ContainsRune("()[]{}/|", r):
			return nil, p.errorf(at, "unescaped syntax character in class")
		case next == r && strings.ContainsRune("!#$%*+,.:;<=>?@^`~", r):
			return nil, p.errorf(at, "reserved double punctuator in class")
		default:
			if reason := top.operand(true); reason != "" {
				return nil, p.errorf(at, reason)
			}
		}
	}
	return nil, p.errorf(start, "unterminated character class")
}

// setLevel tracks one bracket level of a v-mode class. A level is either a
// union of operands and ranges or a chain of one operator between single
// operands.
type setLevel struct {
	op        rune // '&' or '-' once an operator is seen.
	operands  int  // Operands since the last operator.
	union     bool // Juxtaposed operands or a range.
	lastChar  bool // Last operand was a single character.
	rangeFrom bool // A '-' waits for the end of a range.
}

func (l *setLevel) operand(char bool) string {
	if l.rangeFrom {
		if !char {
			return "invalid class range"
		}
		l.rangeFrom, l.lastChar, l.union = false, false, true
		return l.checkUnion()
	}
	l.operands++
	l.lastChar = char
	if l.operands > 1 {
		l.union = true
	}
	return l.checkUnion()
}

func (l *setLevel) checkUnion() string {
	if l.union && l.op != 0 {
		return "mixed class set operations"
	}
	return ""
}

func (l *setLevel) dash() string {
	if !l.lastChar {
		return "invalid class range"
	}
	l.rangeFrom = true
	return ""
}

func (l *setLevel) operator(op rune) string {
	switch {
	case l.rangeFrom, l.union, l.operands != 1:
		return "invalid class set operation"
	case l.op != 0 && l.op != op:
		return "mixed class set operations"
	}
	l.op, l.operands, l.lastChar = op, 0, false
	return ""
}

// closes reports whether the level can end at "]".
func (l *setLevel) closes() bool {
	return !l.rangeFrom && (l.op == 0 || l.operands == 1)
}

// skipSetEscape consumes an escape inside a v-mode class starting at the
// backslash and reports whether it names a single character.
func (p *state) skipSetEscape(start int) (bool, error) {
	if !p.more() {
		return false, p.errorf(start, "trailing backslash")
	}
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += size
	if strings.ContainsRune("pPqu", r) && p.more() && p.peek() == '{' {
		end := strings.IndexByte(p.src[p.pos:], '}')
		if end < 0 {
			return false, p.errorf(start, "unterminated escape")
		}
		p.pos += end + 1
		return r == 'u', nil
	}
	switch {
	case r == 'u' && hexAt(p.src, p.pos, 4):
		p.pos += 4
	case r == 'x' && hexAt(p.src, p.pos, 2):
		p.pos += 2
	case r == 'c' && p.more() && isASCIILetter(p.peek()):
		p.pos++
	}
	return !strings.ContainsRune("dDsSwWpPq", r), nil
}

func hexAt(src string, i, n int) bool {
	_, ok := scanHex(src, i, n)
	return ok
}
