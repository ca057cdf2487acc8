package parser

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/donaldgifford/reopt/internal/charset"
)

// Default guards against pathological input.
const (
	DefaultMaxDepth  = 64
	DefaultMaxLength = 64 << 10
)

// maxCount saturates quantifier bounds written with huge numbers.
const maxCount = math.MaxInt32

// Option configures Parse.
type Option func(*state)

// WithMaxDepth limits group nesting. Values below 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(p *state) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// WithMaxLength limits the pattern source length in bytes. Values below 1
// keep the default.
func WithMaxLength(n int) Option {
	return func(p *state) {
		if n > 0 {
			p.maxLength = n
		}
	}
}

// Parse converts pattern source (without delimiters) into an AST. The root
// is always a NodeSequence or a NodeAlternation. Malformed input yields a
// *SyntaxError; input tripping a guard yields a *LimitError.
func Parse(src string, flags Flags, opts ...Option) (*Node, error) {
	p := &state{
		src:       src,
		flags:     flags,
		maxDepth:  DefaultMaxDepth,
		maxLength: DefaultMaxLength,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p.parse()
}

// state tracks parser position and group bookkeeping.
type state struct {
	src       string
	pos       int
	flags     Flags
	maxDepth  int
	maxLength int
	depth     int
	groups    int             // Capturing groups in the whole pattern.
	names     map[string]bool // Group names in the whole pattern.
	declared  map[string]bool // Group names parsed so far.
	nextIndex int
}

func (p *state) parse() (*Node, error) {
	if len(p.src) > p.maxLength {
		return nil, &LimitError{Pos: p.maxLength, Limit: "length", Max: p.maxLength}
	}
	p.groups, p.names = countGroups(p.src)
	p.declared = make(map[string]bool, len(p.names))

	root, err := p.parseDisjunction()
	if err != nil {
		return nil, err
	}
	if p.more() {
		return nil, p.errorf(p.pos, "unmatched )")
	}
	return root, nil
}

func (p *state) parseDisjunction() (*Node, error) {
	start := p.pos
	first, err := p.parseAlternative()
	if err != nil {
		return nil, err
	}
	if !p.more() || p.peek() != '|' {
		return first, nil
	}

	alts := []*Node{first}
	for p.more() && p.peek() == '|' {
		p.pos++
		next, err := p.parseAlternative()
		if err != nil {
			return nil, err
		}
		alts = append(alts, next)
	}
	return p.node(NodeAlternation, start, alts), nil
}

func (p *state) parseAlternative() (*Node, error) {
	start := p.pos
	var terms []*Node
	for p.more() {
		if c := p.peek(); c == '|' || c == ')' {
			break
		}
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return p.node(NodeSequence, start, terms), nil
}

func (p *state) parseTerm() (*Node, error) {
	start := p.pos
	atom, quantifiable, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	qpos := p.pos
	q, ok, err := p.parseQuantifier()
	if err != nil {
		return nil, err
	}
	if !ok {
		return atom, nil
	}
	if !quantifiable {
		return nil, p.errorf(qpos, "nothing to repeat")
	}

	n := p.node(NodeQuantified, start, []*Node{atom})
	n.Fields.Min, n.Fields.Max, n.Fields.Greedy = q.min, q.max, q.greedy
	return n, nil
}

type quantifier struct {
	min, max int
	greedy   bool
}

// parseQuantifier consumes a quantifier if one starts at the current
// position. Outside unicode mode a brace that does not form a quantifier is
// left for the next term as a literal.
func (p *state) parseQuantifier() (quantifier, bool, error) {
	if !p.more() {
		return quantifier{}, false, nil
	}

	var q quantifier
	switch p.peek() {
	case '*':
		q = quantifier{min: 0, max: Unbounded}
		p.pos++
	case '+':
		q = quantifier{min: 1, max: Unbounded}
		p.pos++
	case '?':
		q = quantifier{min: 0, max: 1}
		p.pos++
	case '{':
		lo, hi, end, ok := scanBraces(p.src, p.pos)
		if !ok {
			if p.flags.Unicode() {
				return q, false, p.errorf(p.pos, "incomplete quantifier")
			}
			return q, false, nil
		}
		if hi != Unbounded && lo > hi {
			return q, false, p.errorf(p.pos, "numbers out of order in {} quantifier")
		}
		q = quantifier{min: lo, max: hi}
		p.pos = end
	default:
		return q, false, nil
	}

	q.greedy = true
	if p.more() && p.peek() == '?' {
		q.greedy = false
		p.pos++
	}
	return q, true, nil
}

// scanBraces matches {n}, {n,} or {n,m} at i and returns the bounds and the
// offset just past the closing brace.
func scanBraces(src string, i int) (lo, hi, end int, ok bool) {
	j := i + 1
	lo, j, ok = scanInt(src, j)
	if !ok {
		return 0, 0, 0, false
	}
	hi = lo
	if j < len(src) && src[j] == ',' {
		j++
		hi = Unbounded
		if j < len(src) && isDigit(src[j]) {
			hi, j, _ = scanInt(src, j)
		}
	}
	if j >= len(src) || src[j] != '}' {
		return 0, 0, 0, false
	}
	return lo, hi, j + 1, true
}

func scanInt(src string, i int) (n, end int, ok bool) {
	start := i
	for i < len(src) && isDigit(src[i]) {
		if n < maxCount {
			n = n*10 + int(src[i]-'0')
			n = min(n, maxCount)
		}
		i++
	}
	return n, i, i > start
}

func (p *state) parseAtom() (*Node, bool, error) {
	start := p.pos
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])

	switch r {
	case '^', '$':
		p.pos++
		n := p.node(NodeAnchor, start, nil)
		if r == '$' {
			n.Fields.Anchor = AnchorEnd
		}
		return n, false, nil
	case '.':
		p.pos++
		return p.node(NodeDot, start, nil), true, nil
	case '(':
		return p.parseGroup()
	case '[':
		n, err := p.parseClass()
		return n, true, err
	case '\\':
		return p.parseAtomEscape()
	case '*', '+', '?':
		return nil, false, p.errorf(start, "nothing to repeat")
	case '{':
		if _, _, _, ok := scanBraces(p.src, p.pos); ok {
			return nil, false, p.errorf(start, "nothing to repeat")
		}
		if p.flags.Unicode() {
			return nil, false, p.errorf(start, "lone quantifier brackets")
		}
	case '}', ']':
		if p.flags.Unicode() {
			return nil, false, p.errorf(start, fmt.Sprintf("lone %q", r))
		}
	}

	p.pos += size
	if r > charset.MaxCodeUnit && !p.flags.Unicode() {
		// Two code units outside unicode mode; a following quantifier
		// would bind to the second one only.
		return p.node(NodeUnsupported, start, nil), true, nil
	}
	return p.literal(start, r), true, nil
}

func (p *state) parseGroup() (*Node, bool, error) {
	start := p.pos
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.maxDepth {
		return nil, false, &LimitError{Pos: start, Limit: "depth", Max: p.maxDepth}
	}

	rest := p.src[p.pos+1:]
	var (
		typ          = NodeGroup
		capturing    bool
		quantifiable = true
	)
	switch {
	case strings.HasPrefix(rest, "?:"):
		p.pos += 3
	case strings.HasPrefix(rest, "?="), strings.HasPrefix(rest, "?!"):
		typ = NodeUnsupported
		quantifiable = !p.flags.Unicode()
		p.pos += 3
	case strings.HasPrefix(rest, "?<="), strings.HasPrefix(rest, "?<!"):
		typ = NodeUnsupported
		quantifiable = false
		p.pos += 4
	case strings.HasPrefix(rest, "?<"):
		typ = NodeUnsupported
		capturing = true
		p.pos += 3
		nameAt := p.pos
		name, err := p.skipGroupName()
		if err != nil {
			return nil, false, err
		}
		if p.declared[name] {
			return nil, false, p.errorf(nameAt, "duplicate group name")
		}
		p.declared[name] = true
	case strings.HasPrefix(rest, "?"):
		end, ok := scanModifiers(p.src, p.pos+2)
		if !ok {
			return nil, false, p.errorf(start, "invalid group")
		}
		typ = NodeUnsupported
		p.pos = end
	default:
		capturing = true
		p.pos++
	}

	var index int
	if capturing {
		p.nextIndex++
		index = p.nextIndex
	}

	body, err := p.parseDisjunction()
	if err != nil {
		return nil, false, err
	}
	if !p.more() || p.peek() != ')' {
		return nil, false, p.errorf(start, "unterminated group")
	}
	p.pos++

	n := p.node(typ, start, []*Node{body})
	n.Fields.Capturing = capturing
	n.Fields.Index = index
	return n, quantifiable, nil
}

// skipGroupName consumes "name>" of a named group or \k<name> reference and
// returns the name as written.
func (p *state) skipGroupName() (string, error) {
	start := p.pos
	for p.more() {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if r == '>' {
			if p.pos == start {
				return "", p.errorf(start, "empty group name")
			}
			p.pos++
			return p.src[start : p.pos-1], nil
		}
		if !isIdentRune(r, p.pos == start) && r != '\\' {
			return "", p.errorf(p.pos, "invalid group name")
		}
		p.pos += size
	}
	return "", p.errorf(start, "unterminated group name")
}

// scanModifiers matches the "ims-ims:" part of a modifier group starting
// after "(?".
func scanModifiers(src string, i int) (int, bool) {
	seen := false
	for i < len(src) {
		switch c := src[i]; {
		case c == 'i' || c == 'm' || c == 's' || c == '-':
			seen = true
			i++
		case c == ':' && seen:
			return i + 1, true
		default:
			return 0, false
		}
	}
	return 0, false
}

func (p *state) parseAtomEscape() (*Node, bool, error) {
	start := p.pos
	p.pos++
	if !p.more() {
		return nil, false, p.errorf(start, `\ at end of pattern`)
	}

	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	switch {
	case r == 'b' || r == 'B':
		p.pos++
		n := p.node(NodeAnchor, start, nil)
		n.Fields.Anchor = AnchorWordBoundary
		if r == 'B' {
			n.Fields.Anchor = AnchorNonWordBoundary
		}
		return n, false, nil

	case isShorthandLetter(r):
		p.pos++
		n := p.node(NodeShorthand, start, nil)
		n.Fields.Shorthand, _ = shorthandByLetter(r)
		return n, true, nil

	case r >= '1' && r <= '9':
		ref, end, _ := scanInt(p.src, p.pos)
		if ref <= p.groups {
			p.pos = end
			n := p.node(NodeBackreference, start, nil)
			n.Fields.Ref = ref
			return n, true, nil
		}
		if p.flags.Unicode() {
			return nil, false, p.errorf(start, "invalid escape")
		}
		return p.literal(start, p.legacyOctal()), true, nil

	case r == '0':
		if p.pos+1 < len(p.src) && isDigit(p.src[p.pos+1]) {
			if p.flags.Unicode() {
				return nil, false, p.errorf(start, "invalid decimal escape")
			}
			return p.literal(start, p.legacyOctal()), true, nil
		}
		p.pos++
		return p.literal(start, 0), true, nil

	case r == 'k' && (p.flags.Unicode() || len(p.names) > 0):
		p.pos++
		if !p.more() || p.peek() != '<' {
			return nil, false, p.errorf(start, "invalid named reference")
		}
		p.pos++
		nameAt := p.pos
		name, err := p.skipGroupName()
		if err != nil {
			return nil, false, err
		}
		if !p.names[name] {
			return nil, false, p.errorf(nameAt, "undefined group name")
		}
		return p.node(NodeUnsupported, start, nil), true, nil

	case (r == 'p' || r == 'P') && p.flags.Unicode():
		if err := p.skipPropertyName(); err != nil {
			return nil, false, err
		}
		return p.node(NodeUnsupported, start, nil), true, nil
	}

	c, ok, err := p.parseCharacterEscape(false)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return p.node(NodeUnsupported, start, nil), true, nil
	}
	return p.literal(start, c), true, nil
}

// skipPropertyName consumes "p{...}" of a property escape.
func (p *state) skipPropertyName() error {
	start := p.pos - 1
	p.pos++
	if !p.more() || p.peek() != '{' {
		return p.errorf(start, "invalid property name")
	}
	end := strings.IndexByte(p.src[p.pos:], '}')
	if end <= 1 {
		return p.errorf(start, "invalid property name")
	}
	p.pos += end + 1
	return nil
}

// legacyOctal consumes up to three octal digits (value at most 0377), or a
// single 8 or 9 as an identity escape.
func (p *state) legacyOctal() rune {
	c := p.src[p.pos]
	if c == '8' || c == '9' {
		p.pos++
		return rune(c)
	}
	v := rune(0)
	for i := 0; i < 3 && p.more() && p.peek() >= '0' && p.peek() <= '7'; i++ {
		next := v*8 + rune(p.peek()-'0')
		if next > 0o377 {
			break
		}
		v = next
		p.pos++
	}
	return v
}

// parseCharacterEscape parses the escape after a backslash. It returns
// ok == false for escapes that denote more than one code unit.
func (p *state) parseCharacterEscape(inClass bool) (rune, bool, error) {
	start := p.pos - 1
	r, size := utf8.DecodeRuneInString(p.src[p.pos:])

	switch r {
	case 'f':
		p.pos++
		return '\f', true, nil
	case 'n':
		p.pos++
		return '\n', true, nil
	case 'r':
		p.pos++
		return '\r', true, nil
	case 't':
		p.pos++
		return '\t', true, nil
	case 'v':
		p.pos++
		return '\v', true, nil
	case 'c':
		if p.pos+1 < len(p.src) {
			l := p.src[p.pos+1]
			if isASCIILetter(l) || (inClass && !p.flags.Unicode() && (isDigit(l) || l == '_')) {
				p.pos += 2
				return rune(l % 32), true, nil
			}
		}
		if p.flags.Unicode() {
			return 0, false, p.errorf(start, "invalid unicode escape")
		}
		if inClass {
			// The backslash is literal; "c" is read as the next atom.
			return '\\', true, nil
		}
		p.pos++
		return 0, false, nil
	case 'x':
		if v, ok := scanHex(p.src, p.pos+1, 2); ok {
			p.pos += 3
			return v, true, nil
		}
		if p.flags.Unicode() {
			return 0, false, p.errorf(start, "invalid escape")
		}
		p.pos++
		return 'x', true, nil
	case 'u':
		if v, ok := p.scanUnicodeEscape(); ok {
			return v, true, nil
		}
		if p.flags.Unicode() {
			return 0, false, p.errorf(start, "invalid unicode escape")
		}
		p.pos++
		return 'u', true, nil
	}

	if isSyntaxChar(r) || r == '/' || (inClass && r == '-') {
		p.pos += size
		return r, true, nil
	}
	if p.flags.Unicode() {
		return 0, false, p.errorf(start, "invalid escape")
	}
	p.pos += size
	if r > charset.MaxCodeUnit {
		return 0, false, nil
	}
	return r, true, nil
}

// scanUnicodeEscape matches \uHHHH, a surrogate pair of them, or \u{H...}
// in unicode mode. p.pos is at the 'u'.
func (p *state) scanUnicodeEscape() (rune, bool) {
	i := p.pos + 1
	if p.flags.Unicode() && i < len(p.src) && p.src[i] == '{' {
		end := strings.IndexByte(p.src[i:], '}')
		if end < 2 {
			return 0, false
		}
		v, ok := scanHex(p.src, i+1, end-1)
		if !ok || v > charset.MaxUnicode {
			return 0, false
		}
		p.pos = i + end + 1
		return v, true
	}

	v, ok := scanHex(p.src, i, 4)
	if !ok {
		return 0, false
	}
	p.pos = i + 4
	if p.flags.Unicode() && v >= 0xD800 && v <= 0xDBFF && strings.HasPrefix(p.src[p.pos:], `\u`) {
		if lo, ok := scanHex(p.src, p.pos+2, 4); ok && lo >= 0xDC00 && lo <= 0xDFFF {
			p.pos += 6
			return (v-0xD800)<<10 + (lo - 0xDC00) + 0x10000, true
		}
	}
	return v, true
}

func scanHex(src string, i, n int) (rune, bool) {
	if n <= 0 || i+n > len(src) {
		return 0, false
	}
	v := rune(0)
	for j := i; j < i+n; j++ {
		d, ok := hexValue(src[j])
		if !ok {
			return 0, false
		}
		v = v*16 + d
		if v > charset.MaxUnicode {
			return 0, false
		}
	}
	return v, true
}

func (p *state) literal(start int, r rune) *Node {
	n := p.node(NodeLiteral, start, nil)
	n.Fields.Char = r
	return n
}

// node builds a node spanning [start, p.pos).
func (p *state) node(typ NodeType, start int, children []*Node) *Node {
	return &Node{
		Type:     typ,
		Pos:      start,
		End:      p.pos,
		Raw:      p.src[start:p.pos],
		Children: children,
	}
}

func (p *state) more() bool { return p.pos < len(p.src) }

func (p *state) peek() byte { return p.src[p.pos] }

func (p *state) errorf(pos int, reason string) error {
	return &SyntaxError{Pos: pos, Reason: reason}
}

// countGroups returns the number of capturing groups in src and the names
// of the named ones. Backreferences need both before parsing reaches the
// group they refer to.
func countGroups(src string) (int, map[string]bool) {
	n, names, inClass := 0, map[string]bool{}, false
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '(':
			if inClass {
				continue
			}
			rest := src[i+1:]
			switch {
			case !strings.HasPrefix(rest, "?"):
				n++
			case strings.HasPrefix(rest, "?<") && !strings.HasPrefix(rest, "?<=") && !strings.HasPrefix(rest, "?<!"):
				n++
				if end := strings.IndexByte(rest, '>'); end > 2 {
					names[rest[2:end]] = true
				}
			}
		}
	}
	return n, names
}

// ShorthandMembers returns the code points a class escape contributes to a
// character class under flags, before class-level case folding.
func ShorthandMembers(k ShorthandKind, flags Flags) charset.Set {
	var base charset.Set
	switch k.Base() {
	case ShorthandDigit:
		base = charset.Digit
	case ShorthandSpace:
		base = charset.Space
	case ShorthandWord:
		base = charset.WordChars(flags.Has(FlagIgnoreCase) && flags.Unicode())
	}
	if k.Negated() {
		limit := charset.MaxCodeUnit
		if flags.Unicode() {
			limit = charset.MaxUnicode
		}
		return base.Complement(limit)
	}
	return base
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isASCIILetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isShorthandLetter(r rune) bool {
	_, ok := shorthandByLetter(r)
	return ok
}

// isSyntaxChar reports whether r is one of ^ $ \ . * + ? ( ) [ ] { } |.
func isSyntaxChar(r rune) bool {
	return r < utf8.RuneSelf && strings.ContainsRune(`^$\.*+?()[]{}|`, r)
}

func isIdentRune(r rune, first bool) bool {
	switch {
	case r == '$' || r == '_':
		return true
	case r < utf8.RuneSelf:
		return isASCIILetter(byte(r)) || (!first && isDigit(byte(r)))
	}
	return r > utf8.RuneSelf
}

func hexValue(c byte) (rune, bool) {
	switch {
	case c >= '0' && c <= '9':
		return rune(c - '0'), true
	case c >= 'a' && c <= 'f':
		return rune(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return rune(c-'A') + 10, true
	}
	return 0, false
}
