package optimizer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/donaldgifford/reopt/internal/charset"
	"github.com/donaldgifford/reopt/internal/parser"
)

// ErrEquivalenceRejected is wrapped by every error Guard.Check returns.
var ErrEquivalenceRejected = errors.New("equivalence not proven")

// Guard decides whether a replacement span matches exactly the strings the
// original span matches. It fails closed: anything it cannot model is
// rejected unless both spans are structurally identical.
type Guard struct {
	Flags parser.Flags
}

func reject(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrEquivalenceRejected, fmt.Sprintf(format, args...))
}

// Check returns nil when repl is proven equivalent to orig.
func (g Guard) Check(orig, repl []*parser.Node) error {
	if parser.ContainsUnsupported(orig...) || parser.ContainsUnsupported(repl...) {
		return reject("span contains an unsupported construct")
	}
	if !slices.Equal(parser.Captures(orig...), parser.Captures(repl...)) {
		return reject("capture groups differ")
	}

	a, okA := g.segments(orig)
	b, okB := g.segments(repl)
	if !okA || !okB {
		if identical(orig, repl) {
			return nil
		}
		return reject("span is not a run of single-character terms")
	}

	a, b = collapse(a), collapse(b)
	if len(a) != len(b) {
		return reject("segment count %d != %d", len(a), len(b))
	}
	for i := range a {
		if err := a[i].compare(b[i]); err != nil {
			return reject("segment %d: %v", i, err)
		}
	}

	minA, maxA := bounds(a)
	minB, maxB := bounds(b)
	if minA != minB || maxA != maxB {
		return reject("match length {%d,%d} != {%d,%d}", minA, maxA, minB, maxB)
	}
	return nil
}

type mode int

const (
	modeFixed mode = iota
	modeGreedy
	modeLazy
)

// segment is a single-character term repeated min..max times.
type segment struct {
	set      charset.Set
	min, max int
	mode     mode
}

func (s segment) compare(o segment) error {
	switch {
	case !s.set.Equal(o.set):
		return fmt.Errorf("character sets %v and %v differ", s.set, o.set)
	case s.min != o.min || s.max != o.max:
		return fmt.Errorf("counts {%d,%d} and {%d,%d} differ", s.min, s.max, o.min, o.max)
	case s.mode != o.mode:
		return errors.New("greediness differs")
	}
	return nil
}

// segments flattens a span of atoms and quantified atoms. It reports false
// when the span holds anything else.
func (g Guard) segments(span []*parser.Node) ([]segment, bool) {
	out := make([]segment, 0, len(span))
	for _, n := range span {
		seg := segment{min: 1, max: 1}
		atom := n
		if n.Type == parser.NodeQuantified {
			atom = n.Child()
			seg.min, seg.max = n.Fields.Min, n.Fields.Max
			if seg.min != seg.max {
				seg.mode = modeLazy
				if n.Fields.Greedy {
					seg.mode = modeGreedy
				}
			}
		}
		if atom == nil || !atom.IsAtom() {
			return nil, false
		}
		set, ok := Effective(atom, g.Flags)
		if !ok {
			return nil, false
		}
		seg.set = set
		out = append(out, seg)
	}
	return out, true
}

// collapse merges adjacent segments over the same set whose repetition
// modes are compatible: fixed counts combine with anything, variable counts
// only with the same greediness.
func collapse(segs []segment) []segment {
	var out []segment
	for _, s := range segs {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.set.Equal(s.set) && compatible(last.mode, s.mode) {
				last.min = addCount(last.min, s.min)
				last.max = addCount(last.max, s.max)
				if last.mode == modeFixed {
					last.mode = s.mode
				}
				if last.min == last.max {
					last.mode = modeFixed
				}
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func compatible(a, b mode) bool {
	return a == modeFixed || b == modeFixed || a == b
}

// addCount adds repetition bounds; Unbounded absorbs.
func addCount(a, b int) int {
	if a == parser.Unbounded || b == parser.Unbounded {
		return parser.Unbounded
	}
	return a + b
}

func bounds(segs []segment) (lo, hi int) {
	for _, s := range segs {
		lo = addCount(lo, s.min)
		hi = addCount(hi, s.max)
	}
	return lo, hi
}

func identical(a, b []*parser.Node) bool {
	return slices.EqualFunc(a, b, parser.Equal)
}
