// Package charset implements sets of code points as sorted range lists.
//
// Sets are values: every operation returns a new Set and never modifies its
// receiver. The zero Set is empty.
package charset

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Domain limits. Outside unicode mode patterns match UTF-16 code units.
const (
	MaxCodeUnit rune = 0xFFFF
	MaxUnicode  rune = 0x10FFFF
)

// Range is an inclusive range of code points.
type Range struct {
	Lo, Hi rune
}

// Set is a normalized set of code points.
type Set struct {
	ranges []Range
}

// New returns the set containing every code point in ranges.
func New(ranges ...Range) Set {
	return Set{ranges: Normalize(ranges)}
}

// Of returns the set containing exactly the given code points.
func Of(runes ...rune) Set {
	rs := make([]Range, len(runes))
	for i, r := range runes {
		rs[i] = Range{r, r}
	}
	return New(rs...)
}

// Normalize sorts ranges and merges overlapping or adjacent ones. Ranges
// with Lo > Hi are dropped. The input slice is not modified.
func Normalize(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	rs := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if r.Lo <= r.Hi {
			rs = append(rs, r)
		}
	}
	slices.SortFunc(rs, func(a, b Range) int {
		if c := cmp.Compare(a.Lo, b.Lo); c != 0 {
			return c
		}
		return cmp.Compare(a.Hi, b.Hi)
	})

	out := rs[:0]
	for _, r := range rs {
		if n := len(out); n > 0 && r.Lo <= out[n-1].Hi+1 {
			out[n-1].Hi = max(out[n-1].Hi, r.Hi)
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Ranges returns a copy of the normalized ranges.
func (s Set) Ranges() []Range {
	return slices.Clone(s.ranges)
}

// IsEmpty reports whether the set has no members.
func (s Set) IsEmpty() bool {
	return len(s.ranges) == 0
}

// Len returns the number of code points in the set.
func (s Set) Len() int {
	n := 0
	for _, r := range s.ranges {
		n += int(r.Hi-r.Lo) + 1
	}
	return n
}

// Contains reports whether r is a member of the set.
func (s Set) Contains(r rune) bool {
	_, found := slices.BinarySearchFunc(s.ranges, r, func(rg Range, t rune) int {
		switch {
		case rg.Hi < t:
			return -1
		case rg.Lo > t:
			return 1
		}
		return 0
	})
	return found
}

// Equal reports whether both sets have exactly the same members.
func (s Set) Equal(o Set) bool {
	return slices.Equal(s.ranges, o.ranges)
}

// SubsetOf reports whether every member of s is a member of o.
func (s Set) SubsetOf(o Set) bool {
	return s.Subtract(o).IsEmpty()
}

// Union returns the members of either set.
func (s Set) Union(o Set) Set {
	rs := make([]Range, 0, len(s.ranges)+len(o.ranges))
	rs = append(rs, s.ranges...)
	rs = append(rs, o.ranges...)
	return New(rs...)
}

// Complement returns every code point in [0, limit] not in s.
func (s Set) Complement(limit rune) Set {
	var out []Range
	next := rune(0)
	for _, r := range s.ranges {
		if r.Lo > limit {
			break
		}
		if r.Lo > next {
			out = append(out, Range{next, r.Lo - 1})
		}
		next = r.Hi + 1
	}
	if next <= limit {
		out = append(out, Range{next, limit})
	}
	return Set{ranges: out}
}

// Intersect returns the members of both sets.
func (s Set) Intersect(o Set) Set {
	var out []Range
	i, j := 0, 0
	for i < len(s.ranges) && j < len(o.ranges) {
		a, b := s.ranges[i], o.ranges[j]
		lo, hi := max(a.Lo, b.Lo), min(a.Hi, b.Hi)
		if lo <= hi {
			out = append(out, Range{lo, hi})
		}
		if a.Hi < b.Hi {
			i++
		} else {
			j++
		}
	}
	return Set{ranges: out}
}

// Subtract returns the members of s that are not in o.
func (s Set) Subtract(o Set) Set {
	if len(o.ranges) == 0 {
		return s
	}
	return s.Intersect(o.Complement(MaxUnicode))
}

// String renders the set for debugging, e.g. "[0-9A-Z_a-z]".
func (s Set) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for _, r := range s.ranges {
		writeDebugRune(&b, r.Lo)
		if r.Hi != r.Lo {
			b.WriteByte('-')
			writeDebugRune(&b, r.Hi)
		}
	}
	b.WriteByte(']')
	return b.String()
}

func writeDebugRune(b *strings.Builder, r rune) {
	if r > ' ' && r < 0x7f && r != '-' && r != ']' && r != '\\' {
		b.WriteRune(r)
		return
	}
	b.WriteString(`\u{`)
	b.WriteString(strconv.FormatInt(int64(r), 16))
	b.WriteByte('}')
}
