package charset

import (
	"slices"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Folding selects the case-equivalence relation used for ignore-case
// matching.
type Folding int

const (
	// FoldNone disables case folding.
	FoldNone Folding = iota
	// FoldSimple uses Unicode simple case folding (unicode mode).
	FoldSimple
	// FoldUpper uses the legacy upper-case canonicalization: a code unit
	// maps to its full upper-case mapping when that is a single code unit,
	// unless it would map a non-ASCII code unit onto ASCII.
	FoldUpper
)

// foldTables holds the runes that have at least one case-equivalent partner
// under each folding, sorted ascending.
type foldTables struct {
	simple []rune
	upper  []rune
	// canon maps a code unit to its legacy canonical form. Code units
	// missing from it are their own canonical form.
	canon map[rune]rune
	// upperClass maps a canonical upper-case code unit to its members.
	upperClass map[rune][]rune
}

var (
	tablesOnce sync.Once
	tables     foldTables
)

func loadTables() *foldTables {
	tablesOnce.Do(func() {
		tables.canon = make(map[rune]rune)
		tables.upperClass = make(map[rune][]rune)
		seen := make(map[rune]bool)
		upper := cases.Upper(language.Und)
		for _, cr := range unicode.CaseRanges {
			for r := rune(cr.Lo); r <= rune(cr.Hi); r++ {
				addSimple(&tables, seen, r)
				if r <= MaxCodeUnit {
					addUpper(&tables, upper, r)
				}
			}
		}
		slices.Sort(tables.simple)
		for c, members := range tables.upperClass {
			slices.Sort(members)
			members = slices.Compact(members)
			if len(members) < 2 {
				delete(tables.upperClass, c)
				continue
			}
			tables.upperClass[c] = members
			tables.upper = append(tables.upper, members...)
		}
		slices.Sort(tables.upper)
		tables.upper = slices.Compact(tables.upper)
	})
	return &tables
}

func addSimple(t *foldTables, seen map[rune]bool, r rune) {
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if !seen[f] {
			seen[f] = true
			t.simple = append(t.simple, f)
		}
	}
	if unicode.SimpleFold(r) != r && !seen[r] {
		seen[r] = true
		t.simple = append(t.simple, r)
	}
}

func addUpper(t *foldTables, upper cases.Caser, r rune) {
	c := canonUpper(upper, r)
	if c != r {
		t.canon[r] = c
	}
	t.upperClass[c] = append(t.upperClass[c], r)
	if c != r {
		t.upperClass[c] = append(t.upperClass[c], c)
	}
}

// canonUpper is the legacy ignore-case canonicalization of one code unit.
// A full upper-case mapping longer than one code unit, such as U+1F80 to
// U+1F08 U+0399, leaves the code unit unchanged.
func canonUpper(upper cases.Caser, r rune) rune {
	mapped := []rune(upper.String(string(r)))
	if len(mapped) != 1 || mapped[0] > MaxCodeUnit {
		return r
	}
	u := mapped[0]
	if r >= 0x80 && u < 0x80 {
		return r
	}
	return u
}

// Orbit returns every code point case-equivalent to r under f, r included.
func Orbit(r rune, f Folding) []rune {
	switch f {
	case FoldSimple:
		out := []rune{r}
		for x := unicode.SimpleFold(r); x != r; x = unicode.SimpleFold(x) {
			out = append(out, x)
		}
		slices.Sort(out)
		return out
	case FoldUpper:
		if r > MaxCodeUnit {
			return []rune{r}
		}
		t := loadTables()
		c, ok := t.canon[r]
		if !ok {
			c = r
		}
		if members, ok := t.upperClass[c]; ok {
			return slices.Clone(members)
		}
	}
	return []rune{r}
}

// Fold returns the closure of s under the case equivalence f: every code
// point that is case-equivalent to some member of s.
func (s Set) Fold(f Folding) Set {
	var foldable []rune
	switch f {
	case FoldSimple:
		foldable = loadTables().simple
	case FoldUpper:
		foldable = loadTables().upper
	default:
		return s
	}

	var extra []Range
	for _, rg := range s.ranges {
		i, _ := slices.BinarySearch(foldable, rg.Lo)
		for ; i < len(foldable) && foldable[i] <= rg.Hi; i++ {
			for _, o := range Orbit(foldable[i], f) {
				if !s.Contains(o) {
					extra = append(extra, Range{o, o})
				}
			}
		}
	}
	if len(extra) == 0 {
		return s
	}
	return s.Union(New(extra...))
}
