package charset

import "unicode"

// Character sets of the ECMAScript class escapes.
var (
	// Digit is the member set of \d.
	Digit = New(Range{'0', '9'})
	// Word is the member set of \w outside unicode ignore-case mode.
	Word = New(Range{'0', '9'}, Range{'A', 'Z'}, Range{'_', '_'}, Range{'a', 'z'})
	// LineTerminators are the code points . excludes without the s flag.
	LineTerminators = New(Range{'\n', '\n'}, Range{'\r', '\r'}, Range{0x2028, 0x2029})
	// Space is the member set of \s: WhiteSpace plus LineTerminator.
	Space = buildSpace()
)

func buildSpace() Set {
	rs := []Range{
		{'\t', '\r'}, // tab, LF, VT, FF, CR
		{0xFEFF, 0xFEFF},
	}
	for _, r16 := range unicode.Zs.R16 {
		for r := rune(r16.Lo); r <= rune(r16.Hi); r += rune(r16.Stride) {
			rs = append(rs, Range{r, r})
		}
	}
	return New(rs...).Union(LineTerminators)
}

// WordChars returns the member set of \w. In unicode ignore-case mode the set
// also contains every code point whose simple case fold is a word character
// (U+017F and U+212A).
func WordChars(unicodeIgnoreCase bool) Set {
	if unicodeIgnoreCase {
		return Word.Fold(FoldSimple)
	}
	return Word
}
