package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []Range
		want []Range
	}{
		{"empty", nil, nil},
		{"single", []Range{{'a', 'c'}}, []Range{{'a', 'c'}}},
		{"unsorted", []Range{{'x', 'z'}, {'a', 'c'}}, []Range{{'a', 'c'}, {'x', 'z'}}},
		{"overlap", []Range{{'a', 'm'}, {'f', 'z'}}, []Range{{'a', 'z'}}},
		{"adjacent", []Range{{'a', 'c'}, {'d', 'f'}}, []Range{{'a', 'f'}}},
		{"contained", []Range{{'a', 'z'}, {'c', 'd'}}, []Range{{'a', 'z'}}},
		{"inverted dropped", []Range{{'z', 'a'}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := []Range{{'x', 'z'}, {'a', 'c'}}
	Normalize(in)
	assert.Equal(t, []Range{{'x', 'z'}, {'a', 'c'}}, in)
}

func TestSetAlgebra(t *testing.T) {
	lower := New(Range{'a', 'z'})
	vowels := Of('a', 'e', 'i', 'o', 'u')

	assert.True(t, vowels.SubsetOf(lower))
	assert.False(t, lower.SubsetOf(vowels))
	assert.Equal(t, 26, lower.Len())
	assert.Equal(t, 21, lower.Subtract(vowels).Len())
	assert.True(t, lower.Union(vowels).Equal(lower))
	assert.True(t, lower.Intersect(vowels).Equal(vowels))
	assert.True(t, lower.Contains('q'))
	assert.False(t, lower.Contains('Q'))
}

func TestComplement(t *testing.T) {
	s := New(Range{'0', '9'})
	c := s.Complement(MaxCodeUnit)

	require.Equal(t, []Range{{0, '0' - 1}, {'9' + 1, MaxCodeUnit}}, c.Ranges())
	assert.True(t, c.Complement(MaxCodeUnit).Equal(s))
	assert.True(t, Set{}.Complement(MaxUnicode).Equal(New(Range{0, MaxUnicode})))
	assert.True(t, New(Range{0, MaxUnicode}).Complement(MaxUnicode).IsEmpty())
}

func TestFoldUpper(t *testing.T) {
	tests := []struct {
		name string
		in   Set
		want Set
	}{
		{"ascii letter", Of('a'), Of('A', 'a')},
		{"digits unchanged", Digit, Digit},
		{"word closed", Word, Word},
		{"long s stays alone", Of(0x017F), Of(0x017F)},
		{"kelvin stays alone", Of(0x212A), Of(0x212A)},
		{"greek sigma", Of(0x03C3), Of(0x03A3, 0x03C2, 0x03C3)},
		// Full upper-case mappings longer than one code unit keep the
		// character to itself.
		{"alpha with psili and ypogegrammeni", Of(0x1F80), Of(0x1F80)},
		{"alpha with psili and prosgegrammeni", Of(0x1F88), Of(0x1F88)},
		{"alpha with ypogegrammeni", Of(0x1FB3), Of(0x1FB3)},
		{"alpha with prosgegrammeni", Of(0x1FBC), Of(0x1FBC)},
		{"ligature ff", Of(0xFB00), Of(0xFB00)},
		{"iota with dialytika and tonos", Of(0x0390), Of(0x0390)},
		{"sharp s", Of(0x00DF), Of(0x00DF)},
		{"plain alpha still folds", Of(0x03B1), Of(0x0391, 0x03B1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Fold(FoldUpper)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestFoldSimple(t *testing.T) {
	tests := []struct {
		name string
		in   Set
		want Set
	}{
		{"ascii letter", Of('a'), Of('A', 'a')},
		{"s picks up long s", Of('s'), Of('S', 's', 0x017F)},
		{"k picks up kelvin", Of('k'), Of('K', 'k', 0x212A)},
		{"word gains two", Word, Word.Union(Of(0x017F, 0x212A))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Fold(FoldSimple)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestOrbitUpper(t *testing.T) {
	assert.Equal(t, []rune{'A', 'a'}, Orbit('a', FoldUpper))
	assert.Equal(t, []rune{0x1F80}, Orbit(0x1F80, FoldUpper))
	assert.Equal(t, []rune{0x1F88}, Orbit(0x1F88, FoldUpper))
	// Simple folding still pairs them in unicode mode.
	assert.Equal(t, []rune{0x1F80, 0x1F88}, Orbit(0x1F80, FoldSimple))
}

func TestFoldNone(t *testing.T) {
	assert.True(t, Of('a').Fold(FoldNone).Equal(Of('a')))
}

func TestWordChars(t *testing.T) {
	assert.True(t, WordChars(false).Equal(Word))
	assert.True(t, WordChars(true).Contains(0x017F))
	assert.True(t, WordChars(true).Contains(0x212A))
	assert.Equal(t, Word.Len()+2, WordChars(true).Len())
}

func TestSpace(t *testing.T) {
	for _, r := range []rune{'\t', '\n', '\v', '\f', '\r', ' ', 0xA0, 0x1680, 0x2000, 0x200A, 0x2028, 0x2029, 0x202F, 0x205F, 0x3000, 0xFEFF} {
		assert.True(t, Space.Contains(r), "missing %U", r)
	}
	for _, r := range []rune{'a', 0x200B, 0x180E, 0x85} {
		assert.False(t, Space.Contains(r), "unexpected %U", r)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "[0-9A-Z_a-z]", Word.String())
	assert.Equal(t, `[\u{a}\u{d}\u{2028}-\u{2029}]`, LineTerminators.String())
}
