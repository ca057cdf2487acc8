package parser

import (
	"fmt"
	"strings"
)

// Flags is the set of flags attached to a pattern literal.
type Flags uint16

const (
	FlagHasIndices  Flags = 1 << iota // d
	FlagGlobal                        // g
	FlagIgnoreCase                    // i
	FlagMultiline                     // m
	FlagDotAll                        // s
	FlagUnicode                       // u
	FlagUnicodeSets                   // v
	FlagSticky                        // y
)

// flagLetters is in canonical source order.
var flagLetters = []struct {
	flag   Flags
	letter byte
}{
	{FlagHasIndices, 'd'},
	{FlagGlobal, 'g'},
	{FlagIgnoreCase, 'i'},
	{FlagMultiline, 'm'},
	{FlagDotAll, 's'},
	{FlagUnicode, 'u'},
	{FlagUnicodeSets, 'v'},
	{FlagSticky, 'y'},
}

// ParseFlags parses a flag string such as "gimu". Unknown or repeated
// letters, and u together with v, are syntax errors.
func ParseFlags(s string) (Flags, error) {
	var f Flags
	for i := 0; i < len(s); i++ {
		bit, ok := flagByLetter(s[i])
		if !ok {
			return 0, &SyntaxError{Pos: i, Reason: fmt.Sprintf("unknown flag %q", s[i])}
		}
		if f&bit != 0 {
			return 0, &SyntaxError{Pos: i, Reason: fmt.Sprintf("duplicate flag %q", s[i])}
		}
		f |= bit
	}
	if f.Has(FlagUnicode) && f.Has(FlagUnicodeSets) {
		return 0, &SyntaxError{Pos: 0, Reason: "flags u and v are mutually exclusive"}
	}
	return f, nil
}

func flagByLetter(c byte) (Flags, bool) {
	for _, fl := range flagLetters {
		if fl.letter == c {
			return fl.flag, true
		}
	}
	return 0, false
}

// Has reports whether every flag in x is set.
func (f Flags) Has(x Flags) bool { return f&x == x }

// Unicode reports whether the pattern is parsed in unicode mode (u or v).
func (f Flags) Unicode() bool { return f&(FlagUnicode|FlagUnicodeSets) != 0 }

// String returns the flags in canonical order, e.g. "gim".
func (f Flags) String() string {
	var b strings.Builder
	for _, fl := range flagLetters {
		if f&fl.flag != 0 {
			b.WriteByte(fl.letter)
		}
	}
	return b.String()
}

// Pattern is an immutable pattern literal: its source between the slashes
// and its flags.
type Pattern struct {
	Source string
	Flags  Flags
}

// String renders the pattern as a literal, e.g. "/a+/g".
func (p Pattern) String() string {
	return "/" + p.Source + "/" + p.Flags.String()
}

// ParseLiteral splits a "/source/flags" literal. The closing slash is the
// first unescaped slash outside a character class.
func ParseLiteral(lit string) (Pattern, error) {
	if len(lit) < 2 || lit[0] != '/' {
		return Pattern{}, &SyntaxError{Pos: 0, Reason: "literal must start with /"}
	}

	inClass := false
	for i := 1; i < len(lit); i++ {
		switch lit[i] {
		case '\\':
			i++
		case '\n', '\r':
			return Pattern{}, &SyntaxError{Pos: i, Reason: "line terminator in literal"}
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if inClass {
				continue
			}
			if i == 1 {
				return Pattern{}, &SyntaxError{Pos: i, Reason: "empty literal"}
			}
			flags, err := ParseFlags(lit[i+1:])
			if err != nil {
				if se, ok := err.(*SyntaxError); ok {
					se.Pos += i + 1
				}
				return Pattern{}, err
			}
			return Pattern{Source: lit[1:i], Flags: flags}, nil
		}
	}
	return Pattern{}, &SyntaxError{Pos: len(lit), Reason: "unterminated literal"}
}
