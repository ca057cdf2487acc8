// Package diff renders unified diffs of rewritten literal lists.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextLines is the number of unchanged lines shown around each change.
const contextLines = 3

// line is one line of either text, tagged with the chunk it came from.
type line struct {
	op   diffmatchpatch.Operation
	text string
}

// Unified generates a unified diff between oldText and newText.
// Returns an empty string if the inputs are identical.
func Unified(filename, oldText, newText string) string {
	if oldText == newText {
		return ""
	}

	lines := diffLines(oldText, newText)
	spans := hunkSpans(lines)
	if len(spans) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n", filename)
	fmt.Fprintf(&b, "+++ b/%s\n", filename)

	oldNo, newNo, next := 1, 1, 0
	for _, s := range spans {
		for ; next < s.start; next++ {
			advance(lines[next].op, &oldNo, &newNo)
		}
		writeHunk(&b, lines[s.start:s.end], oldNo, newNo)
	}
	return b.String()
}

// diffLines runs a line-mode diff and splits every chunk into its lines.
// Deleted lines of a change come before the inserted ones.
func diffLines(oldText, newText string) []line {
	dmp := diffmatchpatch.New()
	a, b, table := dmp.DiffLinesToChars(oldText, newText)
	chunks := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), table)

	var out []line
	for _, c := range chunks {
		rest := c.Text
		for rest != "" {
			n := strings.IndexByte(rest, '\n') + 1
			if n == 0 {
				n = len(rest)
			}
			out = append(out, line{op: c.Type, text: rest[:n]})
			rest = rest[n:]
		}
	}
	return out
}

// span is a half-open range of lines printed as one hunk.
type span struct{ start, end int }

// hunkSpans covers every changed line with contextLines of unchanged lines
// on each side. Spans that touch or overlap are joined.
func hunkSpans(lines []line) []span {
	var out []span
	for i, l := range lines {
		if l.op == diffmatchpatch.DiffEqual {
			continue
		}
		lo := max(i-contextLines, 0)
		hi := min(i+contextLines+1, len(lines))
		if n := len(out); n > 0 && lo <= out[n-1].end {
			out[n-1].end = hi
			continue
		}
		out = append(out, span{lo, hi})
	}
	return out
}

// advance moves the old and new line numbers past one line.
func advance(op diffmatchpatch.Operation, oldNo, newNo *int) {
	switch op {
	case diffmatchpatch.DiffEqual:
		*oldNo++
		*newNo++
	case diffmatchpatch.DiffDelete:
		*oldNo++
	case diffmatchpatch.DiffInsert:
		*newNo++
	}
}

// writeHunk writes one hunk whose first line is oldNo in the old text and
// newNo in the new one. An empty side is numbered from the line before it.
func writeHunk(b *strings.Builder, lines []line, oldNo, newNo int) {
	oldEnd, newEnd := oldNo, newNo
	for _, l := range lines {
		advance(l.op, &oldEnd, &newEnd)
	}
	oldCount, newCount := oldEnd-oldNo, newEnd-newNo
	if oldCount == 0 {
		oldNo--
	}
	if newCount == 0 {
		newNo--
	}
	fmt.Fprintf(b, "@@ -%d,%d +%d,%d @@\n", oldNo, oldCount, newNo, newCount)

	for _, l := range lines {
		switch l.op {
		case diffmatchpatch.DiffEqual:
			b.WriteByte(' ')
		case diffmatchpatch.DiffDelete:
			b.WriteByte('-')
		case diffmatchpatch.DiffInsert:
			b.WriteByte('+')
		}
		b.WriteString(l.text)
		if !strings.HasSuffix(l.text, "\n") {
			b.WriteByte('\n')
		}
	}
}
