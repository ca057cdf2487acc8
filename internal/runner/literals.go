package runner

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/donaldgifford/reopt/pkg/regexopt"
)

// Finding is an optimizable literal in a literal list.
type Finding struct {
	Line   int // 1-based.
	Result regexopt.Result
}

// Rewrite optimizes every literal line of a literal list and returns the
// rewritten text and one Finding per changed literal. Blank lines, comment
// lines starting with #, and lines that do not parse are kept verbatim.
// Leading and trailing whitespace and the written flag order are preserved.
func Rewrite(name, input string, opt *regexopt.Optimizer, log zerolog.Logger) (string, []Finding) {
	var (
		b        strings.Builder
		findings []Finding
	)
	b.Grow(len(input))

	for i, line := range strings.SplitAfter(input, "\n") {
		body, eol := splitEOL(line)
		lit := strings.TrimSpace(body)
		if lit == "" || strings.HasPrefix(lit, "#") {
			b.WriteString(line)
			continue
		}

		res, err := opt.OptimizeLiteral(lit)
		switch {
		case errors.Is(err, regexopt.ErrInternal):
			log.Error().Str("file", name).Int("line", i+1).Err(err).Msg("optimizer failed")
		case err != nil:
			log.Info().Str("file", name).Int("line", i+1).Err(err).Msg("skipping literal")
		}
		if err != nil || !res.Changed {
			b.WriteString(line)
			continue
		}

		start := strings.Index(body, lit)
		b.WriteString(body[:start])
		b.WriteString("/" + res.Optimized + "/" + res.Flags)
		b.WriteString(body[start+len(lit):])
		b.WriteString(eol)
		findings = append(findings, Finding{Line: i + 1, Result: res})
	}
	return b.String(), findings
}

// splitEOL separates a line from its terminator ("\n", "\r\n" or none).
func splitEOL(line string) (body, eol string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	}
	return line, ""
}
