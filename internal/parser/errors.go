package parser

import (
	"errors"
	"fmt"
)

// ErrLimitExceeded is wrapped by every *LimitError.
var ErrLimitExceeded = errors.New("limit exceeded")

// SyntaxError reports a pattern that is not valid ECMAScript syntax.
type SyntaxError struct {
	Pos    int // Byte offset where parsing failed.
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid pattern at offset %d: %s", e.Pos, e.Reason)
}

// LimitError reports a pattern rejected by a size or nesting guard.
type LimitError struct {
	Pos   int
	Limit string // "depth" or "length".
	Max   int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("pattern %s exceeds %d at offset %d", e.Limit, e.Max, e.Pos)
}

func (e *LimitError) Unwrap() error { return ErrLimitExceeded }
