package ir

import (
	"errors"
	"fmt"
)

// Parse errors.
var (
	ErrBadMagic       = errors.New("bad magic number")
	ErrCountMismatch  = errors.New("count mismatch")
	ErrMalformedLine  = errors.New("malformed line")
	ErrBadLiteral     = errors.New("unknown literal syntax")
	ErrUndefinedValue = errors.New("undefined value")
	ErrDuplicateName  = errors.New("duplicate name")
)

// Graph invariant errors.
var (
	ErrDangling = errors.New("dangling reference")
	ErrProducer = errors.New("producer mismatch")
	ErrCycle    = errors.New("graph contains a cycle")
)

// ParseError reports malformed IR text. It is always fatal: no partial graph
// accompanies it.
type ParseError struct {
	Line int   // 1-based line number, 0 when the error is not tied to a line
	Err  error // Underlying cause, wraps one of the Err* sentinels
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("ir: parse error at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("ir: parse error: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}
