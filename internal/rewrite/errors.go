package rewrite

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrRegistration = errors.New("pass registration failed")
	ErrInvariant    = errors.New("graph invariant violated after rewrite")
	ErrNoFixpoint   = errors.New("rewrite limit reached before fixpoint")
)

// RegistrationError reports a malformed pass. It is raised while the
// registry is built, before any graph is processed.
type RegistrationError struct {
	Pass string // Name of the offending pass
	Err  error  // Underlying cause
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("%v: pass %q: %v", ErrRegistration, e.Pass, e.Err)
}

// Unwrap returns both the sentinel and the cause.
func (e *RegistrationError) Unwrap() []error {
	return []error{ErrRegistration, e.Err}
}

// InvariantError reports a graph left inconsistent by a rewrite. It signals
// an engine or pass defect, never a non-matching input.
type InvariantError struct {
	Pass   string // Pass that performed the rewrite
	Anchor string // Name of the target operator the pattern root matched
	Err    error  // Underlying cause, usually an ir sentinel
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("%v: pass %q at %q: %v", ErrInvariant, e.Pass, e.Anchor, e.Err)
}

// Unwrap returns both the sentinel and the cause.
func (e *InvariantError) Unwrap() []error {
	return []error{ErrInvariant, e.Err}
}

func registrationErrorf(pass, format string, args ...any) error {
	return &RegistrationError{Pass: pass, Err: fmt.Errorf(format, args...)}
}
