package rewrite

import "github.com/born-ml/irpass/internal/ir"

// Predicate refines a structural match. Returning false rejects the match;
// the graph is left untouched and scanning continues.
type Predicate func(captured Captured) bool

// WriteFunc fills the canonical operator's attributes from the captured
// bindings. It runs only after the Predicate accepted, so it must not fail.
type WriteFunc func(params ir.Params, captured Captured)

// Pass is one rewrite rule. It is plain data: the registry compiles it once
// and shares it read-only across every graph.
//
// Pattern and Replacement are IR text. Boundary values are connected by
// name: the Replacement's pnnx.Input/pnnx.Output markers refer to the
// Pattern's boundary value names. Without a Replacement a single operator of
// Type is written; its inputs are the values bound to the Pattern's input
// markers and its attributes come from Write, or are the captured bindings
// verbatim when Write is nil. With a single-operator Replacement, Write runs
// on that operator's attributes after %name substitution.
type Pass struct {
	Name        string
	Type        string
	Pattern     string
	Replacement string
	Predicate   Predicate
	Write       WriteFunc
	Priority    int
}

// compiledPass is a registered Pass with its parsed patterns.
type compiledPass struct {
	Pass
	match   *pattern
	replace *pattern
}

// accepts runs the optional predicate.
func (cp *compiledPass) accepts(c Captured) bool {
	return cp.Predicate == nil || cp.Predicate(c)
}
