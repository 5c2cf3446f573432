package rewrite

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Registry is an ordered, immutable set of compiled passes. Passes run in
// descending priority, ties in registration order. A Registry is safe for
// concurrent use by any number of goroutines, each normalizing its own graph.
type Registry struct {
	passes []*compiledPass
}

// NewRegistry compiles passes into a registry. Every pattern is parsed and
// checked here, so a malformed pass fails at start-up with a
// RegistrationError rather than while a graph is being processed.
func NewRegistry(passes ...Pass) (*Registry, error) {
	r := &Registry{passes: make([]*compiledPass, 0, len(passes))}
	seen := make(map[string]bool, len(passes))

	for _, p := range passes {
		if p.Name == "" {
			return nil, registrationErrorf(p.Name, "pass has no name")
		}
		if seen[p.Name] {
			return nil, registrationErrorf(p.Name, "duplicate pass name")
		}
		seen[p.Name] = true

		cp, err := compilePass(p)
		if err != nil {
			return nil, err
		}
		r.passes = append(r.passes, cp)
	}

	sort.SliceStable(r.passes, func(i, j int) bool {
		return r.passes[i].Priority > r.passes[j].Priority
	})
	return r, nil
}

func compilePass(p Pass) (*compiledPass, error) {
	match, err := compileMatch(p.Pattern)
	if err != nil {
		return nil, &RegistrationError{Pass: p.Name, Err: fmt.Errorf("pattern: %w", err)}
	}
	cp := &compiledPass{Pass: p, match: match}

	if p.Replacement == "" {
		if p.Type == "" {
			return nil, registrationErrorf(p.Name, "pass needs a Type or a Replacement")
		}
		return cp, nil
	}

	cp.replace, err = compileReplacement(p.Replacement, match)
	if err != nil {
		return nil, &RegistrationError{Pass: p.Name, Err: fmt.Errorf("replacement: %w", err)}
	}
	if p.Write != nil && len(cp.replace.body) != 1 {
		return nil, registrationErrorf(p.Name, "Write needs a single-operator replacement, got %d operators",
			len(cp.replace.body))
	}
	return cp, nil
}

// Names returns the pass names in execution order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.passes))
	for i, cp := range r.passes {
		names[i] = cp.Name
	}
	return names
}

// Len returns the number of passes.
func (r *Registry) Len() int {
	return len(r.passes)
}

// Get returns the pass registered under name.
func (r *Registry) Get(name string) (Pass, bool) {
	for _, cp := range r.passes {
		if cp.Name == name {
			return cp.Pass, true
		}
	}
	return Pass{}, false
}

// Without returns a registry that drops every pass whose name matches one
// of the doublestar glob patterns. The receiver is not modified.
func (r *Registry) Without(globs ...string) (*Registry, error) {
	for _, g := range globs {
		if !doublestar.ValidatePattern(g) {
			return nil, fmt.Errorf("invalid pass pattern %q", g)
		}
	}

	out := &Registry{passes: make([]*compiledPass, 0, len(r.passes))}
	for _, cp := range r.passes {
		drop := false
		for _, g := range globs {
			if ok, _ := doublestar.Match(g, cp.Name); ok {
				drop = true
				break
			}
		}
		if !drop {
			out.passes = append(out.passes, cp)
		}
	}
	return out, nil
}
