// Package rewrite implements pattern-based rewriting of ir graphs.
//
// A Pass pairs a pattern graph with an optional Predicate over the captured
// wildcard bindings and a writer: either an imperative WriteFunc producing
// the canonical operator's attributes, or a declarative replacement graph.
// A Registry compiles passes once, orders them by descending priority and
// applies them to a graph until no pass finds an acceptable match.
//
// Matching is greedy and deterministic. The pattern root is aligned with
// each candidate anchor in declaration order; inputs are walked positionally
// with no backtracking, and the first accepted anchor is rewritten.
//
// Example usage:
//
//	reg, err := rewrite.NewRegistry(passes...)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stats, err := reg.Normalize(graph)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d rewrites in %d sweeps\n", stats.Rewrites, stats.Sweeps)
package rewrite
