package rewrite

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/born-ml/irpass/internal/ir"
)

// Options configures a normalization run.
type Options struct {
	// MaxRewrites bounds the rewrites applied to one graph (0 = unbounded).
	// A graph that still has an accepted match after that many rewrites
	// fails with ErrNoFixpoint. Pass sets whose canonical output is never
	// re-matched terminate without it.
	MaxRewrites int

	// Workers bounds concurrent graphs in NormalizeAll when its own
	// argument is 0 (0 here too = GOMAXPROCS).
	Workers int

	// Logger receives per-rewrite debug records. Nil uses slog.Default().
	Logger *slog.Logger

	// Metrics is optional.
	Metrics *Metrics
}

// DefaultOptions returns the default normalization options.
func DefaultOptions() Options {
	return Options{
		MaxRewrites: 0,
		Workers:     0,
		Logger:      nil,
		Metrics:     nil,
	}
}

// Stats summarizes one normalization run.
type Stats struct {
	Sweeps   int            // Full passes over the registry, including the final quiet one
	Rewrites int            // Total rewrites applied
	PerPass  map[string]int // Rewrites by pass name
	Before   ir.Fingerprint // Graph fingerprint before the run
	After    ir.Fingerprint // Graph fingerprint after the run
}

// Changed reports whether the run mutated the graph.
func (s Stats) Changed() bool {
	return s.Rewrites > 0
}

// Normalize applies every pass to g until a full sweep rewrites nothing.
// The graph is mutated in place. Errors are fatal: an InvariantError means
// a rewrite left g inconsistent.
func (r *Registry) Normalize(g *ir.Graph, opts ...Options) (Stats, error) {
	opt := DefaultOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stats := Stats{PerPass: make(map[string]int), Before: g.Fingerprint()}
	for {
		stats.Sweeps++
		applied := 0
		for _, cp := range r.passes {
			n, err := r.runPass(g, cp, &stats, opt, logger)
			if err != nil {
				return stats, err
			}
			applied += n
		}
		logger.Debug("sweep finished",
			slog.Int("sweep", stats.Sweeps),
			slog.Int("rewrites", applied))
		if applied == 0 {
			break
		}
	}

	stats.After = g.Fingerprint()
	opt.Metrics.observeSweeps(stats.Sweeps)
	logger.Info("graph normalized",
		slog.Int("sweeps", stats.Sweeps),
		slog.Int("rewrites", stats.Rewrites),
		slog.Int("operators", g.NumOperators()))
	return stats, nil
}

// ApplyPass runs a single registered pass to its own fixpoint and returns the
// number of rewrites.
func (r *Registry) ApplyPass(g *ir.Graph, name string, opts ...Options) (int, error) {
	opt := DefaultOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for _, cp := range r.passes {
		if cp.Name != name {
			continue
		}
		stats := Stats{PerPass: make(map[string]int)}
		for {
			n, err := r.runPass(g, cp, &stats, opt, logger)
			if err != nil || n == 0 {
				return stats.Rewrites, err
			}
		}
	}
	return 0, fmt.Errorf("unknown pass %q", name)
}

// runPass scans anchors once in declaration order. After a rewrite the scan
// resumes at the first new operator, so every anchor is tried at most once
// per call. Anchors before that point that become matchable are picked up by
// the next sweep.
func (r *Registry) runPass(g *ir.Graph, cp *compiledPass, stats *Stats, opt Options, logger *slog.Logger) (int, error) {
	n, start := 0, 0
	for {
		exhausted := opt.MaxRewrites > 0 && stats.Rewrites >= opt.MaxRewrites
		anchor, next, err := r.rewriteFrom(g, cp, start, opt.Metrics, exhausted)
		if errors.Is(err, ErrNoFixpoint) {
			return n, fmt.Errorf("%w: %d rewrites, pass %q still matches %q", err, stats.Rewrites, cp.Name, anchor)
		}
		if err != nil {
			return n, err
		}
		if next < 0 {
			return n, nil
		}

		n++
		start = next
		stats.Rewrites++
		stats.PerPass[cp.Name]++
		opt.Metrics.observeRewrite(cp.Name)
		logger.Debug("rewrite applied",
			slog.String("pass", cp.Name),
			slog.String("anchor", anchor))
	}
}

// rewriteFrom scans anchors from position start and applies the first match
// the predicate accepts. It returns the anchor name and the position to
// resume from, or -1 when nothing was applied. When exhausted is set, an
// accepted match is reported as ErrNoFixpoint instead of being applied.
func (r *Registry) rewriteFrom(g *ir.Graph, cp *compiledPass, start int, metrics *Metrics, exhausted bool) (string, int, error) {
	rootType := cp.match.graph.Op(cp.match.root).Type
	order := g.Operators()
	for _, id := range order[min(start, len(order)):] {
		if g.Op(id).Type != rootType {
			continue
		}

		m, ok := cp.match.matchAt(g, id)
		if !ok || !cp.accepts(m.captured) {
			metrics.observeReject(cp.Name)
			continue
		}

		name := g.Op(id).Name
		if exhausted {
			return name, -1, ErrNoFixpoint
		}
		next, err := cp.apply(g, m, id)
		if err != nil {
			return name, -1, err
		}
		return name, next, nil
	}
	return "", -1, nil
}
