package rewrite

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/irpass/internal/ir"
)

// NormalizeAll normalizes independent graphs concurrently, at most workers at
// a time. A workers of 0 falls back to Options.Workers, then GOMAXPROCS. Each graph is handled start to finish by one
// goroutine; the registry is shared read-only. Cancelling ctx stops graphs
// that have not started yet; a graph already being rewritten runs to
// completion. The first error cancels the rest.
func (r *Registry) NormalizeAll(ctx context.Context, graphs []*ir.Graph, workers int, opts ...Options) ([]Stats, error) {
	if workers <= 0 && len(opts) > 0 {
		workers = opts[0].Workers
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	stats := make([]Stats, len(graphs))
	for i, g := range graphs {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			s, err := r.Normalize(g, opts...)
			if err != nil {
				return fmt.Errorf("graph %d: %w", i, err)
			}
			stats[i] = s
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}
