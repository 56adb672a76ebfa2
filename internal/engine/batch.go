package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/immoleads/contact-discovery/internal/domain"
)

// DiscoverBatch runs discoveries for many URLs with bounded parallelism.
// The returned slice always has one entry per input URL, in input order;
// per-URL failures land in that entry's Error field instead of aborting
// the batch. Only context cancellation stops a batch early.
func (e *Engine) DiscoverBatch(ctx context.Context, urls []string, opts domain.DiscoveryOptions) []*domain.ExtractionResult {
	results := make([]*domain.ExtractionResult, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = &domain.ExtractionResult{SourceURL: u, Error: err.Error()}
				return nil
			}
			result, err := e.Discover(ctx, u, opts)
			if err != nil {
				result = &domain.ExtractionResult{SourceURL: u, Error: err.Error()}
			}
			results[i] = result
			return nil
		})
	}
	g.Wait()
	return results
}
