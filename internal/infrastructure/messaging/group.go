package messaging

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunAll runs consumers concurrently. The first consumer to fail cancels the
// others, and its error is returned.
func RunAll(ctx context.Context, consumers ...*Consumer) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range consumers {
		g.Go(func() error {
			return c.Run(gctx)
		})
	}
	return g.Wait()
}
