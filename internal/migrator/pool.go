package migrator

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunPool runs fn once per table name with a bounded number of tables
// in flight, grounded on data-ingress/pkg/transfer/worker.go's
// job/result worker pattern but expressed with errgroup.SetLimit
// instead of a hand-rolled channel/waitgroup pair, since the work unit
// here (one table's whole migration) needs no result fan-in beyond
// pass/fail.
func RunPool(ctx context.Context, tables []string, concurrency int, fn func(ctx context.Context, table string) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for _, table := range tables {
		table := table
		g.Go(func() error {
			return fn(gctx, table)
		})
	}
	return g.Wait()
}
