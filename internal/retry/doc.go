// Package retry re-runs operations that fail for transient reasons: refused
// or reset connections, serialization failures, servers starting up.
//
//	pool, err := retry.Do(ctx, retry.NewDefaultExecutor(), func(ctx context.Context) (*pgxpool.Pool, error) {
//	    return connect(ctx)
//	})
//
// Connectors retry pool creation with it; repositories retry single
// statements. The bulk loader never retries: a COPY that failed half way
// cannot be replayed safely.
package retry
