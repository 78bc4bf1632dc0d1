// Package retry retries warehouse connection attempts with exponential backoff.
//
// Only connecting is retried. Once a transaction is open, any failure aborts
// the dataset so that a partially staged batch is never replayed.
//
// # Example Usage
//
//	executor := retry.NewConnectionExecutor().WithOnRetry(func(attempt int, err error, delay time.Duration) {
//	    logger.Verbose("connect attempt %d failed: %v (retrying in %s)", attempt+1, err, delay)
//	})
//
//	wh, err := retry.Do(ctx, executor, func(ctx context.Context) (snapload.Warehouse, error) {
//	    return warehouse.Open(ctx, cfg, opts)
//	})
//
// # Error Classification
//
// ConnectionErrorClassifier treats refused, reset and timed out connections as
// transient, together with the server-side codes PostgreSQL, SQL Server and
// SQLite use for "try again later". Authentication and schema errors are fatal.
package retry
