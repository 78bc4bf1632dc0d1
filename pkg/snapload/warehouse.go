package snapload

import "context"

// Warehouse is an open connection to a target database engine.
// Close must be called on every path once the caller is done.
type Warehouse interface {
	// Describe returns a password-free label such as "postgresql (localhost:15432/nyc_warehouse)".
	Describe() string

	// Begin opens the transaction that wraps one dataset's ingestion.
	Begin(ctx context.Context) (Tx, error)

	// Classify maps an engine error onto an ErrorKind.
	Classify(err error) ErrorKind

	Close() error
}

// Tx is a single warehouse transaction. Nothing staged through it is visible
// to other sessions until Commit succeeds.
type Tx interface {
	// EnsureTable creates table from cols when it does not exist yet.
	// An existing table is left untouched.
	EnsureTable(ctx context.Context, table string, cols []Column) error

	// InsertBatch appends rows to table using the column layout of cols.
	InsertBatch(ctx context.Context, table string, cols []Column, rows [][]any) (int64, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Ingestor appends a dataset to the warehouse and reports a typed result.
type Ingestor interface {
	Ingest(ctx context.Context, ds *Dataset) IngestResult
}
