// Package ingest appends one in-memory dataset to the warehouse table inside
// a single transaction and reports the outcome as a typed result.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/nyc-warehouse/snapload/internal/retry"
	"github.com/nyc-warehouse/snapload/internal/warehouse"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// OpenFunc opens a warehouse connection. warehouse.Open is the production value.
type OpenFunc func(ctx context.Context, cfg *snapload.ConnectionConfig, opts warehouse.Options) (snapload.Warehouse, error)

// Service implements snapload.Ingestor. Each Ingest call opens its own
// connection and closes it before returning.
//
// Thread-Safety: NOT safe for concurrent Ingest calls that share a reporter
// with ordering expectations.
type Service struct {
	open     OpenFunc
	conn     *snapload.ConnectionConfig
	load     snapload.LoadConfig
	reporter snapload.ProgressReporter
	logger   snapload.Logger
	executor *retry.Executor
}

var _ snapload.Ingestor = (*Service)(nil)

// Option customizes a Service.
type Option func(*Service)

// WithExecutor replaces the retry executor used around connection attempts.
func WithExecutor(e *retry.Executor) Option {
	return func(s *Service) { s.executor = e }
}

// NewService creates an ingestion service. Panics on nil dependencies.
func NewService(
	open OpenFunc,
	conn *snapload.ConnectionConfig,
	load snapload.LoadConfig,
	reporter snapload.ProgressReporter,
	logger snapload.Logger,
	opts ...Option,
) *Service {
	if open == nil {
		panic("open cannot be nil")
	}
	if conn == nil {
		panic("conn cannot be nil")
	}
	if reporter == nil {
		panic("reporter cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	s := &Service{
		open:     open,
		conn:     conn,
		load:     load,
		reporter: reporter,
		logger:   logger,
		executor: retry.NewConnectionExecutor(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest appends every row of ds to the configured table. Either all rows
// are committed or none are.
func (s *Service) Ingest(ctx context.Context, ds *snapload.Dataset) snapload.IngestResult {
	total := ds.NumRows()
	res := snapload.IngestResult{RowsTotal: total}

	wh, err := s.connect(ctx)
	if err != nil {
		return s.fail(ctx, res, nil, snapload.KindForContext(err, snapload.KindConnection), "connect", err)
	}
	defer func() {
		if err := wh.Close(); err != nil {
			s.logger.Verbose("Closing %s: %v", wh.Describe(), err)
		}
	}()

	s.reporter.Connected(snapload.CanonicalEngine(s.conn.Engine), s.conn.Target())
	s.reporter.Started(total, s.load.Table)
	s.logger.Verbose("Ingesting %s into %s on %s", ds.Source, s.load.Table, wh.Describe())

	tx, err := wh.Begin(ctx)
	if err != nil {
		return s.fail(ctx, res, nil, snapload.KindForContext(err, snapload.KindConnection), "begin", err)
	}

	for _, b := range snapload.Batches(total, s.load.BatchSize) {
		if err := ctx.Err(); err != nil {
			return s.fail(ctx, res, tx, snapload.KindCanceled, "insert", err)
		}

		if b.Index == 0 && s.load.CreateTable {
			if err := tx.EnsureTable(ctx, s.load.Table, ds.Columns); err != nil {
				return s.fail(ctx, res, tx, schemaKind(wh.Classify(err)), "create table", err)
			}
		}

		start := time.Now()
		if _, err := tx.InsertBatch(ctx, s.load.Table, ds.Columns, ds.Rows[b.Start:b.End]); err != nil {
			return s.fail(ctx, res, tx, wh.Classify(err), fmt.Sprintf("batch %d (rows %d-%d)", b.Index+1, b.Start, b.End), err)
		}
		res.Batches++
		s.logger.Verbose("Batch %d: %d rows in %s", b.Index+1, b.Len(), time.Since(start).Round(time.Millisecond))
		s.reporter.BatchInserted(b.End, total)
	}

	if err := tx.Commit(ctx); err != nil {
		return s.fail(ctx, res, tx, snapload.KindForContext(err, snapload.KindCommit), "commit", err)
	}

	res.Success = true
	res.Kind = snapload.KindNone
	res.RowsInserted = total
	s.reporter.Completed(res)
	return res
}

func (s *Service) connect(ctx context.Context) (snapload.Warehouse, error) {
	opts := warehouse.Options{InsertMethod: s.load.InsertMethod, Logger: s.logger}
	executor := s.executor.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		s.logger.Verbose("Connection attempt %d failed: %v (retrying in %s)", attempt, err, delay)
	})
	return retry.Do(ctx, executor, func(ctx context.Context) (snapload.Warehouse, error) {
		return s.open(ctx, s.conn, opts)
	})
}

// fail rolls back tx, reports the error once and returns the failed result.
func (s *Service) fail(ctx context.Context, res snapload.IngestResult, tx snapload.Tx, kind snapload.ErrorKind, stage string, err error) snapload.IngestResult {
	if tx != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			s.logger.Verbose("Rollback failed: %v", rbErr)
		}
	}

	res.Success = false
	res.Kind = kind
	res.RowsInserted = 0
	res.Err = fmt.Errorf("%s: %w: %w", stage, kind.Sentinel(), err)

	s.reporter.Failed(res.Err)
	return res
}

// schemaKind treats table creation failures as schema problems unless the
// engine attributes them to the connection or a cancellation.
func schemaKind(k snapload.ErrorKind) snapload.ErrorKind {
	if k == snapload.KindInsert {
		return snapload.KindSchema
	}
	return k
}
