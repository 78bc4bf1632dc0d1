// Package postgres is the PostgreSQL warehouse backend. It registers itself
// under the "postgresql" engine name.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nyc-warehouse/snapload/internal/db"
	"github.com/nyc-warehouse/snapload/internal/logging"
	"github.com/nyc-warehouse/snapload/internal/retry"
	"github.com/nyc-warehouse/snapload/internal/warehouse"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

func init() {
	warehouse.Register(snapload.EnginePostgreSQL, Open)
}

// Warehouse is a PostgreSQL target reached through a pgx pool.
type Warehouse struct {
	pool   *pgxpool.Pool
	closer io.Closer
	label  string
	method string
	logger snapload.Logger
}

var _ snapload.Warehouse = (*Warehouse)(nil)

// Open connects with the connector matching cfg.AuthMethod.
func Open(ctx context.Context, cfg *snapload.ConnectionConfig, opts warehouse.Options) (snapload.Warehouse, error) {
	connector, err := db.NewConnector(cfg, opts.Logger)
	if err != nil {
		return nil, err
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		if c, ok := connector.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}

	w := New(pool, warehouse.Describe(cfg), opts.InsertMethod, opts.Logger)
	if c, ok := connector.(io.Closer); ok {
		w.closer = c
	}
	return w, nil
}

// New wraps an open pool.
func New(pool *pgxpool.Pool, label, insertMethod string, logger snapload.Logger) *Warehouse {
	if pool == nil {
		panic("pool cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if insertMethod == "" {
		insertMethod = snapload.DefaultInsertMethod
	}
	return &Warehouse{pool: pool, label: label, method: insertMethod, logger: logger}
}

func (w *Warehouse) Describe() string { return w.label }

// Begin starts the per-dataset transaction.
func (w *Warehouse) Begin(ctx context.Context) (snapload.Tx, error) {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx, method: w.method, logger: w.logger}, nil
}

func (w *Warehouse) Classify(err error) snapload.ErrorKind { return Classify(err) }

// Close releases the pool and, for Cloud SQL, the dialer.
func (w *Warehouse) Close() error {
	w.pool.Close()
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

// Tx stages rows inside one pgx transaction.
type Tx struct {
	tx     pgx.Tx
	method string
	logger snapload.Logger
}

var _ snapload.Tx = (*Tx)(nil)

func (t *Tx) EnsureTable(ctx context.Context, table string, cols []snapload.Column) error {
	stmt := buildCreateTableSQL(table, cols)
	t.logger.Verbose("postgres: %s", stmt)
	if _, err := t.tx.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// InsertBatch uses COPY FROM unless the warehouse was opened with the
// "values" insert method.
func (t *Tx) InsertBatch(ctx context.Context, table string, cols []snapload.Column, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	names := warehouse.ColumnNames(cols)

	if t.method == snapload.InsertMethodValues {
		var total int64
		for _, chunk := range warehouse.ChunkRows(rows, len(names), warehouse.MaxStatementParams) {
			stmt, args := buildInsertSQL(table, names, chunk)
			tag, err := t.tx.Exec(ctx, stmt, args...)
			if err != nil {
				return total, fmt.Errorf("insert into %s: %w", table, err)
			}
			total += tag.RowsAffected()
		}
		return total, nil
	}

	n, err := t.tx.CopyFrom(ctx, identifier(table), names, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback is a no-op once the transaction has already ended.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// Classify maps pgx errors onto error kinds by SQLSTATE class.
func Classify(err error) snapload.ErrorKind {
	if err == nil {
		return snapload.KindNone
	}
	if kind := snapload.KindForContext(err, snapload.KindNone); kind != snapload.KindNone {
		return kind
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "08", "53", "57":
			return snapload.KindConnection
		case "42", "22", "23":
			return snapload.KindSchema
		default:
			return snapload.KindInsert
		}
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || errors.Is(err, snapload.ErrConnectionFailed) ||
		pgconn.Timeout(err) || retry.IsNetworkError(err) {
		return snapload.KindConnection
	}
	if isEncodeError(err) {
		return snapload.KindSchema
	}
	return snapload.KindInsert
}

// isEncodeError recognizes client-side failures to encode a Go value for a
// column, which pgx reports before anything reaches the server.
func isEncodeError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unable to encode") ||
		strings.Contains(msg, "cannot find encode plan") ||
		strings.Contains(msg, "failed to encode")
}

func identifier(table string) pgx.Identifier {
	schema, name := warehouse.SplitQualifiedName(table)
	if schema == "" {
		return pgx.Identifier{name}
	}
	return pgx.Identifier{schema, name}
}

func columnDDLType(t snapload.ColumnType) string {
	switch t {
	case snapload.TypeBoolean:
		return "boolean"
	case snapload.TypeInteger:
		return "bigint"
	case snapload.TypeFloat:
		return "double precision"
	case snapload.TypeTimestamp:
		return "timestamp"
	case snapload.TypeTimestampTZ:
		return "timestamptz"
	case snapload.TypeDate:
		return "date"
	case snapload.TypeBinary:
		return "bytea"
	default:
		return "text"
	}
}

func buildCreateTableSQL(table string, cols []snapload.Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = warehouse.ANSI.Ident(c.Name) + " " + columnDDLType(c.Type)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", identifier(table).Sanitize(), strings.Join(defs, ", "))
}

// buildInsertSQL renders a multi-row INSERT with numbered placeholders.
// Every row must have len(columns) values.
func buildInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(identifier(table).Sanitize())
	b.WriteString(" (")
	b.WriteString(warehouse.ANSI.ColumnList(columns))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}
	return b.String(), args
}
