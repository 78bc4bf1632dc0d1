// Package sqlite is the SQLite warehouse backend built on the pure-Go
// modernc.org/sqlite driver. The connection's Database is the file path.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nyc-warehouse/snapload/internal/db"
	"github.com/nyc-warehouse/snapload/internal/logging"
	"github.com/nyc-warehouse/snapload/internal/warehouse"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

func init() {
	warehouse.Register(snapload.EngineSQLite, Open)
}

// Warehouse is a SQLite database file.
type Warehouse struct {
	db     *sql.DB
	label  string
	logger snapload.Logger
}

var _ snapload.Warehouse = (*Warehouse)(nil)

// Open opens and pings the database file named by cfg.Database.
func Open(ctx context.Context, cfg *snapload.ConnectionConfig, opts warehouse.Options) (snapload.Warehouse, error) {
	if strings.TrimSpace(cfg.Database) == "" {
		return nil, fmt.Errorf("sqlite database path is empty: %w", snapload.ErrInvalidConfig)
	}

	conn, err := sql.Open("sqlite", db.BuildSQLiteDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w: %w", cfg.Database, snapload.ErrConnectionFailed, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open sqlite database %s: %w: %w", cfg.Database, snapload.ErrConnectionFailed, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Warehouse{db: conn, label: warehouse.Describe(cfg), logger: logger}, nil
}

func (w *Warehouse) Describe() string { return w.label }

func (w *Warehouse) Begin(ctx context.Context) (snapload.Tx, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx, logger: w.logger}, nil
}

func (w *Warehouse) Classify(err error) snapload.ErrorKind { return Classify(err) }

func (w *Warehouse) Close() error { return w.db.Close() }

// Tx stages rows inside one database/sql transaction.
type Tx struct {
	tx     *sql.Tx
	logger snapload.Logger
}

var _ snapload.Tx = (*Tx)(nil)

func (t *Tx) EnsureTable(ctx context.Context, table string, cols []snapload.Column) error {
	stmt := buildCreateTableSQL(table, cols)
	t.logger.Verbose("sqlite: %s", stmt)
	if _, err := t.tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// InsertBatch prepares one INSERT for the batch and executes it per row.
func (t *Tx) InsertBatch(ctx context.Context, table string, cols []snapload.Column, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	stmt, err := t.tx.PrepareContext(ctx, buildInsertSQL(table, warehouse.ColumnNames(cols)))
	if err != nil {
		return 0, fmt.Errorf("prepare insert into %s: %w", table, err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	var n int64
	for _, row := range rows {
		for j, c := range cols {
			args[j] = bindValue(row[j], c.Type)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return n, fmt.Errorf("insert into %s: %w", table, err)
		}
		n++
	}
	return n, nil
}

func (t *Tx) Commit(context.Context) error { return t.tx.Commit() }

// Rollback is a no-op once the transaction has already ended.
func (t *Tx) Rollback(context.Context) error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// Classify maps SQLite result codes onto error kinds.
func Classify(err error) snapload.ErrorKind {
	if err == nil {
		return snapload.KindNone
	}
	if kind := snapload.KindForContext(err, snapload.KindNone); kind != snapload.KindNone {
		return kind
	}
	if errors.Is(err, snapload.ErrConnectionFailed) || errors.Is(err, sql.ErrConnDone) {
		return snapload.KindConnection
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_MISMATCH, sqlite3.SQLITE_CONSTRAINT:
			return snapload.KindSchema
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED,
			sqlite3.SQLITE_IOERR, sqlite3.SQLITE_NOTADB:
			return snapload.KindConnection
		}
	}
	if isSchemaMessage(err.Error()) {
		return snapload.KindSchema
	}
	return snapload.KindInsert
}

func isSchemaMessage(msg string) bool {
	for _, pattern := range []string{"no such column", "no such table", "has no column named", "values were supplied", "datatype mismatch"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// bindValue converts values SQLite has no native type for. Timestamps are
// stored as RFC3339Nano text in UTC, dates as YYYY-MM-DD.
func bindValue(v any, t snapload.ColumnType) any {
	ts, ok := v.(time.Time)
	if !ok {
		return v
	}
	if t == snapload.TypeDate {
		return ts.UTC().Format(time.DateOnly)
	}
	return ts.UTC().Format(time.RFC3339Nano)
}

func columnDDLType(t snapload.ColumnType) string {
	switch t {
	case snapload.TypeBoolean, snapload.TypeInteger:
		return "INTEGER"
	case snapload.TypeFloat:
		return "REAL"
	case snapload.TypeBinary:
		return "BLOB"
	default:
		return "TEXT"
	}
}

func buildCreateTableSQL(table string, cols []snapload.Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = warehouse.ANSI.Ident(c.Name) + " " + columnDDLType(c.Type)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", warehouse.ANSI.Table(table), strings.Join(defs, ", "))
}

func buildInsertSQL(table string, columns []string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		warehouse.ANSI.Table(table), warehouse.ANSI.ColumnList(columns), placeholders)
}
