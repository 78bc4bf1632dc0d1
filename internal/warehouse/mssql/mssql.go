// Package mssql is the SQL Server warehouse backend. Rows are loaded with the
// TDS bulk copy protocol inside the per-dataset transaction.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"

	"github.com/nyc-warehouse/snapload/internal/db"
	"github.com/nyc-warehouse/snapload/internal/logging"
	"github.com/nyc-warehouse/snapload/internal/retry"
	"github.com/nyc-warehouse/snapload/internal/warehouse"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

func init() {
	warehouse.Register(snapload.EngineSQLServer, Open)
}

var (
	schemaErrorNumbers = map[int32]bool{
		207:  true, // invalid column name
		208:  true, // invalid object name
		245:  true, // conversion failed
		515:  true, // cannot insert NULL
		4815: true, // bulk load: invalid column length
		4816: true, // bulk load: invalid column type
		8114: true, // error converting data type
	}
	connectionErrorNumbers = map[int32]bool{
		233:   true, // no process on the other end of the pipe
		4060:  true, // cannot open database
		18456: true, // login failed
	}
)

// Warehouse is a SQL Server database reached through database/sql.
type Warehouse struct {
	db     *sql.DB
	label  string
	logger snapload.Logger
}

var _ snapload.Warehouse = (*Warehouse)(nil)

// Open connects with a go-mssqldb URL built from cfg and pings the server.
func Open(ctx context.Context, cfg *snapload.ConnectionConfig, opts warehouse.Options) (snapload.Warehouse, error) {
	conn, err := sql.Open("sqlserver", db.BuildSQLServerDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse sqlserver connection: %w: %w", snapload.ErrInvalidConfig, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to connect to %s:%d/%s: %w: %w",
			cfg.Host, cfg.Port, cfg.Database, snapload.ErrConnectionFailed, err)
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
	t.logger.Verbose("sqlserver: %s", stmt)
	if _, err := t.tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// InsertBatch streams rows through a bulk copy statement. The final Exec
// without arguments flushes the batch and reports the row count.
func (t *Tx) InsertBatch(ctx context.Context, table string, cols []snapload.Column, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	copyIn := mssql.CopyIn(warehouse.Bracket.Table(table), mssql.BulkOptions{}, warehouse.ColumnNames(cols)...)
	stmt, err := t.tx.PrepareContext(ctx, copyIn)
	if err != nil {
		return 0, fmt.Errorf("prepare bulk copy into %s: %w", table, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, fmt.Errorf("bulk copy into %s: %w", table, err)
		}
	}

	res, err := stmt.ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("flush bulk copy into %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return int64(len(rows)), nil
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

// Classify maps SQL Server error numbers onto error kinds.
func Classify(err error) snapload.ErrorKind {
	if err == nil {
		return snapload.KindNone
	}
	if kind := snapload.KindForContext(err, snapload.KindNone); kind != snapload.KindNone {
		return kind
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		switch {
		case schemaErrorNumbers[msErr.Number]:
			return snapload.KindSchema
		case connectionErrorNumbers[msErr.Number]:
			return snapload.KindConnection
		default:
			return snapload.KindInsert
		}
	}

	if errors.Is(err, snapload.ErrConnectionFailed) || errors.Is(err, sql.ErrConnDone) ||
		retry.IsNetworkError(err) {
		return snapload.KindConnection
	}
	// The bulk copy client validates column names and value types itself.
	if msg := err.Error(); strings.Contains(msg, "does not exist in destination table") ||
		strings.Contains(msg, "failed to convert") {
		return snapload.KindSchema
	}
	return snapload.KindInsert
}

func columnDDLType(t snapload.ColumnType) string {
	switch t {
	case snapload.TypeBoolean:
		return "BIT"
	case snapload.TypeInteger:
		return "BIGINT"
	case snapload.TypeFloat:
		return "FLOAT"
	case snapload.TypeTimestamp:
		return "DATETIME2"
	case snapload.TypeTimestampTZ:
		return "DATETIMEOFFSET"
	case snapload.TypeDate:
		return "DATE"
	case snapload.TypeBinary:
		return "VARBINARY(MAX)"
	default:
		return "NVARCHAR(MAX)"
	}
}

// buildCreateTableSQL guards CREATE TABLE with OBJECT_ID, since SQL Server
// has no CREATE TABLE IF NOT EXISTS.
func buildCreateTableSQL(table string, cols []snapload.Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = warehouse.Bracket.Ident(c.Name) + " " + columnDDLType(c.Type) + " NULL"
	}
	quoted := warehouse.Bracket.Table(table)
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL BEGIN CREATE TABLE %s (%s); END;",
		strings.ReplaceAll(quoted, "'", "''"), quoted, strings.Join(defs, ", "))
}
