package ingest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyc-warehouse/snapload/internal/logging"
	"github.com/nyc-warehouse/snapload/internal/warehouse"
	_ "github.com/nyc-warehouse/snapload/internal/warehouse/sqlite"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

func sqliteService(t *testing.T) (*Service, string) {
	t.Helper()
	cfg := snapload.DefaultConnectionConfig()
	cfg.Engine = snapload.EngineSQLite
	cfg.Database = filepath.Join(t.TempDir(), "warehouse.db")

	load := snapload.DefaultLoadConfig()
	return NewService(warehouse.Open, cfg, load, logging.NullReporter{}, logging.NewNullLogger()), cfg.Database
}

func countRows(t *testing.T, path string) int {
	t.Helper()
	conn, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer conn.Close()

	var n int
	require.NoError(t, conn.QueryRow(`SELECT count(*) FROM nyc_raw`).Scan(&n))
	return n
}

func TestIngest_SQLiteAppends(t *testing.T) {
	svc, path := sqliteService(t)
	ctx := context.Background()

	first := svc.Ingest(ctx, dataset(25000))
	require.True(t, first.Success, "err: %v", first.Err)
	assert.Equal(t, 25000, countRows(t, path))

	second := svc.Ingest(ctx, dataset(25000))
	require.True(t, second.Success, "err: %v", second.Err)
	assert.Equal(t, 50000, countRows(t, path))
}

func TestIngest_SQLiteSchemaMismatchKeepsEarlierRows(t *testing.T) {
	svc, path := sqliteService(t)
	ctx := context.Background()

	require.True(t, svc.Ingest(ctx, dataset(100)).Success)

	zones := &snapload.Dataset{
		Source:  "zones.parquet",
		Columns: []snapload.Column{{Name: "locationid", Type: snapload.TypeText}},
		Rows:    [][]any{{"L001"}, {"L002"}},
	}
	res := svc.Ingest(ctx, zones)

	assert.False(t, res.Success)
	assert.Equal(t, snapload.KindSchema, res.Kind)
	assert.ErrorIs(t, res.Err, snapload.ErrSchemaMismatch)
	assert.Equal(t, 100, countRows(t, path))
}
