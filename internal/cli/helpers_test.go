package cli

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nyc-warehouse/snapload/internal/testing/fixtures"
)

// connectionEnv lists every variable that takes part in connection resolution.
var connectionEnv = []string{
	"SNAPLOAD_CONNECTION", "SNAPLOAD_ENGINE", "DATABASE_URL",
	"PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE", "PGSSLMODE",
	"AWS_REGION", "AZURE_TENANT_ID", "AZURE_CLIENT_ID", "AZURE_CLIENT_SECRET",
}

func clearConnectionEnv(t *testing.T) {
	t.Helper()
	for _, k := range connectionEnv {
		t.Setenv(k, "")
	}
}

// runCLI executes a fresh command tree and captures both streams.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeSnapshots(t *testing.T, dir *fixtures.SnapshotDir) string {
	t.Helper()
	path, err := dir.WriteTo(t.TempDir())
	require.NoError(t, err)
	return path
}

func sqlitePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "nyc.db")
}

func openSQLite(t *testing.T, path string) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func countRows(t *testing.T, conn *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
