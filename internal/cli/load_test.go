package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyc-warehouse/snapload/internal/logging"
	"github.com/nyc-warehouse/snapload/internal/testing/fixtures"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

func TestLoad_SQLiteEndToEnd(t *testing.T) {
	clearConnectionEnv(t)
	dir := writeSnapshots(t, fixtures.NewSnapshotDir().
		AddTrips("yellow_2024-02.PARQUET", 2).
		AddTrips("yellow_2024-01.parquet", 3).
		AddRaw("README.txt", []byte("not a snapshot")))
	dbPath := sqlitePath(t)

	stdout, _, err := runCLI(t, "load", dir, "--engine", "sqlite", "-d", dbPath, "--progress", "plain")
	require.NoError(t, err)

	want := strings.Join([]string{
		fmt.Sprintf("✅ Connected to sqlite (%s)", dbPath),
		"📦 Inserting 3 rows into table `nyc_raw`",
		"➡️  3/3 rows inserted...",
		"✅ Insert complete!",
		fmt.Sprintf("✅ Connected to sqlite (%s)", dbPath),
		"📦 Inserting 2 rows into table `nyc_raw`",
		"➡️  2/2 rows inserted...",
		"✅ Insert complete!",
	}, "\n") + "\n"
	assert.Equal(t, want, stdout)

	conn := openSQLite(t, dbPath)
	assert.Equal(t, 5, countRows(t, conn, "nyc_raw"))

	rows, err := conn.Query("SELECT name FROM pragma_table_info('nyc_raw') ORDER BY cid")
	require.NoError(t, err)
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"vendorid", "trip_distance", "pu_zone", "tpep_pickup_datetime"}, names)
}

func TestLoad_BatchProgress(t *testing.T) {
	clearConnectionEnv(t)
	dir := writeSnapshots(t, fixtures.NewSnapshotDir().AddTrips("trips.parquet", 5))
	dbPath := sqlitePath(t)

	stdout, _, err := runCLI(t, "load", dir, "--engine", "sqlite", "-d", dbPath,
		"--progress", "plain", "--batch-size", "2", "--table", "trips")
	require.NoError(t, err)

	assert.Contains(t, stdout, "📦 Inserting 5 rows into table `trips`\n")
	assert.Contains(t, stdout, "➡️  2/5 rows inserted...\n➡️  4/5 rows inserted...\n➡️  5/5 rows inserted...\n")
	assert.Equal(t, 5, countRows(t, openSQLite(t, dbPath), "trips"))
}

func TestLoad_StopsAtFirstFailure(t *testing.T) {
	clearConnectionEnv(t)
	snapshots := func() *fixtures.SnapshotDir {
		return fixtures.NewSnapshotDir().
			AddTrips("a.parquet", 2).
			AddZones("b.parquet", 2).
			AddTrips("c.parquet", 4)
	}

	t.Run("exits with the ingestion code", func(t *testing.T) {
		dir := writeSnapshots(t, snapshots())
		dbPath := sqlitePath(t)

		stdout, stderr, err := runCLI(t, "load", dir, "--engine", "sqlite", "-d", dbPath, "--progress", "plain")
		require.Error(t, err)
		assert.ErrorIs(t, err, snapload.ErrIngestionFailed)
		assert.ErrorIs(t, err, snapload.ErrSchemaMismatch)
		assert.Equal(t, snapload.ExitIngestionFailed, snapload.ExitCodeForError(err))

		assert.Contains(t, stdout, "❌ Connection or insert error: ")
		assert.NotContains(t, stdout, "Inserting 4 rows")
		assert.Contains(t, stderr, "Loaded 1 of 3 file(s), 2 rows")
		assert.Contains(t, stderr, "Skipped 1 file(s)")
		assert.Equal(t, 2, countRows(t, openSQLite(t, dbPath), "nyc_raw"))
	})

	t.Run("exit zero on failure", func(t *testing.T) {
		dir := writeSnapshots(t, snapshots())
		dbPath := sqlitePath(t)

		stdout, _, err := runCLI(t, "load", dir, "--engine", "sqlite", "-d", dbPath,
			"--progress", "plain", "--exit-zero-on-failure")
		require.NoError(t, err)
		assert.Contains(t, stdout, "❌ Connection or insert error: ")
		assert.Equal(t, 2, countRows(t, openSQLite(t, dbPath), "nyc_raw"))
	})
}

func TestLoad_NoFiles(t *testing.T) {
	clearConnectionEnv(t)
	dir := t.TempDir()

	stdout, stderr, err := runCLI(t, "load", dir, "--engine", "sqlite", "-d", sqlitePath(t), "--progress", "plain")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "No .parquet files found in "+dir)
}

func TestLoad_NoCreateTable(t *testing.T) {
	clearConnectionEnv(t)
	dir := writeSnapshots(t, fixtures.NewSnapshotDir().AddTrips("trips.parquet", 2))

	_, _, err := runCLI(t, "load", dir, "--engine", "sqlite", "-d", sqlitePath(t),
		"--progress", "plain", "--no-create-table")
	require.Error(t, err)
	assert.ErrorIs(t, err, snapload.ErrSchemaMismatch)
	assert.Equal(t, snapload.ExitIngestionFailed, snapload.ExitCodeForError(err))
}

func TestLoad_ProjectConfig(t *testing.T) {
	clearConnectionEnv(t)
	dir := writeSnapshots(t, fixtures.NewSnapshotDir().AddTrips("trips.parquet", 3))
	dbPath := sqlitePath(t)

	configPath := filepath.Join(t.TempDir(), "snapload.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(`connection:
  engine: sqlite
  database: %q
load:
  source_dir: %q
  table: yellow
  batch_size: 2
`, dbPath, dir)), 0644))

	stdout, _, err := runCLI(t, "load", "--config", configPath, "--progress", "plain")
	require.NoError(t, err)
	assert.Contains(t, stdout, "into table `yellow`")
	assert.Contains(t, stdout, "➡️  2/3 rows inserted...")

	stdout, _, err = runCLI(t, "load", "--config", configPath, "--progress", "plain", "--table", "override", "--batch-size", "10")
	require.NoError(t, err)
	assert.Contains(t, stdout, "into table `override`")
	assert.Contains(t, stdout, "➡️  3/3 rows inserted...")

	conn := openSQLite(t, dbPath)
	assert.Equal(t, 3, countRows(t, conn, "yellow"))
	assert.Equal(t, 3, countRows(t, conn, "override"))
}

func TestLoad_ExitCodes(t *testing.T) {
	clearConnectionEnv(t)
	dir := writeSnapshots(t, fixtures.NewSnapshotDir().AddTrips("trips.parquet", 1))

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"too many args", []string{"load", "a", "b"}, snapload.ExitUsageError},
		{"unknown flag", []string{"load", dir, "--bogus"}, snapload.ExitUsageError},
		{"invalid progress", []string{"load", dir, "--progress", "fancy"}, snapload.ExitUsageError},
		{"zero batch size", []string{"load", dir, "--batch-size", "0"}, snapload.ExitConfigError},
		{"bad insert method", []string{"load", dir, "--insert-method", "merge"}, snapload.ExitConfigError},
		{"empty extension", []string{"load", dir, "--ext", "", "--engine", "sqlite", "-d", sqlitePath(t)}, snapload.ExitConfigError},
		{"blank extension", []string{"load", dir, "--ext", " ", "--engine", "sqlite", "-d", sqlitePath(t)}, snapload.ExitConfigError},
		{"unknown engine", []string{"load", dir, "--engine", "oracle"}, snapload.ExitConfigError},
		{"connection and granular flags", []string{"load", dir, "--connection", "postgresql://localhost/db", "-h", "other"}, snapload.ExitConfigError},
		{"two cloud methods", []string{"load", dir, "--aws-iam", "--azure"}, snapload.ExitConfigError},
		{"missing config file", []string{"load", dir, "--config", filepath.Join(dir, "absent.yaml")}, snapload.ExitConfigError},
		{"missing source dir", []string{"load", filepath.Join(dir, "absent"), "--engine", "sqlite", "-d", sqlitePath(t), "--progress", "plain"}, snapload.ExitSourceError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, snapload.ExitCodeForError(err), "error: %v", err)
		})
	}
}

func TestLoadOutcome(t *testing.T) {
	ingestErr := fmt.Errorf("b.parquet: %w: %w", snapload.ErrIngestionFailed, snapload.ErrSchemaMismatch)
	readErr := fmt.Errorf("b.parquet: %w", snapload.ErrSourceUnavailable)
	logger := logging.NewNullLogger()

	assert.NoError(t, loadOutcome(nil, false, logger))
	assert.Equal(t, ingestErr, loadOutcome(ingestErr, false, logger))
	assert.NoError(t, loadOutcome(ingestErr, true, logger))
	assert.Equal(t, readErr, loadOutcome(readErr, true, logger))
}

func TestLoad_EngineFlagOverridesDatabaseURL(t *testing.T) {
	clearConnectionEnv(t)
	t.Setenv("DATABASE_URL", "postgresql://u:p@db.example:5432/other")
	dir := writeSnapshots(t, fixtures.NewSnapshotDir().AddTrips("trips.parquet", 2))
	dbPath := sqlitePath(t)

	stdout, _, err := runCLI(t, "load", dir, "--engine", "sqlite", "-d", dbPath, "--progress", "plain")
	require.NoError(t, err)
	assert.Contains(t, stdout, fmt.Sprintf("✅ Connected to sqlite (%s)", dbPath))
	assert.Equal(t, 2, countRows(t, openSQLite(t, dbPath), "nyc_raw"))
}
