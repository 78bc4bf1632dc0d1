package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyc-warehouse/snapload/internal/checksum"
	"github.com/nyc-warehouse/snapload/internal/files/loader"
	"github.com/nyc-warehouse/snapload/internal/files/scanner"
	"github.com/nyc-warehouse/snapload/internal/logging"
	"github.com/nyc-warehouse/snapload/internal/testing/fixtures"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

type runnerFixture struct {
	runner   *Runner
	reader   *trackingReader
	ingestor *mockIngestor
}

func newRunnerFixture(t *testing.T, dir *fixtures.SnapshotDir, failOn map[string]snapload.ErrorKind) *runnerFixture {
	t.Helper()
	mfs, err := dir.BuildFS("/data")
	require.NoError(t, err)

	reader := &trackingReader{inner: loader.NewParquetLoaderWithFS(mfs, checksum.New(), logging.NewNullLogger())}
	ingestor := &mockIngestor{failOn: failOn}
	runner := NewRunner(scanner.NewScannerWithFS(snapload.DefaultExtension, mfs), reader, ingestor, logging.NewNullLogger())
	return &runnerFixture{runner: runner, reader: reader, ingestor: ingestor}
}

func loadConfig() snapload.LoadConfig {
	cfg := snapload.DefaultLoadConfig()
	cfg.SourceDir = "/data"
	return cfg
}

func TestRunner_IngestsEveryFileInOrder(t *testing.T) {
	f := newRunnerFixture(t, fixtures.NewSnapshotDir().
		AddTrips("b.parquet", 20).
		AddTrips("A.PARQUET", 10).
		AddRaw("readme.txt", []byte("skip me")), nil)

	summary, err := f.runner.Run(context.Background(), loadConfig())
	require.NoError(t, err)

	assert.Equal(t, []string{"A.PARQUET", "b.parquet"}, f.ingestor.seen)
	require.Len(t, summary.Files, 2)
	assert.Equal(t, "/data/A.PARQUET", summary.Files[0].Path)
	assert.Equal(t, 10, summary.Files[0].Rows)
	assert.Len(t, summary.Files[0].Checksum, 64)
	assert.Equal(t, 30, summary.TotalRows())
	assert.Empty(t, summary.Skipped)
	assert.Nil(t, summary.Failed())
	assert.NotEqual(t, uuid.Nil, summary.RunID)
	assert.Greater(t, summary.Duration, time.Duration(0))
}

func TestRunner_NormalizesColumnNames(t *testing.T) {
	f := newRunnerFixture(t, fixtures.NewSnapshotDir().AddTrips("trips.parquet", 3), nil)

	_, err := f.runner.Run(context.Background(), loadConfig())
	require.NoError(t, err)

	require.Len(t, f.ingestor.columns, 1)
	assert.Equal(t, []string{"vendorid", "trip_distance", "pu_zone", "tpep_pickup_datetime"}, f.ingestor.columns[0])
}

func TestRunner_StopsAtFirstFailure(t *testing.T) {
	f := newRunnerFixture(t, fixtures.NewSnapshotDir().
		AddTrips("1.parquet", 5).
		AddZones("2.parquet", 5).
		AddTrips("3.parquet", 5).
		AddTrips("4.parquet", 5),
		map[string]snapload.ErrorKind{"2.parquet": snapload.KindSchema})

	summary, err := f.runner.Run(context.Background(), loadConfig())

	require.Error(t, err)
	assert.ErrorIs(t, err, snapload.ErrIngestionFailed)
	assert.ErrorIs(t, err, snapload.ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "/data/2.parquet")
	assert.Equal(t, snapload.ExitIngestionFailed, snapload.ExitCodeForError(err))

	assert.Equal(t, []string{"1.parquet", "2.parquet"}, f.reader.read, "files after the failure are never read")
	assert.Equal(t, []string{"1.parquet", "2.parquet"}, f.ingestor.seen)
	assert.Equal(t, []string{"/data/3.parquet", "/data/4.parquet"}, summary.Skipped)

	failed := summary.Failed()
	require.NotNil(t, failed)
	assert.Equal(t, "/data/2.parquet", failed.Path)
	assert.Equal(t, snapload.KindSchema, failed.Result.Kind)
	assert.Equal(t, 5, summary.TotalRows())
}

func TestRunner_NoFiles(t *testing.T) {
	f := newRunnerFixture(t, fixtures.NewSnapshotDir().AddRaw("notes.csv", []byte("a,b")), nil)

	summary, err := f.runner.Run(context.Background(), loadConfig())
	require.NoError(t, err)
	assert.Empty(t, summary.Files)
	assert.Empty(t, f.ingestor.seen)
}

func TestRunner_ReadErrorIsFatal(t *testing.T) {
	f := newRunnerFixture(t, fixtures.NewSnapshotDir().
		AddRaw("1.parquet", []byte("not parquet")).
		AddTrips("2.parquet", 5), nil)

	summary, err := f.runner.Run(context.Background(), loadConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, snapload.ErrSourceUnavailable)
	assert.NotErrorIs(t, err, snapload.ErrIngestionFailed)
	assert.Empty(t, f.ingestor.seen)
	assert.Equal(t, []string{"/data/2.parquet"}, summary.Skipped)
}

func TestRunner_DiscoveryError(t *testing.T) {
	discoverErr := errors.New("permission denied")
	runner := NewRunner(&mockScanner{err: discoverErr}, &trackingReader{}, &mockIngestor{}, logging.NewNullLogger())

	_, err := runner.Run(context.Background(), loadConfig())
	assert.ErrorIs(t, err, discoverErr)
}

func TestRunner_InvalidConfig(t *testing.T) {
	runner := NewRunner(&mockScanner{}, &trackingReader{}, &mockIngestor{}, logging.NewNullLogger())

	cfg := loadConfig()
	cfg.BatchSize = 0
	_, err := runner.Run(context.Background(), cfg)
	assert.ErrorIs(t, err, snapload.ErrInvalidConfig)
}

func TestRunner_CanceledBeforeFirstFile(t *testing.T) {
	f := newRunnerFixture(t, fixtures.NewSnapshotDir().AddTrips("1.parquet", 1).AddTrips("2.parquet", 1), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := f.runner.Run(ctx, loadConfig())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.reader.read)
	assert.Len(t, summary.Skipped, 2)
}

func TestRunner_WithRunID(t *testing.T) {
	id := uuid.New()
	base := NewRunner(&mockScanner{}, &trackingReader{}, &mockIngestor{}, logging.NewNullLogger())

	summary, err := base.WithRunID(id).Run(context.Background(), loadConfig())
	require.NoError(t, err)
	assert.Equal(t, id, summary.RunID)
	assert.Equal(t, uuid.Nil, base.runID)
}

func TestNewRunner_Panics(t *testing.T) {
	s, r, i, l := &mockScanner{}, &trackingReader{}, &mockIngestor{}, logging.NewNullLogger()
	assert.Panics(t, func() { NewRunner(nil, r, i, l) })
	assert.Panics(t, func() { NewRunner(s, nil, i, l) })
	assert.Panics(t, func() { NewRunner(s, r, nil, l) })
	assert.Panics(t, func() { NewRunner(s, r, i, nil) })
}
