package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// mockIngestor records the datasets it sees and fails on the files named in
// failOn with the given kind.
type mockIngestor struct {
	mu      sync.Mutex
	failOn  map[string]snapload.ErrorKind
	seen    []string
	columns [][]string
}

func (m *mockIngestor) Ingest(_ context.Context, ds *snapload.Dataset) snapload.IngestResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := filepath.Base(ds.Source)
	m.seen = append(m.seen, name)
	m.columns = append(m.columns, ds.ColumnNames())

	if kind, ok := m.failOn[name]; ok {
		return snapload.IngestResult{
			RowsTotal: ds.NumRows(),
			Kind:      kind,
			Err:       errors.Join(kind.Sentinel(), errors.New("injected failure")),
		}
	}
	return snapload.IngestResult{
		Success:      true,
		RowsTotal:    ds.NumRows(),
		RowsInserted: ds.NumRows(),
		Batches:      len(snapload.Batches(ds.NumRows(), snapload.DefaultBatchSize)),
	}
}

type mockScanner struct {
	files []string
	err   error
}

func (m *mockScanner) Discover(string) ([]string, error) { return m.files, m.err }

// trackingReader wraps a reader and records which paths were read.
type trackingReader struct {
	inner snapload.DatasetReader
	read  []string
}

func (r *trackingReader) Read(ctx context.Context, path string) (*snapload.Dataset, error) {
	r.read = append(r.read, filepath.Base(path))
	return r.inner.Read(ctx, path)
}
