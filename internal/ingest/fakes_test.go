package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/nyc-warehouse/snapload/internal/warehouse"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// fakeWarehouse records the calls made through it. Errors are injected per
// operation; kind is what Classify reports for any error.
type fakeWarehouse struct {
	mu sync.Mutex

	beginErr  error
	ensureErr error
	insertErr error
	failOn    int // 1-based batch that fails with insertErr; 0 = every batch
	commitErr error
	kind      snapload.ErrorKind

	ensured    []string
	batches    []int
	committed  int
	rolledBack bool
	closed     bool
}

func (w *fakeWarehouse) Describe() string { return "fake (memory)" }

func (w *fakeWarehouse) Begin(context.Context) (snapload.Tx, error) {
	if w.beginErr != nil {
		return nil, w.beginErr
	}
	return &fakeTx{w: w}, nil
}

func (w *fakeWarehouse) Classify(err error) snapload.ErrorKind {
	if err == nil {
		return snapload.KindNone
	}
	return snapload.KindForContext(err, w.kind)
}

func (w *fakeWarehouse) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

type fakeTx struct {
	w      *fakeWarehouse
	staged int
}

func (t *fakeTx) EnsureTable(_ context.Context, table string, _ []snapload.Column) error {
	if t.w.ensureErr != nil {
		return t.w.ensureErr
	}
	t.w.ensured = append(t.w.ensured, table)
	return nil
}

func (t *fakeTx) InsertBatch(ctx context.Context, _ string, _ []snapload.Column, rows [][]any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if t.w.insertErr != nil && (t.w.failOn == 0 || t.w.failOn == len(t.w.batches)+1) {
		return 0, t.w.insertErr
	}
	t.w.batches = append(t.w.batches, len(rows))
	t.staged += len(rows)
	return int64(len(rows)), nil
}

func (t *fakeTx) Commit(context.Context) error {
	if t.w.commitErr != nil {
		return t.w.commitErr
	}
	t.w.committed += t.staged
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.w.rolledBack = true
	return nil
}

func openFake(w *fakeWarehouse) OpenFunc {
	return func(context.Context, *snapload.ConnectionConfig, warehouse.Options) (snapload.Warehouse, error) {
		return w, nil
	}
}

// recordingReporter keeps every event as a line.
type recordingReporter struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingReporter) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recordingReporter) Connected(engine, target string) {
	r.add("connected %s %s", engine, target)
}
func (r *recordingReporter) Started(total int, table string) { r.add("started %d %s", total, table) }
func (r *recordingReporter) BatchInserted(done, total int)   { r.add("batch %d/%d", done, total) }
func (r *recordingReporter) Failed(err error)                { r.add("failed") }
func (r *recordingReporter) Completed(snapload.IngestResult) { r.add("completed") }

func (r *recordingReporter) count(prefix string) int {
	n := 0
	for _, e := range r.events {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func dataset(n int) *snapload.Dataset {
	ds := &snapload.Dataset{
		Source:  "trips.parquet",
		Columns: []snapload.Column{{Name: "vendorid", Type: snapload.TypeInteger}, {Name: "zone", Type: snapload.TypeText}},
		Rows:    make([][]any, n),
	}
	for i := range ds.Rows {
		ds.Rows[i] = []any{int64(i), fmt.Sprintf("zone %d", i%5)}
	}
	return ds
}
