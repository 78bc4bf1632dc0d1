package tui

import (
	"bytes"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyc-warehouse/snapload/internal/logging"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(model)
}

func TestModel_TracksEvents(t *testing.T) {
	m := newModel(nil)

	m = update(t, m, connectedMsg{engine: "postgresql", target: "localhost:15432/nyc_warehouse"})
	assert.Contains(t, m.View(), "Connected to postgresql (localhost:15432/nyc_warehouse)")

	m = update(t, m, startedMsg{total: 25000, table: "nyc_raw"})
	assert.Contains(t, m.View(), "Inserting 25000 rows into nyc_raw")
	assert.Contains(t, m.View(), "0/25000 rows")

	m = update(t, m, batchMsg{done: 10000, total: 25000})
	assert.Contains(t, m.View(), "10000/25000 rows")
	assert.InDelta(t, 0.4, m.rows.Percent(), 1e-9)

	m = update(t, m, completedMsg{})
	assert.Equal(t, 1, m.files)
	assert.Contains(t, m.View(), "Committed 1 file(s)")
}

func TestModel_Failure(t *testing.T) {
	m := update(t, newModel(nil), failedMsg{err: errors.New("relation does not exist")})
	assert.Contains(t, m.View(), "relation does not exist")
}

func TestModel_CancelKey(t *testing.T) {
	canceled := 0
	m := newModel(func() { canceled++ })

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.Equal(t, 1, canceled)
	assert.True(t, m.canceling)
	assert.Contains(t, m.View(), "Canceling...")
}

func TestModel_FinishQuits(t *testing.T) {
	next, cmd := newModel(nil).Update(finishMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

func TestBarReporter_FlushesPlainLinesOnClose(t *testing.T) {
	var bar, plain bytes.Buffer
	r := NewBarReporter(BarOptions{
		Output:       &bar,
		Final:        logging.NewConsoleReporterTo(&plain),
		Cancel:       func() {},
		DisableInput: true,
	})
	r.Start()

	r.Connected("sqlite", "/tmp/w.db")
	r.Started(3, "nyc_raw")
	r.BatchInserted(3, 3)
	r.Completed(snapload.IngestResult{Success: true, RowsTotal: 3, RowsInserted: 3})
	r.Failed(errors.New("second file broke"))

	require.NoError(t, r.Close())
	assert.Equal(t, "✅ Insert complete!\n❌ Connection or insert error: second file broke\n", plain.String())
}
