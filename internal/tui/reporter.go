package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nyc-warehouse/snapload/internal/logging"
	"github.com/nyc-warehouse/snapload/internal/tui/components"
	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

type (
	connectedMsg struct{ engine, target string }
	startedMsg   struct {
		total int
		table string
	}
	batchMsg     struct{ done, total int }
	failedMsg    struct{ err error }
	completedMsg struct{}
	finishMsg    struct{}
)

// model is the bubbletea model behind BarReporter.
type model struct {
	status components.Status
	rows   components.Rows
	keys   KeyMap
	cancel context.CancelFunc

	target    string
	table     string
	files     int
	failed    error
	canceling bool
	finished  bool
}

func newModel(cancel context.CancelFunc) model {
	return model{
		status: components.NewStatus("Connecting..."),
		rows:   components.NewRows(),
		keys:   DefaultKeyMap(),
		cancel: cancel,
	}
}

func (m model) Init() tea.Cmd {
	return m.status.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Cancel) && !m.canceling {
			m.canceling = true
			m.status.SetMessage("Canceling...")
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.rows.SetWidth(msg.Width)
		return m, nil

	case connectedMsg:
		m.target = fmt.Sprintf("%s (%s)", msg.engine, msg.target)
		m.status.SetMessage("Connected to " + m.target)
		return m, nil

	case startedMsg:
		m.table = msg.table
		m.status.SetMessage(fmt.Sprintf("Inserting %d rows into %s", msg.total, msg.table))
		return m, m.rows.Reset(msg.total)

	case batchMsg:
		return m, m.rows.Set(msg.done, msg.total)

	case failedMsg:
		m.failed = msg.err
		m.status.SetMessage("Failed")
		return m, nil

	case completedMsg:
		m.files++
		m.status.SetMessage(fmt.Sprintf("Committed %d file(s)", m.files))
		return m, nil

	case finishMsg:
		m.finished = true
		return m, tea.Quit
	}

	var statusCmd, rowsCmd tea.Cmd
	m.status, statusCmd = m.status.Update(msg)
	m.rows, rowsCmd = m.rows.Update(msg)
	return m, tea.Batch(statusCmd, rowsCmd)
}

func (m model) View() string {
	if m.finished {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("snapload"))
	if m.table != "" {
		b.WriteString(SubtitleStyle.Render(" → " + m.table))
	}
	b.WriteString("\n")
	b.WriteString(PanelStyle.Render(m.status.View()))
	b.WriteString("\n")
	b.WriteString(PanelStyle.Render(m.rows.View()))
	b.WriteString("\n")
	switch {
	case m.failed != nil:
		b.WriteString(PanelStyle.Render(ErrorStyle.Render(SymbolCross + " " + logging.Truncate(m.failed.Error(), 120))))
		b.WriteString("\n")
	case m.canceling:
		b.WriteString(PanelStyle.Render(WarningStyle.Render("waiting for the current batch...")))
		b.WriteString("\n")
	}
	b.WriteString(HelpStyle.Render(m.keys.HelpText()))
	b.WriteString("\n")
	return b.String()
}

// BarOptions configures a BarReporter.
type BarOptions struct {
	// Output receives the rendered bar. Defaults to stderr.
	Output io.Writer

	// Final receives the plain completion and error lines once the bar is
	// torn down. Defaults to a console reporter on stdout.
	Final snapload.ProgressReporter

	// Cancel is called when the user presses ctrl+c while the bar owns the terminal.
	Cancel context.CancelFunc

	// DisableInput stops the program from reading stdin.
	DisableInput bool
}

// BarReporter renders ingestion progress as a bubbletea program. Events are
// delivered to the program with Send, so it is safe to call from the
// ingesting goroutine.
type BarReporter struct {
	program *tea.Program
	final   snapload.ProgressReporter
	done    chan struct{}

	mu      sync.Mutex
	pending []func(snapload.ProgressReporter)
	runErr  error
}

var _ snapload.ProgressReporter = (*BarReporter)(nil)

// NewBarReporter creates a reporter. Call Start before the first event and
// Close after the last one.
func NewBarReporter(opts BarOptions) *BarReporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.Final == nil {
		opts.Final = logging.NewConsoleReporter()
	}

	programOpts := []tea.ProgramOption{tea.WithOutput(opts.Output)}
	if opts.DisableInput {
		programOpts = append(programOpts, tea.WithInput(nil))
	}

	return &BarReporter{
		program: tea.NewProgram(newModel(opts.Cancel), programOpts...),
		final:   opts.Final,
		done:    make(chan struct{}),
	}
}

// Start runs the program in the background.
func (r *BarReporter) Start() {
	go func() {
		defer close(r.done)
		if _, err := r.program.Run(); err != nil {
			r.mu.Lock()
			r.runErr = err
			r.mu.Unlock()
		}
	}()
}

// Close stops the program, waits for it to restore the terminal and prints
// the deferred plain lines.
func (r *BarReporter) Close() error {
	r.program.Send(finishMsg{})
	<-r.done

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, emit := range r.pending {
		emit(r.final)
	}
	r.pending = nil
	return r.runErr
}

func (r *BarReporter) Connected(engine, target string) {
	r.program.Send(connectedMsg{engine: engine, target: target})
}

func (r *BarReporter) Started(total int, table string) {
	r.program.Send(startedMsg{total: total, table: table})
}

func (r *BarReporter) BatchInserted(done, total int) {
	r.program.Send(batchMsg{done: done, total: total})
}

func (r *BarReporter) Failed(err error) {
	r.later(func(p snapload.ProgressReporter) { p.Failed(err) })
	r.program.Send(failedMsg{err: err})
}

func (r *BarReporter) Completed(result snapload.IngestResult) {
	r.later(func(p snapload.ProgressReporter) { p.Completed(result) })
	r.program.Send(completedMsg{})
}

func (r *BarReporter) later(emit func(snapload.ProgressReporter)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, emit)
}
