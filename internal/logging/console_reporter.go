package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

var _ snapload.ProgressReporter = (*ConsoleReporter)(nil)

// ConsoleReporter prints one status line per ingestion event to stdout.
type ConsoleReporter struct {
	out io.Writer
	mu  sync.Mutex
}

// NewConsoleReporter creates a reporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return NewConsoleReporterTo(os.Stdout)
}

// NewConsoleReporterTo creates a reporter writing to w.
func NewConsoleReporterTo(w io.Writer) *ConsoleReporter {
	if w == nil {
		panic("writer cannot be nil")
	}
	return &ConsoleReporter{out: w}
}

func (r *ConsoleReporter) Connected(engine, target string) {
	r.printf("✅ Connected to %s (%s)\n", engine, target)
}

func (r *ConsoleReporter) Started(total int, table string) {
	r.printf("📦 Inserting %d rows into table `%s`\n", total, table)
}

func (r *ConsoleReporter) BatchInserted(done, total int) {
	r.printf("➡️  %d/%d rows inserted...\n", done, total)
}

func (r *ConsoleReporter) Failed(err error) {
	r.printf("❌ Connection or insert error: %v\n", err)
}

func (r *ConsoleReporter) Completed(result snapload.IngestResult) {
	r.printf("✅ Insert complete!\n")
}

func (r *ConsoleReporter) printf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

// Truncate shortens s to at most limit runes, marking the cut with "...".
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if limit <= 3 || len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
