package logging

import "github.com/nyc-warehouse/snapload/pkg/snapload"

var (
	_ snapload.Logger           = (*NullLogger)(nil)
	_ snapload.ProgressReporter = (*NullReporter)(nil)
)

// NullLogger is a no-op logger that discards all log messages.
// Safe for concurrent use by multiple goroutines.
// Useful for testing and when logging is not desired.
type NullLogger struct{}

// NewNullLogger creates a new NullLogger.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

// Verbose is a no-op.
func (l *NullLogger) Verbose(format string, args ...interface{}) {}

// Info is a no-op.
func (l *NullLogger) Info(format string, args ...interface{}) {}

// Error is a no-op.
func (l *NullLogger) Error(format string, args ...interface{}) {}

// NullReporter discards progress events.
type NullReporter struct{}

func (NullReporter) Connected(engine, target string)        {}
func (NullReporter) Started(total int, table string)        {}
func (NullReporter) BatchInserted(done, total int)          {}
func (NullReporter) Failed(err error)                       {}
func (NullReporter) Completed(result snapload.IngestResult) {}
