package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

var _ snapload.Logger = (*ConsoleLogger)(nil)

// ConsoleLogger writes diagnostic messages to stderr.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	verbose bool
	prefix  string
	out     io.Writer
	mu      sync.Mutex
}

// NewConsoleLogger creates a new ConsoleLogger writing to stderr.
// If verbose is true, Verbose() calls will produce output.
// If verbose is false, Verbose() calls are no-ops.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewConsoleLoggerTo(os.Stderr, verbose)
}

// NewConsoleLoggerTo creates a ConsoleLogger writing to w.
func NewConsoleLoggerTo(w io.Writer, verbose bool) *ConsoleLogger {
	if w == nil {
		panic("writer cannot be nil")
	}
	return &ConsoleLogger{
		verbose: verbose,
		out:     w,
	}
}

// WithRunID returns a logger that tags verbose lines with the run identifier.
func (l *ConsoleLogger) WithRunID(id string) *ConsoleLogger {
	return &ConsoleLogger{
		verbose: l.verbose,
		prefix:  "[" + id + "] ",
		out:     l.out,
	}
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write("[VERBOSE] "+l.prefix, format, args)
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.write("", format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.write("[ERROR] ", format, args)
}

func (l *ConsoleLogger) write(tag, format string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(args) > 0 {
		fmt.Fprintf(l.out, tag+format+"\n", args...)
	} else {
		fmt.Fprint(l.out, tag+format+"\n")
	}
}
