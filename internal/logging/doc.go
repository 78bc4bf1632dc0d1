// Package logging provides concrete implementations of the snapload.Logger
// and snapload.ProgressReporter interfaces.
//
// Available implementations:
//   - ConsoleLogger: Writes diagnostics to stderr with thread-safe output
//   - NullLogger: Discards all messages (useful for testing)
//   - ConsoleReporter: Prints ingestion status lines to stdout
//   - NullReporter: Discards ingestion events
//
// All implementations are safe for concurrent use by multiple goroutines.
package logging
