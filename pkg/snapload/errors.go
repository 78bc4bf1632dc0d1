package snapload

import (
	"context"
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	summary, err := runner.Run(ctx, cfg)
//	if errors.Is(err, snapload.ErrIngestionFailed) {
//	    // a file failed; summary.Skipped lists what never ran
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates the warehouse could not be reached or authenticated.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrSchemaMismatch indicates the dataset layout is incompatible with the target table.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrInsertFailed indicates a batch could not be staged for a reason other than schema.
	ErrInsertFailed = errors.New("insert failed")

	// ErrCommitFailed indicates the per-file transaction failed to commit.
	ErrCommitFailed = errors.New("commit failed")

	// ErrIngestionFailed indicates a file failed to ingest and the run stopped early.
	ErrIngestionFailed = errors.New("ingestion failed")

	// ErrSourceUnavailable indicates the source directory or a snapshot file could not be read.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrUnsupportedEngine indicates no warehouse backend is registered under the requested name.
	ErrUnsupportedEngine = errors.New("unsupported engine")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Ingestion failures carry the underlying kind in the chain, so they are
	// checked before connection errors.
	switch {
	case errors.Is(err, ErrIngestionFailed):
		return ExitIngestionFailed
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrUnsupportedEngine),
		errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrSourceUnavailable):
		return ExitSourceError
	}

	errStr := err.Error()
	if isUsageError(errStr) {
		return ExitUsageError
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}

// isUsageError recognizes cobra's argument and flag validation messages.
func isUsageError(msg string) bool {
	for _, prefix := range []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"accepts ",
		"accepts at most",
		"requires at least",
		"required flag",
		"invalid argument",
		"flag needs an argument",
	} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

// ErrorKind classifies why an ingestion failed.
type ErrorKind int

const (
	KindNone       ErrorKind = iota // Success
	KindConnection                  // Could not open, authenticate, or keep the connection
	KindSchema                      // Table layout or column types incompatible with the dataset
	KindInsert                      // Any other failure while staging a batch
	KindCommit                      // Transaction commit failed
	KindCanceled                    // Context cancelled or deadline exceeded
)

// String returns a human-readable representation of the ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConnection:
		return "connection"
	case KindSchema:
		return "schema"
	case KindInsert:
		return "insert"
	case KindCommit:
		return "commit"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Sentinel returns the sentinel error matching the kind, or nil for KindNone.
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindConnection:
		return ErrConnectionFailed
	case KindSchema:
		return ErrSchemaMismatch
	case KindInsert:
		return ErrInsertFailed
	case KindCommit:
		return ErrCommitFailed
	case KindCanceled:
		return context.Canceled
	default:
		return nil
	}
}

// KindForContext returns KindCanceled if err stems from context cancellation
// or deadline expiry, and fallback otherwise.
func KindForContext(err error, fallback ErrorKind) ErrorKind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return fallback
}
