package snapload

import "time"

// ErrorClassifier decides whether a failed warehouse connect is worth another
// try. Refused or reset sockets and "server starting up" codes are transient;
// bad credentials and unknown databases are not.
type ErrorClassifier interface {
	IsTransient(err error) bool
}

// BackoffStrategy spaces connect attempts. Only opening the warehouse goes
// through it: batch inserts run inside a transaction and are never repeated.
type BackoffStrategy interface {
	// NextDelay is the wait before retry number attempt, counting from 0.
	NextDelay(attempt int) time.Duration

	// MaxAttempts bounds the retries after the first connect; negative
	// means keep trying until the context ends.
	MaxAttempts() int
}
