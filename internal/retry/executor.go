package retry

import (
	"context"
	"time"

	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// Executor repeats an operation while its errors classify as transient and
// the backoff still allows another attempt. It is safe for concurrent use.
type Executor struct {
	classifier snapload.ErrorClassifier
	strategy   snapload.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor panics if classifier or strategy is nil.
func NewExecutor(classifier snapload.ErrorClassifier, strategy snapload.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// NewConnectionExecutor returns the executor used around warehouse connects.
func NewConnectionExecutor() *Executor {
	return NewExecutor(NewConnectionErrorClassifier(), NewDefaultBackoff())
}

// WithOnRetry returns a copy of e that calls callback before each wait.
// attempt counts retries from 0.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// Execute runs operation until it succeeds, fails fatally, runs out of
// retries or ctx ends. The last operation error is returned, or ctx.Err()
// when the context ended during a wait.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	limit := e.strategy.MaxAttempts()

	for retries := 0; ; retries++ {
		err := operation(ctx)
		if err == nil || !e.classifier.IsTransient(err) {
			return err
		}
		if limit >= 0 && retries >= limit {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.strategy.NextDelay(retries)
		if e.onRetry != nil {
			e.onRetry(retries, err, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do is Execute for operations that produce a value, such as opening a
// warehouse. The zero value is returned with any error.
func Do[T any](ctx context.Context, e *Executor, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err == nil {
			result = v
		}
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
