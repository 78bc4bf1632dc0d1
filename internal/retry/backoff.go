package retry

import (
	"math/rand"
	"time"

	"github.com/nyc-warehouse/snapload/pkg/snapload"
)

// ExponentialBackoff spaces connection attempts: the first retry waits
// initialDelay, each later one multiplies the wait, and no wait exceeds
// maxDelay. A jitter of 0.1 spreads every wait over +/-10%.
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	jitter       float64

	// retries after the first attempt; negative means no limit
	maxAttempts int

	// random source in [0, 1); nil uses math/rand
	jitterFunc func() float64
}

// BackoffOption configures an ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.initialDelay = d }
}

func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.maxDelay = d }
}

func WithMultiplier(m float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.multiplier = m }
}

// WithJitter sets the spread as a fraction of the delay, 0 disables it.
func WithJitter(j float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.jitter = j }
}

// WithJitterFunc replaces the random source, which tests pin to a constant.
func WithJitterFunc(f func() float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.jitterFunc = f }
}

// NewExponentialBackoff allows maxAttempts retries, waiting 100ms, 200ms,
// 400ms and so on up to 30s unless options say otherwise.
func NewExponentialBackoff(maxAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: 100 * time.Millisecond,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
		jitter:       0.1,
		maxAttempts:  maxAttempts,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewDefaultBackoff returns the strategy used for warehouse connection attempts.
func NewDefaultBackoff() *ExponentialBackoff {
	return NewExponentialBackoff(snapload.DefaultRetryMaxAttempts,
		WithInitialDelay(snapload.DefaultRetryInitialDelay),
		WithMaxDelay(snapload.DefaultRetryMaxDelay),
	)
}

var _ snapload.BackoffStrategy = (*ExponentialBackoff)(nil)

// NextDelay returns the wait before retry number attempt, counting from 0.
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := b.initialDelay
	for i := 0; i < attempt && delay < b.maxDelay; i++ {
		delay = time.Duration(float64(delay) * b.multiplier)
	}
	delay = min(delay, b.maxDelay)

	if b.jitter <= 0 {
		return delay.Truncate(time.Millisecond)
	}
	random := b.jitterFunc
	if random == nil {
		random = rand.Float64
	}
	// random in [0,1) becomes a factor in [1-jitter, 1+jitter)
	factor := 1 + b.jitter*(2*random()-1)
	return time.Duration(float64(delay) * factor).Truncate(time.Millisecond)
}

func (b *ExponentialBackoff) MaxAttempts() int { return b.maxAttempts }

func (b *ExponentialBackoff) InitialDelay() time.Duration { return b.initialDelay }

func (b *ExponentialBackoff) MaxDelay() time.Duration { return b.maxDelay }

func (b *ExponentialBackoff) Multiplier() float64 { return b.multiplier }

func (b *ExponentialBackoff) Jitter() float64 { return b.jitter }
