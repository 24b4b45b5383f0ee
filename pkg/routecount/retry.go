package routecount

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/randalmurphal/routecount/pkg/routecount/checkpoint"
)

// RetryPolicy controls how an Orchestrator retries a failed checkpoint save.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	MaxAttempts int

	// InitialBackoff is the wait before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between attempts.
	MaxBackoff time.Duration

	// BackoffFactor multiplies the wait after each attempt.
	BackoffFactor float64

	// Jitter is the random jitter factor (0.0-1.0).
	Jitter float64
}

// DefaultRetry is the policy used unless WithCheckpointRetry says otherwise.
var DefaultRetry = RetryPolicy{
	MaxAttempts:    3,
	InitialBackoff: 100 * time.Millisecond,
	MaxBackoff:     2 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// NoRetry gives up after the first failure.
var NoRetry = RetryPolicy{MaxAttempts: 1}

// permanent reports whether retrying a save cannot help.
func permanent(err error) bool {
	return errors.Is(err, checkpoint.ErrIncompatible) ||
		errors.Is(err, checkpoint.ErrStoreClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// retry calls fn until it succeeds, fails permanently, ctx ends, or the
// policy runs out. It returns the number of attempts and the last error.
func retry(ctx context.Context, p RetryPolicy, fn func() error) (int, error) {
	attempts := max(p.MaxAttempts, 1)
	backoff := p.InitialBackoff

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || permanent(err) || attempt == attempts {
			return attempt, err
		}

		select {
		case <-ctx.Done():
			return attempt, err
		case <-time.After(jittered(backoff, p.Jitter)):
		}

		backoff = time.Duration(float64(backoff) * p.BackoffFactor)
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}
}

// jittered returns base +/- (base * jitter * random).
func jittered(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 || base <= 0 {
		return base
	}
	return time.Duration(float64(base) + float64(base)*jitter*(rand.Float64()*2-1))
}
