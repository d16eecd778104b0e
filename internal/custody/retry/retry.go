// Package retry runs network calls with bounded attempts and exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy bounds retries for a single logical call.
type Policy struct {
	// MaxAttempts is the total number of tries, first attempt included.
	MaxAttempts int
	// Timeout caps each attempt; an attempt that times out consumes one try.
	Timeout         time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// Jitter is the randomization factor in [0, 1].
	Jitter float64
}

// DefaultPolicy matches the jail service client defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		Timeout:         30 * time.Second,
		InitialInterval: 2 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2,
		Jitter:          0.2,
	}
}

// Attempt describes a failed try, passed to the Notify hook.
type Attempt struct {
	Number int
	Err    error
	Wait   time.Duration
}

// Notify is called after each failed attempt that will be retried.
type Notify func(Attempt)

// Do calls op until it succeeds, returns an error classify rejects, the
// attempt budget is spent, or ctx is done. It returns the last error.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error, classify func(error) bool, notify Notify) error {
	attempts := 0
	operation := func() error {
		attempts++
		attemptCtx := ctx
		if p.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}
		err := op(attemptCtx)
		if err == nil {
			return nil
		}
		if classify != nil && !classify(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	var onRetry backoff.Notify
	if notify != nil {
		onRetry = func(err error, wait time.Duration) {
			notify(Attempt{Number: attempts, Err: err, Wait: wait})
		}
	}

	return backoff.RetryNotify(operation, p.backOff(ctx), onRetry)
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.Multiplier = p.Multiplier
	if b.Multiplier < 1 {
		b.Multiplier = backoff.DefaultMultiplier
	}
	b.RandomizationFactor = p.Jitter
	b.MaxElapsedTime = 0
	b.Reset()

	maxRetries := p.MaxAttempts - 1
	if maxRetries < 0 {
		maxRetries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)
}
