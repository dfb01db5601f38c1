package usecase

import (
	"context"
	"errors"
	"net"
	"time"
)

// RetryPolicy wraps an external call with bounded attempts and a wall-clock
// deadline per attempt. It knows nothing about email; the predicate decides
// what is worth retrying.
type RetryPolicy struct {
	Attempts  int
	Delay     time.Duration
	Timeout   time.Duration
	Retryable func(error) bool
}

// Do runs op until it succeeds, the predicate rejects its error, or the
// attempt budget runs out. A deadline exceeded aborts rather than retries
// unless the predicate says otherwise.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx := ctx
		var cancel context.CancelFunc
		if p.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		}
		err = op(attemptCtx)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			return err
		}
		if p.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delay):
			}
		}
	}
	return err
}

// DefaultRetryable accepts network-class errors and anything classified
// transient (429/5xx) by the integration clients. context deadlines and
// permanent failures propagate on first sight.
func DefaultRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsPermanent(err) {
		return false
	}
	if IsTransient(err) {
		return true
	}
	// context.DeadlineExceeded satisfies net.Error; an exceeded deadline
	// aborts, it does not retry.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
