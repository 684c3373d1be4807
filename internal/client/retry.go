package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/whisper-client/internal/types"
)

// RetryPolicy governs retries of connection-class failures only.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy returns three attempts with a one second base delay doubling each time.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Multiplier:  2,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	return p
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	p = p.normalized()
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1)))
}

// sleepFunc waits for d unless ctx ends first.
type sleepFunc func(ctx context.Context, d time.Duration) error

// withRetry runs fn until it succeeds, fails with a non-retryable error, or the policy
// is exhausted. Only errors matching ErrServiceUnreachable are retried. Cancellation
// during a call or a backoff wait returns an error wrapping types.ErrCancelled.
func withRetry(ctx context.Context, policy RetryPolicy, sleep sleepFunc, log logrus.FieldLogger, op string, fn func(ctx context.Context) error) error {
	policy = policy.normalized()

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w: %w", op, types.ErrCancelled, err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if types.IsCancelled(lastErr) {
			return lastErr
		}
		if !errors.Is(lastErr, ErrServiceUnreachable) {
			return lastErr
		}
		if attempt == policy.MaxAttempts {
			break
		}

		delay := policy.Delay(attempt)
		log.WithFields(logrus.Fields{
			"op":       op,
			"attempt":  attempt,
			"of":       policy.MaxAttempts,
			"retry_in": delay,
		}).WithError(lastErr).Warn("Service unreachable, retrying")

		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return &RequestError{
		Op:      op,
		Kind:    ErrServiceUnreachable,
		Message: fmt.Sprintf("gave up after %d attempts", policy.MaxAttempts),
		Cause:   lastErr,
	}
}
