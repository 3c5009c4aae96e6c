// Package retry wraps remote calls with classified, bounded exponential
// backoff. It is an injectable policy object rather than a decorator so
// rate-limited mutations and cheap reads can carry different budgets.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TransientError marks a failure expected to resolve itself after waiting,
// such as rate limiting or abuse detection. RetryAfter, when non-zero, is
// the wait the remote service asked for and takes precedence over computed
// backoff.
type TransientError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *TransientError) Error() string {
	return "transient remote error: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

// ExhaustedError annotates the last error after the attempt budget ran out.
type ExhaustedError struct {
	Attempts  int
	Transient bool
	Err       error
}

func (e *ExhaustedError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("giving up after %d attempts (%s): %v", e.Attempts, kind, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Policy configures one call site. The zero value of optional fields picks
// sane defaults; Classify defaults to transient-error detection via
// errors.As.
type Policy struct {
	// MaxAttempts is the total attempt budget, first try included.
	MaxAttempts int
	// BaseDelay seeds the exponential backoff.
	BaseDelay time.Duration
	// MaxDelay caps any single sleep, computed or server-advised.
	MaxDelay time.Duration
	// Classify reports whether an error is worth retrying. Non-transient
	// errors propagate on the first attempt.
	Classify func(error) bool

	// sleep is swapped out by tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPolicy matches the tuning knobs' documented defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// IsTransient is the default classifier.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Do runs op under the policy. It returns the first success, propagates
// non-transient errors immediately, and annotates exhaustion with the
// classification and attempt count.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultPolicy().MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultPolicy().BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultPolicy().MaxDelay
	}
	classify := p.Classify
	if classify == nil {
		classify = IsTransient
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepTimer
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !classify(err) {
			return zero, err
		}
		if attempt == p.MaxAttempts {
			break
		}
		if err := sleep(ctx, p.delay(attempt, err)); err != nil {
			return zero, err
		}
	}
	return zero, &ExhaustedError{Attempts: p.MaxAttempts, Transient: true, Err: lastErr}
}

// delay picks the next sleep: a server-advised wait wins over computed
// backoff, and everything is capped at MaxDelay.
func (p Policy) delay(attempt int, err error) time.Duration {
	d := p.BaseDelay << (attempt - 1)

	var te *TransientError
	if errors.As(err, &te) && te.RetryAfter > 0 {
		d = te.RetryAfter
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

func sleepTimer(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WithSleep returns a copy of the policy using the given sleeper. Exported
// for tests in other packages that must not actually wait.
func (p Policy) WithSleep(sleep func(ctx context.Context, d time.Duration) error) Policy {
	p.sleep = sleep
	return p
}
