package coldbase

import (
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy configures exponential-backoff-with-jitter retry for mutation writes
// (spec §4.5 step 4). Background maintenance retries use their own loop driven by
// the collection's maintenance trigger settings and BackoffDelay.
type RetryPolicy struct {
	// MaxRetries caps the number of retry attempts after the first failure.
	MaxRetries uint64
	// BaseDelay is the initial backoff delay; it grows exponentially with jitter per attempt.
	BaseDelay time.Duration
}

// DefaultRetryPolicy mirrors the spec's recommended serverless maintenance presets.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, BaseDelay: 1 * time.Second}
}

// Retry runs task with exponential backoff and jitter, retrying only errors for which
// ShouldRetry(err) is true. gaveUpTask, if non-nil, is invoked whenever Retry returns an
// error: after retries are exhausted, or at once for an error ShouldRetry rejects.
func Retry(ctx context.Context, policy RetryPolicy, task func(ctx context.Context) error, gaveUpTask func(ctx context.Context)) error {
	b := retry.NewExponential(policy.BaseDelay)
	b = retry.WithJitter(policy.BaseDelay/2, b)
	b = retry.WithMaxRetries(policy.MaxRetries, b)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		err := task(ctx)
		if err == nil {
			return nil
		}
		if ShouldRetry(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		log.Warn("retry exhausted", "error", err)
		if gaveUpTask != nil {
			gaveUpTask(ctx)
		}
		return err
	}
	return nil
}

// ShouldRetry reports whether err is a transient storage failure worth retrying:
// network errors, HTTP 429/5xx, or S3-style throttling, as opposed to validation,
// precondition, or context cancellation errors which are permanent from the caller's POV.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		return false
	}
	var se SizeLimitError
	if errors.As(err, &se) {
		return false
	}
	var le LockActiveError
	if errors.As(err, &le) {
		return false
	}
	var pe PreconditionFailedError
	if errors.As(err, &pe) {
		return false
	}
	return true
}
