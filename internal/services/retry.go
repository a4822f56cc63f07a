package services

import (
	"context"
	"fmt"
	"time"

	"alfredoptarigan/ats-analyzer/internal/logger"
)

// Retry calls fn up to attempts times. The wait before attempt n+1 is
// initialDelay * 2^(n-1). A cancelled context stops the loop at once.
func Retry[T any](ctx context.Context, attempts int, initialDelay time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	if attempts < 1 {
		attempts = 1
	}

	delay := initialDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, fmt.Errorf("context cancelled: %w", ctx.Err())
		}
		if attempt == attempts {
			break
		}

		logger.Get().WithError(err).WithField("attempt", attempt).Warnf("⚠️ Attempt failed, retrying in %s", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-timer.C:
		}
		delay *= 2
	}

	return zero, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
