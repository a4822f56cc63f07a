package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), 3, time.Millisecond, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("temporary")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestRetry_ReturnsLastError(t *testing.T) {
	cause := errors.New("boom")
	calls := 0
	_, err := Retry(context.Background(), 2, time.Millisecond, func(ctx context.Context) (int, error) {
		calls++
		return 0, cause
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
	assert.Equal(t, 2, calls)
}

func TestRetry_BackoffDoubles(t *testing.T) {
	var stamps []time.Time
	_, _ = Retry(context.Background(), 3, 20*time.Millisecond, func(ctx context.Context) (int, error) {
		stamps = append(stamps, time.Now())
		return 0, errors.New("fail")
	})

	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 40*time.Millisecond)
}

func TestRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Retry(ctx, 5, time.Hour, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("fail")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetry_AtLeastOneAttempt(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 0, time.Millisecond, func(ctx context.Context) (int, error) {
		calls++
		return 1, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
