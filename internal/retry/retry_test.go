package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fast(retries int) Options {
	return Options{Retries: retries, Delay: time.Millisecond, Factor: 2}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), fast(2), func(ctx context.Context, attempt int) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	var attempts []int
	v, err := Do(context.Background(), fast(2), func(ctx context.Context, attempt int) (int, error) {
		attempts = append(attempts, attempt)
		if attempt < 3 {
			return 0, errors.New("flaky")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestDo_ReturnsLastError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fast(2), func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, errors.New("attempt failed")
	})

	require.Error(t, err)
	assert.Equal(t, "attempt failed", err.Error())
	assert.Equal(t, 3, calls, "retries+1 attempts")
}

func TestDo_ZeroRetries(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fast(0), func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, errors.New("nope")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_PermanentStops(t *testing.T) {
	sentinel := errors.New("bad request")
	calls := 0
	_, err := Do(context.Background(), fast(5), func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, Permanent(sentinel)
	})

	assert.ErrorIs(t, err, sentinel)
	assert.False(t, IsPermanent(err), "marker is stripped")
	assert.Equal(t, 1, calls)
}

func TestDo_BackoffSchedule(t *testing.T) {
	var waits []time.Duration
	opts := Options{Retries: 3, Delay: time.Millisecond, Factor: 2}
	opts.OnRetry = func(attempt int, wait time.Duration, err error) {
		waits = append(waits, wait)
	}

	_, _ = Do(context.Background(), opts, func(ctx context.Context, attempt int) (int, error) {
		return 0, errors.New("x")
	})

	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}, waits)
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opts := Options{Retries: 3, Delay: time.Hour, Factor: 2}
	opts.OnRetry = func(int, time.Duration, error) { cancel() }

	calls := 0
	_, err := Do(ctx, opts, func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, errors.New("upstream down")
	})

	assert.EqualError(t, err, "upstream down")
	assert.Equal(t, 1, calls)
}

func TestDo_ContextAlreadyDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, fast(2), func(ctx context.Context, attempt int) (int, error) {
		t.Fatal("fn must not run")
		return 0, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
