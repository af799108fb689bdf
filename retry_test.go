package gostore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(t *testing.T, maxRetries uint64) *BackoffStrategy {
	t.Helper()

	s, err := NewBackoffStrategy(RetryConfig{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	})
	require.NoError(t, err)

	return s
}

func Test_NoRetry(t *testing.T) {
	calls := 0
	transient := fmt.Errorf("%w: busy", ErrTransient)

	err := NoRetry.Execute(context.Background(), func(context.Context) error {
		calls++
		return transient
	})

	require.ErrorIs(t, err, transient)
	assert.Equal(t, 1, calls)
}

func Test_BackoffStrategy_RetriesTransient(t *testing.T) {
	calls := 0

	err := fastRetry(t, 5).Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("%w: busy", ErrTransient)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func Test_BackoffStrategy_ReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	var last error

	err := fastRetry(t, 2).Execute(context.Background(), func(context.Context) error {
		calls++
		last = fmt.Errorf("%w: attempt %d", ErrTransient, calls)
		return last
	})

	assert.Equal(t, 3, calls)
	assert.Same(t, last, err)
}

func Test_BackoffStrategy_PermanentErrorIsNotRetried(t *testing.T) {
	calls := 0
	permanent := errors.New("constraint violation")

	err := fastRetry(t, 5).Execute(context.Background(), func(context.Context) error {
		calls++
		return permanent
	})

	assert.Same(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func Test_BackoffStrategy_StateIsPerCall(t *testing.T) {
	s := fastRetry(t, 1)

	for range 3 {
		calls := 0
		_ = s.Execute(context.Background(), func(context.Context) error {
			calls++
			return ErrTransient
		})
		assert.Equal(t, 2, calls)
	}
}

func Test_BackoffStrategy_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := fastRetry(t, 5).Execute(ctx, func(context.Context) error {
		calls++
		cancel()
		return ErrTransient
	})

	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, 1, calls)
}

func Test_BackoffStrategy_CanceledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := fastRetry(t, 5).Execute(ctx, func(context.Context) error {
		calls++
		return ErrTransient
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTransient)
	assert.Zero(t, calls)
}

func Test_BackoffStrategy_WithRetryable(t *testing.T) {
	calls := 0
	flaky := errors.New("flaky")

	s := fastRetry(t, 3).WithRetryable(func(err error) bool { return errors.Is(err, flaky) })

	err := s.Execute(context.Background(), func(context.Context) error {
		calls++
		return flaky
	})

	require.ErrorIs(t, err, flaky)
	assert.Equal(t, 4, calls)
}

func Test_NewBackoffStrategy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  RetryConfig
	}{
		{"unknown backoff", RetryConfig{BaseDelay: time.Second, Backoff: "linear"}},
		{"zero base delay", RetryConfig{MaxRetries: 3}},
		{"jitter above 100", RetryConfig{BaseDelay: time.Second, JitterPercent: 150}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBackoffStrategy(tt.cfg)
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	for _, kind := range []BackoffKind{BackoffFibonacci, BackoffExponential, BackoffConstant} {
		_, err := NewBackoffStrategy(RetryConfig{BaseDelay: time.Millisecond, Backoff: kind, JitterPercent: 10})
		require.NoError(t, err, kind)
	}
}
