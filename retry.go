package gostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryStrategy decides how many times, and when, an operation is attempted.
// Implementations must return the error of the last attempt, joined with the
// context error when ctx ends while waiting for the next attempt.
type RetryStrategy interface {
	Execute(ctx context.Context, op func(ctx context.Context) error) error
}

// RetryStrategyFunc adapts a function to RetryStrategy.
type RetryStrategyFunc func(ctx context.Context, op func(ctx context.Context) error) error

// Execute - implements RetryStrategy.
func (f RetryStrategyFunc) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	return f(ctx, op)
}

// NoRetry runs the operation exactly once.
var NoRetry RetryStrategy = RetryStrategyFunc(func(ctx context.Context, op func(ctx context.Context) error) error {
	return op(ctx)
})

// BackoffKind selects the delay growth of a BackoffStrategy.
type BackoffKind string

const (
	BackoffFibonacci   BackoffKind = "fibonacci"
	BackoffExponential BackoffKind = "exponential"
	BackoffConstant    BackoffKind = "constant"
)

// RetryConfig describes a BackoffStrategy.
type RetryConfig struct {
	// MaxRetries - attempts after the first one. Zero disables retries.
	MaxRetries uint64 `yaml:"maxRetries"`
	// BaseDelay - delay before the first retry.
	BaseDelay time.Duration `yaml:"baseDelay"`
	// MaxDelay - cap of a single delay. Zero means uncapped.
	MaxDelay time.Duration `yaml:"maxDelay"`
	// Backoff - "fibonacci" (default), "exponential" or "constant".
	Backoff BackoffKind `yaml:"backoff"`
	// JitterPercent - random +/- percentage applied to each delay.
	JitterPercent uint64 `yaml:"jitterPercent"`
}

// DefaultRetryConfig returns the default configuration: 5 retries with
// Fibonacci backoff starting at 100ms and capped at 2s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 5,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   2 * time.Second,
		Backoff:    BackoffFibonacci,
	}
}

// BackoffStrategy retries operations failing with transient errors, waiting
// between attempts according to its backoff.
type BackoffStrategy struct {
	cfg       RetryConfig
	retryable func(error) bool
}

// NewBackoffStrategy builds a strategy from cfg. Errors are classified with
// IsTransient unless WithRetryable overrides it.
func NewBackoffStrategy(cfg RetryConfig) (*BackoffStrategy, error) {
	if cfg.Backoff == "" {
		cfg.Backoff = BackoffFibonacci
	}

	switch cfg.Backoff {
	case BackoffFibonacci, BackoffExponential, BackoffConstant:
	default:
		return nil, fmt.Errorf("%w: unknown backoff '%s'", ErrInvalidArgument, cfg.Backoff)
	}

	if cfg.BaseDelay <= 0 {
		return nil, fmt.Errorf("%w: base delay must be positive", ErrInvalidArgument)
	}

	if cfg.JitterPercent > 100 {
		return nil, fmt.Errorf("%w: jitter percent must not exceed 100", ErrInvalidArgument)
	}

	return &BackoffStrategy{cfg: cfg, retryable: IsTransient}, nil
}

// WithRetryable replaces the error classifier.
func (s *BackoffStrategy) WithRetryable(fn func(error) bool) *BackoffStrategy {
	if fn != nil {
		s.retryable = fn
	}

	return s
}

func (s *BackoffStrategy) backoff() retry.Backoff {
	var b retry.Backoff
	switch s.cfg.Backoff {
	case BackoffExponential:
		b = retry.NewExponential(s.cfg.BaseDelay)
	case BackoffConstant:
		b = retry.NewConstant(s.cfg.BaseDelay)
	default:
		b = retry.NewFibonacci(s.cfg.BaseDelay)
	}

	if s.cfg.JitterPercent > 0 {
		b = retry.WithJitterPercent(s.cfg.JitterPercent, b)
	}

	if s.cfg.MaxDelay > 0 {
		b = retry.WithCappedDuration(s.cfg.MaxDelay, b)
	}

	return retry.WithMaxRetries(s.cfg.MaxRetries, b)
}

// Execute - implements RetryStrategy. When retries are exhausted, the error of
// the last attempt is returned. Cancelling ctx stops waiting and returns the
// context error joined with the error of the last attempt.
func (s *BackoffStrategy) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	// Backoffs are stateful, so every call gets its own.
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		lastErr = op(ctx)
		if lastErr != nil && s.retryable(lastErr) {
			return retry.RetryableError(lastErr)
		}

		return lastErr
	})

	if err != nil && lastErr != nil && ctx.Err() != nil &&
		errors.Is(err, ctx.Err()) && !errors.Is(lastErr, ctx.Err()) {
		return errors.Join(lastErr, err)
	}

	return err
}
