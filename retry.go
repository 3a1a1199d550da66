package godeepl

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxRetries int             // Maximum number of retry attempts after the first call
	Delays     []time.Duration // Wait before retry n is Delays[min(n, len-1)]
	Logger     *slog.Logger    // Receives a warning per wait (default: slog.Default())
}

// DefaultRetryConfig returns the fixed 10s/30s/60s schedule used against
// DeepL's rate limiter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		Delays:     []time.Duration{10 * time.Second, 30 * time.Second, 60 * time.Second},
	}
}

func (c RetryConfig) delay(attempt int) time.Duration {
	if len(c.Delays) == 0 {
		return 0
	}
	if attempt >= len(c.Delays) {
		attempt = len(c.Delays) - 1
	}
	return c.Delays[attempt]
}

// RetryFunc is a function that can be retried.
type RetryFunc[T any] func() (T, error)

// WithRetry executes fn, waiting out the configured schedule whenever it
// fails with a retryable error. Any other error is returned at once.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn RetryFunc[T]) (T, error) {
	var lastErr error
	var zero T

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}

		if attempt < cfg.MaxRetries {
			delay := cfg.delay(attempt)
			logger.WarnContext(ctx, "rate limited, backing off",
				"attempt", attempt+1,
				"max_retries", cfg.MaxRetries,
				"wait", delay,
				"err", err,
			)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return zero, lastErr
}

// IsRetryable checks if an error is retryable. Only rate limiting and
// providers errors explicitly flagged as transient qualify.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if IsRateLimited(err) {
		return true
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}

	return false
}

// RetryableProvider wraps a Provider with retry logic.
type RetryableProvider struct {
	provider Provider
	config   RetryConfig
}

// NewRetryableProvider creates a new provider with retry logic.
func NewRetryableProvider(provider Provider, cfg RetryConfig) *RetryableProvider {
	return &RetryableProvider{
		provider: provider,
		config:   cfg,
	}
}

// Translate implements Provider with retry logic.
func (p *RetryableProvider) Translate(ctx context.Context, req Request) (*Result, error) {
	return WithRetry(ctx, p.config, func() (*Result, error) {
		return p.provider.Translate(ctx, req)
	})
}
