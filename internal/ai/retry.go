package ai

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"vterm/internal/logging"
	"vterm/internal/metrics"
)

// RetryConfig holds retry configuration used by every backend.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts
	RetryDelay time.Duration // Initial delay between retries
	MaxDelay   time.Duration // Maximum backoff delay (cap)
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// CalculateBackoff calculates exponential backoff with up to 25% jitter.
func CalculateBackoff(baseDelay time.Duration, attempt int, maxDelay time.Duration) time.Duration {
	if baseDelay <= 0 {
		return 0
	}
	delay := baseDelay * time.Duration(1<<uint(attempt))
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}
	if delay/4 <= 0 {
		return delay
	}
	return delay + time.Duration(rand.Int63n(int64(delay/4)))
}

// withRetry runs call until it succeeds, fails permanently or runs out of
// attempts.
func withRetry(ctx context.Context, provider string, cfg RetryConfig, call func(context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := CalculateBackoff(cfg.RetryDelay, attempt-1, cfg.MaxDelay)
			logging.Info("retrying completion", "provider", provider, "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				metrics.ObserveAIRequest(provider, false)
				return "", ctx.Err()
			}
		}

		text, err := call(ctx)
		if err == nil {
			metrics.ObserveAIRequest(provider, true)
			return text, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			metrics.ObserveAIRequest(provider, false)
			return "", err
		}
		logging.Warn("completion failed, will retry", "provider", provider, "attempt", attempt, "error", err)
	}

	metrics.ObserveAIRequest(provider, false)
	return "", fmt.Errorf("max retries (%d) exceeded: %w", cfg.MaxRetries, lastErr)
}
