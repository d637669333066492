package providers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sitesmith/sitesmith/internal/metrics"
)

// RetryPolicy decides how often and how fast a failed completion is retried
type RetryPolicy struct {
	MaxAttempts int
	NewBackOff  func() backoff.BackOff
	Retryable   func(error) bool
}

// ExponentialPolicy retries up to maxAttempts times with exponential waits
// between initial and maxInterval.
func ExponentialPolicy(maxAttempts int, initial, maxInterval time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = initial
			b.MaxInterval = maxInterval
			b.Multiplier = 2
			b.MaxElapsedTime = 0
			return b
		},
		Retryable: IsRetryable,
	}
}

// IsRetryable reports whether err is an HTTP status or transport failure.
// Cancellation and configuration errors are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrMissingAPIKey) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return true
	}
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// TransportError wraps a failure to reach the provider at all
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "failed to send request: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type retrying struct {
	next   Provider
	policy RetryPolicy
	name   string
}

// WithRetry wraps p so every completion goes through policy.
func WithRetry(p Provider, policy RetryPolicy, name string) Provider {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.NewBackOff == nil {
		policy.NewBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	}
	if policy.Retryable == nil {
		policy.Retryable = IsRetryable
	}
	return &retrying{next: p, policy: policy, name: name}
}

func (r *retrying) Complete(ctx context.Context, config Config) (string, error) {
	var out string
	attempt := 0

	op := func() error {
		attempt++
		text, err := r.next.Complete(ctx, config)
		if err == nil {
			out = text
			return nil
		}
		if !r.policy.Retryable(err) {
			return backoff.Permanent(err)
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
			slog.Warn("LLM rate limit hit", "provider", r.name, "attempt", attempt)
		}
		return err
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(r.policy.NewBackOff(), uint64(r.policy.MaxAttempts-1)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		metrics.LLMRetries.WithLabelValues(r.name).Inc()
		slog.Warn("Retrying LLM call", "provider", r.name, "attempt", attempt, "wait", wait, "error", err)
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		metrics.LLMRequests.WithLabelValues(r.name, "error").Inc()
		return "", err
	}
	metrics.LLMRequests.WithLabelValues(r.name, "ok").Inc()
	return out, nil
}
