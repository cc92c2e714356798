package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider re-sends a request after transient failures, sleeping
// between attempts according to its RetryConfig.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{inner: p, config: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	attempts := max(r.config.MaxAttempts, 1)
	var cls retryClassifier

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.config.Delay(attempt-1, lastErr)):
			}
		}

		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		// The caller's own cancellation or deadline ends the loop; a
		// deadline set below us (WithTimeout) only ends the attempt.
		if ctx.Err() != nil || !cls.retryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// retryClassifier decides which failures are worth another attempt. It is
// stateful because a malformed response earns exactly one retry per call.
type retryClassifier struct {
	invalidSeen bool
}

func (c *retryClassifier) retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var (
		maxTok  *ErrMaxTokensExceeded
		auth    *ErrAuth
		invResp *ErrInvalidResponse
	)
	switch {
	case errors.As(err, &maxTok), errors.As(err, &auth):
		return false
	case errors.As(err, &invResp):
		if c.invalidSeen {
			return false
		}
		c.invalidSeen = true
		return true
	}

	// Rate limits, unavailable providers, failed fallbacks, per-attempt
	// timeouts and plain network errors.
	return true
}

// Delay is the wait before retry number attempt+1, given the error that
// ended the previous attempt.
func (c RetryConfig) Delay(attempt int, err error) time.Duration {
	if c.Linear {
		return c.InitialWait * time.Duration(attempt+1)
	}

	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := math.Min(
		float64(c.InitialWait)*math.Pow(c.Multiplier, float64(attempt)),
		float64(c.MaxWait),
	)
	// ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	return time.Duration(math.Max(wait, 0))
}
