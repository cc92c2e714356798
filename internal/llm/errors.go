package llm

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoContent indicates the provider answered but the first candidate
// carried no text.
var ErrNoContent = errors.New("no response content received from API")

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrAuth indicates the provider rejected the credentials (401/403).
type ErrAuth struct {
	Err error
}

func (e *ErrAuth) Error() string {
	return fmt.Sprintf("LLM authentication failed: %v", e.Err)
}

func (e *ErrAuth) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content the caller could
// not use.
type ErrInvalidResponse struct {
	Content string
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content string
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// ErrFallbackFailed is returned when the primary model was rate limited
// and the fallback model failed as well. It carries both failures.
type ErrFallbackFailed struct {
	PrimaryModel  string
	FallbackModel string
	PrimaryErr    error
	FallbackErr   error
}

func (e *ErrFallbackFailed) Error() string {
	return fmt.Sprintf("both primary (%s) and fallback (%s) models failed. Primary error: %v, Fallback error: %v",
		e.PrimaryModel, e.FallbackModel, e.PrimaryErr, e.FallbackErr)
}

func (e *ErrFallbackFailed) Unwrap() []error {
	return []error{e.PrimaryErr, e.FallbackErr}
}

// rateLimitIndicators are matched case-insensitively against error text.
var rateLimitIndicators = []string{
	"rate limit",
	"quota exceeded",
	"too many requests",
	"429",
	"rate_limit_exceeded",
	"quota_exceeded",
	"resource_exhausted",
}

// IsRateLimit reports whether err looks like a rate-limit or quota failure,
// either by type or by its message.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, ind := range rateLimitIndicators {
		if strings.Contains(msg, ind) {
			return true
		}
	}
	return false
}

var authIndicators = []string{
	"api key",
	"api_key",
	"unauthenticated",
	"permission_denied",
	"permission denied",
	"401",
	"403",
}

// IsAuth reports whether err looks like a credentials problem.
func IsAuth(err error) bool {
	if err == nil {
		return false
	}
	var ae *ErrAuth
	if errors.As(err, &ae) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, ind := range authIndicators {
		if strings.Contains(msg, ind) {
			return true
		}
	}
	return false
}
