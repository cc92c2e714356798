package llm

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "gemini", "openai", "anthropic", "openrouter", "mock"
	Provider string

	// APIKey authenticates against the selected provider.
	APIKey string

	// BaseURL overrides the provider endpoint. Optional.
	BaseURL string

	Models ModelConfig

	// Timeout is the maximum duration for a single LLM request.
	// Default: 30s.
	Timeout time.Duration
}

// ModelConfig names the models used for generation.
type ModelConfig struct {
	// Primary serves grading and dispute calls.
	Primary string

	// Lite serves content generation. Requests naming any model that
	// contains "lite" are routed here.
	Lite string

	// Fallback is tried once when the requested model is rate limited.
	Fallback string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64

	// Linear makes the wait InitialWait × attempt number (1, 2, ...)
	// with no jitter, instead of exponential backoff.
	Linear bool
}

// DisputeRetry is the policy used for dispute adjudication: three attempts,
// waiting 1s then 2s between them.
func DisputeRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Second,
		MaxWait:     10 * time.Second,
		Linear:      true,
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "gemini",
		Models:   DefaultModels("gemini"),
		Timeout:  30 * time.Second,
	}
}

// DefaultModels returns the model names a provider is used with when the
// configuration names none. Every name is one the provider's API accepts.
func DefaultModels(provider string) ModelConfig {
	switch provider {
	case "openai":
		return ModelConfig{Primary: "gpt-4o", Lite: "gpt-4o-mini", Fallback: "gpt-4o-mini"}
	case "anthropic":
		return ModelConfig{Primary: "claude-sonnet", Lite: "claude-haiku", Fallback: "claude-haiku"}
	case "openrouter":
		return ModelConfig{
			Primary:  "google/gemini-2.5-flash",
			Lite:     "google/gemini-2.5-flash-lite",
			Fallback: "google/gemini-2.0-flash-001",
		}
	default:
		return ModelConfig{
			Primary:  "gemini-2.5-flash",
			Lite:     "gemini-2.5-flash-lite-preview-06-17",
			Fallback: "gemini-2.0-flash",
		}
	}
}

// WithDefaults fills the empty fields of m from DefaultModels(provider).
func (m ModelConfig) WithDefaults(provider string) ModelConfig {
	d := DefaultModels(provider)
	if m.Primary == "" {
		m.Primary = d.Primary
	}
	if m.Lite == "" {
		m.Lite = d.Lite
	}
	if m.Fallback == "" {
		m.Fallback = d.Fallback
	}
	return m
}

// ResolveModel maps a requested model name to the configured model:
// names containing "lite" go to the lite model (the primary when no lite
// model is set), empty names to the primary, anything else is used as
// given.
func (m ModelConfig) ResolveModel(name string) string {
	switch {
	case name == "":
		return m.Primary
	case strings.Contains(name, "lite"):
		if m.Lite != "" {
			return m.Lite
		}
		return m.Primary
	default:
		return name
	}
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "gemini", "openai", "anthropic", "openrouter":
		if c.APIKey == "" {
			return fmt.Errorf("an API key is required for the %s provider", c.Provider)
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("LLM timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
