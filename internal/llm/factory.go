package llm

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/wordzipf/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with fallback and logging middleware.
// eventRepo may be nil.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log logrus.FieldLogger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(AnthropicConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Models.Primary,
			BaseURL: cfg.BaseURL,
		})
	case "openai":
		base, err = NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Models.Primary,
			BaseURL: cfg.BaseURL,
		})
	case "openrouter":
		base, err = NewOpenRouterProvider(OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Models.Primary,
			BaseURL: cfg.BaseURL,
		})
	case "gemini":
		base, err = NewGeminiProvider(ctx, GeminiConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Models.Primary,
			BaseURL: cfg.BaseURL,
		})
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller → fallback → logging → base
	logged := WithLogging(base, cfg.Provider, eventRepo, log)
	return WithFallback(logged, cfg.Models, log), nil
}
