package llm

import (
	"context"
)

// Provider is the core abstraction for LLM interaction.
// Consumers call Generate with a Request and receive the completion text.
type Provider interface {
	// Generate sends a prompt to the LLM and returns its completion.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier used when a Request does not
	// name one.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. Optional; most wordzipf prompts put
	// their instructions in the single user message.
	System string

	// Messages is the conversation history. For single-turn generation
	// (every use in wordzipf), this contains one user message.
	Messages []Message

	// Model overrides the provider's default model for this request.
	// The fallback decorator rewrites it when switching models.
	Model string

	// MaxTokens is the maximum number of tokens in the response.
	// Zero leaves the provider default in place.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Default: 0.0 (provider default) when not set.
	Temperature float64
}

// Prompt builds a single-turn Request from a user prompt.
func Prompt(text string) Request {
	return Request{Messages: []Message{{Role: RoleUser, Content: text}}}
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response holds the LLM's output.
type Response struct {
	// Text is the trimmed text of the first candidate's first part.
	// Never empty on success; an empty completion is ErrNoContent.
	Text string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// modelFor returns the model a request should run against.
func modelFor(req Request, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	return fallback
}
