// Package gateway turns words into quiz content and grades free-text
// answers through an llm.Provider, using a small tagged response format.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/wordzipf/internal/llm"
)

const (
	// ContentModel is requested for content generation. Any name containing
	// "lite" is routed to the configured lite model.
	ContentModel = "gemini-2.5-flash-lite"

	// GradingModel is requested for grading; empty means the primary model.
	GradingModel = ""

	// DefaultSentences is the number of cloze sentences requested.
	DefaultSentences = 3

	// DefaultTimeout bounds a single LLM call.
	DefaultTimeout = 30 * time.Second
)

// Gateway builds prompts, calls the provider and parses the replies.
type Gateway struct {
	provider  llm.Provider
	sentences int
}

// New creates a Gateway. A non-positive timeout uses DefaultTimeout.
func New(provider llm.Provider, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{provider: llm.WithTimeout(provider, timeout), sentences: DefaultSentences}
}

// Generate sends prompt to model and returns the completion text.
func (g *Gateway) Generate(ctx context.Context, prompt, model string) (string, error) {
	req := llm.Prompt(prompt)
	req.Model = model
	return g.generate(ctx, req)
}

func (g *Gateway) generate(ctx context.Context, req llm.Request) (string, error) {
	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (g *Gateway) content(ctx context.Context, purpose, prompt string) (string, error) {
	req := llm.Prompt(prompt)
	req.Model = ContentModel
	req.Temperature = 0.7
	return g.generate(llm.WithPurpose(ctx, purpose), req)
}

// Definition generates a definition for word.
func (g *Gateway) Definition(ctx context.Context, word string) (Definition, error) {
	text, err := g.content(ctx, llm.PurposeDefinition, definitionPrompt(word))
	if err != nil {
		return Definition{}, fmt.Errorf("generate definition for %q: %w", word, err)
	}
	return ParseDefinition(text)
}

// Cloze generates blanked example sentences for word.
func (g *Gateway) Cloze(ctx context.Context, word string) (Cloze, error) {
	text, err := g.content(ctx, llm.PurposeCloze, clozePrompt(word, g.sentences))
	if err != nil {
		return Cloze{}, fmt.Errorf("generate sentences for %q: %w", word, err)
	}
	return ParseCloze(text, word)
}

// Combo generates a definition and blanked sentences in one call.
func (g *Gateway) Combo(ctx context.Context, word string) (Combo, error) {
	text, err := g.content(ctx, llm.PurposeCombo, comboPrompt(word, g.sentences))
	if err != nil {
		return Combo{}, fmt.Errorf("generate combo content for %q: %w", word, err)
	}
	return ParseCombo(text, word)
}

// Grade asks the model to score a learner's definition of word. reference
// may be empty.
func (g *Gateway) Grade(ctx context.Context, word, reference, userDefinition string) (Grade, error) {
	req := llm.Prompt(gradePrompt(word, reference, userDefinition))
	req.Model = GradingModel
	req.Temperature = 0.1

	text, err := g.generate(llm.WithPurpose(ctx, llm.PurposeGrade), req)
	if err != nil {
		return Grade{}, fmt.Errorf("grade definition of %q: %w", word, err)
	}
	return ParseGrade(text)
}
