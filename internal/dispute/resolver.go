// Package dispute asks the LLM for a second opinion on an answer that was
// marked wrong.
package dispute

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/abhisek/wordzipf/internal/llm"
	"github.com/abhisek/wordzipf/internal/mode"
)

// NoExplanation is used when the reply carries no EXPLANATION line.
const NoExplanation = "No explanation provided."

var (
	decisionPattern    = regexp.MustCompile(`(?i)DECISION:\s*(ACCEPT|REJECT)`)
	explanationPattern = regexp.MustCompile(`(?i)EXPLANATION:\s*(.+)`)
)

// Context is what the adjudicator sees about the disputed round.
type Context struct {
	CorrectAnswer string
	UserAnswer    string

	// Sentences are the blanked cloze sentences (normal and combo modes).
	Sentences []string

	// Definition is the definition shown (definition, combo, classic) or
	// the reference definition (reverse).
	Definition string

	// HelpContent is the hint shown to the user, if any.
	HelpContent string

	// Feedback is the grader's comment (reverse mode).
	Feedback string
}

// Verdict is the adjudicator's decision.
type Verdict struct {
	Accepted    bool
	Explanation string
}

// Resolver builds dispute prompts and parses verdicts.
type Resolver struct {
	provider llm.Provider
}

// New creates a Resolver. Every call to p is bounded by timeout and retried
// under the given policy; use llm.DisputeRetry for the standard one.
func New(p llm.Provider, timeout time.Duration, retry llm.RetryConfig) *Resolver {
	return &Resolver{provider: llm.WithRetry(llm.WithTimeout(p, timeout), retry)}
}

// Resolve adjudicates a disputed answer. Provider failures surface only
// after the retry policy is exhausted; an unparseable reply is a rejection,
// not an error.
func (r *Resolver) Resolve(ctx context.Context, m mode.Mode, c Context) (Verdict, error) {
	req := llm.Prompt(buildPrompt(m, c))
	req.Temperature = 0.1
	req.MaxTokens = 100

	resp, err := r.provider.Generate(llm.WithPurpose(ctx, llm.PurposeDispute), req)
	if err != nil {
		return Verdict{}, fmt.Errorf("resolve dispute: %w", err)
	}
	return ParseVerdict(resp.Text), nil
}

// ParseVerdict reads the DECISION and EXPLANATION lines. A missing or
// unrecognised decision is a rejection.
func ParseVerdict(text string) Verdict {
	v := Verdict{Explanation: NoExplanation}
	if m := decisionPattern.FindStringSubmatch(text); m != nil {
		v.Accepted = strings.EqualFold(m[1], "ACCEPT")
	}
	if m := explanationPattern.FindStringSubmatch(text); m != nil {
		if e := strings.TrimSpace(m[1]); e != "" {
			v.Explanation = e
		}
	}
	return v
}
