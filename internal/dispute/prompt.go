package dispute

import (
	"fmt"
	"strings"

	"github.com/abhisek/wordzipf/internal/gateway"
	"github.com/abhisek/wordzipf/internal/mode"
)

const basePrompt = `You are evaluating whether a user's answer should be considered correct despite initially being marked wrong. Be generous but fair - if the user's answer demonstrates understanding of the word's meaning in the given context, it should be accepted.

Respond with exactly this format:
DECISION: [ACCEPT or REJECT]
EXPLANATION: [One sentence explaining your decision]`

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}

// buildPrompt renders the mode-specific adjudication prompt.
func buildPrompt(m mode.Mode, c Context) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	b.WriteString("\n\n")

	switch m {
	case mode.Normal:
		b.WriteString("Context: The user was given this cloze test with a blank to fill in:\n")
		for _, s := range c.Sentences {
			fmt.Fprintf(&b, "%q\n", s)
		}
		b.WriteString("\nWith the correct word the sentences read:\n")
		for _, s := range c.Sentences {
			fmt.Fprintf(&b, "%q\n", gateway.Fill(s, c.CorrectAnswer))
		}
		b.WriteString("\nWith the user's word the sentences read:\n")
		for _, s := range c.Sentences {
			fmt.Fprintf(&b, "%q\n", gateway.Fill(s, c.UserAnswer))
		}
		fmt.Fprintf(&b, "\nThe correct answer was: %q\n", c.CorrectAnswer)
		fmt.Fprintf(&b, "The user answered: %q\n\n", c.UserAnswer)
		fmt.Fprintf(&b, "Additional context provided to user: %s\n\n", orNone(c.HelpContent))
		b.WriteString(`Consider:
- Does the user's answer fit grammatically and semantically in the sentence?
- Is it a valid alternative word that makes sense in this context?
- Does it demonstrate understanding of the intended meaning?`)

	case mode.Definition, mode.Classic:
		fmt.Fprintf(&b, "Context: The user was given this definition and asked to identify the word:\n%q\n\n", c.Definition)
		fmt.Fprintf(&b, "The correct answer was: %q\n", c.CorrectAnswer)
		fmt.Fprintf(&b, "The user answered: %q\n\n", c.UserAnswer)
		fmt.Fprintf(&b, "Additional context provided to user: %s\n\n", orNone(c.HelpContent))
		b.WriteString(`Consider:
- Does the user's answer match the given definition?
- Is it a synonym or closely related word that fits the definition?
- Does it demonstrate understanding of the concept described?`)

	case mode.Combo:
		b.WriteString("Context: The user was given this combined content:\n")
		fmt.Fprintf(&b, "Definition: %s\n", c.Definition)
		for i, s := range c.Sentences {
			fmt.Fprintf(&b, "Example %d: %s\n", i+1, s)
		}
		fmt.Fprintf(&b, "\nThe correct answer was: %q\n", c.CorrectAnswer)
		fmt.Fprintf(&b, "The user answered: %q\n\n", c.UserAnswer)
		b.WriteString(`Consider:
- Does the user's answer fit any of the provided contexts (definition, examples, or usage)?
- Is it a valid interpretation of the given information?
- Does it demonstrate understanding of the word's meaning?`)

	case mode.Reverse:
		fmt.Fprintf(&b, "Context: The user was shown the word %q and asked to explain its meaning.\n", c.CorrectAnswer)
		if c.Definition != "" {
			fmt.Fprintf(&b, "Reference definition: %s\n", c.Definition)
		}
		fmt.Fprintf(&b, "The user answered: %q\n", c.UserAnswer)
		if c.Feedback != "" {
			fmt.Fprintf(&b, "The grader's feedback was: %s\n", c.Feedback)
		}
		b.WriteString(`
Consider:
- Does the user's explanation capture the core meaning, even if informally worded?
- Could it describe a legitimate, less common sense of the word?
- Does it demonstrate understanding rather than a guess?`)

	default:
		fmt.Fprintf(&b, "The user answered: %q\n", c.UserAnswer)
		fmt.Fprintf(&b, "The correct answer was: %q\n", c.CorrectAnswer)
		fmt.Fprintf(&b, "Mode: %s\n\n", m)
		b.WriteString("Please evaluate if the user's answer should be accepted.")
	}

	return b.String()
}
