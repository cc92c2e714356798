// Package mode names the training modes.
package mode

import (
	"fmt"
	"strings"
)

// Mode identifies a quiz mode. Each mode keeps its own difficulty level.
type Mode string

const (
	// Normal is the cloze mode: guess the word blanked out of sentences.
	Normal Mode = "normal"
	// Reverse shows the word and asks for a free-text definition, graded
	// by the LLM.
	Reverse Mode = "reverse"
	// Definition shows an LLM-written definition and asks for the word.
	Definition Mode = "definition"
	// Combo shows a definition together with cloze sentences.
	Combo Mode = "combo"
	// Classic shows dictionary definitions and asks for the word.
	Classic Mode = "classic"
)

// All lists every mode in display order.
var All = []Mode{Normal, Reverse, Definition, Combo, Classic}

// Parse converts a user-supplied name into a Mode.
func Parse(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range All {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q (want one of normal, reverse, definition, combo, classic)", s)
}

// NeedsLLM reports whether the mode generates or grades content with the
// LLM, and therefore needs an API key.
func (m Mode) NeedsLLM() bool {
	return m != Classic
}

// LocallyScored reports whether answers are checked by string matching
// rather than by an LLM grading call.
func (m Mode) LocallyScored() bool {
	return m != Reverse
}

func (m Mode) String() string { return string(m) }
