package session

import (
	"context"
	"errors"

	"github.com/abhisek/wordzipf/internal/llm"
	"github.com/abhisek/wordzipf/internal/sampler"
)

var (
	// ErrNoUsableWord is returned when every selection attempt of a round
	// failed to produce content.
	ErrNoUsableWord = errors.New("no usable word found")

	// ErrStaleRound is returned for a result that arrived after its round
	// was superseded. The result has been discarded.
	ErrStaleRound = errors.New("round was superseded")

	// ErrInvalidState is returned when an operation is not allowed in the
	// current state.
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrAPIKeyRequired is returned before any state change when an
	// LLM-backed operation is requested without credentials.
	ErrAPIKeyRequired = errors.New("an API key is required for this mode")

	// ErrAlreadyDisputed is returned for a second dispute in one round.
	ErrAlreadyDisputed = errors.New("round was already disputed")

	// ErrEmptyAnswer is returned when a blank answer is submitted.
	ErrEmptyAnswer = errors.New("answer is empty")
)

// Describe turns an error from the session into advice for the learner.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAPIKeyRequired), llm.IsAuth(err):
		return "The LLM provider rejected the request. Please check your API key."
	case llm.IsRateLimit(err):
		return "The LLM provider is rate limiting requests. Please try again later."
	case errors.Is(err, sampler.ErrNoCandidates):
		return "The word list is temporarily unavailable or has no words at this level."
	case errors.Is(err, ErrNoUsableWord):
		return "Could not find a usable word. Please try again."
	case errors.Is(err, ErrAlreadyDisputed):
		return "This answer was already disputed."
	case errors.Is(err, ErrEmptyAnswer):
		return "Please type an answer first."
	case errors.Is(err, ErrInvalidState):
		return "That is not possible right now."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}

