package session

import (
	"context"

	"github.com/abhisek/wordzipf/internal/dictionary"
	"github.com/abhisek/wordzipf/internal/mode"
)

// State is the phase of the current round.
type State int

const (
	StateIdle           State = iota // No round loaded
	StateLoading                     // Picking a word and generating content
	StateAwaitingAnswer              // Question shown, waiting for input
	StateScored                      // Answer scored, waiting for next
	StateDisputing                   // Dispute call outstanding
	StateRevealed                    // Classic word shown, waiting for a self-rating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateAwaitingAnswer:
		return "awaiting-answer"
	case StateScored:
		return "scored"
	case StateDisputing:
		return "disputing"
	case StateRevealed:
		return "revealed"
	default:
		return "unknown"
	}
}

// Question is the content of one round, bound to one target word.
type Question struct {
	RoundID string
	Mode    mode.Mode
	Word    string
	Zipf    float64

	// Sentences are cloze sentences with the word blanked (normal, combo).
	Sentences []string

	// Definition is shown in definition, combo and classic modes. In reverse
	// mode it is the hidden reference used for grading.
	Definition   string
	PartOfSpeech string

	// Senses holds every dictionary sense (classic mode).
	Senses []dictionary.Sense
}

// Result is the outcome of one submitted answer.
type Result struct {
	Correct bool

	// Neutral marks a middling grade (3) that moves no level.
	Neutral bool

	// Grade is the 1-5 score in reverse mode, zero elsewhere.
	Grade    int
	Feedback string

	// Answer is the target word, or the reference definition in reverse mode.
	Answer string

	// Disputed is set once a dispute has been resolved for the round.
	Disputed bool

	// DisputeExplanation is the adjudicator's reason, if disputed.
	DisputeExplanation string
}

// Disputable reports whether the result may still be contested.
func (r Result) Disputable() bool {
	return !r.Correct && !r.Neutral && !r.Disputed
}

// round holds everything that is cleared when a new round begins.
type round struct {
	id       string
	ctx      context.Context
	cancel   context.CancelFunc
	question *Question
	answer   string
	result   *Result
	helpUsed bool
	help     string
}

// Summary aggregates a session's rounds for display at the end of play.
type Summary struct {
	Rounds       int
	Correct      int
	Wrong        int
	Neutral      int
	Skipped      int
	SelfRated    int
	DisputesWon  int
	DisputesLost int
	HelpUsed     int
	StartLevels  map[mode.Mode]float64
	EndLevels    map[mode.Mode]float64
	ModesPlayed  []mode.Mode
}

// Accuracy is the share of scored rounds answered correctly.
func (s Summary) Accuracy() float64 {
	scored := s.Correct + s.Wrong
	if scored == 0 {
		return 0
	}
	return float64(s.Correct) / float64(scored)
}
