// Package session runs training rounds: it picks a word at the current
// level, builds the question, scores the answer, handles disputes and moves
// the level.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/abhisek/wordzipf/internal/answer"
	"github.com/abhisek/wordzipf/internal/catalog"
	"github.com/abhisek/wordzipf/internal/dictionary"
	"github.com/abhisek/wordzipf/internal/difficulty"
	"github.com/abhisek/wordzipf/internal/dispute"
	"github.com/abhisek/wordzipf/internal/gateway"
	"github.com/abhisek/wordzipf/internal/llm"
	"github.com/abhisek/wordzipf/internal/mode"
	"github.com/abhisek/wordzipf/internal/recent"
	"github.com/abhisek/wordzipf/internal/sampler"
	"github.com/abhisek/wordzipf/internal/store"
)

// MaxSelectionAttempts bounds word reselection within one round.
const MaxSelectionAttempts = 10

// Grades at or above CorrectGrade count as correct, at or below WrongGrade
// as wrong. Anything between is neutral.
const (
	CorrectGrade = 4
	WrongGrade   = 2
)

// ContentSource generates question content and grades free-text answers.
type ContentSource interface {
	Definition(ctx context.Context, word string) (gateway.Definition, error)
	Cloze(ctx context.Context, word string) (gateway.Cloze, error)
	Combo(ctx context.Context, word string) (gateway.Combo, error)
	Grade(ctx context.Context, word, reference, userDefinition string) (gateway.Grade, error)
}

// Dictionary looks words up for classic mode.
type Dictionary interface {
	Lookup(ctx context.Context, word string) ([]dictionary.Sense, error)
}

// Adjudicator resolves disputes.
type Adjudicator interface {
	Resolve(ctx context.Context, m mode.Mode, c dispute.Context) (dispute.Verdict, error)
}

// Deps are the collaborators of a Session.
type Deps struct {
	Catalog    *catalog.Catalog
	Levels     *difficulty.Tracker
	Recent     *recent.Log
	Sampler    *sampler.Sampler
	Content    ContentSource
	Dictionary Dictionary
	Disputes   Adjudicator
	KV         store.KV
	Log        logrus.FieldLogger

	// HasAPIKey reports whether LLM calls can be made.
	HasAPIKey bool

	// HalfWidth is the Zipf window half width. Zero means
	// catalog.DefaultHalfWidth.
	HalfWidth float64
}

// Session is one learner's training loop. Its methods are safe for
// concurrent use; results that belong to a superseded round are dropped.
type Session struct {
	deps Deps
	base context.Context
	stop context.CancelFunc

	mu      sync.Mutex
	mode    mode.Mode
	state   State
	cur     round
	pending bool
	summary Summary
}

// New creates a Session in StateIdle for mode m.
func New(deps Deps, m mode.Mode) *Session {
	if deps.Log == nil {
		deps.Log = logrus.New()
	}
	if deps.HalfWidth <= 0 {
		deps.HalfWidth = catalog.DefaultHalfWidth
	}
	base, stop := context.WithCancel(context.Background())
	return &Session{
		deps: deps,
		base: base,
		stop: stop,
		mode: m,
		summary: Summary{
			StartLevels: deps.Levels.Levels(),
		},
	}
}

// Close cancels any outstanding work.
func (s *Session) Close() {
	s.stop()
}

// Mode returns the current mode.
func (s *Session) Mode() mode.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Question returns the live question, or nil.
func (s *Session) Question() *Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.question == nil {
		return nil
	}
	q := *s.cur.question
	return &q
}

// Level returns the current mode's level.
func (s *Session) Level() float64 {
	return s.deps.Levels.Get(s.Mode())
}

func (s *Session) requireKey(m mode.Mode) error {
	if m.NeedsLLM() && (!s.deps.HasAPIKey || s.deps.Content == nil) {
		return ErrAPIKeyRequired
	}
	return nil
}

// SwitchMode abandons the current round and selects m. The choice is
// persisted. The session is left idle; call NewRound to continue.
func (s *Session) SwitchMode(ctx context.Context, m mode.Mode) error {
	if err := s.requireKey(m); err != nil {
		return err
	}

	s.mu.Lock()
	s.resetRound()
	s.mode = m
	s.state = StateIdle
	s.mu.Unlock()

	if err := s.deps.KV.Set(ctx, KeyMode, string(m)); err != nil {
		return fmt.Errorf("save training mode: %w", err)
	}
	return nil
}

// resetRound cancels and clears the current round. Callers hold s.mu.
func (s *Session) resetRound() {
	if s.cur.cancel != nil {
		s.cur.cancel()
	}
	s.cur = round{}
	s.pending = false
}

// roundContext derives a context that ends when either ctx or the round
// ends.
func roundContext(ctx, roundCtx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(roundCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// NewRound supersedes any current round and loads a new question. It does
// not move the level; use Next or Skip for that.
func (s *Session) NewRound(ctx context.Context) (*Question, error) {
	s.mu.Lock()
	m := s.mode
	if err := s.requireKey(m); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	s.resetRound()
	roundCtx, cancel := context.WithCancel(s.base)
	id := uuid.NewString()
	s.cur = round{id: id, ctx: roundCtx, cancel: cancel}
	s.state = StateLoading
	s.mu.Unlock()

	ctx, done := roundContext(ctx, roundCtx)
	defer done()

	q, err := s.load(ctx, m)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.id != id {
		return nil, ErrStaleRound
	}
	if err != nil {
		s.cur.cancel()
		s.cur = round{}
		s.state = StateIdle
		return nil, err
	}

	q.RoundID = id
	s.cur.question = q
	s.state = StateAwaitingAnswer
	s.summary.ModesPlayed = lo.Uniq(append(s.summary.ModesPlayed, m))

	if err := s.deps.Recent.Push(ctx, q.Word); err != nil {
		s.deps.Log.WithError(err).Warn("failed to record recent word")
	}
	if err := markVisited(ctx, s.deps.KV); err != nil {
		s.deps.Log.WithError(err).Warn("failed to record first visit")
	}

	out := *q
	return &out, nil
}

// load picks words until one yields content. Words already tried in this
// round are not picked again.
func (s *Session) load(ctx context.Context, m mode.Mode) (*Question, error) {
	level := s.deps.Levels.Get(m)
	candidates := s.deps.Catalog.EntriesInRange(level, s.deps.HalfWidth)

	var lastErr error
	for attempt := 1; attempt <= MaxSelectionAttempts; attempt++ {
		word, err := s.deps.Sampler.Pick(candidates, s.deps.Recent.Words())
		if err != nil {
			if lastErr != nil {
				break
			}
			return nil, fmt.Errorf("pick word at level %.2f: %w", level, err)
		}

		q, err := s.buildQuestion(ctx, m, word)
		if err == nil {
			entry, _ := s.deps.Catalog.Lookup(word)
			q.Zipf = entry.Zipf
			return q, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if llm.IsAuth(err) {
			return nil, err
		}

		s.deps.Log.WithError(err).WithFields(logrus.Fields{
			"word":    word,
			"mode":    m,
			"attempt": attempt,
		}).Debug("word rejected, picking another")
		lastErr = err
		candidates = lo.Without(candidates, word)
	}
	return nil, fmt.Errorf("%w: %w", ErrNoUsableWord, lastErr)
}

func (s *Session) buildQuestion(ctx context.Context, m mode.Mode, word string) (*Question, error) {
	q := &Question{Mode: m, Word: word}
	switch m {
	case mode.Normal:
		c, err := s.deps.Content.Cloze(ctx, word)
		if err != nil {
			return nil, err
		}
		q.Sentences = c.Sentences

	case mode.Definition, mode.Reverse:
		d, err := s.deps.Content.Definition(ctx, word)
		if err != nil {
			return nil, err
		}
		q.Definition = d.Text
		q.PartOfSpeech = d.PartOfSpeech

	case mode.Combo:
		c, err := s.deps.Content.Combo(ctx, word)
		if err != nil {
			return nil, err
		}
		q.Definition = c.Definition.Text
		q.PartOfSpeech = c.Definition.PartOfSpeech
		q.Sentences = c.Cloze.Sentences

	case mode.Classic:
		if s.deps.Dictionary == nil {
			return nil, errors.New("no dictionary configured")
		}
		senses, err := s.deps.Dictionary.Lookup(ctx, word)
		if err != nil {
			return nil, err
		}
		q.Senses = senses
		q.Definition = senses[0].Definition
		q.PartOfSpeech = senses[0].PartOfSpeech

	default:
		return nil, fmt.Errorf("unknown mode %q", m)
	}
	return q, nil
}

// Help marks help as used for the round and returns a hint. Help keeps a
// correct answer from lowering the level.
func (s *Session) Help() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingAnswer {
		return "", fmt.Errorf("%w: no question to help with", ErrInvalidState)
	}
	if !s.cur.helpUsed {
		s.summary.HelpUsed++
	}
	s.cur.helpUsed = true
	s.cur.help = hint(s.cur.question)
	return s.cur.help, nil
}

func hint(q *Question) string {
	var parts []string
	if q.Mode == mode.Reverse {
		if q.PartOfSpeech != "" {
			parts = append(parts, fmt.Sprintf("It is used as a %s.", q.PartOfSpeech))
		}
		if len(parts) == 0 {
			return "Think about where you have seen the word used."
		}
		return strings.Join(parts, " ")
	}

	first, _ := firstRune(q.Word)
	parts = append(parts, fmt.Sprintf("Starts with %q and has %d letters.", first, len([]rune(q.Word))))
	if q.PartOfSpeech != "" {
		parts = append(parts, fmt.Sprintf("It is a %s.", q.PartOfSpeech))
	}
	return strings.Join(parts, " ")
}

func firstRune(s string) (string, bool) {
	for _, r := range s {
		return string(r), true
	}
	return "", false
}

// Submit scores an answer. Word-guess modes are scored locally; reverse
// mode is graded by the LLM. A grading failure leaves the question open.
func (s *Session) Submit(ctx context.Context, input string) (Result, error) {
	if strings.TrimSpace(input) == "" {
		return Result{}, ErrEmptyAnswer
	}

	s.mu.Lock()
	if s.state != StateAwaitingAnswer || s.pending {
		s.mu.Unlock()
		return Result{}, fmt.Errorf("%w: no question awaiting an answer", ErrInvalidState)
	}
	m := s.mode
	q := *s.cur.question
	id := s.cur.id
	roundCtx := s.cur.ctx
	s.pending = true
	s.mu.Unlock()

	var res Result
	var err error
	if m.LocallyScored() {
		res = Result{Correct: answer.IsMatch(input, q.Word), Answer: q.Word}
	} else {
		ctx, done := roundContext(ctx, roundCtx)
		res, err = s.grade(ctx, q, input)
		done()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.id != id {
		return Result{}, ErrStaleRound
	}
	s.pending = false
	if err != nil {
		return Result{}, err
	}

	s.cur.answer = input
	s.cur.result = &res
	s.state = StateScored
	return res, nil
}

func (s *Session) grade(ctx context.Context, q Question, input string) (Result, error) {
	g, err := s.deps.Content.Grade(ctx, q.Word, q.Definition, input)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		Grade:    g.Score,
		Feedback: g.Feedback,
		Answer:   lo.Ternary(g.Correct != "", g.Correct, q.Definition),
	}
	switch {
	case g.Score >= CorrectGrade:
		res.Correct = true
	case g.Score > WrongGrade:
		res.Neutral = true
	}
	return res, nil
}

// Dispute asks for a second opinion on a wrong answer. An accepted dispute
// makes the round correct. A failed call leaves the round disputable.
func (s *Session) Dispute(ctx context.Context) (dispute.Verdict, error) {
	s.mu.Lock()
	if s.state != StateScored {
		s.mu.Unlock()
		return dispute.Verdict{}, fmt.Errorf("%w: nothing to dispute", ErrInvalidState)
	}
	res := *s.cur.result
	if res.Disputed {
		s.mu.Unlock()
		return dispute.Verdict{}, ErrAlreadyDisputed
	}
	if !res.Disputable() {
		s.mu.Unlock()
		return dispute.Verdict{}, fmt.Errorf("%w: answer was not marked wrong", ErrInvalidState)
	}
	if !s.deps.HasAPIKey || s.deps.Disputes == nil {
		s.mu.Unlock()
		return dispute.Verdict{}, ErrAPIKeyRequired
	}

	m := s.mode
	id := s.cur.id
	dc := dispute.Context{
		CorrectAnswer: s.cur.question.Word,
		UserAnswer:    s.cur.answer,
		Sentences:     s.cur.question.Sentences,
		Definition:    s.cur.question.Definition,
		HelpContent:   s.cur.help,
		Feedback:      res.Feedback,
	}
	roundCtx := s.cur.ctx
	s.state = StateDisputing
	s.mu.Unlock()

	ctx, done := roundContext(ctx, roundCtx)
	v, err := s.deps.Disputes.Resolve(ctx, m, dc)
	done()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.id != id {
		return dispute.Verdict{}, ErrStaleRound
	}
	s.state = StateScored
	if err != nil {
		return dispute.Verdict{}, err
	}

	s.cur.result.Disputed = true
	s.cur.result.DisputeExplanation = v.Explanation
	if v.Accepted {
		s.cur.result.Correct = true
		s.summary.DisputesWon++
	} else {
		s.summary.DisputesLost++
	}
	return v, nil
}

// Result returns the scored result of the current round, if any.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur.result == nil {
		return Result{}, false
	}
	return *s.cur.result, true
}

// Complete applies the level change for the scored round and leaves the
// session idle.
func (s *Session) Complete(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateScored {
		s.mu.Unlock()
		return fmt.Errorf("%w: round is not scored", ErrInvalidState)
	}
	m := s.mode
	res := *s.cur.result
	helpUsed := s.cur.helpUsed
	s.summary.Rounds++
	switch {
	case res.Neutral:
		s.summary.Neutral++
	case res.Correct:
		s.summary.Correct++
	default:
		s.summary.Wrong++
	}
	s.resetRound()
	s.state = StateIdle
	s.mu.Unlock()

	if res.Neutral {
		return nil
	}
	if _, err := s.deps.Levels.RecordOutcome(ctx, m, res.Correct, helpUsed); err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// Next completes the scored round and loads the next question.
func (s *Session) Next(ctx context.Context) (*Question, error) {
	if err := s.Complete(ctx); err != nil {
		return nil, err
	}
	return s.NewRound(ctx)
}

// Skip gives up on the open question, counting it as wrong, and leaves the
// session idle.
func (s *Session) Skip(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateAwaitingAnswer || s.pending {
		s.mu.Unlock()
		return fmt.Errorf("%w: no question to skip", ErrInvalidState)
	}
	m := s.mode
	s.summary.Rounds++
	s.summary.Skipped++
	s.summary.Wrong++
	s.resetRound()
	s.state = StateIdle
	s.mu.Unlock()

	if _, err := s.deps.Levels.RecordOutcome(ctx, m, false, false); err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// Reveal shows the word of an open classic question instead of asking for
// a guess. The round then waits for Rate.
func (s *Session) Reveal() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingAnswer || s.pending {
		return "", fmt.Errorf("%w: no question to reveal", ErrInvalidState)
	}
	if s.mode != mode.Classic {
		return "", fmt.Errorf("%w: only classic words can be revealed", ErrInvalidState)
	}
	s.state = StateRevealed
	return s.cur.question.Word, nil
}

// Rate finishes a revealed round with the learner's own judgement. A word
// found hard raises the level; an easy one lowers it.
func (s *Session) Rate(ctx context.Context, foundHard bool) error {
	s.mu.Lock()
	if s.state != StateRevealed {
		s.mu.Unlock()
		return fmt.Errorf("%w: no revealed word to rate", ErrInvalidState)
	}
	m := s.mode
	s.summary.Rounds++
	s.summary.SelfRated++
	s.resetRound()
	s.state = StateIdle
	s.mu.Unlock()

	if _, err := s.deps.Levels.Adjust(ctx, m, foundHard); err != nil {
		return fmt.Errorf("record rating: %w", err)
	}
	return nil
}

// Summary returns the session totals so far.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	sum := s.summary
	s.mu.Unlock()

	sum.ModesPlayed = append([]mode.Mode(nil), sum.ModesPlayed...)
	sum.EndLevels = s.deps.Levels.Levels()
	return sum
}
