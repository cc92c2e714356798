package session

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

// fakeContent records the words it was asked about and answers through the
// configured funcs.
type fakeContent struct {
	mu    sync.Mutex
	words []string

	cloze func(ctx context.Context, word string) (gateway.Cloze, error)
	def   func(ctx context.Context, word string) (gateway.Definition, error)
	grade func(ctx context.Context, word, reference, user string) (gateway.Grade, error)
}

func (f *fakeContent) record(word string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.words = append(f.words, word)
}

func (f *fakeContent) asked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.words...)
}

func (f *fakeContent) Definition(ctx context.Context, word string) (gateway.Definition, error) {
	f.record(word)
	if f.def != nil {
		return f.def(ctx, word)
	}
	return gateway.Definition{Text: "a definition of " + word, PartOfSpeech: "noun"}, nil
}

func (f *fakeContent) Cloze(ctx context.Context, word string) (gateway.Cloze, error) {
	f.record(word)
	if f.cloze != nil {
		return f.cloze(ctx, word)
	}
	return gateway.Cloze{Sentences: []string{"The ___ was there."}}, nil
}

func (f *fakeContent) Combo(ctx context.Context, word string) (gateway.Combo, error) {
	d, err := f.Definition(ctx, word)
	if err != nil {
		return gateway.Combo{}, err
	}
	return gateway.Combo{Definition: d, Cloze: gateway.Cloze{Sentences: []string{"A ___ here."}}}, nil
}

func (f *fakeContent) Grade(ctx context.Context, word, reference, user string) (gateway.Grade, error) {
	if f.grade != nil {
		return f.grade(ctx, word, reference, user)
	}
	return gateway.Grade{Score: 5}, nil
}

type fakeDictionary struct {
	missing map[string]bool
}

func (d fakeDictionary) Lookup(_ context.Context, word string) ([]dictionary.Sense, error) {
	if d.missing[word] {
		return nil, dictionary.ErrWordNotFound
	}
	return []dictionary.Sense{{
		Definition:   "an institution that holds " + word,
		PartOfSpeech: "noun",
		Example:      "I went to the " + word + ".",
	}}, nil
}

type fakeAdjudicator struct {
	verdicts []dispute.Verdict
	errs     []error
	calls    int
	last     dispute.Context
}

func (a *fakeAdjudicator) Resolve(_ context.Context, _ mode.Mode, c dispute.Context) (dispute.Verdict, error) {
	a.calls++
	a.last = c
	if len(a.errs) > 0 {
		err := a.errs[0]
		a.errs = a.errs[1:]
		if err != nil {
			return dispute.Verdict{}, err
		}
	}
	v := a.verdicts[0]
	a.verdicts = a.verdicts[1:]
	return v, nil
}

type fixture struct {
	kv      *store.MemoryKV
	levels  *difficulty.Tracker
	recent  *recent.Log
	content *fakeContent
	judge   *fakeAdjudicator
	deps    Deps
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newFixture(t *testing.T, words map[string]float64) *fixture {
	t.Helper()
	ctx := context.Background()
	kv := store.NewMemoryKV()
	levels, err := difficulty.Load(ctx, kv)
	require.NoError(t, err)
	rl, err := recent.Load(ctx, kv)
	require.NoError(t, err)

	f := &fixture{
		kv:      kv,
		levels:  levels,
		recent:  rl,
		content: &fakeContent{},
		judge:   &fakeAdjudicator{},
	}
	f.deps = Deps{
		Catalog:    catalog.New(words, nil),
		Levels:     levels,
		Recent:     rl,
		Sampler:    sampler.New(rand.NewPCG(1, 2)),
		Content:    f.content,
		Dictionary: fakeDictionary{},
		Disputes:   f.judge,
		KV:         kv,
		Log:        quietLogger(),
		HasAPIKey:  true,
	}
	return f
}

func (f *fixture) session(t *testing.T, m mode.Mode) *Session {
	s := New(f.deps, m)
	t.Cleanup(s.Close)
	return s
}

// single puts exactly one word in the window around the default level.
var single = map[string]float64{"bank": 5.0, "river": 5.2}

func TestClassicRound_CorrectTypoLowersLevel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, single)
	s := f.session(t, mode.Classic)

	q, err := s.NewRound(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bank", q.Word)
	assert.Equal(t, 5.0, q.Zipf)
	assert.Equal(t, "an institution that holds bank", q.Definition)
	assert.NotEmpty(t, q.RoundID)
	assert.Equal(t, StateAwaitingAnswer, s.State())

	res, err := s.Submit(ctx, "  Banc ")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, "bank", res.Answer)
	assert.Equal(t, StateScored, s.State())

	next, err := s.Next(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, q.RoundID, next.RoundID)
	assert.Equal(t, 4.95, f.levels.Get(mode.Classic))

	stored, ok, err := f.kv.Get(ctx, difficulty.Key(mode.Classic))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "4.95", stored)

	assert.Equal(t, []string{"bank"}, f.recent.Words())
	visited, err := HasVisited(ctx, f.kv)
	require.NoError(t, err)
	assert.True(t, visited)
}

func TestClassicRound_WrongAnswerRaisesLevel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, single)
	s := f.session(t, mode.Classic)

	_, err := s.NewRound(ctx)
	require.NoError(t, err)

	res, err := s.Submit(ctx, "river")
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.True(t, res.Disputable())

	_, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5.05, f.levels.Get(mode.Classic))
}

func TestHelp_SuppressesLevelDrop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, single)
	s := f.session(t, mode.Classic)

	_, err := s.NewRound(ctx)
	require.NoError(t, err)

	hint, err := s.Help()
	require.NoError(t, err)
	assert.Contains(t, hint, `"b"`)
	assert.Contains(t, hint, "4 letters")
	assert.Contains(t, hint, "noun")

	res, err := s.Submit(ctx, "bank")
	require.NoError(t, err)
	require.True(t, res.Correct)

	_, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5.0, f.levels.Get(mode.Classic))
	assert.Equal(t, 1, s.Summary().HelpUsed)
}

func TestHelp_WrongAnswerStillRaisesLevel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, single)
	s := f.session(t, mode.Classic)

	_, err := s.NewRound(ctx)
	require.NoError(t, err)
	_, err = s.Help()
	require.NoError(t, err)
	_, err = s.Submit(ctx, "xylophone")
	require.NoError(t, err)
	_, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5.05, f.levels.Get(mode.Classic))
}

func TestSkip_CountsAsWrong(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, single)
	s := f.session(t, mode.Classic)

	_, err := s.NewRound(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Skip(ctx))
	assert.Equal(t, StateIdle, s.State())

	assert.Equal(t, 5.05, f.levels.Get(mode.Classic))
	sum := s.Summary()
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 1, sum.Wrong)
}

func TestNewRound_ReselectsAfterRejectedWord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]float64{"bank": 5.0, "bench": 5.01})
	calls := 0
	f.content.cloze = func(_ context.Context, word string) (gateway.Cloze, error) {
		calls++
		if calls == 1 {
			return gateway.Cloze{}, gateway.ErrNotAWord
		}
		return gateway.Cloze{Sentences: []string{"The ___ is here."}}, nil
	}
	s := f.session(t, mode.Normal)

	q, err := s.NewRound(ctx)
	require.NoError(t, err)

	asked := f.content.asked()
	require.Len(t, asked, 2)
	assert.NotEqual(t, asked[0], asked[1], "a rejected word is not picked again")
	assert.Equal(t, asked[1], q.Word)
	assert.Equal(t, []string{"The ___ is here."}, q.Sentences)
}

func TestNewRound_GivesUpAfterTenAttempts(t *testing.T) {
	ctx := context.Background()
	words := map[string]float64{}
	for _, w := range []string{"aa", "bb", "cc", "dd", "ee", "ff", "gg", "hh", "ii", "jj", "kk", "ll"} {
		words[w] = 5.0
	}
	f := newFixture(t, words)
	f.content.cloze = func(context.Context, string) (gateway.Cloze, error) {
		return gateway.Cloze{}, gateway.ErrNotAWord
	}
	s := f.session(t, mode.Normal)

	_, err := s.NewRound(ctx)
	assert.ErrorIs(t, err, ErrNoUsableWord)
	assert.ErrorIs(t, err, gateway.ErrNotAWord)
	assert.Len(t, f.content.asked(), MaxSelectionAttempts)
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Question())
}

func TestNewRound_RunsOutOfCandidates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]float64{"bank": 5.0, "bench": 5.01})
	f.deps.Dictionary = fakeDictionary{missing: map[string]bool{"bank": true, "bench": true}}
	s := f.session(t, mode.Classic)

	_, err := s.NewRound(ctx)
	assert.ErrorIs(t, err, ErrNoUsableWord)
	assert.ErrorIs(t, err, dictionary.ErrWordNotFound)
}

func TestNewRound_EmptyCatalog(t *testing.T) {
	f := newFixture(t, nil)
	s := f.session(t, mode.Classic)

	_, err := s.NewRound(context.Background())
	assert.ErrorIs(t, err, sampler.ErrNoCandidates)
	assert.Equal(t, StateIdle, s.State())
}

func TestNewRound_AuthErrorStopsReselection(t *testing.T) {
	f := newFixture(t, map[string]float64{"bank": 5.0, "bench": 5.01})
	f.content.cloze = func(context.Context, string) (gateway.Cloze, error) {
		return gateway.Cloze{}, &llm.ErrAuth{Err: errors.New("API key not valid")}
	}
	s := f.session(t, mode.Normal)

	_, err := s.NewRound(context.Background())
	assert.True(t, llm.IsAuth(err))
	assert.Len(t, f.content.asked(), 1)
	assert.Contains(t, Describe(err), "check your API key")
}

func TestAPIKeyRequired_BeforeAnyStateChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, single)
	f.deps.HasAPIKey = false
	s := f.session(t, mode.Classic)

	_, err := s.NewRound(ctx)
	require.NoError(t, err, "classic mode needs no key")

	err = s.SwitchMode(ctx, mode.Normal)
	assert.ErrorIs(t, err, ErrAPIKeyRequired)
	assert.Equal(t, mode.Classic, s.Mode())
	assert.Equal(t, StateAwaitingAnswer, s.State())

	s2 := f.session(t, mode.Definition)
	_, err = s2.NewRound(ctx)
	assert.ErrorIs(t, err, ErrAPIKeyRequired)
	assert.Equal(t, StateIdle, s2.State())
	assert.Empty(t, f.content.asked())
}

func TestSwitchMode_PersistsAndSupersedes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, single)

	started := make(chan struct{})
	var sawCancel bool
	f.content.cloze = func(ctx context.Context, _ string) (gateway.Cloze, error) {
		close(started)
		<-ctx.Done()
		sawCancel = true
		return gateway.Cloze{}, ctx.Err()
	}
	s := f.session(t, mode.Normal)

	errc := make(chan error, 1)
	go func() {
		_, err := s.NewRound(ctx)
		errc <- err
	}()

	<-started
	require.NoError(t, s.SwitchMode(ctx, mode.Definition))

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrStaleRound)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded round did not return")
	}
	assert.True(t, sawCancel)
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Question())

	m, err := LoadMode(ctx, f.kv)
	require.NoError(t, err)
	assert.Equal(t, mode.Definition, m)
}

func TestNewRound_RegenerateDiscardsLateResult(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, single)

	release := make(chan struct{})
	started := make(chan struct{}, 2)
	calls := 0
	var mu sync.Mutex
	f.content.def = func(_ context.Context, word string) (gateway.Definition, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		started <- struct{}{}
		if n == 1 {
			<-release // ignores cancellation and answers late
		}
		return gateway.Definition{Text: "def", PartOfSpeech: "noun"}, nil
	}
	s := f.session(t, mode.Definition)

	errc := make(chan error, 1)
	go func() {
		_, err := s.NewRound(ctx)
		errc <- err
	}()
	<-started

	q, err := s.NewRound(ctx)
	require.NoError(t, err)
	close(release)

	assert.ErrorIs(t, <-errc, ErrStaleRound)
	live := s.Question()
	require.NotNil(t, live)
	assert.Equal(t, q.RoundID, live.RoundID)
	assert.Equal(t, StateAwaitingAnswer, s.State())
}

func TestReverse_GradeMapping(t *testing.T) {
	tests := []struct {
		score     int
		correct   bool
		neutral   bool
		wantLevel float64
	}{
		{5, true, false, 4.95},
		{4, true, false, 4.95},
		{3, false, true, 5.0},
		{2, false, false, 5.05},
		{1, false, false, 5.05},
	}
	for _, tt := range tests {
		t.Run(string(rune('0'+tt.score)), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, single)
			f.content.grade = func(_ context.Context, word, reference, user string) (gateway.Grade, error) {
				assert.Equal(t, "bank", word)
				assert.Equal(t, "a definition of bank", reference)
				assert.Equal(t, "where money is kept", user)
				return gateway.Grade{Score: tt.score, Feedback: "ok"}, nil
			}
			s := f.session(t, mode.Reverse)

			_, err := s.NewRound(ctx)
			require.NoError(t, err)
			res, err := s.Submit(ctx, "where money is kept")
			require.NoError(t, err)
			assert.Equal(t, tt.score, res.Grade)
			assert.Equal(t, tt.correct, res.Correct)
			assert.Equal(t, tt.neutral, res.Neutral)
			assert.Equal(t, "a definition of bank", res.Answer)

			_, err = s.Next(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, f.levels.Get(mode.Reverse))
		})
	}
}

func TestReverse_GradingFailureKeepsQuestionOpen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, single)
	fail := true
	f.content.grade = func(context.Context, string, string, string) (gateway.Grade, error) {
		if fail {
			fail = false
			return gateway.Grade{}, &llm.ErrRateLimit{Err: errors.New("429")}
		}
		return gateway.Grade{Score: 4}, nil
	}
	s := f.session(t, mode.Reverse)

	_, err := s.NewRound(ctx)
	require.NoError(t, err)

	_, err = s.Submit(ctx, "money place")
	require.Error(t, err)
	assert.Contains(t, Describe(err), "try again later")
	assert.Equal(t, StateAwaitingAnswer, s.State())

	res, err := s.Submit(ctx, "money place")
	require.NoError(t, err)
	assert.True(t, res.Correct)
}

func TestDispute_AcceptedFlipsOutcome(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, single)
	f.judge.verdicts = []dispute.Verdict{{Accepted: true, Explanation: "Close enough."}}
	s := f.session(t, mode.Classic)

	_, err := s.NewRound(ctx)
	require.NoError(t, err)
	_, err = s.Help()
	require.NoError(t, err)
	_, err = s.Submit(ctx, "lender")
	require.NoError(t, err)

	v, err := s.Dispute(ctx)
	require.NoError(t, err)
	assert.True(t, v.Accepted)
	assert.Equal(t, "bank", f.judge.last.CorrectAnswer)
	assert.Equal(t, "lender", f.judge.last.UserAnswer)
	assert.Equal(t, "an institution that holds bank", f.judge.last.Definition)
	assert.NotEmpty(t, f.judge.last.HelpContent)

	res, ok := s.Result()
	require.True(t, ok)
	assert.True(t, res.Correct)
	assert.True(t, res.Disputed)
	assert.Equal(t, StateScored, s.State())

	_, err = s.Dispute(ctx)
	assert.ErrorIs(t, err, ErrAlreadyDisputed)

	// Correct with help: level stays.
	_, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5.0, f.levels.Get(mode.Classic))
	assert.Equal(t, 1, s.Summary().DisputesWon)
}

func TestDispute_AcceptedWithoutHelpLowersLevel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, single)
	f.judge.verdicts = []dispute.Verdict{{Accepted: true}}
	s := f.session(t, mode.Classic)

	_, err := s.NewRound(ctx)
	require.NoError(t, err)
	_, err = s.Submit(ctx, "lender")
	require.NoError(t, err)
	_, err = s.Dispute(ctx)
	require.NoError(t, err)
	_, err = s.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4.95, f.levels.Get(mode.Classic))
}

func TestDispute_Rules(t *testing.T) {
	ctx := context.Background()

	t.Run("not after a correct answer", func(t *testing.T) {
		f := newFixture(t, single)
		s := f.session(t, mode.Classic)
		_, err := s.NewRound(ctx)
		require.NoError(t, err)
		_, err = s.Submit(ctx, "bank")
		require.NoError(t, err)

		_, err = s.Dispute(ctx)
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Zero(t, f.judge.calls)
	})

	t.Run("not before scoring", func(t *testing.T) {
		f := newFixture(t, single)
		s := f.session(t, mode.Classic)
		_, err := s.NewRound(ctx)
		require.NoError(t, err)

		_, err = s.Dispute(ctx)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("failure leaves round disputable", func(t *testing.T) {
		f := newFixture(t, single)
		f.judge.errs = []error{errors.New("unavailable"), nil}
		f.judge.verdicts = []dispute.Verdict{{Accepted: false, Explanation: "No."}}
		s := f.session(t, mode.Classic)
		_, err := s.NewRound(ctx)
		require.NoError(t, err)
		_, err = s.Submit(ctx, "lender")
		require.NoError(t, err)

		_, err = s.Dispute(ctx)
		require.Error(t, err)
		assert.Equal(t, StateScored, s.State())

		v, err := s.Dispute(ctx)
		require.NoError(t, err)
		assert.False(t, v.Accepted)

		_, err = s.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5.05, f.levels.Get(mode.Classic))
		assert.Equal(t, 1, s.Summary().DisputesLost)
	})

	t.Run("needs an API key", func(t *testing.T) {
		f := newFixture(t, single)
		f.deps.HasAPIKey = false
		s := f.session(t, mode.Classic)
		_, err := s.NewRound(ctx)
		require.NoError(t, err)
		_, err = s.Submit(ctx, "lender")
		require.NoError(t, err)

		_, err = s.Dispute(ctx)
		assert.ErrorIs(t, err, ErrAPIKeyRequired)
		assert.Equal(t, StateScored, s.State())
	})
}

func TestInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, single)
	s := f.session(t, mode.Classic)

	_, err := s.Submit(ctx, "bank")
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.Next(ctx)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = s.Help()
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, s.Skip(ctx), ErrInvalidState)

	_, err = s.NewRound(ctx)
	require.NoError(t, err)
	_, err = s.Submit(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyAnswer)
	assert.Equal(t, StateAwaitingAnswer, s.State())
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, single)
	s := f.session(t, mode.Classic)

	_, err := s.NewRound(ctx)
	require.NoError(t, err)
	_, err = s.Submit(ctx, "bank")
	require.NoError(t, err)
	_, err = s.Next(ctx)
	require.NoError(t, err)
	_, err = s.Submit(ctx, "nope")
	require.NoError(t, err)
	_, err = s.Next(ctx)
	require.NoError(t, err)

	sum := s.Summary()
	assert.Equal(t, 2, sum.Rounds)
	assert.Equal(t, 1, sum.Correct)
	assert.Equal(t, 1, sum.Wrong)
	assert.Equal(t, 0.5, sum.Accuracy())
	assert.Equal(t, 5.0, sum.StartLevels[mode.Classic])
	assert.Equal(t, 5.0, sum.EndLevels[mode.Classic])
	assert.Equal(t, []mode.Mode{mode.Classic}, sum.ModesPlayed)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&llm.ErrAuth{Err: errors.New("bad")}, "check your API key"},
		{errors.New("googleapi: Error 403: PERMISSION_DENIED"), "check your API key"},
		{ErrAPIKeyRequired, "check your API key"},
		{&llm.ErrFallbackFailed{PrimaryErr: errors.New("429"), FallbackErr: errors.New("quota exceeded")}, "try again later"},
		{errors.New("RESOURCE_EXHAUSTED"), "try again later"},
		{sampler.ErrNoCandidates, "temporarily unavailable"},
		{errors.New("weird"), "Something went wrong"},
	}
	for _, tt := range tests {
		assert.Contains(t, Describe(tt.err), tt.want)
	}
}

func TestPreferences(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()

	p, err := LoadPreferences(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, Preferences{ShowExamples: false, ShowSynonyms: false}, p)

	require.NoError(t, SavePreferences(ctx, kv, Preferences{ShowSynonyms: true}))
	raw, _, err := kv.Get(ctx, KeyPreferences)
	require.NoError(t, err)
	assert.JSONEq(t, `{"showExamples":false,"showSynonyms":true}`, raw)

	p, err = LoadPreferences(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, Preferences{ShowSynonyms: true}, p)

	m, err := LoadMode(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, mode.Normal, m)

	require.NoError(t, SaveAPIKey(ctx, kv, "k"))
	key, err := LoadAPIKey(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, "k", key)
	require.NoError(t, SaveAPIKey(ctx, kv, ""))
	key, err = LoadAPIKey(ctx, kv)
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestComplete_AppliesOutcomeAndGoesIdle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, single)
	s := f.session(t, mode.Classic)

	_, err := s.NewRound(ctx)
	require.NoError(t, err)
	_, err = s.Submit(ctx, "bank")
	require.NoError(t, err)

	require.NoError(t, s.Complete(ctx))
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Question())
	_, ok := s.Result()
	assert.False(t, ok)
	assert.Equal(t, 4.95, f.levels.Get(mode.Classic))

	assert.ErrorIs(t, s.Complete(ctx), ErrInvalidState)
}

// firstSource makes every draw pick the first candidate.
type firstSource struct{}

func (firstSource) Uint64() uint64 { return 0 }

func TestNormalRound_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]float64{"bank": 5.0, "river": 5.02})
	f.deps.Sampler = sampler.New(firstSource{})
	f.content.cloze = func(context.Context, string) (gateway.Cloze, error) {
		return gateway.Cloze{Sentences: []string{
			"She went to the ___ to deposit her pay.",
			"The ___ raised its interest rates.",
		}}, nil
	}
	s := f.session(t, mode.Normal)

	q, err := s.NewRound(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bank", q.Word)
	assert.Equal(t, mode.Normal, q.Mode)
	assert.Len(t, q.Sentences, 2)
	assert.Equal(t, []string{"bank"}, f.content.asked())

	res, err := s.Submit(ctx, "banc")
	require.NoError(t, err)
	assert.True(t, res.Correct)
	assert.Equal(t, "bank", res.Answer)

	require.NoError(t, s.Complete(ctx))
	assert.Equal(t, 4.95, f.levels.Get(mode.Normal))
	assert.Equal(t, 5.0, f.levels.Get(mode.Classic), "other modes keep their level")

	stored, ok, err := f.kv.Get(ctx, difficulty.Key(mode.Normal))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "4.95", stored)
}

func TestSubmit_StaleAfterModeSwitch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, single)

	started := make(chan struct{})
	release := make(chan struct{})
	f.content.grade = func(context.Context, string, string, string) (gateway.Grade, error) {
		close(started)
		<-release // answers late even after cancellation
		return gateway.Grade{Score: 5}, nil
	}
	s := f.session(t, mode.Reverse)

	_, err := s.NewRound(ctx)
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		_, err := s.Submit(ctx, "where money is kept")
		errc <- err
	}()
	<-started

	require.NoError(t, s.SwitchMode(ctx, mode.Definition))
	close(release)

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrStaleRound)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded grading did not return")
	}
	assert.Equal(t, StateIdle, s.State())
	assert.Nil(t, s.Question())
	_, ok := s.Result()
	assert.False(t, ok)
	assert.Equal(t, 5.0, f.levels.Get(mode.Reverse))
	assert.Zero(t, s.Summary().Rounds)
}

type blockingAdjudicator struct {
	started chan struct{}
	release chan struct{}
}

func (a blockingAdjudicator) Resolve(context.Context, mode.Mode, dispute.Context) (dispute.Verdict, error) {
	close(a.started)
	<-a.release
	return dispute.Verdict{Accepted: true, Explanation: "late"}, nil
}

func TestDispute_StaleAfterNewRound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, single)
	judge := blockingAdjudicator{started: make(chan struct{}), release: make(chan struct{})}
	f.deps.Disputes = judge
	s := f.session(t, mode.Classic)

	_, err := s.NewRound(ctx)
	require.NoError(t, err)
	_, err = s.Submit(ctx, "lender")
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		_, err := s.Dispute(ctx)
		errc <- err
	}()
	<-judge.started
	assert.Equal(t, StateDisputing, s.State())

	next, err := s.NewRound(ctx)
	require.NoError(t, err)
	close(judge.release)

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrStaleRound)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded dispute did not return")
	}

	live := s.Question()
	require.NotNil(t, live)
	assert.Equal(t, next.RoundID, live.RoundID)
	assert.Equal(t, StateAwaitingAnswer, s.State())
	_, ok := s.Result()
	assert.False(t, ok)
	assert.Zero(t, s.Summary().DisputesWon)
	assert.Equal(t, 5.0, f.levels.Get(mode.Classic))
}

func TestReveal_SelfRating(t *testing.T) {
	tests := []struct {
		name      string
		foundHard bool
		want      float64
	}{
		{"easy lowers level", false, 4.95},
		{"hard raises level", true, 5.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, single)
			s := f.session(t, mode.Classic)

			_, err := s.NewRound(ctx)
			require.NoError(t, err)

			word, err := s.Reveal()
			require.NoError(t, err)
			assert.Equal(t, "bank", word)
			assert.Equal(t, StateRevealed, s.State())

			_, err = s.Submit(ctx, "bank")
			assert.ErrorIs(t, err, ErrInvalidState, "no guessing once revealed")

			require.NoError(t, s.Rate(ctx, tt.foundHard))
			assert.Equal(t, StateIdle, s.State())
			assert.Nil(t, s.Question())
			assert.Equal(t, tt.want, f.levels.Get(mode.Classic))

			sum := s.Summary()
			assert.Equal(t, 1, sum.Rounds)
			assert.Equal(t, 1, sum.SelfRated)
			assert.Zero(t, sum.Correct+sum.Wrong)
		})
	}
}

func TestReveal_Rules(t *testing.T) {
	ctx := context.Background()

	t.Run("classic only", func(t *testing.T) {
		f := newFixture(t, single)
		s := f.session(t, mode.Normal)
		_, err := s.NewRound(ctx)
		require.NoError(t, err)

		_, err = s.Reveal()
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Equal(t, StateAwaitingAnswer, s.State())
	})

	t.Run("rate needs a revealed word", func(t *testing.T) {
		f := newFixture(t, single)
		s := f.session(t, mode.Classic)
		assert.ErrorIs(t, s.Rate(ctx, false), ErrInvalidState)

		_, err := s.NewRound(ctx)
		require.NoError(t, err)
		assert.ErrorIs(t, s.Rate(ctx, false), ErrInvalidState)
		assert.Equal(t, 5.0, f.levels.Get(mode.Classic))
	})

	t.Run("new round abandons a revealed word", func(t *testing.T) {
		f := newFixture(t, single)
		s := f.session(t, mode.Classic)
		_, err := s.NewRound(ctx)
		require.NoError(t, err)
		_, err = s.Reveal()
		require.NoError(t, err)

		_, err = s.NewRound(ctx)
		require.NoError(t, err)
		assert.Equal(t, StateAwaitingAnswer, s.State())
		assert.Equal(t, 5.0, f.levels.Get(mode.Classic))
	})
}
