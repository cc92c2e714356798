package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/wordzipf/internal/difficulty"
	"github.com/abhisek/wordzipf/internal/dispute"
	"github.com/abhisek/wordzipf/internal/gateway"
	"github.com/abhisek/wordzipf/internal/mode"
	"github.com/abhisek/wordzipf/internal/session"
	"github.com/abhisek/wordzipf/internal/ui/theme"
)

// historySize is how many finished rounds stay listed above the question.
const historySize = 5

const commandHelp = "Commands: ? hint, ! dispute a wrong answer, :skip, :new, :mode <name>, :quit" +
	"\nClassic mode: :show reveals the word (then easy or hard), :more / :prev cycle definitions"

// roundMsg carries a freshly loaded question.
type roundMsg struct {
	Question *session.Question
	Err      error
}

// resultMsg carries the score of a submitted answer.
type resultMsg struct {
	Result session.Result
	Err    error
}

// verdictMsg carries a dispute outcome.
type verdictMsg struct {
	Verdict dispute.Verdict
	Err     error
}

// completedMsg is sent when a round's level change has been applied.
// Switch is the mode to move to afterwards, if any.
type completedMsg struct {
	Word   string
	Note   string
	Switch string
	Err    error
}

// switchedMsg is sent when a mode change has been saved.
type switchedMsg struct {
	Err error
}

// quitMsg is sent once a scored round has been settled before exit.
type quitMsg struct {
	Err error
}

// player is the inline Bubble Tea model behind `play`. Round state lives in
// the session; player only tracks what is on screen.
type player struct {
	ctx    context.Context
	sess   *session.Session
	prefs  session.Preferences
	input  textinput.Model
	rounds int
	intro  bool

	question *session.Question
	sense    int
	notes    []string
	busy     string
	history  []string
	err      error
}

func newPlayer(ctx context.Context, sess *session.Session, prefs session.Preferences, rounds int, intro bool) *player {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "type your answer"
	ti.CharLimit = 200
	ti.Focus()

	return &player{
		ctx:    ctx,
		sess:   sess,
		prefs:  prefs,
		input:  ti,
		rounds: rounds,
		intro:  intro,
	}
}

func (p *player) Init() tea.Cmd {
	return tea.Batch(p.loadRound(), p.input.Focus())
}

func (p *player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case roundMsg:
		return p, p.handleRound(msg)
	case resultMsg:
		return p, p.handleResult(msg)
	case verdictMsg:
		return p, p.handleVerdict(msg)
	case completedMsg:
		return p, p.handleCompleted(msg)
	case switchedMsg:
		return p, p.handleSwitched(msg)
	case quitMsg:
		p.err = msg.Err
		return p, tea.Quit

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return p, p.finish()
		case "enter":
			line := strings.TrimSpace(p.input.Value())
			p.input.Reset()
			return p, p.dispatch(line)
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *player) View() tea.View {
	return tea.NewView(p.render())
}

// Err is the error that ended play, if any.
func (p *player) Err() error {
	return p.err
}

// Session calls. Each runs off the update loop and reports back with a
// message; results from superseded rounds come back as ErrStaleRound.

func (p *player) loadRound() tea.Cmd {
	p.busy = "Finding a word..."
	return func() tea.Msg {
		q, err := p.sess.NewRound(p.ctx)
		return roundMsg{Question: q, Err: err}
	}
}

func (p *player) submit(answer string) tea.Cmd {
	p.busy = "Checking..."
	return func() tea.Msg {
		res, err := p.sess.Submit(p.ctx, answer)
		return resultMsg{Result: res, Err: err}
	}
}

func (p *player) dispute() tea.Cmd {
	p.busy = "Asking for a second opinion..."
	return func() tea.Msg {
		v, err := p.sess.Dispute(p.ctx)
		return verdictMsg{Verdict: v, Err: err}
	}
}

// complete applies the scored round and then moves on, to switchTo if set.
func (p *player) complete(switchTo string) tea.Cmd {
	word := p.questionWord()
	note := "wrong"
	if res, ok := p.sess.Result(); ok {
		switch {
		case res.Neutral:
			note = "partly right"
		case res.Correct:
			note = "correct"
		}
	}
	return func() tea.Msg {
		return completedMsg{Word: word, Note: note, Switch: switchTo, Err: p.sess.Complete(p.ctx)}
	}
}

func (p *player) skip() tea.Cmd {
	word := p.questionWord()
	return func() tea.Msg {
		return completedMsg{Word: word, Note: "skipped", Err: p.sess.Skip(p.ctx)}
	}
}

func (p *player) rate(foundHard bool) tea.Cmd {
	word := p.questionWord()
	note := "easy"
	if foundHard {
		note = "hard"
	}
	return func() tea.Msg {
		return completedMsg{Word: word, Note: note, Err: p.sess.Rate(p.ctx, foundHard)}
	}
}

func (p *player) switchMode(name string) tea.Cmd {
	m, err := mode.Parse(name)
	if err != nil {
		p.note(theme.Render(theme.Incorrect, err.Error()))
		return nil
	}
	p.busy = "Switching to " + string(m) + "..."
	return func() tea.Msg {
		return switchedMsg{Err: p.sess.SwitchMode(p.ctx, m)}
	}
}

// finish settles a scored round so quitting keeps its level change.
func (p *player) finish() tea.Cmd {
	return func() tea.Msg {
		if p.sess.State() == session.StateScored {
			return quitMsg{Err: p.sess.Complete(p.ctx)}
		}
		return quitMsg{}
	}
}

func (p *player) questionWord() string {
	if p.question == nil {
		return ""
	}
	return p.question.Word
}

// Input handling.

func (p *player) dispatch(line string) tea.Cmd {
	switch {
	case line == ":quit":
		return p.finish()
	case line == ":help":
		p.note(theme.Render(theme.Hint, commandHelp))
		return nil
	}

	switch p.sess.State() {
	case session.StateAwaitingAnswer:
		return p.onAnswer(line)
	case session.StateRevealed:
		return p.onRevealed(line)
	case session.StateScored:
		return p.onScored(line)
	case session.StateLoading, session.StateDisputing:
		return p.onBusy(line)
	default:
		return p.onIdle(line)
	}
}

func (p *player) onAnswer(line string) tea.Cmd {
	switch {
	case line == "":
		return nil
	case line == "?":
		hint, err := p.sess.Help()
		if err != nil {
			p.noteError(err)
			return nil
		}
		p.note(theme.Render(theme.Hint, hint))
	case line == ":skip":
		return p.skip()
	case line == ":new":
		return p.loadRound()
	case strings.HasPrefix(line, ":mode"):
		return p.switchMode(modeArg(line))
	case line == ":show":
		word, err := p.sess.Reveal()
		if err != nil {
			p.noteError(err)
			return nil
		}
		p.note(fmt.Sprintf("The word is %s.", theme.Render(theme.Word, word)))
		p.note(theme.Render(theme.Hint, "Type easy or hard."))
	case isSenseCommand(line):
		p.cycleSense(line)
	default:
		return p.submit(line)
	}
	return nil
}

func (p *player) onRevealed(line string) tea.Cmd {
	switch {
	case line == "easy":
		return p.rate(false)
	case line == "hard":
		return p.rate(true)
	case line == ":new":
		return p.loadRound()
	case strings.HasPrefix(line, ":mode"):
		return p.switchMode(modeArg(line))
	case isSenseCommand(line):
		p.cycleSense(line)
	default:
		p.note(theme.Render(theme.Hint, "Type easy or hard."))
	}
	return nil
}

func (p *player) onScored(line string) tea.Cmd {
	switch {
	case line == "!":
		return p.dispute()
	case strings.HasPrefix(line, ":mode"):
		return p.complete(modeArg(line))
	default:
		return p.complete("")
	}
}

func (p *player) onBusy(line string) tea.Cmd {
	switch {
	case line == ":new":
		return p.loadRound()
	case strings.HasPrefix(line, ":mode"):
		return p.switchMode(modeArg(line))
	}
	return nil
}

func (p *player) onIdle(line string) tea.Cmd {
	if strings.HasPrefix(line, ":mode") {
		return p.switchMode(modeArg(line))
	}
	return p.loadRound()
}

func modeArg(line string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, ":mode"))
}

func isSenseCommand(line string) bool {
	switch line {
	case ":more", ":next-def", ":prev":
		return true
	}
	return false
}

// cycleSense steps through the dictionary senses of a classic question.
func (p *player) cycleSense(line string) {
	if p.question == nil || len(p.question.Senses) < 2 {
		p.note(theme.Render(theme.Hint, "There is only one definition."))
		return
	}
	n := len(p.question.Senses)
	if line == ":prev" {
		p.sense = (p.sense - 1 + n) % n
	} else {
		p.sense = (p.sense + 1) % n
	}
}

// Message handlers.

func (p *player) handleRound(msg roundMsg) tea.Cmd {
	if errors.Is(msg.Err, session.ErrStaleRound) {
		return nil
	}
	p.busy = ""
	p.question = nil
	p.sense = 0
	p.notes = nil
	if msg.Err != nil {
		p.noteError(msg.Err)
		p.note(theme.Render(theme.Hint, "Press enter to try again, or :quit."))
		return nil
	}
	p.question = msg.Question
	return nil
}

func (p *player) handleResult(msg resultMsg) tea.Cmd {
	if errors.Is(msg.Err, session.ErrStaleRound) {
		return nil
	}
	p.busy = ""
	if msg.Err != nil {
		p.noteError(msg.Err)
		return nil
	}

	res := msg.Result
	var verdict string
	switch {
	case res.Correct:
		verdict = theme.Render(theme.Correct, "Correct!")
	case res.Neutral:
		verdict = theme.Render(theme.Neutral, "Partly right.")
	default:
		verdict = theme.Render(theme.Incorrect, "Not quite.")
	}
	if res.Grade > 0 {
		verdict += fmt.Sprintf(" Grade %d/5.", res.Grade)
	}
	p.note(verdict)
	if res.Feedback != "" {
		p.note(res.Feedback)
	}
	if res.Answer != "" {
		p.note("Answer: " + theme.Render(theme.Word, res.Answer))
	}
	if res.Disputable() {
		p.note(theme.Render(theme.Hint, "Type ! to dispute, or press enter for the next word."))
	} else {
		p.note(theme.Render(theme.Hint, "Press enter for the next word."))
	}
	return nil
}

func (p *player) handleVerdict(msg verdictMsg) tea.Cmd {
	if errors.Is(msg.Err, session.ErrStaleRound) {
		return nil
	}
	p.busy = ""
	if msg.Err != nil {
		p.noteError(msg.Err)
		if !errors.Is(msg.Err, session.ErrAlreadyDisputed) && !errors.Is(msg.Err, session.ErrInvalidState) {
			p.note(theme.Render(theme.Hint, "Type ! to try the dispute again."))
		}
		return nil
	}
	if msg.Verdict.Accepted {
		p.note(theme.Render(theme.Correct, "Dispute accepted.") + " " + msg.Verdict.Explanation)
	} else {
		p.note(theme.Render(theme.Incorrect, "Dispute rejected.") + " " + msg.Verdict.Explanation)
	}
	p.note(theme.Render(theme.Hint, "Press enter for the next word."))
	return nil
}

func (p *player) handleCompleted(msg completedMsg) tea.Cmd {
	if msg.Err != nil {
		p.noteError(msg.Err)
		return nil
	}
	p.intro = false
	if msg.Word != "" {
		p.history = append(p.history, fmt.Sprintf("%s  %s", msg.Word, msg.Note))
		if len(p.history) > historySize {
			p.history = p.history[len(p.history)-historySize:]
		}
	}
	if p.rounds > 0 && p.sess.Summary().Rounds >= p.rounds {
		return p.finish()
	}
	if msg.Switch != "" {
		return p.switchMode(msg.Switch)
	}
	return p.loadRound()
}

func (p *player) handleSwitched(msg switchedMsg) tea.Cmd {
	if msg.Err != nil {
		p.busy = ""
		p.noteError(msg.Err)
		return nil
	}
	return p.loadRound()
}

func (p *player) note(s string) {
	p.notes = append(p.notes, s)
}

func (p *player) noteError(err error) {
	p.note(theme.Render(theme.Incorrect, session.Describe(err)))
}

// Rendering.

func (p *player) render() string {
	var b strings.Builder
	if p.intro {
		b.WriteString(theme.Render(theme.Title, "Welcome to wordzipf") + "\n")
		b.WriteString("Words are picked by how common they are. Answer correctly and the words get rarer;\n")
		b.WriteString("miss and they get more common. Each mode keeps its own level.\n")
		b.WriteString(theme.Render(theme.Hint, commandHelp) + "\n\n")
	}
	for _, h := range p.history {
		b.WriteString(theme.Render(theme.Dim, h) + "\n")
	}

	header := fmt.Sprintf("%s  level %s", p.sess.Mode(),
		theme.LevelBar(p.sess.Level(), difficulty.MinLevel, difficulty.MaxLevel, 20))
	b.WriteString(theme.Render(theme.Title, header) + "\n")

	if p.question != nil {
		b.WriteString(theme.Render(theme.Card, p.renderQuestion()) + "\n")
	}
	for _, n := range p.notes {
		b.WriteString(n + "\n")
	}
	if p.busy != "" {
		b.WriteString(theme.Render(theme.Dim, p.busy) + "\n")
	}
	b.WriteString(p.input.View())
	return b.String()
}

func (p *player) renderQuestion() string {
	q := p.question
	var b strings.Builder
	switch q.Mode {
	case mode.Normal:
		b.WriteString("Fill in the blank:\n")
		writeSentences(&b, q.Sentences)
	case mode.Definition:
		fmt.Fprintf(&b, "Which word means:\n  %s%s\n", q.Definition, pos(q.PartOfSpeech))
	case mode.Combo:
		fmt.Fprintf(&b, "Definition: %s%s\n", q.Definition, pos(q.PartOfSpeech))
		writeSentences(&b, q.Sentences)
	case mode.Reverse:
		fmt.Fprintf(&b, "What does %s mean?\n", theme.Render(theme.Word, q.Word))
	case mode.Classic:
		p.writeSense(&b)
	}
	return strings.TrimRight(b.String(), "\n")
}

// writeSense renders the classic sense currently selected.
func (p *player) writeSense(b *strings.Builder) {
	q := p.question
	if len(q.Senses) == 0 {
		fmt.Fprintf(b, "Which word means:\n  %s%s\n", gateway.Blank(q.Definition, q.Word), pos(q.PartOfSpeech))
		return
	}
	s := q.Senses[p.sense%len(q.Senses)]
	b.WriteString("Which word means")
	if len(q.Senses) > 1 {
		fmt.Fprintf(b, " (%d/%d)", p.sense%len(q.Senses)+1, len(q.Senses))
	}
	fmt.Fprintf(b, ":\n  %s%s\n", gateway.Blank(s.Definition, q.Word), pos(s.PartOfSpeech))
	if p.prefs.ShowExamples && s.Example != "" {
		fmt.Fprintf(b, "  e.g. %s\n", gateway.Blank(s.Example, q.Word))
	}
	if p.prefs.ShowSynonyms && len(s.Synonyms) > 0 {
		fmt.Fprintf(b, "  synonyms: %s\n", strings.Join(s.Synonyms, ", "))
	}
	if len(q.Senses) > 1 {
		b.WriteString(theme.Render(theme.Hint, "  :more for another definition") + "\n")
	}
}

func writeSentences(b *strings.Builder, sentences []string) {
	for i, s := range sentences {
		fmt.Fprintf(b, "  %d. %s\n", i+1, s)
	}
}

func pos(p string) string {
	if p == "" {
		return ""
	}
	return " (" + p + ")"
}

// printSummary writes the end-of-play totals.
func printSummary(out io.Writer, sum session.Summary) {
	if sum.Rounds == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s\n", theme.Render(theme.Title, "Session summary"))
	fmt.Fprintf(out, "Rounds: %d  Correct: %d  Wrong: %d", sum.Rounds, sum.Correct, sum.Wrong)
	if sum.Neutral > 0 {
		fmt.Fprintf(out, "  Partly right: %d", sum.Neutral)
	}
	if sum.SelfRated > 0 {
		fmt.Fprintf(out, "  Self-rated: %d", sum.SelfRated)
	}
	fmt.Fprintf(out, "  Accuracy: %.0f%%\n", sum.Accuracy()*100)
	if sum.DisputesWon+sum.DisputesLost > 0 {
		fmt.Fprintf(out, "Disputes: %d accepted, %d rejected\n", sum.DisputesWon, sum.DisputesLost)
	}
	for _, m := range sum.ModesPlayed {
		fmt.Fprintf(out, "Level %-10s %.2f -> %.2f\n", m, sum.StartLevels[m], sum.EndLevels[m])
	}
}
