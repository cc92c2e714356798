package gateway

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NotAWord is the sentinel the model answers with when the requested word
// is not a real dictionary word.
const NotAWord = "NOT_A_WORD"

// BlankMarker replaces the target word in cloze sentences.
const BlankMarker = "___"

var (
	// ErrNotAWord means the model rejected the word. Callers pick another.
	ErrNotAWord = errors.New("not a dictionary word")

	// ErrMalformedResponse means the expected tags were missing or invalid.
	ErrMalformedResponse = errors.New("malformed LLM response")
)

var (
	tagPatterns = map[string]*regexp.Regexp{}

	sentencePattern = regexp.MustCompile(`(?is)<sentence(\d+)>(.*?)</sentence\d+>`)
)

func init() {
	for _, tag := range []string{"definition", "pos", "grade", "feedback", "correct"} {
		tagPatterns[tag] = regexp.MustCompile(`(?is)<` + tag + `>(.*?)</` + tag + `>`)
	}
}

// Definition is a generated definition with its part of speech.
type Definition struct {
	Text         string
	PartOfSpeech string
}

// Cloze holds example sentences with the target word blanked out.
type Cloze struct {
	Sentences []string
}

// Combo is a definition plus cloze sentences for the same word.
type Combo struct {
	Definition Definition
	Cloze      Cloze
}

// Grade is the model's assessment of a free-text definition.
type Grade struct {
	Score    int // 1 to 5
	Feedback string
	Correct  string // a reference definition, may be empty
}

// extractTag returns the trimmed content of the first <tag>...</tag>.
func extractTag(text, tag string) (string, bool) {
	re, ok := tagPatterns[tag]
	if !ok {
		return "", false
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	v := strings.TrimSpace(m[1])
	return v, v != ""
}

func checkSentinel(text string) error {
	if strings.Contains(text, NotAWord) {
		return ErrNotAWord
	}
	return nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// ParseDefinition reads a <definition> and optional <pos> response.
func ParseDefinition(text string) (Definition, error) {
	if err := checkSentinel(text); err != nil {
		return Definition{}, err
	}
	def, ok := extractTag(text, "definition")
	if !ok {
		return Definition{}, malformed("missing <definition>")
	}
	pos, _ := extractTag(text, "pos")
	return Definition{Text: def, PartOfSpeech: strings.ToLower(pos)}, nil
}

// ParseCloze reads <sentenceN> tags in numeric order and blanks word out
// of each. Sentences that do not contain the word are dropped; at least
// one must remain.
func ParseCloze(text, word string) (Cloze, error) {
	if err := checkSentinel(text); err != nil {
		return Cloze{}, err
	}
	matches := sentencePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return Cloze{}, malformed("missing <sentence1>")
	}

	type numbered struct {
		n    int
		text string
	}
	var found []numbered
	for _, m := range matches {
		n, _ := strconv.Atoi(m[1])
		found = append(found, numbered{n: n, text: strings.TrimSpace(m[2])})
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].n < found[j].n })

	var out Cloze
	for _, f := range found {
		blanked := Blank(f.text, word)
		if !strings.Contains(blanked, BlankMarker) {
			continue
		}
		out.Sentences = append(out.Sentences, blanked)
	}
	if len(out.Sentences) == 0 {
		return Cloze{}, malformed("no sentence uses %q", word)
	}
	return out, nil
}

// ParseCombo reads a definition and cloze sentences from one response.
func ParseCombo(text, word string) (Combo, error) {
	def, err := ParseDefinition(text)
	if err != nil {
		return Combo{}, err
	}
	cloze, err := ParseCloze(text, word)
	if err != nil {
		return Combo{}, err
	}
	return Combo{Definition: def, Cloze: cloze}, nil
}

// ParseGrade reads <grade>, <feedback> and optional <correct> tags. The
// grade must be an integer from 1 to 5.
func ParseGrade(text string) (Grade, error) {
	if err := checkSentinel(text); err != nil {
		return Grade{}, err
	}
	raw, ok := extractTag(text, "grade")
	if !ok {
		return Grade{}, malformed("missing <grade>")
	}
	score, err := strconv.Atoi(raw)
	if err != nil || score < 1 || score > 5 {
		return Grade{}, malformed("grade %q is not 1-5", raw)
	}
	feedback, _ := extractTag(text, "feedback")
	correct, _ := extractTag(text, "correct")
	return Grade{Score: score, Feedback: feedback, Correct: correct}, nil
}

// Blank replaces every whole-word, case-insensitive occurrence of word in
// sentence with BlankMarker. The word is matched literally. Letters, digits
// and apostrophes continue a word, so "ol'" is found in "ol' river" but
// "an" is not found in "bank".
func Blank(sentence, word string) string {
	word = strings.TrimSpace(word)
	if word == "" {
		return sentence
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(word))

	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringIndex(sentence, -1) {
		if !wordBoundary(sentence, loc[0], loc[1]) {
			continue
		}
		b.WriteString(sentence[last:loc[0]])
		b.WriteString(BlankMarker)
		last = loc[1]
	}
	if last == 0 {
		return sentence
	}
	b.WriteString(sentence[last:])
	return b.String()
}

// wordBoundary reports whether s[start:end] is not glued to a neighbouring
// word character.
func wordBoundary(s string, start, end int) bool {
	if r, _ := utf8.DecodeLastRuneInString(s[:start]); start > 0 && isWordRune(r) {
		return false
	}
	if r, _ := utf8.DecodeRuneInString(s[end:]); end < len(s) && isWordRune(r) {
		return false
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

// Fill puts word back into every blank of a cloze sentence.
func Fill(sentence, word string) string {
	return strings.ReplaceAll(sentence, BlankMarker, word)
}
