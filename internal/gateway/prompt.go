package gateway

import (
	"fmt"
	"strings"
)

const notAWordRule = `If "%[1]s" is not a real English dictionary word (a proper noun, an abbreviation, a fragment or a misspelling), respond with exactly NOT_A_WORD and nothing else.`

func definitionPrompt(word string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short dictionary-style definition of the English word %q for a vocabulary quiz.\n", word)
	b.WriteString("The definition must not contain the word itself or an obvious derivative of it.\n\n")
	fmt.Fprintf(&b, notAWordRule+"\n\n", word)
	b.WriteString("Otherwise respond in exactly this format:\n")
	b.WriteString("<definition>one sentence definition</definition>\n")
	b.WriteString("<pos>part of speech</pos>")
	return b.String()
}

func clozePrompt(word string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d different natural English sentences that each use the word %q exactly as written, with the same spelling and inflection.\n", n, word)
	b.WriteString("Each sentence should make the meaning clear from context without defining the word outright.\n\n")
	fmt.Fprintf(&b, notAWordRule+"\n\n", word)
	b.WriteString("Otherwise respond in exactly this format:\n")
	writeSentenceTags(&b, n)
	return strings.TrimRight(b.String(), "\n")
}

func comboPrompt(word string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "For the English word %q, write a short dictionary-style definition and %d example sentences.\n", word, n)
	b.WriteString("The definition must not contain the word. Each sentence must use the word exactly as written.\n\n")
	fmt.Fprintf(&b, notAWordRule+"\n\n", word)
	b.WriteString("Otherwise respond in exactly this format:\n")
	b.WriteString("<definition>one sentence definition</definition>\n")
	b.WriteString("<pos>part of speech</pos>\n")
	writeSentenceTags(&b, n)
	return strings.TrimRight(b.String(), "\n")
}

func gradePrompt(word, reference, userDefinition string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are grading a vocabulary learner who was shown the word %q and asked to explain what it means.\n\n", word)
	if reference != "" {
		fmt.Fprintf(&b, "Reference definition: %s\n", reference)
	}
	fmt.Fprintf(&b, "Learner's answer: %q\n\n", userDefinition)
	b.WriteString("Grade the answer from 1 to 5:\n")
	b.WriteString("5 = precise and complete, 4 = correct with minor gaps, 3 = partly correct,\n")
	b.WriteString("2 = mostly wrong but related, 1 = wrong or empty.\n")
	b.WriteString("Judge understanding of the meaning, not spelling or grammar.\n\n")
	b.WriteString("Respond in exactly this format:\n")
	b.WriteString("<grade>N</grade>\n")
	b.WriteString("<feedback>one or two sentences addressed to the learner</feedback>\n")
	b.WriteString("<correct>a concise correct definition</correct>")
	return b.String()
}

func writeSentenceTags(b *strings.Builder, n int) {
	for i := 1; i <= n; i++ {
		fmt.Fprintf(b, "<sentence%d>sentence</sentence%d>\n", i, i)
	}
}
