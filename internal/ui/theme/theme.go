// Package theme holds the colours and styles of the terminal output.
package theme

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Warning   = lipgloss.Color("#EAB308") // Amber
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Question = lipgloss.NewStyle().
			Foreground(Text)

	Word = lipgloss.NewStyle().
		Bold(true).
		Foreground(Accent)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Dim = lipgloss.NewStyle().
		Foreground(TextDim)
)

// Outcomes
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Neutral = lipgloss.NewStyle().
		Foreground(Warning).
		Bold(true)
)

// Components
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)

	LevelFilled = lipgloss.NewStyle().
			Foreground(Secondary)

	LevelEmpty = lipgloss.NewStyle().
			Foreground(Border)
)

// Enabled turns styling on. When false, Render returns text unchanged.
var Enabled = true

// Render applies style to text when styling is enabled.
func Render(style lipgloss.Style, text string) string {
	if !Enabled {
		return text
	}
	return style.Render(text)
}

// LevelBar draws level on a scale from lowest to highest, followed by the
// value with two decimals. Rarer words (lower Zipf) fill more of the bar.
func LevelBar(level, lowest, highest float64, width int) string {
	if width < 4 {
		width = 4
	}
	frac := 0.0
	if highest > lowest {
		frac = (highest - level) / (highest - lowest)
	}
	frac = min(max(frac, 0), 1)

	filled := int(frac*float64(width) + 0.5)
	bar := Render(LevelFilled, strings.Repeat("█", filled)) +
		Render(LevelEmpty, strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %.2f", bar, level)
}
