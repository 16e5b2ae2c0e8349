package format

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// FormatBorderedText renders text inside a bordered box with word wrapping.
func FormatBorderedText(text, title string) string {
	innerW := TermWidth() - 4
	if innerW < 30 {
		innerW = 30
	}

	var wrapped []string
	for _, paragraph := range strings.Split(text, "\n") {
		if strings.TrimSpace(paragraph) == "" {
			wrapped = append(wrapped, "")
			continue
		}
		wrapped = append(wrapped, wordWrap(paragraph, innerW)...)
	}

	var output []string
	if title != "" {
		lbl := fmt.Sprintf("─ %s ", runewidth.Truncate(title, innerW-2, ""))
		output = append(output, fmt.Sprintf("┌%s%s┐",
			lbl, strings.Repeat("─", innerW+2-runewidth.StringWidth(lbl))))
	} else {
		output = append(output, fmt.Sprintf("┌%s┐",
			strings.Repeat("─", innerW+2)))
	}
	for _, line := range wrapped {
		output = append(output, fmt.Sprintf("│ %s │", padOrTrunc(line, innerW)))
	}
	output = append(output, fmt.Sprintf("└%s┘",
		strings.Repeat("─", innerW+2)))

	return strings.Join(output, "\n")
}

// wordWrap wraps text to the given display width, breaking at word
// boundaries.
func wordWrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if runewidth.StringWidth(current)+1+runewidth.StringWidth(word) <= width {
			current += " " + word
		} else {
			lines = append(lines, current)
			current = word
		}
	}
	return append(lines, current)
}

// padOrTrunc fits s into exactly w terminal columns.
func padOrTrunc(s string, w int) string {
	if runewidth.StringWidth(s) > w {
		s = runewidth.Truncate(s, w, "")
	}
	return runewidth.FillRight(s, w)
}
