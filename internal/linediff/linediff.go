// Package linediff aligns two versions of a file line by line.
package linediff

import (
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// SplitLines splits text into lines the way git counts them: a trailing
// newline does not start a new line, and empty text has no lines.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

// CountLines returns the number of lines git would report for text.
func CountLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

// Align matches newLines against oldLines. The result has one entry per new
// line: the 0-based index of the old line it was carried over from, or -1
// when the line was inserted or changed.
func Align(oldLines, newLines []string) []int {
	matched := make([]int, len(newLines))
	for j := range matched {
		matched[j] = -1
	}
	if len(oldLines) == 0 || len(newLines) == 0 {
		return matched
	}

	dmp := diffmatchpatch.New()
	a, b, _ := dmp.DiffLinesToRunes(joinLines(oldLines), joinLines(newLines))
	diffs := dmp.DiffMainRunes(a, b, false)

	i, j := 0, 0
	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			for k := 0; k < n; k++ {
				if j+k < len(matched) && i+k < len(oldLines) {
					matched[j+k] = i + k
				}
			}
			i += n
			j += n
		case diffmatchpatch.DiffDelete:
			i += n
		case diffmatchpatch.DiffInsert:
			j += n
		}
	}
	return matched
}

// ChangedLines returns the 1-based numbers of lines in newText that do not
// appear unchanged in oldText.
func ChangedLines(oldText, newText string) []int {
	newLines := SplitLines(newText)
	var changed []int
	for j, i := range Align(SplitLines(oldText), newLines) {
		if i < 0 {
			changed = append(changed, j+1)
		}
	}
	return changed
}

func joinLines(lines []string) string {
	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}
