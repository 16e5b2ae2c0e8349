package format

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/authorship"
)

const barWidth = 20

// Stats counts resolved line origins for one file or a whole history.
type Stats struct {
	Label   string
	AI      int
	Human   int
	Unknown int
	ByTool  map[string]int
}

// Total is the number of counted lines.
func (s Stats) Total() int { return s.AI + s.Human + s.Unknown }

// FormatStats renders s as a short table with proportion bars.
func FormatStats(s Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s%s: %d lines\n", Bold, s.Label, Reset, s.Total())
	row := func(name, color string, n int) {
		fmt.Fprintf(&b, "  %s%s%s %6d %6.1f%%  %s\n",
			color, runewidth.FillRight(name, 8), Reset, n, percent(n, s.Total()), bar(n, s.Total()))
	}
	row("ai", Magenta, s.AI)

	tools := make([]string, 0, len(s.ByTool))
	for t := range s.ByTool {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool {
		if s.ByTool[tools[i]] != s.ByTool[tools[j]] {
			return s.ByTool[tools[i]] > s.ByTool[tools[j]]
		}
		return tools[i] < tools[j]
	})
	for _, t := range tools {
		fmt.Fprintf(&b, "    %s%s%s %4d\n", Dim, runewidth.FillRight(t, 6), Reset, s.ByTool[t])
	}

	row("human", Green, s.Human)
	if s.Unknown > 0 {
		row("unknown", Yellow, s.Unknown)
	}
	return b.String()
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

func bar(n, total int) string {
	filled := 0
	if total > 0 {
		filled = (n*barWidth + total/2) / total
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// FormatLog renders an authorship log: per file the line ranges each
// author owns, then the prompts AI lines refer to.
func FormatLog(log *authorship.Log) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%scommit %s%s\n", Yellow, log.Commit, Reset)
	fmt.Fprintf(&b, "%sschema %s%s\n", Dim, log.SchemaVersion, Reset)

	for _, path := range log.Paths() {
		entry := log.Files[path]
		fmt.Fprintf(&b, "\n%s%s%s %s(%d lines)%s\n", Bold, path, Reset, Dim, entry.LineCount, Reset)
		width := 0
		for _, al := range entry.Authors {
			width = max(width, runewidth.StringWidth(authorLabel(al.Author)))
		}
		for _, al := range entry.Authors {
			color := Green
			if al.Author.IsAI() {
				color = Magenta
			}
			fmt.Fprintf(&b, "  %s%s%s  %s\n", color, runewidth.FillRight(authorLabel(al.Author), width), Reset, al.Lines.String())
		}
	}

	if len(log.Prompts) == 0 {
		return b.String()
	}
	ids := make([]string, 0, len(log.Prompts))
	for id := range log.Prompts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	b.WriteString("\n")
	for _, id := range ids {
		b.WriteString(FormatBorderedText(promptText(log.Prompts[id]), "prompt "+id))
		b.WriteString("\n")
	}
	return b.String()
}

func authorLabel(a attribution.Author) string {
	if !a.IsAI() && a.Name == "" {
		return "human (committer)"
	}
	return a.String()
}

func promptText(p attribution.Prompt) string {
	var lines []string
	tool := p.Tool
	if p.Model != "" {
		tool += " / " + p.Model
	}
	lines = append(lines, "Tool: "+tool)
	if p.HumanAuthor != "" {
		lines = append(lines, "Human: "+p.HumanAuthor)
	}
	if !p.Timestamp.IsZero() {
		lines = append(lines, "Time: "+p.Timestamp.UTC().Format("2006-01-02 15:04:05Z"))
	}
	if p.Summary != "" {
		lines = append(lines, "", p.Summary)
	}
	return strings.Join(lines, "\n")
}
