package attribution

import (
	"fmt"
	"sort"

	"github.com/jensroland/git-attrib/internal/linediff"
)

// LineRange is an inclusive, 1-based span of lines.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of lines in the range.
func (r LineRange) Len() int {
	return r.End - r.Start + 1
}

// Record attributes a contiguous range of lines to one author.
type Record struct {
	Author Author    `json:"author"`
	Lines  LineRange `json:"lines"`
}

// FileAttribution is the gap-free interval list for one file. Content is the
// text the records describe, when known.
type FileAttribution struct {
	Records   []Record
	LineCount int
	Content   *string
}

// FromAuthors builds a compressed FileAttribution from one author per line.
func FromAuthors(authors []Author) FileAttribution {
	var records []Record
	for i, a := range authors {
		line := i + 1
		if n := len(records); n > 0 && records[n-1].Author == a {
			records[n-1].Lines.End = line
			continue
		}
		records = append(records, Record{Author: a, Lines: LineRange{Start: line, End: line}})
	}
	return FileAttribution{Records: records, LineCount: len(authors)}
}

// Uniform attributes all lineCount lines to a single author.
func Uniform(author Author, lineCount int) FileAttribution {
	fa := FileAttribution{LineCount: lineCount}
	if lineCount > 0 {
		fa.Records = []Record{{Author: author, Lines: LineRange{Start: 1, End: lineCount}}}
	}
	return fa
}

// WithContent returns a copy of fa carrying content.
func (fa FileAttribution) WithContent(content string) FileAttribution {
	out := fa.Clone()
	out.Content = &content
	return out
}

// HasContent reports whether the described text is known.
func (fa FileAttribution) HasContent() bool {
	return fa.Content != nil
}

// PerLine expands the records into one author per line.
func (fa FileAttribution) PerLine() []Author {
	out := make([]Author, 0, fa.LineCount)
	for _, r := range fa.Records {
		for i := r.Lines.Start; i <= r.Lines.End; i++ {
			out = append(out, r.Author)
		}
	}
	return out
}

// AuthorAt returns the author of the given 1-based line.
func (fa FileAttribution) AuthorAt(line int) (Author, bool) {
	i := sort.Search(len(fa.Records), func(i int) bool { return fa.Records[i].Lines.End >= line })
	if i < len(fa.Records) && fa.Records[i].Lines.Start <= line {
		return fa.Records[i].Author, true
	}
	return Author{}, false
}

// AILines returns the number of lines attributed to an AI tool.
func (fa FileAttribution) AILines() int {
	n := 0
	for _, r := range fa.Records {
		if r.Author.IsAI() {
			n += r.Lines.Len()
		}
	}
	return n
}

// Clone returns a deep copy.
func (fa FileAttribution) Clone() FileAttribution {
	out := FileAttribution{LineCount: fa.LineCount}
	if fa.Records != nil {
		out.Records = make([]Record, len(fa.Records))
		copy(out.Records, fa.Records)
	}
	if fa.Content != nil {
		c := *fa.Content
		out.Content = &c
	}
	return out
}

// Normalize merges adjacent records that share an author.
func (fa FileAttribution) Normalize() FileAttribution {
	out := fa.Clone()
	if len(out.Records) < 2 {
		return out
	}
	merged := out.Records[:1]
	for _, r := range out.Records[1:] {
		last := &merged[len(merged)-1]
		if last.Author == r.Author && last.Lines.End+1 == r.Lines.Start {
			last.Lines.End = r.Lines.End
			continue
		}
		merged = append(merged, r)
	}
	out.Records = merged
	return out
}

// Validate checks that the records are sorted, disjoint, and cover
// exactly lines 1..LineCount.
func (fa FileAttribution) Validate() error {
	if fa.LineCount < 0 {
		return fmt.Errorf("negative line count %d", fa.LineCount)
	}
	next := 1
	for i, r := range fa.Records {
		if err := r.Author.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if r.Lines.Start != next {
			return fmt.Errorf("record %d starts at %d, want %d", i, r.Lines.Start, next)
		}
		if r.Lines.End < r.Lines.Start {
			return fmt.Errorf("record %d has inverted range %d-%d", i, r.Lines.Start, r.Lines.End)
		}
		next = r.Lines.End + 1
	}
	if next-1 != fa.LineCount {
		return fmt.Errorf("records cover %d lines, file has %d", next-1, fa.LineCount)
	}
	if fa.Content != nil {
		if n := linediff.CountLines(*fa.Content); n != fa.LineCount {
			return fmt.Errorf("content has %d lines, line count is %d", n, fa.LineCount)
		}
	}
	return nil
}

// Realign maps fa onto content. Lines carried over unchanged keep their
// author and every other line goes to fill. Without known content the
// mapping is positional.
func (fa FileAttribution) Realign(content string, fill Author) FileAttribution {
	newLines := linediff.SplitLines(content)
	old := fa.PerLine()
	authors := make([]Author, len(newLines))

	if fa.Content != nil {
		matched := linediff.Align(linediff.SplitLines(*fa.Content), newLines)
		for j, i := range matched {
			if i >= 0 && i < len(old) {
				authors[j] = old[i]
			} else {
				authors[j] = fill
			}
		}
	} else {
		for j := range authors {
			if j < len(old) {
				authors[j] = old[j]
			} else {
				authors[j] = fill
			}
		}
	}

	out := FromAuthors(authors)
	out.Content = &content
	return out
}
