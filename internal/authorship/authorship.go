// Package authorship encodes the immutable per-commit authorship log stored
// in git notes.
package authorship

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/lineset"
)

// SchemaVersion is written into every log.
const SchemaVersion = "attrib/1"

// AuthorLines lists the lines of a file owned by one author.
type AuthorLines struct {
	Author attribution.Author `json:"author"`
	Lines  lineset.LineSet    `json:"lines"`
}

// FileEntry is the committed attribution for a single path.
type FileEntry struct {
	LineCount int           `json:"line_count"`
	Authors   []AuthorLines `json:"authors"`
}

// Log is the authorship record for one commit.
type Log struct {
	SchemaVersion string                        `json:"schema_version"`
	Commit        string                        `json:"commit"`
	Files         map[string]FileEntry          `json:"files"`
	Prompts       map[string]attribution.Prompt `json:"prompts,omitempty"`
}

// FromFiles builds a log for commit. Only prompts referenced by the files are
// kept.
func FromFiles(commit string, files map[string]attribution.FileAttribution, prompts map[string]attribution.Prompt) *Log {
	log := &Log{
		SchemaVersion: SchemaVersion,
		Commit:        commit,
		Files:         make(map[string]FileEntry, len(files)),
	}
	for path, fa := range files {
		log.Files[path] = entryFor(fa)
	}
	if refs := attribution.ReferencedPrompts(files, prompts); len(refs) > 0 {
		log.Prompts = refs
	}
	return log
}

func entryFor(fa attribution.FileAttribution) FileEntry {
	var order []attribution.Author
	byAuthor := make(map[attribution.Author]lineset.LineSet)
	for _, r := range fa.Records {
		ls, seen := byAuthor[r.Author]
		if !seen {
			order = append(order, r.Author)
		}
		byAuthor[r.Author] = ls.Union(lineset.FromRange(r.Lines.Start, r.Lines.End))
	}
	entry := FileEntry{LineCount: fa.LineCount, Authors: make([]AuthorLines, 0, len(order))}
	for _, a := range order {
		entry.Authors = append(entry.Authors, AuthorLines{Author: a, Lines: byAuthor[a]})
	}
	return entry
}

// Encode serializes the log as indented JSON.
func (l *Log) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding authorship log: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses and validates a log. Any failure wraps
// attribution.ErrStoreCorrupt.
func Decode(data []byte) (*Log, error) {
	var l Log
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("%w: %v", attribution.ErrStoreCorrupt, err)
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", attribution.ErrStoreCorrupt, err)
	}
	return &l, nil
}

// Validate checks schema version and per-file line ownership.
func (l *Log) Validate() error {
	if l.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported schema version %q", l.SchemaVersion)
	}
	for path, entry := range l.Files {
		if entry.LineCount < 0 {
			return fmt.Errorf("%s: negative line count", path)
		}
		var owned lineset.LineSet
		for _, al := range entry.Authors {
			if err := al.Author.Validate(); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if al.Lines.Max() > entry.LineCount {
				return fmt.Errorf("%s: line %d beyond line count %d", path, al.Lines.Max(), entry.LineCount)
			}
			if owned.Intersects(al.Lines) {
				return fmt.Errorf("%s: line owned by more than one author", path)
			}
			owned = owned.Union(al.Lines)
		}
	}
	return nil
}

// Paths returns the files in the log, sorted.
func (l *Log) Paths() []string {
	paths := make([]string, 0, len(l.Files))
	for p := range l.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// AuthorAt returns the recorded author of a 1-based line of path.
func (l *Log) AuthorAt(path string, line int) (attribution.Author, bool) {
	entry, ok := l.Files[path]
	if !ok || line < 1 || line > entry.LineCount {
		return attribution.Author{}, false
	}
	for _, al := range entry.Authors {
		if al.Lines.Contains(line) {
			return al.Author, true
		}
	}
	return attribution.Author{}, false
}

// FileAttribution expands the entry for path into a gap-free interval list.
// Lines no author owns go to fallback.
func (l *Log) FileAttribution(path string, fallback attribution.Author) (attribution.FileAttribution, bool) {
	entry, ok := l.Files[path]
	if !ok {
		return attribution.FileAttribution{}, false
	}
	authors := make([]attribution.Author, entry.LineCount)
	for i := range authors {
		authors[i] = fallback
	}
	for _, al := range entry.Authors {
		for _, n := range al.Lines.Lines() {
			if n >= 1 && n <= entry.LineCount {
				authors[n-1] = al.Author
			}
		}
	}
	return attribution.FromAuthors(authors), true
}

// VirtualAttributions converts the log into a VA anchored at its commit.
func (l *Log) VirtualAttributions(fallback attribution.Author) (*attribution.VirtualAttributions, error) {
	files := make(map[string]attribution.FileAttribution, len(l.Files))
	for path := range l.Files {
		fa, _ := l.FileAttribution(path, fallback)
		files[path] = fa
	}
	return attribution.New(l.Commit, l.Commit, files, l.Prompts, fallback)
}

// Stats counts AI and human lines across the log.
func (l *Log) Stats() (ai, human int) {
	for _, entry := range l.Files {
		for _, al := range entry.Authors {
			if al.Author.IsAI() {
				ai += al.Lines.Len()
			} else {
				human += al.Lines.Len()
			}
		}
	}
	return ai, human
}
