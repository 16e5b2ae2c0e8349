// Package merge reconciles two attribution states that describe the same
// uncommitted work reached through different histories.
package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/linediff"
)

// ConflictError lists files whose final content could not be reconciled
// with either input. Those files are absent from the merged result.
type ConflictError struct {
	Paths []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: %s", attribution.ErrMergeConflict, strings.Join(e.Paths, ", "))
}

func (e *ConflictError) Unwrap() error { return attribution.ErrMergeConflict }

// MergeFavoringFirst builds the attribution of newHead from primary and
// secondary, aligned to finalContents (path -> text on disk). Where both
// inputs claim a line, primary wins. Only paths in finalContents survive.
//
// When some files conflict the merged result for the other files is still
// returned together with a *ConflictError.
func MergeFavoringFirst(primary, secondary *attribution.VirtualAttributions, finalContents map[string]string, newHead string) (*attribution.VirtualAttributions, error) {
	if primary == nil {
		primary = attribution.Empty(newHead, attribution.Human(""))
	}
	if secondary == nil {
		secondary = attribution.Empty(newHead, primary.HumanFallback())
	}

	paths := make([]string, 0, len(finalContents))
	for p := range finalContents {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	files := make(map[string]attribution.FileAttribution, len(paths))
	var conflicts []string
	for _, path := range paths {
		final := finalContents[path]
		pf, inPrimary := primary.File(path)
		sf, inSecondary := secondary.File(path)

		var (
			merged attribution.FileAttribution
			ok     bool
		)
		switch {
		case inPrimary && inSecondary:
			merged, ok = mergeFile(pf, sf, final, primary.HumanFallback())
		case inPrimary:
			merged, ok = adopt(pf, final, primary.HumanFallback())
		case inSecondary:
			merged, ok = adopt(sf, final, secondary.HumanFallback())
		default:
			continue
		}
		if !ok {
			conflicts = append(conflicts, path)
			continue
		}
		files[path] = merged
	}

	prompts := secondary.Prompts()
	for id, p := range primary.Prompts() {
		prompts[id] = p
	}
	prompts = attribution.ReferencedPrompts(files, prompts)

	va, err := attribution.New(newHead, newHead, files, prompts, primary.HumanFallback())
	if err != nil {
		return nil, fmt.Errorf("merged attribution invalid: %w", err)
	}
	if len(conflicts) > 0 {
		return va, &ConflictError{Paths: conflicts}
	}
	return va, nil
}

// adopt re-derives a single side's attribution against final.
func adopt(fa attribution.FileAttribution, final string, fallback attribution.Author) (attribution.FileAttribution, bool) {
	if !fa.HasContent() && fa.LineCount != linediff.CountLines(final) {
		return attribution.FileAttribution{}, false
	}
	return fa.Realign(final, fallback), true
}

func mergeFile(primary, secondary attribution.FileAttribution, final string, fallback attribution.Author) (attribution.FileAttribution, bool) {
	finalLines := linediff.SplitLines(final)
	n := len(finalLines)
	if !primary.HasContent() && !secondary.HasContent() &&
		primary.LineCount != n && secondary.LineCount != n {
		return attribution.FileAttribution{}, false
	}

	fromPrimary := project(primary, finalLines)
	fromSecondary := project(secondary, finalLines)

	authors := make([]attribution.Author, n)
	for j := range authors {
		switch {
		case fromPrimary[j] != nil:
			authors[j] = *fromPrimary[j]
		case fromSecondary[j] != nil:
			authors[j] = *fromSecondary[j]
		default:
			authors[j] = fallback
		}
	}
	out := attribution.FromAuthors(authors)
	out.Content = &final
	return out, true
}

// project maps the authors of fa onto finalLines. Entries are nil where
// fa does not describe that exact final line.
func project(fa attribution.FileAttribution, finalLines []string) []*attribution.Author {
	out := make([]*attribution.Author, len(finalLines))
	old := fa.PerLine()
	if fa.HasContent() {
		for j, i := range linediff.Align(linediff.SplitLines(*fa.Content), finalLines) {
			if i >= 0 && i < len(old) {
				out[j] = &old[i]
			}
		}
		return out
	}
	if fa.LineCount == len(finalLines) {
		for j := range out {
			out[j] = &old[j]
		}
	}
	return out
}
