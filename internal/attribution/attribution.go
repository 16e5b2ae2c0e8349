// Package attribution holds the per-line provenance model shared by the
// store, the merge engine and the blame overlay.
package attribution

import (
	"fmt"
	"sort"
	"time"
)

// Prompt describes one AI generation episode referenced by AI records.
type Prompt struct {
	Tool        string    `json:"tool"`
	Model       string    `json:"model,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	HumanAuthor string    `json:"human_author,omitempty"`
	Summary     string    `json:"summary,omitempty"`
}

// VirtualAttributions is the complete provenance mapping for a tree
// relative to a base commit. It is immutable once constructed.
type VirtualAttributions struct {
	baseCommit    string
	head          string
	files         map[string]FileAttribution
	prompts       map[string]Prompt
	humanFallback Author
}

// New validates and deep-copies its inputs into a VirtualAttributions.
func New(baseCommit, head string, files map[string]FileAttribution, prompts map[string]Prompt, humanFallback Author) (*VirtualAttributions, error) {
	if humanFallback.Kind == "" {
		humanFallback = Human("")
	}
	if err := humanFallback.Validate(); err != nil {
		return nil, fmt.Errorf("human fallback: %w", err)
	}
	if humanFallback.IsAI() {
		return nil, fmt.Errorf("human fallback must be a human author")
	}

	va := &VirtualAttributions{
		baseCommit:    baseCommit,
		head:          head,
		files:         make(map[string]FileAttribution, len(files)),
		prompts:       make(map[string]Prompt, len(prompts)),
		humanFallback: humanFallback,
	}
	for path, fa := range files {
		n := fa.Normalize()
		if err := n.Validate(); err != nil {
			return nil, fmt.Errorf("file %s: %w", path, err)
		}
		va.files[path] = n
	}
	for id, p := range prompts {
		va.prompts[id] = p
	}
	return va, nil
}

// Empty returns a valid instance with no files, anchored at base.
func Empty(base string, humanFallback Author) *VirtualAttributions {
	va, err := New(base, base, nil, nil, humanFallback)
	if err != nil {
		va, _ = New(base, base, nil, nil, Human(""))
	}
	return va
}

// BaseCommit is the commit whose content this set starts from.
func (va *VirtualAttributions) BaseCommit() string { return va.baseCommit }

// Head is the commit or working state this set describes.
func (va *VirtualAttributions) Head() string { return va.head }

// HumanFallback is the author given to lines with no explicit record.
func (va *VirtualAttributions) HumanFallback() Author { return va.humanFallback }

// IsEmpty reports whether no file carries attribution.
func (va *VirtualAttributions) IsEmpty() bool { return len(va.files) == 0 }

// Paths returns the attributed file paths in sorted order.
func (va *VirtualAttributions) Paths() []string {
	paths := make([]string, 0, len(va.files))
	for p := range va.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// File returns a copy of the attribution for path.
func (va *VirtualAttributions) File(path string) (FileAttribution, bool) {
	fa, ok := va.files[path]
	if !ok {
		return FileAttribution{}, false
	}
	return fa.Clone(), true
}

// Files returns a copy of every file attribution.
func (va *VirtualAttributions) Files() map[string]FileAttribution {
	out := make(map[string]FileAttribution, len(va.files))
	for p, fa := range va.files {
		out[p] = fa.Clone()
	}
	return out
}

// Prompt returns the prompt metadata for id.
func (va *VirtualAttributions) Prompt(id string) (Prompt, bool) {
	p, ok := va.prompts[id]
	return p, ok
}

// Prompts returns a copy of the prompt map.
func (va *VirtualAttributions) Prompts() map[string]Prompt {
	out := make(map[string]Prompt, len(va.prompts))
	for id, p := range va.prompts {
		out[id] = p
	}
	return out
}

// ReferencedPrompts returns the subset of prompts referenced by AI records
// in files.
func ReferencedPrompts(files map[string]FileAttribution, prompts map[string]Prompt) map[string]Prompt {
	out := make(map[string]Prompt)
	for _, fa := range files {
		for _, r := range fa.Records {
			if !r.Author.IsAI() || r.Author.PromptID == "" {
				continue
			}
			if p, ok := prompts[r.Author.PromptID]; ok {
				out[r.Author.PromptID] = p
			}
		}
	}
	return out
}
