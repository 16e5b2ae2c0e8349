// Package checkpoint captures editing episodes into the working log.
package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/debug"
	"github.com/jensroland/git-attrib/internal/git"
	"github.com/jensroland/git-attrib/internal/store"
)

const logName = "checkpoint.log"

// Request describes one episode: who just edited File.
type Request struct {
	File   string // repo-relative, slash separated
	Author attribution.Author
	// Prompt describes an AI episode. A missing PromptID on an AI author
	// is generated.
	Prompt *attribution.Prompt
	// Content overrides reading the file from the working tree.
	Content *string
}

// Capturer records checkpoints against the current HEAD.
type Capturer struct {
	repo          *git.Repository
	store         *store.Store
	humanFallback attribution.Author
	now           func() time.Time
}

// New returns a Capturer.
func New(repo *git.Repository, st *store.Store, humanFallback attribution.Author) *Capturer {
	return &Capturer{repo: repo, store: st, humanFallback: humanFallback, now: time.Now}
}

// Capture diffs the file against its last recorded state and attributes
// every new or changed line to req.Author. Unchanged lines keep their
// previous author. It returns nil when the file did not change.
func (c *Capturer) Capture(ctx context.Context, req Request) (*store.Checkpoint, error) {
	if err := req.Author.Validate(); err != nil {
		return nil, fmt.Errorf("checkpoint author: %w", err)
	}
	base, err := c.repo.Head(ctx)
	if err != nil {
		base = ""
	}

	va, err := c.store.LoadWorking(ctx, base, c.humanFallback)
	if err != nil {
		if !errors.Is(err, attribution.ErrStoreCorrupt) {
			return nil, err
		}
		debug.Error(c.store.Paths().CacheDir, logName, "working log corrupt, starting fresh", err)
		if err := c.store.DiscardWorking(base); err != nil {
			return nil, err
		}
		va = attribution.Empty(base, c.humanFallback)
	}

	prev, tracked := c.previous(ctx, va, base, req.File)

	var content string
	exists := true
	if req.Content != nil {
		content = *req.Content
	} else {
		content, exists, err = c.repo.ReadWorkFile(req.File)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", req.File, err)
		}
	}

	author := req.Author
	cp := store.Checkpoint{
		ID:        uuid.New().String(),
		Timestamp: c.now().UTC(),
		Kind:      author.Kind,
		File:      req.File,
	}

	if !exists {
		if !tracked {
			return nil, nil
		}
		cp.Author = author
		cp.Deleted = true
		return &cp, c.store.AppendCheckpoint(base, cp, "")
	}
	if prev.Content != nil && *prev.Content == content {
		return nil, nil
	}

	if author.IsAI() {
		if author.PromptID == "" {
			author.PromptID = uuid.New().String()
		}
		prompt := attribution.Prompt{Tool: author.Tool, Model: author.Model}
		if req.Prompt != nil {
			prompt = *req.Prompt
		}
		if prompt.Timestamp.IsZero() {
			prompt.Timestamp = cp.Timestamp
		}
		if _, known := va.Prompt(author.PromptID); !known || req.Prompt != nil {
			cp.Prompt = &prompt
		}
		cp.PromptID = author.PromptID
	}

	next := prev.Realign(content, author)
	cp.Author = author
	cp.LineCount = next.LineCount
	cp.Records = next.Records

	if err := c.store.AppendCheckpoint(base, cp, content); err != nil {
		return nil, err
	}
	debug.Log(c.store.Paths().CacheDir, logName, "captured checkpoint", map[string]interface{}{
		"file":     cp.File,
		"author":   author.String(),
		"lines":    cp.LineCount,
		"ai_lines": next.AILines(),
	})
	return &cp, nil
}

// previous returns the last known attribution of path: the working log
// entry, else the committed content at base attributed to the fallback.
func (c *Capturer) previous(ctx context.Context, va *attribution.VirtualAttributions, base, path string) (attribution.FileAttribution, bool) {
	if fa, ok := va.File(path); ok {
		return fa, true
	}
	if base != "" {
		if content, err := c.repo.ShowFile(ctx, base, path); err == nil {
			return attribution.FromAuthors(nil).Realign(content, c.humanFallback), true
		}
	}
	return attribution.FromAuthors(nil).WithContent(""), false
}
