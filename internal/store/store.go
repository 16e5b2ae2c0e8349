// Package store persists attribution: immutable per-commit authorship logs
// in git notes and a mutable working log per base commit under
// .git/attrib/working_logs.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/authorship"
	"github.com/jensroland/git-attrib/internal/debug"
	"github.com/jensroland/git-attrib/internal/git"
	"github.com/jensroland/git-attrib/internal/linediff"
	"github.com/jensroland/git-attrib/internal/notes"
	"github.com/jensroland/git-attrib/internal/project"
)

const logName = "store.log"

// Store is the single owner of authorship logs and working logs for a
// repository. It is not safe for concurrent writers.
type Store struct {
	repo     *git.Repository
	paths    project.Paths
	notes    *notes.Notes
	useIndex bool
}

// New returns a store for repo writing notes under notesRef.
func New(repo *git.Repository, notesRef string, useIndex bool) *Store {
	return &Store{
		repo:     repo,
		paths:    project.ForRepo(repo),
		notes:    notes.New(repo, notesRef),
		useIndex: useIndex,
	}
}

// Paths returns the on-disk locations used by the store.
func (s *Store) Paths() project.Paths { return s.paths }

// Notes returns the notes handle logs are written through.
func (s *Store) Notes() *notes.Notes { return s.notes }

// LoadForCommit returns the authorship log of commit, or
// attribution.ErrNotFound when the commit was made without tracking.
func (s *Store) LoadForCommit(ctx context.Context, commit string) (*authorship.Log, error) {
	data, err := s.notes.Read(ctx, commit)
	if err != nil {
		return nil, err
	}
	log, err := authorship.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("log for %s: %w", commit, err)
	}
	return log, nil
}

// LoadForCommits loads logs for many commits with one notes listing and
// one batched blob read. Commits without a note are absent from logs;
// commits whose note fails to decode are reported in corrupt.
func (s *Store) LoadForCommits(ctx context.Context, commits []string) (logs map[string]*authorship.Log, corrupt map[string]error, err error) {
	logs = make(map[string]*authorship.Log)
	corrupt = make(map[string]error)

	listed, err := s.notes.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	blobOf := make(map[string]string)
	var blobs []string
	for _, c := range commits {
		if b, ok := listed[c]; ok {
			if _, dup := blobOf[c]; !dup {
				blobOf[c] = b
				blobs = append(blobs, b)
			}
		}
	}
	if len(blobs) == 0 {
		return logs, corrupt, nil
	}

	data := make(map[string][]byte, len(blobs))
	ix := s.openIndex()
	if ix != nil {
		defer ix.Close()
		if cached, err := ix.Get(blobs); err == nil {
			data = cached
		} else {
			debug.Error(s.paths.CacheDir, logName, "index lookup failed", err)
		}
	}

	var missing []string
	for _, b := range blobs {
		if _, ok := data[b]; !ok {
			missing = append(missing, b)
		}
	}
	fresh, err := s.notes.ReadBlobs(ctx, missing)
	if err != nil {
		return nil, nil, err
	}

	valid := make(map[string][]byte)
	for c, b := range blobOf {
		raw, ok := data[b]
		if !ok {
			raw, ok = fresh[b]
		}
		if !ok {
			corrupt[c] = fmt.Errorf("%w: note blob %s unreadable", attribution.ErrStoreCorrupt, b)
			continue
		}
		log, err := authorship.Decode(raw)
		if err != nil {
			corrupt[c] = err
			continue
		}
		logs[c] = log
		if _, wasFresh := fresh[b]; wasFresh {
			valid[b] = raw
		}
	}
	if ix != nil {
		if err := ix.Put(valid); err != nil {
			debug.Error(s.paths.CacheDir, logName, "index update failed", err)
		}
	}
	return logs, corrupt, nil
}

func (s *Store) openIndex() *Index {
	if !s.useIndex {
		return nil
	}
	ix, err := OpenIndex(s.paths.IndexDB)
	if err != nil {
		debug.Error(s.paths.CacheDir, logName, "index unavailable", err)
		return nil
	}
	return ix
}

// FinalizeCommit turns va, the working attribution anchored at its base
// commit, into the authorship log of commit. Attribution for edits that
// were not part of commit moves to the INITIAL slot of commit, and the
// base's working log is removed. If the log cannot be written nothing
// changes; if the INITIAL slot cannot be written the log is removed again.
func (s *Store) FinalizeCommit(ctx context.Context, commit string, va *attribution.VirtualAttributions) error {
	base := va.BaseCommit()

	changed, err := s.repo.ChangedFiles(ctx, commit)
	if err != nil {
		return err
	}

	var baseLog *authorship.Log
	if base != "" && base != commit {
		baseLog, err = s.LoadForCommit(ctx, base)
		if err != nil && !errors.Is(err, attribution.ErrNotFound) {
			debug.Error(s.paths.CacheDir, logName, "ignoring unreadable base log", err)
		}
	}

	prompts := va.Prompts()
	if baseLog != nil {
		for id, p := range baseLog.Prompts {
			if _, ok := prompts[id]; !ok {
				prompts[id] = p
			}
		}
	}

	committed := make(map[string]attribution.FileAttribution, len(changed))
	for _, path := range changed {
		content, err := s.repo.ShowFile(ctx, commit, path)
		if err != nil {
			continue // deleted in this commit
		}
		committed[path] = s.committedAttribution(ctx, va, baseLog, base, path, content)
	}

	log := authorship.FromFiles(commit, committed, prompts)
	data, err := log.Encode()
	if err != nil {
		return err
	}
	if err := s.notes.Write(ctx, commit, data); err != nil {
		return fmt.Errorf("writing authorship log for %s: %w", commit, err)
	}

	leftover := s.uncommittedAttribution(ctx, va, commit)
	if len(leftover) > 0 {
		if err := s.WriteInitial(commit, leftover, va.Prompts()); err != nil {
			if rmErr := s.notes.Remove(ctx, commit); rmErr != nil {
				debug.Error(s.paths.CacheDir, logName, "rolling back authorship log failed", rmErr)
			}
			if workingKey(base) != workingKey(commit) {
				_ = s.DiscardWorking(commit)
			}
			return fmt.Errorf("carrying uncommitted attribution to %s: %w", commit, err)
		}
	}

	if workingKey(base) != workingKey(commit) {
		if err := s.DiscardWorking(base); err != nil {
			debug.Error(s.paths.CacheDir, logName, "removing finalized working log failed", err)
		}
	}

	debug.Log(s.paths.CacheDir, logName, "finalized commit", map[string]interface{}{
		"commit":   commit,
		"base":     base,
		"files":    len(committed),
		"leftover": len(leftover),
	})
	return nil
}

// committedAttribution aligns what is known about path to its committed
// content: the working attribution first, then the base commit's log.
func (s *Store) committedAttribution(ctx context.Context, va *attribution.VirtualAttributions, baseLog *authorship.Log, base, path, content string) attribution.FileAttribution {
	fallback := va.HumanFallback()
	if fa, ok := va.File(path); ok {
		return fa.Realign(content, fallback)
	}
	if baseLog != nil {
		if fa, ok := baseLog.FileAttribution(path, fallback); ok {
			if baseContent, err := s.repo.ShowFile(ctx, base, path); err == nil && linediff.CountLines(baseContent) == fa.LineCount {
				fa = fa.WithContent(baseContent)
			}
			return fa.Realign(content, fallback)
		}
	}
	return attribution.Uniform(fallback, linediff.CountLines(content)).WithContent(content)
}

// uncommittedAttribution returns attribution for files whose working tree
// content still differs from commit.
func (s *Store) uncommittedAttribution(ctx context.Context, va *attribution.VirtualAttributions, commit string) map[string]attribution.FileAttribution {
	fallback := va.HumanFallback()
	out := make(map[string]attribution.FileAttribution)
	for _, path := range va.Paths() {
		work, exists, err := s.repo.ReadWorkFile(path)
		if err != nil || !exists {
			continue
		}
		if content, err := s.repo.ShowFile(ctx, commit, path); err == nil && content == work {
			continue
		}
		fa, _ := va.File(path)
		realigned := fa.Realign(work, fallback)
		if hasExplicitAuthor(realigned, fallback) {
			out[path] = realigned
		}
	}
	return out
}

func hasExplicitAuthor(fa attribution.FileAttribution, fallback attribution.Author) bool {
	for _, r := range fa.Records {
		if r.Author != fallback {
			return true
		}
	}
	return false
}
