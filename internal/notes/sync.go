package notes

import (
	"context"
	"fmt"
	"strings"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/git"
)

// TrackingRef is where a remote's notes are fetched before merging, e.g.
// refs/notes/attrib-remote/origin.
func TrackingRef(ref, remote string) string {
	return ref + "-remote/" + remote
}

// FetchAuthorshipNotes fetches remote's notes and merges them into the
// local ref, keeping local notes on conflict. It only touches the notes
// namespace, so it is safe to run alongside a native fetch.
func FetchAuthorshipNotes(ctx context.Context, repo *git.Repository, ref, remote string) error {
	if ref == "" {
		ref = DefaultRef
	}
	out, err := repo.Output(ctx, "ls-remote", remote, ref)
	if err != nil {
		return fmt.Errorf("%w: ls-remote %s: %v", attribution.ErrSyncFailure, remote, err)
	}
	if strings.TrimSpace(string(out)) == "" {
		return nil
	}

	tracking := TrackingRef(ref, remote)
	if _, err := repo.Output(ctx, "fetch", "-q", "--no-tags", "--no-write-fetch-head", remote, "+"+ref+":"+tracking); err != nil {
		return fmt.Errorf("%w: fetch %s from %s: %v", attribution.ErrSyncFailure, ref, remote, err)
	}

	n := New(repo, ref)
	if !n.Exists(ctx) {
		if _, err := repo.Output(ctx, "update-ref", ref, tracking); err != nil {
			return fmt.Errorf("%w: update-ref %s: %v", attribution.ErrSyncFailure, ref, err)
		}
		return nil
	}
	if _, err := repo.Output(ctx, "notes", "--ref", ref, "merge", "-q", "-s", "ours", tracking); err != nil {
		return fmt.Errorf("%w: notes merge %s: %v", attribution.ErrSyncFailure, tracking, err)
	}
	return nil
}

// PushAuthorshipNotes pushes the notes ref to remote. A rejected push is
// retried after fetching and merging the remote notes.
func PushAuthorshipNotes(ctx context.Context, repo *git.Repository, ref, remote string, maxRetries int) error {
	if ref == "" {
		ref = DefaultRef
	}
	if _, err := repo.Output(ctx, "remote", "get-url", remote); err != nil {
		return nil // no remote configured, silently skip
	}
	if !New(repo, ref).Exists(ctx) {
		return nil
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := repo.Output(ctx, "push", "-q", "--no-verify", remote, ref+":"+ref)
		if err == nil {
			return nil
		}
		lastErr = err
		if err := FetchAuthorshipNotes(ctx, repo, ref, remote); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: push %s to %s failed after %d attempts: %v", attribution.ErrSyncFailure, ref, remote, maxRetries, lastErr)
}

// FetchRemoteFromArgs picks the remote a fetch or pull talks to: the first
// positional argument naming a configured remote, else the current
// branch's upstream remote, else fallback.
func FetchRemoteFromArgs(ctx context.Context, repo *git.Repository, inv git.Invocation, fallback string) string {
	remotes, err := repo.Remotes(ctx)
	if err == nil {
		known := make(map[string]bool, len(remotes))
		for _, r := range remotes {
			known[r] = true
		}
		for _, arg := range inv.PositionalArgs() {
			if known[arg] {
				return arg
			}
		}
	}
	if up := repo.UpstreamRemote(ctx); up != "" {
		return up
	}
	if fallback == "" {
		return "origin"
	}
	return fallback
}
