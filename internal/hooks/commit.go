package hooks

import (
	"context"
	"errors"
	"strings"

	"github.com/jensroland/git-attrib/internal/attribution"
)

// CommitPreCommand records HEAD before a wrapped commit.
func CommitPreCommand(ctx context.Context, hc *Context) {
	hc.captureHead(ctx)
}

// CommitPostCommand turns the working log of the previous HEAD into the
// authorship log of the commit just created.
func CommitPostCommand(ctx context.Context, hc *Context, exitCode int) {
	if exitCode != 0 || hc.Invocation.IsDryRun() {
		return
	}
	head, err := hc.Repo.Head(ctx)
	if err != nil || head == hc.preHead {
		return
	}
	Finalize(ctx, hc, hc.preHead, head)
}

// PostCommit is the git post-commit hook: it finalizes HEAD against the
// commit HEAD pointed to before, read from the reflog.
func PostCommit(ctx context.Context, hc *Context) {
	head, err := hc.Repo.Head(ctx)
	if err != nil {
		return
	}
	base := ""
	if out, err := hc.Repo.Output(ctx, "rev-parse", "--verify", "--quiet", "HEAD@{1}"); err == nil {
		base = strings.TrimSpace(string(out))
	}
	if base == head {
		return
	}
	Finalize(ctx, hc, base, head)
}

// Finalize writes the authorship log of commit from the working log
// anchored at base. A commit that already has a log and no pending work
// is left alone, so the wrapper and the installed git hook can both run.
func Finalize(ctx context.Context, hc *Context, base, commit string) {
	if !hc.Store.HasWorking(base) {
		if _, err := hc.Store.LoadForCommit(ctx, commit); err == nil {
			return
		}
	}

	va, err := hc.Store.LoadWorking(ctx, base, hc.HumanAuthor)
	if err != nil {
		if !errors.Is(err, attribution.ErrStoreCorrupt) {
			hc.logError("loading working log failed", err)
			return
		}
		hc.logError("working log corrupt, committing without it", err)
		va = attribution.Empty(base, hc.HumanAuthor)
	}
	if err := hc.Store.FinalizeCommit(ctx, commit, va); err != nil {
		hc.logError("finalizing commit failed", err)
	}
}
