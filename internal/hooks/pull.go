package hooks

import (
	"context"
	"errors"
	"strings"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/git"
	"github.com/jensroland/git-attrib/internal/merge"
)

const pullConfigPattern = `^(pull\.rebase|rebase\.autostash)$`

// PullRebaseAutostashConfig says whether a pull will rebase and autostash.
type PullRebaseAutostashConfig struct {
	IsRebase    bool
	IsAutostash bool
}

// PullRebaseAutostash resolves the pull mode. Command line flags win;
// anything they leave open is read from git config in one call.
func PullRebaseAutostash(ctx context.Context, repo *git.Repository, inv git.Invocation) PullRebaseAutostashConfig {
	var rebase, autostash *bool
	switch inv.LastFlag("--rebase", "-r", "--no-rebase") {
	case "":
	case "--no-rebase", "--rebase=false":
		rebase = boolPtr(false)
	default:
		rebase = boolPtr(true)
	}
	switch inv.LastFlag("--autostash", "--no-autostash") {
	case "":
	case "--no-autostash":
		autostash = boolPtr(false)
	default:
		autostash = boolPtr(true)
	}
	if rebase != nil && autostash != nil {
		return PullRebaseAutostashConfig{IsRebase: *rebase, IsAutostash: *autostash}
	}

	cfg, err := repo.ConfigGetRegexp(ctx, pullConfigPattern)
	if err != nil {
		cfg = map[string]string{}
	}
	out := PullRebaseAutostashConfig{}
	if rebase != nil {
		out.IsRebase = *rebase
	} else if v, ok := cfg["pull.rebase"]; ok {
		out.IsRebase = !strings.EqualFold(v, "false")
	}
	if autostash != nil {
		out.IsAutostash = *autostash
	} else {
		out.IsAutostash = strings.EqualFold(cfg["rebase.autostash"], "true")
	}
	return out
}

func boolPtr(b bool) *bool { return &b }

// PullPreCommand starts the notes fetch and, when the pull will rebase
// with autostash over uncommitted changes, captures the working
// attribution so it can be restored on the new HEAD.
func PullPreCommand(ctx context.Context, hc *Context) {
	if hc.Invocation.IsDryRun() {
		return
	}
	FetchPreCommand(ctx, hc)
	hc.captureHead(ctx)

	mode := PullRebaseAutostash(ctx, hc.Repo, hc.Invocation)
	changed, err := hc.Repo.StagedAndUnstagedFilenames(ctx)
	hasChanges := err == nil && len(changed) > 0
	hc.log("pull pre-hook", map[string]interface{}{
		"rebase":      mode.IsRebase,
		"autostash":   mode.IsAutostash,
		"has_changes": hasChanges,
	})
	if !mode.IsRebase || !mode.IsAutostash || !hasChanges || hc.preHead == "" {
		return
	}

	va, err := hc.Store.LoadWorking(ctx, hc.preHead, hc.HumanAuthor)
	if err != nil {
		hc.logError("capturing working attribution failed", err)
		return
	}
	if va.IsEmpty() {
		hc.log("no working attribution to preserve", nil)
		return
	}
	hc.stashed = va
	hc.log("captured working attribution for autostash", map[string]int{"files": len(va.Paths())})
}

// PullPostCommand joins the notes fetch and, after a successful pull that
// moved HEAD, restores the captured attribution onto the new HEAD's
// working log.
func PullPostCommand(ctx context.Context, hc *Context, exitCode int) {
	hc.waitFetch()

	if exitCode != 0 {
		hc.log("pull failed, skipping attribution restore", map[string]int{"exit_code": exitCode})
		return
	}
	stashed := hc.stashed
	hc.stashed = nil
	if stashed == nil || hc.preHead == "" {
		return
	}
	newHead, err := hc.Repo.Head(ctx)
	if err != nil || newHead == hc.preHead {
		return
	}

	working := make(map[string]string)
	for _, path := range stashed.Paths() {
		content, exists, err := hc.Repo.ReadWorkFile(path)
		if err != nil || !exists {
			continue
		}
		working[path] = content
	}
	if len(working) == 0 {
		hc.log("no working files to restore attribution for", nil)
		return
	}

	n, ok := carryOver(ctx, hc, stashed, newHead, working)
	if !ok || n == 0 {
		return
	}
	if err := hc.Store.DiscardWorking(hc.preHead); err != nil {
		hc.logError("removing stale working log failed", err)
	}
	hc.log("restored attribution after autostash", map[string]interface{}{
		"from":  hc.preHead,
		"to":    newHead,
		"files": n,
	})
}

// carryOver merges attribution captured at an earlier HEAD into the
// working log of newHead, with working as the final file contents. It
// returns the number of files written and false when nothing could be
// written.
func carryOver(ctx context.Context, hc *Context, stashed *attribution.VirtualAttributions, newHead string, working map[string]string) (int, bool) {
	current, err := hc.Store.LoadWorking(ctx, newHead, stashed.HumanFallback())
	if err != nil {
		hc.logError("ignoring unreadable working log of new HEAD", err)
		current = attribution.Empty(newHead, stashed.HumanFallback())
	}
	// Keep what newHead's own working log already tracks.
	for _, path := range current.Paths() {
		if _, ok := working[path]; ok {
			continue
		}
		if content, exists, err := hc.Repo.ReadWorkFile(path); err == nil && exists {
			working[path] = content
		}
	}

	merged, err := merge.MergeFavoringFirst(stashed, current, working, newHead)
	if err != nil {
		if !errors.Is(err, attribution.ErrMergeConflict) || merged == nil {
			hc.logError("merging stashed attribution failed", err)
			return 0, false
		}
		hc.logError("dropping conflicting files from restored attribution", err)
	}
	if merged.IsEmpty() {
		return 0, true
	}
	if err := hc.Store.WriteInitial(newHead, merged.Files(), merged.Prompts()); err != nil {
		hc.logError("writing restored attribution failed", err)
		return 0, false
	}
	return len(merged.Paths()), true
}
