package hooks

import (
	"context"
)

// CheckoutPreCommand records HEAD before a wrapped checkout or switch.
func CheckoutPreCommand(ctx context.Context, hc *Context) {
	hc.captureHead(ctx)
}

// CheckoutPostCommand moves the working log to the new HEAD after a
// successful checkout or switch.
func CheckoutPostCommand(ctx context.Context, hc *Context, exitCode int) {
	if exitCode != 0 {
		return
	}
	head, err := hc.Repo.Head(ctx)
	if err != nil {
		return
	}
	MoveWorking(ctx, hc, hc.preHead, head)
}

// PostCheckout is the git post-checkout hook. File checkouts leave HEAD
// alone and are ignored.
func PostCheckout(ctx context.Context, hc *Context, prev, next string, branch bool) {
	if !branch {
		return
	}
	MoveWorking(ctx, hc, prev, next)
}

// MoveWorking re-anchors the working log of from onto to after HEAD moved.
// Attribution survives only for files the checkout left with uncommitted
// changes; the log of from is removed either way.
func MoveWorking(ctx context.Context, hc *Context, from, to string) {
	if from == "" || from == to || !hc.Store.HasWorking(from) {
		return
	}
	stashed, err := hc.Store.LoadWorking(ctx, from, hc.HumanAuthor)
	if err != nil {
		hc.logError("discarding unreadable working log", err)
		if err := hc.Store.DiscardWorking(from); err != nil {
			hc.logError("removing stale working log failed", err)
		}
		return
	}

	dirty, err := hc.Repo.StagedAndUnstagedFilenames(ctx)
	if err != nil {
		hc.logError("listing uncommitted files failed", err)
		return
	}
	isDirty := make(map[string]bool, len(dirty))
	for _, f := range dirty {
		isDirty[f] = true
	}
	working := make(map[string]string)
	for _, path := range stashed.Paths() {
		if !isDirty[path] {
			continue
		}
		content, exists, err := hc.Repo.ReadWorkFile(path)
		if err != nil || !exists {
			continue
		}
		working[path] = content
	}

	n := 0
	if len(working) > 0 {
		var ok bool
		if n, ok = carryOver(ctx, hc, stashed, to, working); !ok {
			return
		}
	}
	if err := hc.Store.DiscardWorking(from); err != nil {
		hc.logError("removing stale working log failed", err)
	}
	hc.log("moved working attribution after checkout", map[string]interface{}{
		"from":    from,
		"to":      to,
		"carried": n,
	})
}
