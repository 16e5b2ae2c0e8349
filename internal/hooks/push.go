package hooks

import (
	"context"

	"github.com/jensroland/git-attrib/internal/notes"
)

// PushPostCommand pushes authorship notes to the remote the command
// pushed to, once the native push succeeded.
func PushPostCommand(ctx context.Context, hc *Context, exitCode int) {
	if exitCode != 0 || hc.Invocation.IsDryRun() {
		return
	}
	remote := notes.FetchRemoteFromArgs(ctx, hc.Repo, hc.Invocation, hc.Config.DefaultRemote)
	PushNotes(ctx, hc, remote)
}

// PushNotes pushes the notes ref to remote, merging and retrying on
// rejection. Failures are logged only.
func PushNotes(ctx context.Context, hc *Context, remote string) {
	err := notes.PushAuthorshipNotes(ctx, hc.Repo, hc.Config.NotesRefName(), remote, hc.Config.PushRetries)
	if err != nil {
		hc.logError("pushing authorship notes failed", err)
		return
	}
	hc.log("pushed authorship notes", map[string]string{"remote": remote})
}
