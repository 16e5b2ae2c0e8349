package hooks

import (
	"context"
	"fmt"

	"github.com/jensroland/git-attrib/internal/debug"
	"github.com/jensroland/git-attrib/internal/git"
	"github.com/jensroland/git-attrib/internal/notes"
)

// FetchPreCommand starts fetching authorship notes from the remote the
// command talks to, concurrently with the native fetch. It starts nothing
// for a dry run.
func FetchPreCommand(ctx context.Context, hc *Context) *Task {
	if hc.Invocation.IsDryRun() {
		return nil
	}
	remote := notes.FetchRemoteFromArgs(ctx, hc.Repo, hc.Invocation, hc.Config.DefaultRemote)
	ref := hc.Config.NotesRefName()
	globalArgs := hc.Repo.GlobalArgsForExec()
	cacheDir := hc.cacheDir()

	hc.fetch = startTask(func() error {
		repo, err := git.Open(ctx, globalArgs)
		if err != nil {
			return fmt.Errorf("reopening repository: %w", err)
		}
		if err := notes.FetchAuthorshipNotes(ctx, repo, ref, remote); err != nil {
			return err
		}
		debug.Log(cacheDir, logName, "fetched authorship notes", map[string]string{"remote": remote})
		return nil
	})
	return hc.fetch
}

// FetchPostCommand joins the notes fetch whether or not the native fetch
// succeeded.
func FetchPostCommand(ctx context.Context, hc *Context, exitCode int) {
	hc.waitFetch()
}
