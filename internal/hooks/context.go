// Package hooks runs the attribution work that brackets wrapped git
// commands: a pre-hook before native git runs and a post-hook after it.
// Hook failures are logged and never change the wrapped command's result.
package hooks

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/config"
	"github.com/jensroland/git-attrib/internal/debug"
	"github.com/jensroland/git-attrib/internal/git"
	"github.com/jensroland/git-attrib/internal/store"
)

const logName = "hooks.log"

// Task is a joinable background job started by a pre-hook.
type Task struct {
	g errgroup.Group
}

func startTask(fn func() error) *Task {
	t := &Task{}
	t.g.Go(fn)
	return t
}

// Wait blocks until the task finishes. It is safe on a nil Task and may be
// called more than once.
func (t *Task) Wait() error {
	if t == nil {
		return nil
	}
	return t.g.Wait()
}

// Context carries state from a pre-hook to the matching post-hook of one
// wrapped invocation. It is created by the caller and never shared.
type Context struct {
	Repo        *git.Repository
	Store       *store.Store
	Config      *config.Config
	Invocation  git.Invocation
	HumanAuthor attribution.Author

	fetch   *Task
	preHead string
	stashed *attribution.VirtualAttributions
}

// NewContext prepares hook state for inv.
func NewContext(repo *git.Repository, st *store.Store, cfg *config.Config, inv git.Invocation) *Context {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Context{
		Repo:        repo,
		Store:       st,
		Config:      cfg,
		Invocation:  inv,
		HumanAuthor: attribution.Human(""),
	}
}

// Stashed returns the attribution captured before an autostashing pull,
// or nil.
func (hc *Context) Stashed() *attribution.VirtualAttributions { return hc.stashed }

func (hc *Context) cacheDir() string {
	return hc.Store.Paths().CacheDir
}

func (hc *Context) log(message string, data interface{}) {
	debug.Log(hc.cacheDir(), logName, message, data)
}

func (hc *Context) logError(message string, err error) {
	debug.Error(hc.cacheDir(), logName, message, err)
}

// captureHead records HEAD before the native command runs. An unborn
// HEAD is recorded as "".
func (hc *Context) captureHead(ctx context.Context) {
	head, err := hc.Repo.Head(ctx)
	if err != nil {
		head = ""
	}
	hc.preHead = head
}

// waitFetch joins the background notes fetch, if one was started.
func (hc *Context) waitFetch() {
	if err := hc.fetch.Wait(); err != nil {
		hc.logError("background notes fetch failed", err)
	}
	hc.fetch = nil
}

// Wrapped lists the git commands that have hooks.
var Wrapped = []string{"checkout", "commit", "fetch", "pull", "push", "switch"}

// PreCommand runs the pre-hook of the wrapped command, if it has one.
func PreCommand(ctx context.Context, hc *Context) {
	switch hc.Invocation.Command {
	case "fetch":
		FetchPreCommand(ctx, hc)
	case "pull":
		PullPreCommand(ctx, hc)
	case "commit":
		CommitPreCommand(ctx, hc)
	case "checkout", "switch":
		CheckoutPreCommand(ctx, hc)
	}
}

// PostCommand runs the post-hook of the wrapped command. It always joins
// any background work the pre-hook started.
func PostCommand(ctx context.Context, hc *Context, exitCode int) {
	switch hc.Invocation.Command {
	case "fetch":
		FetchPostCommand(ctx, hc, exitCode)
	case "pull":
		PullPostCommand(ctx, hc, exitCode)
	case "push":
		PushPostCommand(ctx, hc, exitCode)
	case "commit":
		CommitPostCommand(ctx, hc, exitCode)
	case "checkout", "switch":
		CheckoutPostCommand(ctx, hc, exitCode)
	}
	hc.waitFetch()
}
