package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/checkpoint"
	"github.com/jensroland/git-attrib/internal/debug"
	"github.com/jensroland/git-attrib/internal/git"
	"github.com/jensroland/git-attrib/internal/hooks"
	"github.com/jensroland/git-attrib/internal/notes"
)

const hookLog = "hooks.log"

// hookCmd groups the entry points called by git hooks and agent hooks.
// They always exit 0: a hook must never block the user's git or agent.
func (a *app) hookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Entry points for git and agent hooks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "post-commit",
		Short: "Finalize attribution for the commit just made",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hc := a.hookContext(cmd, "commit", nil)
			if hc != nil {
				hooks.PostCommit(cmd.Context(), hc)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pre-push <remote> [<url>]",
		Short: "Push authorship notes alongside the code",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hc := a.hookContext(cmd, "push", args)
			if hc == nil {
				return nil
			}
			remote := a.cfg.DefaultRemote
			if len(args) > 0 {
				remote = args[0]
			} else {
				remote = notes.FetchRemoteFromArgs(cmd.Context(), hc.Repo, hc.Invocation, remote)
			}
			hooks.PushNotes(cmd.Context(), hc, remote)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "post-checkout <previous-head> <new-head> <branch-flag>",
		Short: "Move uncommitted attribution to the checked out HEAD",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				return nil
			}
			hc := a.hookContext(cmd, "checkout", nil)
			if hc != nil {
				hooks.PostCheckout(cmd.Context(), hc, args[0], args[1], args[2] == "1")
			}
			return nil
		},
	})

	var tool string
	agent := &cobra.Command{
		Use:   "agent-edit",
		Short: "Record an AI checkpoint from an agent's JSON tool payload on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hc := a.hookContext(cmd, "agent-edit", nil)
			if hc == nil {
				return nil
			}
			c := checkpoint.New(hc.Repo, hc.Store, attribution.Human(""))
			if _, err := hooks.AgentEdit(cmd.Context(), hc, c, a.stdin, tool); err != nil {
				debug.Error(hc.Store.Paths().CacheDir, hookLog, "agent-edit failed", err)
			}
			return nil
		},
	}
	agent.Flags().StringVar(&tool, "tool", "claude", "AI tool name when the payload does not carry one")
	cmd.AddCommand(agent)

	return cmd
}

// hookContext opens the repository for a hook, or returns nil when there
// is none.
func (a *app) hookContext(cmd *cobra.Command, command string, args []string) *hooks.Context {
	repo, st, err := a.openRepo(cmd.Context())
	if err != nil {
		debug.Error("", hookLog, "hook outside a repository", err)
		return nil
	}
	return hooks.NewContext(repo, st, a.cfg, git.Invocation{Command: command, CommandArgs: args})
}
