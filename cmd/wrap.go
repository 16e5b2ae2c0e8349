package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jensroland/git-attrib/internal/git"
	"github.com/jensroland/git-attrib/internal/hooks"
)

// wrappedCmds returns commands that run native git bracketed by the
// attribution hooks. Their arguments go to git untouched.
func (a *app) wrappedCmds() []*cobra.Command {
	var cmds []*cobra.Command
	for _, name := range hooks.Wrapped {
		name := name
		cmds = append(cmds, &cobra.Command{
			Use:                name + " [git " + name + " arguments]",
			Short:              "Run git " + name + " and keep attribution in step",
			DisableFlagParsing: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runWrapped(cmd, git.Invocation{Command: name, CommandArgs: args})
			},
		})
	}
	return cmds
}

func (a *app) runWrapped(cmd *cobra.Command, inv git.Invocation) error {
	ctx := cmd.Context()
	repo, st, err := a.openRepo(ctx)
	if err != nil {
		// Outside a repository there is nothing to track; let git report it.
		code, runErr := git.Unresolved().Run(ctx, a.stdin, a.stdout, a.stderr, inv.Args()...)
		if runErr != nil {
			return runErr
		}
		return exitWith(code)
	}

	hc := hooks.NewContext(repo, st, a.cfg, inv)
	hooks.PreCommand(ctx, hc)
	code, runErr := repo.Run(ctx, a.stdin, a.stdout, a.stderr, inv.Args()...)
	if runErr != nil {
		code = git.ExitCode(runErr)
	}
	hooks.PostCommand(ctx, hc, code)
	if runErr != nil {
		return runErr
	}
	return exitWith(code)
}
