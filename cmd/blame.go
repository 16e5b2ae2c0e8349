package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jensroland/git-attrib/internal/blame"
	"github.com/jensroland/git-attrib/internal/format"
	"github.com/jensroland/git-attrib/internal/git"
)

func (a *app) blameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "blame [git blame options] [--mark-unknown] [<rev>] [--] <file>",
		Short: "git blame with AI authors shown for AI-written lines",
		Long: `Runs git blame and replaces the author of every line an AI tool wrote
with the tool's name. Output is otherwise byte-identical to git blame.

--mark-unknown shows "Unknown" for lines from commits made without
attribution tracking.`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if readsContentsFromStdin(args) && a.stdin == os.Stdin && format.IsTerminal(os.Stdin) {
				a.stderr.Write([]byte("fatal: --contents - expects the file content on stdin, not a terminal\n"))
				return exitWith(128)
			}
			repo, st, err := a.openRepo(ctx)
			if err != nil {
				code, runErr := git.Unresolved().Run(ctx, a.stdin, a.stdout, a.stderr, append([]string{"blame"}, args...)...)
				if runErr != nil {
					return runErr
				}
				return exitWith(code)
			}
			code, err := blame.New(repo, st, a.cfg.MarkUnknown).Run(ctx, args, a.stdin, a.stdout, a.stderr)
			if err != nil {
				return err
			}
			return exitWith(code)
		},
	}
}

// readsContentsFromStdin reports whether args ask blame to read the
// annotated content from stdin.
func readsContentsFromStdin(args []string) bool {
	for i, arg := range args {
		if arg == "--" {
			return false
		}
		if arg == "--contents=-" || (arg == "--contents" && i+1 < len(args) && args[i+1] == "-") {
			return true
		}
	}
	return false
}
