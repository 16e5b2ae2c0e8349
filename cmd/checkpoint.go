package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/checkpoint"
)

func (a *app) checkpointCmd() *cobra.Command {
	var (
		tool, model, promptID, summary, human string
	)
	cmd := &cobra.Command{
		Use:   "checkpoint [--ai <tool>] <file>...",
		Short: "Record who just edited the given files",
		Long: `Diffs each file against its last recorded state and attributes every
new or changed line to the given author: the AI tool named by --ai, or a
human otherwise.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, st, err := a.openRepo(ctx)
			if err != nil {
				return err
			}

			author := attribution.Human(human)
			var prompt *attribution.Prompt
			if tool != "" {
				author = attribution.AI(tool, model, promptID)
				prompt = &attribution.Prompt{Tool: tool, Model: model, HumanAuthor: repo.UserName(ctx), Summary: summary}
			}

			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			c := checkpoint.New(repo, st, attribution.Human(""))
			for _, arg := range args {
				file, err := repo.RelPath(cwd, arg)
				if err != nil {
					return err
				}
				cp, err := c.Capture(ctx, checkpoint.Request{File: file, Author: author, Prompt: prompt})
				if err != nil {
					return fmt.Errorf("%s: %w", file, err)
				}
				if cp == nil {
					fmt.Fprintf(a.stdout, "%s: unchanged\n", file)
					continue
				}
				if cp.Deleted {
					fmt.Fprintf(a.stdout, "%s: deleted (%s)\n", file, cp.Author)
					continue
				}
				// Several files in one call share a prompt.
				author.PromptID = cp.PromptID
				fmt.Fprintf(a.stdout, "%s: %d lines (%s)\n", file, cp.LineCount, cp.Author)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tool, "ai", "", "attribute changes to this AI tool")
	cmd.Flags().StringVar(&model, "model", "", "model name of the AI tool")
	cmd.Flags().StringVar(&promptID, "prompt-id", "", "prompt id to group AI edits under (generated if empty)")
	cmd.Flags().StringVar(&summary, "summary", "", "short description of the AI prompt")
	cmd.Flags().StringVar(&human, "human", "", "human author name (default: the committer)")
	return cmd
}
