package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/format"
)

func (a *app) showCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show [<commit>]",
		Short: "Print the authorship log of a commit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, st, err := a.openRepo(ctx)
			if err != nil {
				return err
			}
			rev := "HEAD"
			if len(args) == 1 {
				rev = args[0]
			}
			commit, err := repo.RevParse(ctx, rev)
			if err != nil {
				return err
			}
			log, err := st.LoadForCommit(ctx, commit)
			if errors.Is(err, attribution.ErrNotFound) {
				fmt.Fprintf(a.stderr, "no authorship log for %s\n", commit)
				return exitWith(1)
			}
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(log)
			}
			fmt.Fprint(a.stdout, format.FormatLog(log))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the raw log as JSON")
	return cmd
}
