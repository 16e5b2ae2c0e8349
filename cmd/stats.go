package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jensroland/git-attrib/internal/blame"
	"github.com/jensroland/git-attrib/internal/format"
	"github.com/jensroland/git-attrib/internal/git"
	"github.com/jensroland/git-attrib/internal/store"
)

func (a *app) statsCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "stats [<file>...]",
		Short: "Summarise AI and human lines",
		Long: `With files, counts who wrote each line of the working tree version the
way blame shows it. Without files, totals every recorded authorship log.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, st, err := a.openRepo(ctx)
			if err != nil {
				return err
			}
			var all []format.Stats
			if len(args) == 0 {
				s, err := a.historyStats(ctx, st)
				if err != nil {
					return err
				}
				all = append(all, s)
			} else {
				for _, file := range args {
					s, err := fileStats(ctx, repo, st, file)
					if err != nil {
						return fmt.Errorf("%s: %w", file, err)
					}
					all = append(all, s)
				}
			}

			if jsonOutput {
				out := make([]map[string]interface{}, len(all))
				for i, s := range all {
					out[i] = map[string]interface{}{
						"label":   s.Label,
						"total":   s.Total(),
						"ai":      s.AI,
						"human":   s.Human,
						"unknown": s.Unknown,
						"by_tool": s.ByTool,
					}
				}
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			for i, s := range all {
				if i > 0 {
					fmt.Fprintln(a.stdout)
				}
				fmt.Fprint(a.stdout, format.FormatStats(s))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func fileStats(ctx context.Context, repo *git.Repository, st *store.Store, file string) (format.Stats, error) {
	s := format.Stats{Label: file, ByTool: map[string]int{}}
	origins, err := blame.New(repo, st, true).Attribute(ctx, file)
	if err != nil {
		return s, err
	}
	for _, o := range origins {
		switch {
		case o.AI:
			s.AI++
			s.ByTool[o.Author]++
		case o.Unknown:
			s.Unknown++
		default:
			s.Human++
		}
	}
	return s, nil
}

func (a *app) historyStats(ctx context.Context, st *store.Store) (format.Stats, error) {
	s := format.Stats{ByTool: map[string]int{}}
	listed, err := st.Notes().List(ctx)
	if err != nil {
		return s, err
	}
	commits := make([]string, 0, len(listed))
	for c := range listed {
		commits = append(commits, c)
	}
	logs, corrupt, err := st.LoadForCommits(ctx, commits)
	if err != nil {
		return s, err
	}
	for c, cerr := range corrupt {
		fmt.Fprintf(a.stderr, "warning: skipping unreadable log of %s: %v\n", c, cerr)
	}
	for _, log := range logs {
		for _, entry := range log.Files {
			for _, al := range entry.Authors {
				n := al.Lines.Len()
				if al.Author.IsAI() {
					s.AI += n
					s.ByTool[al.Author.Tool] += n
				} else {
					s.Human += n
				}
			}
		}
	}
	s.Label = fmt.Sprintf("%d commits", len(logs))
	return s, nil
}
