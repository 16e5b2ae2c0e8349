package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jensroland/git-attrib/internal/format"
	"github.com/jensroland/git-attrib/internal/project"
)

func (a *app) logCmd() *cobra.Command {
	var (
		name  string
		lines int
		list  bool
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the tail of a debug log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, _, err := a.openRepo(cmd.Context())
			if err != nil {
				return err
			}
			paths := project.ForRepo(repo)
			if list {
				a.listLogs(paths)
				return nil
			}
			a.tailLog(paths, name, lines)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", hookLog, "log file to show (e.g. blame.log, store.log)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "number of lines to show")
	cmd.Flags().BoolVar(&list, "list", false, "list available logs")
	return cmd
}

func (a *app) tailLog(paths project.Paths, logName string, n int) {
	logFile := filepath.Join(paths.LogDir, logName)
	data, err := os.ReadFile(logFile)
	if err != nil {
		fmt.Fprintf(a.stdout, "No log file at %s\n", logFile)
		return
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	start := 0
	if n > 0 && len(lines) > n {
		start = len(lines) - n
	}
	tail := lines[start:]

	fmt.Fprintf(a.stdout, "%s--- %s (last %d lines) ---%s\n\n", format.Dim, logFile, len(tail), format.Reset)
	fmt.Fprintln(a.stdout, strings.Join(tail, "\n"))
}

func (a *app) listLogs(paths project.Paths) {
	entries, err := os.ReadDir(paths.LogDir)
	if err != nil || len(entries) == 0 {
		fmt.Fprintf(a.stdout, "No logs in %s\n", paths.LogDir)
		return
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintln(a.stdout, n)
	}
}
