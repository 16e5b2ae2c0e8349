// Package cmd implements the git-attrib command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jensroland/git-attrib/internal/config"
	"github.com/jensroland/git-attrib/internal/debug"
	"github.com/jensroland/git-attrib/internal/git"
	"github.com/jensroland/git-attrib/internal/store"
)

// exitError carries a process exit status out of a command without
// printing anything further.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func exitWith(code int) error {
	if code == 0 {
		return nil
	}
	return &exitError{code: code}
}

// app holds what every subcommand shares.
type app struct {
	cfgFile string
	verbose bool
	cfg     *config.Config

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewRootCmd builds the command tree writing to the given streams.
func NewRootCmd(version string, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, cfg: config.Default()}

	root := &cobra.Command{
		Use:   "git-attrib",
		Short: "Per-line AI and human attribution for git",
		Long: `git-attrib records which lines were written by AI tools and which by
humans, keeps that attribution in git notes alongside history, and shows it
through a drop-in replacement for git blame.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				fmt.Fprintf(a.stderr, "warning: %v; using defaults\n", err)
				cfg = config.Default()
			}
			a.cfg = cfg
			debug.SetVerbose(a.verbose || cfg.Debug)
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("git-attrib {{.Version}}\n")

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ~/.git-attrib/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "mirror debug logs to stderr")

	root.AddCommand(
		a.blameCmd(),
		a.checkpointCmd(),
		a.hookCmd(),
		a.installHooksCmd(),
		a.uninstallHooksCmd(),
		a.showCmd(),
		a.statsCmd(),
		a.logCmd(),
	)
	root.AddCommand(a.wrappedCmds()...)
	return root
}

// Execute runs the command line and returns the process exit status.
func Execute(version string) int {
	root := NewRootCmd(version, os.Stdin, os.Stdout, os.Stderr)
	return run(root, os.Args[1:], os.Stderr)
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// openRepo opens the repository containing the working directory.
func (a *app) openRepo(ctx context.Context) (*git.Repository, *store.Store, error) {
	repo, err := git.Open(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	return repo, store.New(repo, a.cfg.NotesRefName(), a.cfg.Index), nil
}
