// Package git wraps the native git binary. Every operation shells out to
// git so that behaviour matches the user's installed version exactly.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// NullSHA is the object id git uses for uncommitted lines.
const NullSHA = "0000000000000000000000000000000000000000"

// IsNullSHA reports whether sha is all zeros.
func IsNullSHA(sha string) bool {
	return sha != "" && strings.TrimLeft(sha, "0") == ""
}

// CommandError is returned when git exits non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("git %s: exit status %d", strings.Join(e.Args, " "), e.ExitCode)
	}
	return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), msg)
}

// ExitCode extracts git's exit status from err, or 1 for other errors.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.ExitCode
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return 1
}

// Repository is a handle on one working tree. It holds only immutable
// values, so a copy can be rebuilt from GlobalArgsForExec in another
// goroutine.
type Repository struct {
	globalArgs []string
	workdir    string
	gitDir     string
}

// Open resolves the repository addressed by git's global arguments
// (for example "-C", "/path").
func Open(ctx context.Context, globalArgs []string) (*Repository, error) {
	r := &Repository{globalArgs: append([]string(nil), globalArgs...)}
	out, err := r.Output(ctx, "rev-parse", "--show-toplevel", "--absolute-git-dir")
	if err != nil {
		return nil, fmt.Errorf("not inside a git repository: %w", err)
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) != 2 {
		return nil, fmt.Errorf("unexpected rev-parse output %q", out)
	}
	r.workdir = lines[0]
	r.gitDir = lines[1]
	return r, nil
}

// Unresolved returns a handle that runs git without locating a
// repository first. Only the command helpers are usable on it.
func Unresolved() *Repository {
	return &Repository{}
}

// OpenAt opens the repository containing dir.
func OpenAt(ctx context.Context, dir string) (*Repository, error) {
	return Open(ctx, []string{"-C", dir})
}

// Workdir is the top level of the working tree.
func (r *Repository) Workdir() string { return r.workdir }

// GitDir is the absolute path of the .git directory.
func (r *Repository) GitDir() string { return r.gitDir }

// GlobalArgsForExec returns a copy of the global arguments this handle
// was opened with.
func (r *Repository) GlobalArgsForExec() []string {
	return append([]string(nil), r.globalArgs...)
}

// Command builds an exec.Cmd for git with the repository's global args.
// It runs in the process working directory, so relative paths and "-C"
// resolve exactly as they did for the wrapped invocation.
func (r *Repository) Command(ctx context.Context, args ...string) *exec.Cmd {
	full := append(r.GlobalArgsForExec(), args...)
	return exec.CommandContext(ctx, "git", full...)
}

// Output runs git and returns stdout. Failures carry git's stderr.
func (r *Repository) Output(ctx context.Context, args ...string) ([]byte, error) {
	return r.OutputWithInput(ctx, nil, args...)
}

// OutputWithInput runs git with stdin and returns stdout.
func (r *Repository) OutputWithInput(ctx context.Context, stdin io.Reader, args ...string) ([]byte, error) {
	cmd := r.Command(ctx, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return stdout.Bytes(), &CommandError{Args: args, ExitCode: ee.ExitCode(), Stderr: stderr.String()}
		}
		return nil, fmt.Errorf("running git %s: %w", strings.Join(args, " "), err)
	}
	return stdout.Bytes(), nil
}

// Run executes git attached to the given streams and returns its exit code.
func (r *Repository) Run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args ...string) (int, error) {
	cmd := r.Command(ctx, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	err := cmd.Run()
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode(), nil
	}
	if err != nil {
		return 1, fmt.Errorf("running git %s: %w", strings.Join(args, " "), err)
	}
	return 0, nil
}

// Head returns the commit HEAD points at.
func (r *Repository) Head(ctx context.Context) (string, error) {
	return r.RevParse(ctx, "HEAD")
}

// RevParse resolves rev to a full commit id.
func (r *Repository) RevParse(ctx context.Context, rev string) (string, error) {
	out, err := r.Output(ctx, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", rev, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Parent returns the first parent of commit, or "" for a root commit.
func (r *Repository) Parent(ctx context.Context, commit string) (string, error) {
	out, err := r.Output(ctx, "rev-list", "--parents", "-n", "1", commit)
	if err != nil {
		return "", fmt.Errorf("listing parents of %s: %w", commit, err)
	}
	fields := strings.Fields(string(out))
	if len(fields) < 2 {
		return "", nil
	}
	return fields[1], nil
}

// ConfigGetRegexp reads every config entry whose key matches pattern in a
// single git invocation. Keys are returned as git prints them (lowercase
// section and variable names). A later value overrides an earlier one.
func (r *Repository) ConfigGetRegexp(ctx context.Context, pattern string) (map[string]string, error) {
	out, err := r.Output(ctx, "config", "--null", "--get-regexp", pattern)
	if err != nil {
		if ExitCode(err) == 1 {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", pattern, err)
	}
	values := make(map[string]string)
	for _, entry := range strings.Split(string(out), "\x00") {
		if entry == "" {
			continue
		}
		key, value, ok := strings.Cut(entry, "\n")
		if !ok {
			// A bare key is a boolean true.
			value = "true"
		}
		values[key] = value
	}
	return values, nil
}

// ConfigGet returns a single config value.
func (r *Repository) ConfigGet(ctx context.Context, key string) (string, bool) {
	out, err := r.Output(ctx, "config", "--get", key)
	if err != nil {
		return "", false
	}
	return strings.TrimRight(string(out), "\n"), true
}

// UserName returns user.name, or "unknown".
func (r *Repository) UserName(ctx context.Context) string {
	name, ok := r.ConfigGet(ctx, "user.name")
	if !ok || strings.TrimSpace(name) == "" {
		return "unknown"
	}
	return strings.TrimSpace(name)
}

// StagedAndUnstagedFilenames lists tracked paths that differ from HEAD in
// the index or the working tree.
func (r *Repository) StagedAndUnstagedFilenames(ctx context.Context) ([]string, error) {
	out, err := r.Output(ctx, "status", "--porcelain=v1", "-z", "--untracked-files=no")
	if err != nil {
		return nil, fmt.Errorf("git status: %w", err)
	}
	return parseStatusZ(out), nil
}

func parseStatusZ(out []byte) []string {
	seen := make(map[string]bool)
	var files []string
	entries := strings.Split(string(out), "\x00")
	for i := 0; i < len(entries); i++ {
		e := entries[i]
		if len(e) < 4 {
			continue
		}
		xy, path := e[:2], e[3:]
		if xy[0] == 'R' || xy[0] == 'C' {
			// The rename source follows as its own entry.
			i++
		}
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files
}

// ChangedFiles lists paths touched by commit relative to its first parent.
// Merge commits are compared against the first parent too, so files the
// merge brought in or resolved are listed.
func (r *Repository) ChangedFiles(ctx context.Context, commit string) ([]string, error) {
	parent, err := r.Parent(ctx, commit)
	if err != nil {
		return nil, err
	}
	args := []string{"diff-tree", "--no-commit-id", "--name-only", "-r", "-z", "--root", commit}
	if parent != "" {
		args = []string{"diff-tree", "--name-only", "-r", "-z", parent, commit}
	}
	out, err := r.Output(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("listing files of %s: %w", commit, err)
	}
	var files []string
	for _, f := range strings.Split(string(out), "\x00") {
		if f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}

// StrictISOZulu reports whether this git renders a zero UTC offset as "Z"
// in --date=iso-strict. Older releases print "+00:00". commit can be any
// existing commit; it is formatted in UTC to find out.
func (r *Repository) StrictISOZulu(ctx context.Context, commit string) bool {
	cmd := r.Command(ctx, "show", "-s", "--no-show-signature", "--date=iso-strict-local", "--format=%ad", commit)
	cmd.Env = append(os.Environ(), "TZ=UTC")
	out, err := cmd.Output()
	if err != nil {
		return true
	}
	return !strings.HasSuffix(strings.TrimSpace(string(out)), "+00:00")
}

// ShowFile retrieves file content at a given ref (e.g., "HEAD").
// Returns an error for paths absent at ref.
func (r *Repository) ShowFile(ctx context.Context, ref, path string) (string, error) {
	out, err := r.Output(ctx, "show", ref+":"+path)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ReadWorkFile reads a path relative to the working tree.
func (r *Repository) ReadWorkFile(path string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(r.workdir, filepath.FromSlash(path)))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// Prefix returns the path of the current directory relative to the top
// of the working tree, with a trailing slash, or "" at the top.
func (r *Repository) Prefix(ctx context.Context) (string, error) {
	out, err := r.Output(ctx, "rev-parse", "--show-prefix")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// RelPath converts a path given on the command line into a path relative
// to the top of the working tree.
func (r *Repository) RelPath(cwd, path string) (string, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(cwd, path)
	}
	// The top level is reported with symlinks resolved.
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}
	rel, err := filepath.Rel(r.workdir, abs)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside repository at %s", path, r.workdir)
	}
	return filepath.ToSlash(rel), nil
}

// Remotes lists configured remote names.
func (r *Repository) Remotes(ctx context.Context) ([]string, error) {
	out, err := r.Output(ctx, "remote")
	if err != nil {
		return nil, fmt.Errorf("listing remotes: %w", err)
	}
	return strings.Fields(string(out)), nil
}

// UpstreamRemote returns the remote the current branch tracks, or "".
func (r *Repository) UpstreamRemote(ctx context.Context) string {
	out, err := r.Output(ctx, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		return ""
	}
	branch := strings.TrimSpace(string(out))
	remote, ok := r.ConfigGet(ctx, "branch."+branch+".remote")
	if !ok || remote == "." {
		return ""
	}
	return remote
}

// AbbrevCommits returns git's unique abbreviation for each commit, in one
// invocation.
func (r *Repository) AbbrevCommits(ctx context.Context, commits []string) (map[string]string, error) {
	out := make(map[string]string, len(commits))
	if len(commits) == 0 {
		return out, nil
	}
	args := append([]string{"show", "-s", "--format=%H %h"}, commits...)
	data, err := r.Output(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("abbreviating commits: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		full, short, ok := strings.Cut(line, " ")
		if ok {
			out[full] = short
		}
	}
	return out, nil
}
