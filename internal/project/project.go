package project

import (
	"path/filepath"

	"github.com/jensroland/git-attrib/internal/git"
)

// Paths holds every location git-attrib writes to inside a repository.
// Nothing is written to the working tree.
type Paths struct {
	Root           string // git working tree root
	GitDir         string // absolute .git directory (worktree-aware)
	CacheDir       string // .git/attrib/
	WorkingLogsDir string // .git/attrib/working_logs/
	IndexDB        string // .git/attrib/index.db
	LogDir         string // .git/attrib/logs/
}

// NewPaths constructs all path constants from a root and git dir.
func NewPaths(root, gitDir string) Paths {
	cache := filepath.Join(gitDir, "attrib")
	return Paths{
		Root:           root,
		GitDir:         gitDir,
		CacheDir:       cache,
		WorkingLogsDir: filepath.Join(cache, "working_logs"),
		IndexDB:        filepath.Join(cache, "index.db"),
		LogDir:         filepath.Join(cache, "logs"),
	}
}

// ForRepo returns the paths for an opened repository.
func ForRepo(repo *git.Repository) Paths {
	return NewPaths(repo.Workdir(), repo.GitDir())
}

// WorkingLogDir is the directory holding the working log anchored at base.
func (p Paths) WorkingLogDir(base string) string {
	return filepath.Join(p.WorkingLogsDir, base)
}

// HooksDir is where git looks for hook scripts.
func (p Paths) HooksDir() string {
	return filepath.Join(p.GitDir, "hooks")
}
