// Package blame renders git blame output with authorship from the
// attribution store substituted into the author fields.
package blame

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"time"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/authorship"
	"github.com/jensroland/git-attrib/internal/debug"
	"github.com/jensroland/git-attrib/internal/git"
	"github.com/jensroland/git-attrib/internal/store"
)

const logName = "blame.log"

// UnknownAuthor is shown with --mark-unknown for commits that carry no
// authorship log.
const (
	UnknownAuthor = "Unknown"
	unknownMail   = "<unknown>"
)

const configPattern = `^blame\.(date|showemail|blankboundary|coloring)$`

// Engine runs git blame and overlays recorded authorship.
type Engine struct {
	repo        *git.Repository
	store       *store.Store
	markUnknown bool
	now         func() time.Time
}

// New returns an Engine. markUnknown is the configured default for
// --mark-unknown.
func New(repo *git.Repository, st *store.Store, markUnknown bool) *Engine {
	return &Engine{repo: repo, store: st, markUnknown: markUnknown, now: time.Now}
}

// Run executes blame for args and returns the exit status to report.
// Output the overlay cannot reproduce is produced by git itself.
func (e *Engine) Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	opts, err := ParseArgs(args)
	if err != nil {
		return e.native(ctx, withoutMarkUnknown(args), stdin, stdout, stderr, err.Error())
	}
	if opts.Fallback != "" {
		return e.native(ctx, opts.Native, stdin, stdout, stderr, opts.Fallback)
	}

	cfg, err := e.repo.ConfigGetRegexp(ctx, configPattern)
	if err != nil {
		return 1, err
	}
	if reason := opts.applyConfig(cfg); reason != "" {
		return e.native(ctx, opts.Native, stdin, stdout, stderr, reason)
	}
	date, _ := parseDateMode(opts.Date)

	var input io.Reader
	if opts.Contents == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return 1, fmt.Errorf("reading --contents from stdin: %w", err)
		}
		input = bytes.NewReader(data)
	}

	var res *git.BlameResult
	if opts.Mode == ModeIncremental {
		res, err = e.repo.BlameIncremental(ctx, input, opts.ResolutionArgs()...)
	} else {
		res, err = e.repo.BlameLinePorcelain(ctx, input, opts.ResolutionArgs()...)
	}
	if err != nil {
		var ce *git.CommandError
		if errors.As(err, &ce) {
			io.WriteString(stderr, ce.Stderr)
			return ce.ExitCode, nil
		}
		return 1, err
	}

	if date == dateISOStrict {
		date = e.strictDateMode(ctx, res)
	}

	rv := e.newResolver(ctx, res, opts)
	hunks := rv.hunks(res.Entries, opts.Mode == ModeIncremental)

	r := &renderer{opts: opts, date: date, now: e.now(), target: e.targetPath(ctx, opts.Path)}
	if opts.Mode == ModeDefault && opts.Abbrev == AutoAbbrev && !opts.LongRev {
		r.abbrevs, err = e.repo.AbbrevCommits(ctx, committed(res))
		if err != nil {
			debug.Error(e.store.Paths().CacheDir, logName, "abbreviation lookup failed", err)
		}
	}
	if err := r.render(stdout, hunks); err != nil {
		return 1, err
	}
	return 0, nil
}

// LineOrigin is the resolved author of one line.
type LineOrigin struct {
	Line    int
	Commit  string
	Author  string
	AI      bool
	Unknown bool
}

// Attribute resolves every line of file in the working tree the way Run
// displays them, with commits that carry no log marked unknown.
func (e *Engine) Attribute(ctx context.Context, file string) ([]LineOrigin, error) {
	res, err := e.repo.BlameLinePorcelain(ctx, nil, "--", file)
	if err != nil {
		return nil, err
	}
	rv := e.newResolver(ctx, res, &Options{MarkUnknown: true})
	var out []LineOrigin
	for _, ent := range res.Entries {
		for k := range ent.Lines {
			id := rv.identity(ent.Commit, ent.Path, ent.SourceLine+k)
			out = append(out, LineOrigin{
				Line:    ent.FinalLine + k,
				Commit:  ent.Commit.SHA,
				Author:  id.name,
				AI:      id.ai,
				Unknown: id.unknown,
			})
		}
	}
	return out, nil
}

func (e *Engine) native(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, reason string) (int, error) {
	debug.Log(e.store.Paths().CacheDir, logName, "deferring to native blame", map[string]interface{}{
		"reason": reason,
		"args":   args,
	})
	return e.repo.Run(ctx, stdin, stdout, stderr, append([]string{"blame"}, args...)...)
}

func withoutMarkUnknown(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a != "--mark-unknown" {
			out = append(out, a)
		}
	}
	return out
}

// targetPath is the blamed path relative to the top of the working tree.
func (e *Engine) targetPath(ctx context.Context, p string) string {
	if filepath.IsAbs(p) {
		rel, err := e.repo.RelPath("", p)
		if err != nil {
			return ""
		}
		return rel
	}
	prefix, err := e.repo.Prefix(ctx)
	if err != nil {
		return ""
	}
	return path.Clean(prefix + filepath.ToSlash(p))
}

// strictDateMode picks the iso-strict rendering the installed git uses for
// a zero offset. git is only asked when some commit has one.
func (e *Engine) strictDateMode(ctx context.Context, res *git.BlameResult) dateMode {
	zero, sample := false, ""
	for sha, c := range res.Commits {
		if parseTZ(c.AuthorTZ) == 0 {
			zero = true
		}
		if !git.IsNullSHA(sha) {
			sample = sha
		}
	}
	if zero && sample != "" && !e.repo.StrictISOZulu(ctx, sample) {
		return dateISOStrictOffset
	}
	return dateISOStrict
}

func committed(res *git.BlameResult) []string {
	var out []string
	for sha := range res.Commits {
		if !git.IsNullSHA(sha) {
			out = append(out, sha)
		}
	}
	return out
}

// resolver decides the displayed identity of each line.
type resolver struct {
	ctx         context.Context
	engine      *Engine
	logs        map[string]*authorship.Log
	corrupt     map[string]error
	reported    map[string]bool
	markUnknown bool
	external    bool

	working     *attribution.VirtualAttributions
	workingRead bool
	workFiles   map[string]*attribution.FileAttribution
}

func (e *Engine) newResolver(ctx context.Context, res *git.BlameResult, opts *Options) *resolver {
	rv := &resolver{
		ctx:         ctx,
		engine:      e,
		reported:    make(map[string]bool),
		markUnknown: opts.MarkUnknown || e.markUnknown,
		external:    opts.Contents != "",
		workFiles:   make(map[string]*attribution.FileAttribution),
	}
	logs, corrupt, err := e.store.LoadForCommits(ctx, committed(res))
	if err != nil {
		debug.Error(e.store.Paths().CacheDir, logName, "loading authorship logs failed",
			fmt.Errorf("%w: %v", attribution.ErrResolutionFailure, err))
		// Without logs every commit is unknown; showing native identities
		// is the safer degradation.
		rv.markUnknown = false
	}
	rv.logs, rv.corrupt = logs, corrupt
	return rv
}

type identity struct {
	name, mail string
	external   bool
	ai         bool
	unknown    bool
}

func aiIdentity(a attribution.Author) identity {
	return identity{name: a.DisplayName(), mail: "<" + a.Tool + ">", ai: true}
}

func (rv *resolver) identity(c *git.BlameCommit, p string, line int) identity {
	native := identity{name: c.Author, mail: c.AuthorMail}
	if c.IsUncommitted() {
		if rv.external {
			return identity{name: ExternalLabel, mail: externalMail, external: true}
		}
		if fa := rv.workingFile(p); fa != nil {
			if a, ok := fa.AuthorAt(line); ok && a.IsAI() {
				return aiIdentity(a)
			}
		}
		return native
	}

	if log, ok := rv.logs[c.SHA]; ok {
		if a, ok := log.AuthorAt(p, line); ok && a.IsAI() {
			return aiIdentity(a)
		}
		return native
	}
	if err, ok := rv.corrupt[c.SHA]; ok {
		if !rv.reported[c.SHA] {
			rv.reported[c.SHA] = true
			debug.Error(rv.engine.store.Paths().CacheDir, logName, "unreadable authorship log",
				fmt.Errorf("%w: %s: %v", attribution.ErrResolutionFailure, c.SHA, err))
		}
		return native
	}
	if rv.markUnknown {
		return identity{name: UnknownAuthor, mail: unknownMail, unknown: true}
	}
	return native
}

// workingFile returns the uncommitted attribution of p aligned to the
// working tree, or nil.
func (rv *resolver) workingFile(p string) *attribution.FileAttribution {
	if fa, ok := rv.workFiles[p]; ok {
		return fa
	}
	rv.workFiles[p] = nil

	e := rv.engine
	if !rv.workingRead {
		rv.workingRead = true
		head, err := e.repo.Head(rv.ctx)
		if err != nil {
			head = ""
		}
		va, err := e.store.LoadWorking(rv.ctx, head, attribution.Human(""))
		if err != nil {
			debug.Error(e.store.Paths().CacheDir, logName, "working log unavailable",
				fmt.Errorf("%w: %v", attribution.ErrResolutionFailure, err))
			return nil
		}
		rv.working = va
	}
	if rv.working == nil {
		return nil
	}
	fa, ok := rv.working.File(p)
	if !ok {
		return nil
	}
	content, exists, err := e.repo.ReadWorkFile(p)
	if err != nil || !exists {
		return nil
	}
	aligned := fa.Realign(content, rv.working.HumanFallback())
	rv.workFiles[p] = &aligned
	return &aligned
}

// hunks splits native entries wherever the displayed identity changes.
func (rv *resolver) hunks(entries []git.BlameEntry, incremental bool) []Hunk {
	var out []Hunk
	for _, ent := range entries {
		n := len(ent.Lines)
		if incremental {
			n = ent.NumLines
		}
		var cur *Hunk
		for k := 0; k < n; k++ {
			id := rv.identity(ent.Commit, ent.Path, ent.SourceLine+k)
			if cur == nil || cur.Author != id.name || cur.AuthorMail != id.mail {
				out = append(out, Hunk{
					Commit:     ent.Commit,
					Author:     id.name,
					AuthorMail: id.mail,
					External:   id.external,
					SourceLine: ent.SourceLine + k,
					FinalLine:  ent.FinalLine + k,
					Filename:   ent.Filename,
					Previous:   ent.Previous,
					Path:       ent.Path,
				})
				cur = &out[len(out)-1]
			}
			cur.NumLines++
			if !incremental {
				cur.Lines = append(cur.Lines, ent.Lines[k])
			}
		}
	}
	return out
}
