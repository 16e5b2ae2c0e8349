package git

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// BlameCommit is the commit metadata git prints once per suspect commit.
type BlameCommit struct {
	SHA           string
	Author        string
	AuthorMail    string
	AuthorTime    int64
	AuthorTZ      string
	Committer     string
	CommitterMail string
	CommitterTime int64
	CommitterTZ   string
	Summary       string
	Boundary      bool
}

// IsUncommitted returns true for the pseudo-commit git uses for working
// tree changes.
func (c *BlameCommit) IsUncommitted() bool {
	return IsNullSHA(c.SHA)
}

// BlameEntry is one group of consecutive lines blamed to the same origin.
type BlameEntry struct {
	Commit     *BlameCommit
	SourceLine int // first line number in the origin commit
	FinalLine  int // first line number in the final file
	NumLines   int
	// Filename and Previous are exactly as git printed them, which may be
	// C-quoted. Use Path and PreviousPath for lookups.
	Filename     string
	Previous     string
	Path         string
	PreviousPath string
	Lines        []string
}

// BlameResult is parsed native blame output.
type BlameResult struct {
	Entries []BlameEntry
	Commits map[string]*BlameCommit
}

// NativeBlame runs git blame with args and returns its raw stdout.
func (r *Repository) NativeBlame(ctx context.Context, stdin io.Reader, args ...string) ([]byte, error) {
	return r.OutputWithInput(ctx, stdin, append([]string{"blame"}, args...)...)
}

// BlameLinePorcelain runs git blame --line-porcelain and parses the result.
func (r *Repository) BlameLinePorcelain(ctx context.Context, stdin io.Reader, args ...string) (*BlameResult, error) {
	out, err := r.NativeBlame(ctx, stdin, append([]string{"--line-porcelain"}, args...)...)
	if err != nil {
		return nil, err
	}
	return ParsePorcelain(out)
}

// BlameIncremental runs git blame --incremental and parses the result,
// preserving git's emission order.
func (r *Repository) BlameIncremental(ctx context.Context, stdin io.Reader, args ...string) (*BlameResult, error) {
	out, err := r.NativeBlame(ctx, stdin, append([]string{"--incremental"}, args...)...)
	if err != nil {
		return nil, err
	}
	return ParsePorcelain(out)
}

// ParsePorcelain parses --porcelain, --line-porcelain or --incremental
// output.
//
// Each group starts with "<sha> <orig-line> <final-line> <num-lines>";
// later lines of the group repeat "<sha> <orig-line> <final-line>".
// Commit details follow the first mention of a commit (or every line with
// --line-porcelain), then "filename", then a tab-prefixed content line.
// Incremental output has no content lines.
func ParsePorcelain(out []byte) (*BlameResult, error) {
	res := &BlameResult{Commits: make(map[string]*BlameCommit)}
	// Filename info is omitted when git has already shown it for a commit
	// that only ever had one path.
	lastFile := make(map[string][2]string)

	var cur *BlameEntry
	var commit *BlameCommit
	flush := func() {
		if cur != nil {
			if cur.Filename == "" {
				if f, ok := lastFile[cur.Commit.SHA]; ok {
					cur.Filename, cur.Previous = f[0], f[1]
				}
			}
			cur.Path = unquotePath(cur.Filename)
			if cur.Previous != "" {
				if _, p, ok := strings.Cut(cur.Previous, " "); ok {
					cur.PreviousPath = unquotePath(p)
				}
			}
			res.Entries = append(res.Entries, *cur)
			cur = nil
		}
	}

	// Split on LF only so CR bytes in content survive.
	text := strings.TrimSuffix(string(out), "\n")
	if text == "" {
		return res, nil
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "\t") {
			if cur == nil {
				return nil, fmt.Errorf("blame content line outside an entry")
			}
			cur.Lines = append(cur.Lines, line[1:])
			continue
		}

		key, value, _ := strings.Cut(line, " ")
		if isHexSHA(key) {
			fields := strings.Fields(value)
			if len(fields) < 2 {
				return nil, fmt.Errorf("malformed blame header %q", line)
			}
			if len(fields) < 3 {
				// Continuation of the current group.
				continue
			}
			flush()
			src, err1 := strconv.Atoi(fields[0])
			final, err2 := strconv.Atoi(fields[1])
			num, err3 := strconv.Atoi(fields[2])
			if err1 != nil || err2 != nil || err3 != nil {
				return nil, fmt.Errorf("malformed blame header %q", line)
			}
			commit = res.Commits[key]
			if commit == nil {
				commit = &BlameCommit{SHA: key}
				res.Commits[key] = commit
			}
			cur = &BlameEntry{Commit: commit, SourceLine: src, FinalLine: final, NumLines: num}
			continue
		}

		if cur == nil {
			return nil, fmt.Errorf("blame detail %q outside an entry", line)
		}
		switch key {
		case "author":
			commit.Author = value
		case "author-mail":
			commit.AuthorMail = value
		case "author-time":
			commit.AuthorTime, _ = strconv.ParseInt(value, 10, 64)
		case "author-tz":
			commit.AuthorTZ = value
		case "committer":
			commit.Committer = value
		case "committer-mail":
			commit.CommitterMail = value
		case "committer-time":
			commit.CommitterTime, _ = strconv.ParseInt(value, 10, 64)
		case "committer-tz":
			commit.CommitterTZ = value
		case "summary":
			commit.Summary = value
		case "boundary":
			commit.Boundary = true
		case "previous":
			cur.Previous = value
		case "filename":
			cur.Filename = value
			lastFile[commit.SHA] = [2]string{value, cur.Previous}
		}
	}
	flush()
	return res, nil
}

func isHexSHA(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

func unquotePath(s string) string {
	if strings.HasPrefix(s, `"`) {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
	}
	return s
}
