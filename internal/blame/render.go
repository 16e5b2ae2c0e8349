package blame

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/jensroland/git-attrib/internal/git"
)

// ExternalLabel is the author shown for lines read from --contents.
const ExternalLabel = "External file (--contents)"

// externalMail is the mail shown for --contents lines with -e.
const externalMail = "<external.file>"

// Hunk is a run of consecutive final lines with one origin and one
// displayed identity.
type Hunk struct {
	Commit     *git.BlameCommit
	Author     string
	AuthorMail string
	// External marks lines whose origin is the supplied --contents.
	External bool

	SourceLine int
	FinalLine  int
	NumLines   int
	// Filename and Previous are printed as git quoted them; Path is the
	// unquoted origin path.
	Filename string
	Previous string
	Path     string
	// Lines is empty in incremental mode.
	Lines []string
}

type identityKey struct {
	sha, author, mail string
}

func (h *Hunk) key() identityKey {
	return identityKey{h.Commit.SHA, h.Author, h.AuthorMail}
}

// renderer holds the settings for one blame output.
type renderer struct {
	opts   *Options
	date   dateMode
	now    time.Time
	target string
	// abbrevs maps commit ids to git's unique abbreviation; only used
	// with automatic abbreviation.
	abbrevs map[string]string
}

// render writes hunks in the selected mode.
func (r *renderer) render(w io.Writer, hunks []Hunk) error {
	bw := bufio.NewWriter(w)
	switch r.opts.Mode {
	case ModePorcelain:
		r.porcelain(bw, hunks, false)
	case ModeLinePorcelain:
		r.porcelain(bw, hunks, true)
	case ModeIncremental:
		r.incremental(bw, hunks)
	default:
		r.plain(bw, hunks)
	}
	return bw.Flush()
}

// multiPath reports commits whose lines came from more than one path.
func multiPath(hunks []Hunk) map[string]bool {
	seen := make(map[string]string)
	out := make(map[string]bool)
	for _, h := range hunks {
		if p, ok := seen[h.Commit.SHA]; ok && p != h.Path {
			out[h.Commit.SHA] = true
		}
		seen[h.Commit.SHA] = h.Path
	}
	return out
}

func writeDetails(w *bufio.Writer, h *Hunk) {
	c := h.Commit
	fmt.Fprintf(w, "author %s\n", h.Author)
	fmt.Fprintf(w, "author-mail %s\n", h.AuthorMail)
	fmt.Fprintf(w, "author-time %d\n", c.AuthorTime)
	fmt.Fprintf(w, "author-tz %s\n", c.AuthorTZ)
	fmt.Fprintf(w, "committer %s\n", c.Committer)
	fmt.Fprintf(w, "committer-mail %s\n", c.CommitterMail)
	fmt.Fprintf(w, "committer-time %d\n", c.CommitterTime)
	fmt.Fprintf(w, "committer-tz %s\n", c.CommitterTZ)
	fmt.Fprintf(w, "summary %s\n", c.Summary)
	if c.Boundary {
		w.WriteString("boundary\n")
	}
}

func writeFilename(w *bufio.Writer, h *Hunk) {
	if h.Previous != "" {
		fmt.Fprintf(w, "previous %s\n", h.Previous)
	}
	fmt.Fprintf(w, "filename %s\n", h.Filename)
}

func (r *renderer) porcelain(w *bufio.Writer, hunks []Hunk, repeat bool) {
	shown := make(map[identityKey]bool)
	multi := multiPath(hunks)
	details := func(h *Hunk) {
		k := h.key()
		if repeat || !shown[k] {
			shown[k] = true
			writeDetails(w, h)
			writeFilename(w, h)
			return
		}
		if multi[h.Commit.SHA] {
			writeFilename(w, h)
		}
	}

	for i := range hunks {
		h := &hunks[i]
		fmt.Fprintf(w, "%s %d %d %d\n", h.Commit.SHA, h.SourceLine, h.FinalLine, len(h.Lines))
		details(h)
		for n, line := range h.Lines {
			if n > 0 {
				fmt.Fprintf(w, "%s %d %d\n", h.Commit.SHA, h.SourceLine+n, h.FinalLine+n)
				if repeat {
					details(h)
				}
			}
			w.WriteString("\t")
			w.WriteString(line)
			w.WriteString("\n")
		}
	}
}

func (r *renderer) incremental(w *bufio.Writer, hunks []Hunk) {
	shown := make(map[identityKey]bool)
	for i := range hunks {
		h := &hunks[i]
		fmt.Fprintf(w, "%s %d %d %d\n", h.Commit.SHA, h.SourceLine, h.FinalLine, h.NumLines)
		if k := h.key(); !shown[k] {
			shown[k] = true
			writeDetails(w, h)
		}
		writeFilename(w, h)
	}
}

func decimalWidth(n int) int {
	return len(strconv.Itoa(n))
}

// abbrevLength returns the hash column width for automatic abbreviation:
// the longest unique abbreviation plus one for the boundary marker.
func (r *renderer) abbrevLength(hunks []Hunk) int {
	if r.opts.Abbrev != AutoAbbrev {
		return r.opts.Abbrev
	}
	n := 7
	for _, h := range hunks {
		if s, ok := r.abbrevs[h.Commit.SHA]; ok && len(s) > n {
			n = len(s)
		}
	}
	return n + 1
}

func (r *renderer) displayName(h *Hunk) string {
	if r.opts.ShowEmail {
		return h.AuthorMail
	}
	return h.Author
}

func (r *renderer) plain(w *bufio.Writer, hunks []Hunk) {
	o := r.opts
	showName := o.ShowName
	var longestFile, longestAuthor, longestSrc, longestDst int
	for i := range hunks {
		h := &hunks[i]
		if r.target != "" && h.Path != r.target {
			showName = true
		}
		if len(h.Path) > longestFile {
			longestFile = len(h.Path)
		}
		if n := runewidth.StringWidth(r.displayName(h)); n > longestAuthor {
			longestAuthor = n
		}
		if n := h.SourceLine + len(h.Lines) - 1; n > longestSrc {
			longestSrc = n
		}
		if n := h.FinalLine + len(h.Lines) - 1; n > longestDst {
			longestDst = n
		}
	}
	srcDigits, dstDigits := decimalWidth(longestSrc), decimalWidth(longestDst)
	abbrev := r.abbrevLength(hunks)

	for i := range hunks {
		h := &hunks[i]
		hash := r.hashColumn(h, abbrev)
		name := r.displayName(h)
		var when string
		if !o.SuppressAuthor {
			when = blameTime(r.date, o.RawTimestamp, h.Commit.AuthorTime, h.Commit.AuthorTZ, r.now)
		}
		for n, line := range h.Lines {
			w.WriteString(hash)
			if showName {
				w.WriteString(" ")
				w.WriteString(h.Path)
				w.WriteString(strings.Repeat(" ", longestFile-len(h.Path)))
			}
			if o.ShowNumber {
				fmt.Fprintf(w, " %*d", srcDigits, h.SourceLine+n)
			}
			if !o.SuppressAuthor {
				pad := longestAuthor - runewidth.StringWidth(name)
				fmt.Fprintf(w, " (%s%s %10s", name, strings.Repeat(" ", pad), when)
			}
			fmt.Fprintf(w, " %*d) ", dstDigits, h.FinalLine+n)
			w.WriteString(line)
			w.WriteString("\n")
		}
	}
}

// hashColumn renders the object name column for h: abbreviated, with the
// boundary marker or blanked, or the fixed zero id for --contents lines.
func (r *renderer) hashColumn(h *Hunk, abbrev int) string {
	sha := h.Commit.SHA
	length := abbrev
	if r.opts.LongRev {
		length = len(sha)
	}
	if length > len(sha) {
		length = len(sha)
	}
	if h.External {
		if r.opts.LongRev {
			return sha
		}
		// Always seven characters whatever the abbreviation width, so these
		// rows do not line up with committed ones.
		return "0000000"
	}
	if h.Commit.Boundary {
		if r.opts.BlankBoundary {
			return strings.Repeat(" ", length)
		}
		return "^" + sha[:length-1]
	}
	return sha[:length]
}
