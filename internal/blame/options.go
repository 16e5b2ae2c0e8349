package blame

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/spf13/pflag"
)

// Mode selects the output format.
type Mode int

const (
	ModeDefault Mode = iota
	ModePorcelain
	ModeLinePorcelain
	ModeIncremental
)

// AutoAbbrev asks for git's automatic abbreviation length.
const AutoAbbrev = -1

// Options is the normalized form of a blame command line.
type Options struct {
	Mode Mode

	Ranges         []string
	ShowEmail      bool
	ShowName       bool
	ShowNumber     bool
	SuppressAuthor bool
	LongRev        bool
	RawTimestamp   bool
	BlankBoundary  bool
	Root           bool
	Abbrev         int
	Date           string
	Contents       string
	MarkUnknown    bool

	showEmailSet     bool
	blankBoundarySet bool
	dateSet          bool

	// Resolution flags forwarded to git unchanged.
	Passthrough []string
	Revs        []string
	Path        string

	// Native holds the arguments to hand to git when the overlay cannot
	// render this invocation; see Fallback.
	Native []string
	// Fallback explains why the overlay defers to git, or is empty.
	Fallback string
}

var moveCopyFlag = regexp.MustCompile(`^-[MC][0-9]*$`)

// ParseArgs parses git blame's command line. Flags the overlay cannot
// reproduce do not fail parsing; they set Fallback instead.
func ParseArgs(args []string) (*Options, error) {
	o := &Options{Abbrev: AutoAbbrev}
	for _, a := range args {
		if a != "--mark-unknown" {
			o.Native = append(o.Native, a)
		}
	}

	// -M and -C take optionally attached scores, which pflag cannot express.
	var rest []string
	for i, a := range args {
		if a == "--" {
			rest = append(rest, args[i:]...)
			break
		}
		if moveCopyFlag.MatchString(a) {
			o.Passthrough = append(o.Passthrough, a)
			continue
		}
		rest = append(rest, a)
	}

	fs := pflag.NewFlagSet("blame", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(true)

	var (
		porcelain, linePorcelain, incremental bool
		ignoreWS, minimal, reverse, firstPar  bool
		compat, scoreDebug, showStats         bool
		colorLines, colorByAge                bool
		progress, noProgress                  bool
		revsFile, since, encoding             string
		ignoreRevs, ignoreRevsFiles           []string
	)
	fs.StringArrayVarP(&o.Ranges, "line-range", "L", nil, "annotate only the given line range")
	fs.BoolVarP(&porcelain, "porcelain", "p", false, "machine-readable output")
	fs.BoolVar(&linePorcelain, "line-porcelain", false, "porcelain with commit details on every line")
	fs.BoolVar(&incremental, "incremental", false, "incremental machine-readable output")
	fs.BoolVarP(&o.ShowEmail, "show-email", "e", false, "show author email")
	fs.BoolVarP(&o.ShowName, "show-name", "f", false, "show filename in the original commit")
	fs.BoolVarP(&o.ShowNumber, "show-number", "n", false, "show line number in the original commit")
	fs.BoolVarP(&o.SuppressAuthor, "suppress-author", "s", false, "suppress author name and timestamp")
	fs.BoolVarP(&o.LongRev, "long-rev", "l", false, "show full object names")
	fs.BoolVarP(&o.RawTimestamp, "raw-timestamp", "t", false, "show raw timestamps")
	fs.BoolVarP(&o.BlankBoundary, "blank-boundary", "b", false, "blank object names of boundary commits")
	fs.BoolVar(&o.Root, "root", false, "do not treat root commits as boundaries")
	fs.IntVar(&o.Abbrev, "abbrev", AutoAbbrev, "object name length")
	fs.StringVar(&o.Date, "date", "", "date format")
	fs.StringVar(&o.Contents, "contents", "", "annotate this content instead of the working tree file")
	fs.BoolVar(&o.MarkUnknown, "mark-unknown", false, "show Unknown for commits without attribution")

	fs.BoolVarP(&ignoreWS, "ignore-whitespace", "w", false, "")
	fs.BoolVar(&minimal, "minimal", false, "")
	fs.BoolVar(&reverse, "reverse", false, "")
	fs.BoolVar(&firstPar, "first-parent", false, "")
	fs.StringVarP(&revsFile, "revs-file", "S", "", "")
	fs.StringVar(&since, "since", "", "")
	fs.StringVar(&encoding, "encoding", "", "")
	fs.BoolVar(&progress, "progress", false, "")
	fs.BoolVar(&noProgress, "no-progress", false, "")

	fs.BoolVarP(&compat, "compat", "c", false, "")
	fs.BoolVar(&scoreDebug, "score-debug", false, "")
	fs.BoolVar(&showStats, "show-stats", false, "")
	fs.BoolVar(&colorLines, "color-lines", false, "")
	fs.BoolVar(&colorByAge, "color-by-age", false, "")
	fs.StringArrayVar(&ignoreRevs, "ignore-rev", nil, "")
	fs.StringArrayVar(&ignoreRevsFiles, "ignore-revs-file", nil, "")

	if err := fs.Parse(rest); err != nil {
		o.Fallback = err.Error()
		return o, nil
	}

	switch {
	case compat:
		o.Fallback = "-c"
	case scoreDebug:
		o.Fallback = "--score-debug"
	case showStats:
		o.Fallback = "--show-stats"
	case colorLines || colorByAge:
		o.Fallback = "colored output"
	case len(ignoreRevs) > 0 || len(ignoreRevsFiles) > 0:
		o.Fallback = "ignored revisions"
	}

	switch {
	case incremental:
		o.Mode = ModeIncremental
	case linePorcelain:
		o.Mode = ModeLinePorcelain
	case porcelain:
		o.Mode = ModePorcelain
	}

	o.showEmailSet = fs.Changed("show-email")
	o.blankBoundarySet = fs.Changed("blank-boundary")
	o.dateSet = fs.Changed("date")
	if o.dateSet && o.Fallback == "" {
		if _, ok := parseDateMode(o.Date); !ok {
			o.Fallback = "--date=" + o.Date
		}
	}
	o.Abbrev = clampAbbrev(o.Abbrev, fs.Changed("abbrev"))

	if ignoreWS {
		o.Passthrough = append(o.Passthrough, "-w")
	}
	if minimal {
		o.Passthrough = append(o.Passthrough, "--minimal")
	}
	if reverse {
		o.Passthrough = append(o.Passthrough, "--reverse")
	}
	if firstPar {
		o.Passthrough = append(o.Passthrough, "--first-parent")
	}
	if revsFile != "" {
		o.Passthrough = append(o.Passthrough, "-S", revsFile)
	}
	if since != "" {
		o.Passthrough = append(o.Passthrough, "--since="+since)
	}
	if encoding != "" {
		o.Passthrough = append(o.Passthrough, "--encoding="+encoding)
	}

	positional := fs.Args()
	if dash := fs.ArgsLenAtDash(); dash >= 0 {
		o.Revs = append(o.Revs, positional[:dash]...)
		after := positional[dash:]
		if len(after) != 1 {
			return nil, fmt.Errorf("expected exactly one path after --")
		}
		o.Path = after[0]
	} else {
		switch len(positional) {
		case 0:
			return nil, fmt.Errorf("no file to blame")
		case 1:
			o.Path = positional[0]
		default:
			o.Revs = append(o.Revs, positional[:len(positional)-1]...)
			o.Path = positional[len(positional)-1]
		}
	}
	return o, nil
}

// clampAbbrev applies git's limits: at least 4, one extra column for the
// boundary marker, and 0 or anything past the hash length means full.
func clampAbbrev(n int, explicit bool) int {
	if !explicit || n < 0 {
		return AutoAbbrev
	}
	if n == 0 {
		return 40
	}
	if n < 4 {
		n = 4
	}
	if n >= 40 {
		return 40
	}
	return n + 1
}

// applyConfig fills settings the command line left unset from git config.
// It returns a fallback reason when the configuration asks for rendering
// the overlay does not reproduce.
func (o *Options) applyConfig(cfg map[string]string) string {
	if v, ok := cfg["blame.coloring"]; ok && !strings.EqualFold(v, "none") {
		return "blame.coloring=" + v
	}
	if v, ok := cfg["blame.date"]; ok && !o.dateSet {
		if _, ok := parseDateMode(v); !ok {
			return "blame.date=" + v
		}
		o.Date = v
	}
	if v, ok := cfg["blame.showemail"]; ok && !o.showEmailSet {
		o.ShowEmail = parseBool(v)
	}
	if v, ok := cfg["blame.blankboundary"]; ok && !o.blankBoundarySet {
		o.BlankBoundary = parseBool(v)
	}
	return ""
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "on", "1":
		return true
	}
	return false
}

// ResolutionArgs returns the arguments for the native run that resolves
// line origins, without an output-format flag.
func (o *Options) ResolutionArgs() []string {
	var args []string
	for _, r := range o.Ranges {
		args = append(args, "-L", r)
	}
	args = append(args, o.Passthrough...)
	if o.Root {
		args = append(args, "--root")
	}
	if o.Contents != "" {
		args = append(args, "--contents", o.Contents)
	}
	args = append(args, o.Revs...)
	return append(args, "--", o.Path)
}
