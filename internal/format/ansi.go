// Package format renders human-facing reports for show and stats.
package format

import (
	"os"

	"golang.org/x/term"
)

var (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Yellow  = "\033[33m"
	Cyan    = "\033[36m"
	Green   = "\033[32m"
	Magenta = "\033[35m"
)

func init() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		DisableColors()
	} else if !IsTerminal(os.Stdout) {
		DisableColors()
	}
}

// DisableColors turns every escape sequence into an empty string.
func DisableColors() {
	Reset, Bold, Dim = "", "", ""
	Yellow, Cyan, Green, Magenta = "", "", "", ""
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TermWidth returns the terminal width, defaulting to 80.
func TermWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
