package git

import "strings"

// globalOptsWithValue are git options that consume the following argument
// when not written in --opt=value form.
var globalOptsWithValue = map[string]bool{
	"-C":           true,
	"-c":           true,
	"--git-dir":    true,
	"--work-tree":  true,
	"--namespace":  true,
	"--config-env": true,
}

// Invocation is a parsed git command line: git [global...] command [args...].
type Invocation struct {
	GlobalArgs  []string
	Command     string
	CommandArgs []string
}

// ParseInvocation splits the arguments that follow "git".
func ParseInvocation(args []string) Invocation {
	var inv Invocation
	i := 0
	for i < len(args) {
		a := args[i]
		if !strings.HasPrefix(a, "-") {
			break
		}
		inv.GlobalArgs = append(inv.GlobalArgs, a)
		if globalOptsWithValue[a] && i+1 < len(args) {
			inv.GlobalArgs = append(inv.GlobalArgs, args[i+1])
			i++
		}
		i++
	}
	if i < len(args) {
		inv.Command = args[i]
		inv.CommandArgs = append([]string(nil), args[i+1:]...)
	}
	return inv
}

// Args reassembles the full argument list.
func (inv Invocation) Args() []string {
	out := append([]string(nil), inv.GlobalArgs...)
	if inv.Command != "" {
		out = append(out, inv.Command)
	}
	return append(out, inv.CommandArgs...)
}

// HasCommandFlag reports whether any of flags appears among the command
// arguments, either bare or as --flag=value. Arguments after "--" are not
// flags.
func (inv Invocation) HasCommandFlag(flags ...string) bool {
	for _, a := range inv.CommandArgs {
		if a == "--" {
			return false
		}
		for _, f := range flags {
			if a == f || (strings.HasPrefix(f, "--") && strings.HasPrefix(a, f+"=")) {
				return true
			}
		}
	}
	return false
}

// LastFlag returns whichever of flags appears last, or "".
func (inv Invocation) LastFlag(flags ...string) string {
	last := ""
	for _, a := range inv.CommandArgs {
		if a == "--" {
			break
		}
		for _, f := range flags {
			if a == f || (strings.HasPrefix(f, "--") && strings.HasPrefix(a, f+"=")) {
				last = a
			}
		}
	}
	return last
}

// IsDryRun reports whether the command only simulates its effect.
func (inv Invocation) IsDryRun() bool {
	if inv.HasCommandFlag("--dry-run") {
		return true
	}
	// push -n is --dry-run; for fetch and pull -n means something else.
	return inv.Command == "push" && inv.HasCommandFlag("-n")
}

// PositionalArgs returns the command arguments that are not flags.
func (inv Invocation) PositionalArgs() []string {
	var out []string
	afterDash := false
	for _, a := range inv.CommandArgs {
		if afterDash {
			out = append(out, a)
			continue
		}
		if a == "--" {
			afterDash = true
			continue
		}
		if strings.HasPrefix(a, "-") {
			continue
		}
		out = append(out, a)
	}
	return out
}
