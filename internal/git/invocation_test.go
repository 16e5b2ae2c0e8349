package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInvocation(t *testing.T) {
	inv := ParseInvocation([]string{"-C", "/repo", "-c", "x.y=z", "--no-pager", "pull", "--rebase", "origin", "main"})
	assert.Equal(t, []string{"-C", "/repo", "-c", "x.y=z", "--no-pager"}, inv.GlobalArgs)
	assert.Equal(t, "pull", inv.Command)
	assert.Equal(t, []string{"--rebase", "origin", "main"}, inv.CommandArgs)
	assert.Equal(t, []string{"origin", "main"}, inv.PositionalArgs())
	assert.Equal(t, []string{"-C", "/repo", "-c", "x.y=z", "--no-pager", "pull", "--rebase", "origin", "main"}, inv.Args())
}

func TestParseInvocation_NoCommand(t *testing.T) {
	inv := ParseInvocation([]string{"--version"})
	assert.Equal(t, "", inv.Command)
	assert.Equal(t, []string{"--version"}, inv.GlobalArgs)
}

func TestHasCommandFlag(t *testing.T) {
	inv := ParseInvocation([]string{"pull", "--rebase=merges", "--", "--autostash"})
	assert.True(t, inv.HasCommandFlag("--rebase"))
	assert.False(t, inv.HasCommandFlag("--autostash"))
	assert.False(t, inv.HasCommandFlag("-r"))
}

func TestLastFlag(t *testing.T) {
	inv := ParseInvocation([]string{"pull", "--autostash", "--no-autostash"})
	assert.Equal(t, "--no-autostash", inv.LastFlag("--autostash", "--no-autostash"))
	assert.Equal(t, "", inv.LastFlag("--rebase"))
}

func TestIsDryRun(t *testing.T) {
	assert.True(t, ParseInvocation([]string{"fetch", "--dry-run"}).IsDryRun())
	assert.True(t, ParseInvocation([]string{"push", "-n", "origin"}).IsDryRun())
	assert.False(t, ParseInvocation([]string{"pull", "-n"}).IsDryRun())
	assert.False(t, ParseInvocation([]string{"fetch", "origin"}).IsDryRun())
}
