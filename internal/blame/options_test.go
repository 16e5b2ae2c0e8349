package blame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	o, err := ParseArgs([]string{"-L", "2,4", "-L10,+2", "-e", "-n", "--abbrev", "4", "--date", "short", "main.go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2,4", "10,+2"}, o.Ranges)
	assert.True(t, o.ShowEmail)
	assert.True(t, o.ShowNumber)
	assert.Equal(t, 5, o.Abbrev)
	assert.Equal(t, "short", o.Date)
	assert.Equal(t, "main.go", o.Path)
	assert.Empty(t, o.Fallback)
	assert.Equal(t, ModeDefault, o.Mode)
}

func TestParseArgs_EqualsForms(t *testing.T) {
	o, err := ParseArgs([]string{"--abbrev=0", "--date=rfc", "main.go"})
	require.NoError(t, err)
	assert.Equal(t, 40, o.Abbrev)
	assert.Equal(t, "rfc", o.Date)
}

func TestParseArgs_Modes(t *testing.T) {
	tests := []struct {
		arg  string
		want Mode
	}{
		{"-p", ModePorcelain},
		{"--porcelain", ModePorcelain},
		{"--line-porcelain", ModeLinePorcelain},
		{"--incremental", ModeIncremental},
	}
	for _, tt := range tests {
		o, err := ParseArgs([]string{tt.arg, "f"})
		require.NoError(t, err)
		assert.Equal(t, tt.want, o.Mode, tt.arg)
	}
}

func TestParseArgs_Positionals(t *testing.T) {
	o, err := ParseArgs([]string{"HEAD~1", "--", "dir/file.go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"HEAD~1"}, o.Revs)
	assert.Equal(t, "dir/file.go", o.Path)

	o, err = ParseArgs([]string{"v1.0", "file.go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"v1.0"}, o.Revs)
	assert.Equal(t, "file.go", o.Path)

	_, err = ParseArgs([]string{"-e"})
	assert.Error(t, err)
}

func TestParseArgs_Passthrough(t *testing.T) {
	o, err := ParseArgs([]string{"-w", "-M", "-C20", "-C", "--first-parent", "--since=2.weeks", "f.go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"-M", "-C20", "-C", "-w", "--first-parent", "--since=2.weeks"}, o.Passthrough)
	assert.Equal(t, []string{"-M", "-C20", "-C", "-w", "--first-parent", "--since=2.weeks", "--", "f.go"}, o.ResolutionArgs())
}

func TestParseArgs_CombinedShortFlags(t *testing.T) {
	o, err := ParseArgs([]string{"-sfn", "f.go"})
	require.NoError(t, err)
	assert.True(t, o.SuppressAuthor)
	assert.True(t, o.ShowName)
	assert.True(t, o.ShowNumber)
}

func TestParseArgs_Fallback(t *testing.T) {
	for _, args := range [][]string{
		{"-c", "f.go"},
		{"--score-debug", "f.go"},
		{"--show-stats", "f.go"},
		{"--color-lines", "f.go"},
		{"--ignore-rev", "abc", "f.go"},
		{"--date=human", "f.go"},
		{"--date=format:%Y", "f.go"},
		{"--date=iso-local", "f.go"},
		{"--no-such-flag", "f.go"},
	} {
		o, err := ParseArgs(append(args, "--mark-unknown"))
		require.NoError(t, err, "%v", args)
		assert.NotEmpty(t, o.Fallback, "%v", args)
		assert.Equal(t, args, o.Native, "--mark-unknown must not reach git")
	}
}

func TestResolutionArgs(t *testing.T) {
	o, err := ParseArgs([]string{"-L", "1,2", "--root", "--contents", "-", "-e", "f.go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"-L", "1,2", "--root", "--contents", "-", "--", "f.go"}, o.ResolutionArgs())
}

func TestClampAbbrev(t *testing.T) {
	assert.Equal(t, AutoAbbrev, clampAbbrev(7, false))
	assert.Equal(t, 5, clampAbbrev(2, true))
	assert.Equal(t, 5, clampAbbrev(4, true))
	assert.Equal(t, 13, clampAbbrev(12, true))
	assert.Equal(t, 40, clampAbbrev(39, true))
	assert.Equal(t, 40, clampAbbrev(40, true))
	assert.Equal(t, 40, clampAbbrev(0, true))
}

func TestApplyConfig(t *testing.T) {
	o, err := ParseArgs([]string{"f.go"})
	require.NoError(t, err)
	reason := o.applyConfig(map[string]string{
		"blame.date":          "short",
		"blame.showemail":     "true",
		"blame.blankboundary": "yes",
	})
	assert.Empty(t, reason)
	assert.Equal(t, "short", o.Date)
	assert.True(t, o.ShowEmail)
	assert.True(t, o.BlankBoundary)

	o, _ = ParseArgs([]string{"--date", "iso", "f.go"})
	o.applyConfig(map[string]string{"blame.date": "short"})
	assert.Equal(t, "iso", o.Date, "command line wins")

	o, _ = ParseArgs([]string{"f.go"})
	assert.NotEmpty(t, o.applyConfig(map[string]string{"blame.coloring": "repeatedLines"}))
	o, _ = ParseArgs([]string{"f.go"})
	assert.Empty(t, o.applyConfig(map[string]string{"blame.coloring": "none"}))
	o, _ = ParseArgs([]string{"f.go"})
	assert.NotEmpty(t, o.applyConfig(map[string]string{"blame.date": "human"}))
}
