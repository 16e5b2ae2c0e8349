package blame

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/gittest"
	"github.com/jensroland/git-attrib/internal/store"
)

var (
	human  = attribution.Human("")
	claude = attribution.AI("claude", "sonnet", "p1")
)

type fixture struct {
	t     *testing.T
	r     *gittest.Repo
	store *store.Store
}

func newFixture(t *testing.T) *fixture {
	r := gittest.New(t)
	r.SetDate("@1700000000 +0000")
	return &fixture{t: t, r: r, store: store.New(r.Open(), "", false)}
}

// trackedCommit commits content with per-line authors recorded.
func (f *fixture) trackedCommit(path, content string, authors ...attribution.Author) string {
	f.t.Helper()
	ctx := context.Background()
	base := ""
	if out, err := f.r.TryGit("rev-parse", "--verify", "-q", "HEAD"); err == nil {
		base = strings.TrimSpace(out)
	}
	fa := attribution.FromAuthors(authors)
	require.NoError(f.t, f.store.AppendCheckpoint(base, store.Checkpoint{
		ID: "cp-" + path, Author: authors[len(authors)-1], File: path,
		LineCount: fa.LineCount, Records: fa.Records,
	}, content))
	f.r.Write(path, content)
	commit := f.r.Commit("tracked " + path)

	va, err := f.store.LoadWorking(ctx, base, human)
	require.NoError(f.t, err)
	require.NoError(f.t, f.store.FinalizeCommit(ctx, commit, va))
	return commit
}

func (f *fixture) blame(args ...string) (string, int) {
	return f.blameStdin("", args...)
}

func (f *fixture) blameStdin(stdin string, args ...string) (string, int) {
	f.t.Helper()
	var out, errOut bytes.Buffer
	e := New(f.r.Open(), f.store, false)
	code, err := e.Run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	require.NoError(f.t, err, errOut.String())
	return out.String(), code
}

func TestBlame_AILinesShowTool(t *testing.T) {
	f := newFixture(t)
	f.trackedCommit("test.txt", "Line 1\nLine 2\nLine 3\nLine 4\n", human, human, claude, claude)

	native := strings.Split(f.r.Git("blame", "test.txt"), "\n")
	got, code := f.blame("test.txt")
	require.Equal(t, 0, code)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, len(native))

	assert.Equal(t, native[0], lines[0])
	assert.Equal(t, native[1], lines[1])
	for _, i := range []int{2, 3} {
		want := strings.Replace(native[i], "(Test User", "(claude   ", 1)
		assert.Equal(t, want, lines[i])
	}
}

func TestBlame_PorcelainAIIdentity(t *testing.T) {
	f := newFixture(t)
	f.trackedCommit("test.txt", "Line 1\nLine 2\n", human, claude)

	got, _ := f.blame("--porcelain", "test.txt")
	assert.Contains(t, got, "author Test User\nauthor-mail <test@test.com>\n")
	assert.Contains(t, got, "author claude\nauthor-mail <claude>\n")
	assert.Equal(t, 2, strings.Count(got, "committer Test User\n"))
	assert.Contains(t, got, "\tLine 2\n")
}

// Files without AI lines must be byte-identical to git across flags.
func TestBlame_ByteIdenticalWithoutAI(t *testing.T) {
	f := newFixture(t)
	f.r.Write("test.txt", "Line 1\nLine 2\nLine 3\n")
	f.r.Commit("first")
	f.r.SetDate("@1700100000 +0200")
	f.r.Write("test.txt", "Line 1\nLine two\nLine 3\nLine 4\n")
	f.r.Commit("second")
	f.r.Git("mv", "test.txt", "moved.txt")
	f.r.Commit("rename")

	tests := []struct {
		ours, native []string
	}{
		{nil, nil},
		{[]string{"-e"}, nil},
		{[]string{"-f"}, nil},
		{[]string{"-n"}, nil},
		{[]string{"-s"}, nil},
		{[]string{"-l"}, nil},
		{[]string{"-t"}, nil},
		{[]string{"-b"}, nil},
		{[]string{"--root"}, nil},
		{[]string{"--abbrev", "10"}, []string{"--abbrev=10"}},
		{[]string{"--date", "short"}, []string{"--date=short"}},
		{[]string{"--date=rfc"}, nil},
		{[]string{"--date=raw"}, nil},
		{[]string{"-L", "2,3", "-e", "-n"}, nil},
		{[]string{"-p"}, nil},
		{[]string{"--line-porcelain"}, nil},
		{[]string{"--incremental"}, nil},
		{[]string{"HEAD~1", "--", "test.txt"}, nil},
	}
	for _, tt := range tests {
		name := strings.Join(tt.ours, " ")
		t.Run(name, func(t *testing.T) {
			nativeArgs := tt.native
			if nativeArgs == nil {
				nativeArgs = tt.ours
			}
			path := []string{"moved.txt"}
			if len(tt.ours) > 0 && tt.ours[len(tt.ours)-1] == "test.txt" {
				path = nil
			}
			want := f.r.Git(append(append([]string{"blame"}, nativeArgs...), path...)...)
			got, code := f.blame(append(append([]string(nil), tt.ours...), path...)...)
			assert.Equal(t, 0, code)
			assert.Equal(t, want, got)
		})
	}
}

func TestBlame_MarkUnknown(t *testing.T) {
	f := newFixture(t)
	f.r.Write("untracked.txt", "Untracked line\n")
	f.r.Commit("bypassed")
	f.trackedCommit("tracked.txt", "Tracked human line\nTracked AI line\n", human, claude)

	plain, _ := f.blame("untracked.txt")
	assert.Contains(t, plain, "Test User")
	assert.Equal(t, f.r.Git("blame", "untracked.txt"), plain)

	marked, _ := f.blame("--mark-unknown", "untracked.txt")
	assert.Contains(t, marked, "Unknown")
	assert.NotContains(t, marked, "Test User")

	trackedMarked := f.mustBlame("--mark-unknown", "tracked.txt")
	lines := strings.Split(trackedMarked, "\n")
	assert.Contains(t, lines[0], "Test User")
	assert.Contains(t, lines[1], "claude")
	assert.Equal(t, f.mustBlame("tracked.txt"), trackedMarked, "fully tracked files render the same either way")
	assert.Equal(t, f.mustBlame("-p", "tracked.txt"), f.mustBlame("--mark-unknown", "-p", "tracked.txt"))

	porcelain, _ := f.blame("--mark-unknown", "-p", "untracked.txt")
	assert.Contains(t, porcelain, "author Unknown\nauthor-mail <unknown>\n")
}

func (f *fixture) mustBlame(args ...string) string {
	out, code := f.blame(args...)
	require.Equal(f.t, 0, code)
	return out
}

func TestBlame_ContentsFromStdin(t *testing.T) {
	f := newFixture(t)
	f.trackedCommit("test.txt", "Line 1\nLine 2\nLine 3\n \n", human, claude, human, human)

	out, code := f.blameStdin("Changed\nLine 2\nLine 3\nLine 4 NEW\n", "--contents", "-", "test.txt")
	require.Equal(t, 0, code)
	lines := strings.Split(out, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "0000000 (External file (--contents)"), lines[0])
	assert.True(t, strings.HasPrefix(lines[3], "0000000 (External file (--contents)"), lines[3])
	assert.Contains(t, lines[1], "claude")

	marked, _ := f.blameStdin("Changed\n", "--mark-unknown", "--contents", "-", "test.txt")
	assert.True(t, strings.HasPrefix(marked, "0000000 (External file (--contents)"), marked)
}

func TestBlame_UncommittedAILines(t *testing.T) {
	f := newFixture(t)
	head := f.trackedCommit("test.txt", "a\nb\n", human, human)

	content := "a\nb\nai line\n"
	fa := attribution.FromAuthors([]attribution.Author{human, human, claude})
	require.NoError(t, f.store.AppendCheckpoint(head, store.Checkpoint{
		ID: "work", Author: claude, File: "test.txt", LineCount: fa.LineCount, Records: fa.Records,
	}, content))
	f.r.Write("test.txt", content)

	lines := strings.Split(f.mustBlame("test.txt"), "\n")
	assert.Contains(t, lines[2], "(claude")
	assert.Contains(t, lines[2], "ai line")
	assert.Contains(t, lines[0], "Test User")
}

func TestBlame_UnsupportedFlagsRunNative(t *testing.T) {
	f := newFixture(t)
	f.trackedCommit("test.txt", "Line 1\nLine 2\n", human, claude)

	want := f.r.Git("blame", "-c", "test.txt")
	got, code := f.blame("-c", "--mark-unknown", "test.txt")
	assert.Equal(t, 0, code)
	assert.Equal(t, want, got)
}

func TestBlame_NativeFailurePropagates(t *testing.T) {
	f := newFixture(t)
	f.r.Write("a.txt", "a\n")
	f.r.Commit("first")

	var out, errOut bytes.Buffer
	code, err := New(f.r.Open(), f.store, false).Run(context.Background(), []string{"missing.txt"}, nil, &out, &errOut)
	require.NoError(t, err)
	assert.NotEqual(t, 0, code)
	assert.Contains(t, errOut.String(), "fatal")
	assert.Empty(t, out.String())
}

func TestBlame_ConfiguredDateAndEmail(t *testing.T) {
	f := newFixture(t)
	f.trackedCommit("test.txt", "x\ny\n", human, claude)
	f.r.Git("config", "blame.date", "short")
	f.r.Git("config", "blame.showEmail", "true")

	lines := strings.Split(f.mustBlame("test.txt"), "\n")
	assert.Contains(t, lines[0], "(<test@test.com> 2023-11-14")
	assert.Contains(t, lines[1], "(<claude>        2023-11-14")
}

func TestBlame_StrictISOFollowsGit(t *testing.T) {
	f := newFixture(t)
	f.trackedCommit("test.txt", "x\ny\n", human, claude)

	native := strings.Split(f.r.Git("blame", "--date=iso-strict", "test.txt"), "\n")
	lines := strings.Split(f.mustBlame("--date=iso-strict", "test.txt"), "\n")
	assert.Equal(t, native[0], lines[0])
	assert.Equal(t, len(native[0]), len(lines[1]), "AI lines keep the native column widths")
}

func TestAttribute(t *testing.T) {
	f := newFixture(t)
	f.r.Write("mixed.txt", "bypassed\n")
	f.r.Commit("bypassed")
	f.trackedCommit("mixed.txt", "bypassed\nhuman\nai\n", human, human, claude)

	origins, err := New(f.r.Open(), f.store, false).Attribute(context.Background(), "mixed.txt")
	require.NoError(t, err)
	require.Len(t, origins, 3)

	assert.True(t, origins[0].Unknown)
	assert.Equal(t, UnknownAuthor, origins[0].Author)
	assert.False(t, origins[1].AI)
	assert.False(t, origins[1].Unknown)
	assert.Equal(t, "Test User", origins[1].Author)
	assert.True(t, origins[2].AI)
	assert.Equal(t, "claude", origins[2].Author)
	assert.Equal(t, 3, origins[2].Line)
}
