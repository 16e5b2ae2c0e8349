package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/gittest"
	"github.com/jensroland/git-attrib/internal/store"
)

var human = attribution.Human("")

func setup(t *testing.T) (*gittest.Repo, *store.Store, *Capturer) {
	t.Helper()
	r := gittest.New(t)
	r.Write("main.go", "one\ntwo\n")
	r.Commit("first")
	repo := r.Open()
	st := store.New(repo, "", false)
	return r, st, New(repo, st, human)
}

func working(t *testing.T, r *gittest.Repo, st *store.Store) *attribution.VirtualAttributions {
	t.Helper()
	va, err := st.LoadWorking(context.Background(), r.Head(), human)
	require.NoError(t, err)
	return va
}

func TestCapture_AIEdit(t *testing.T) {
	r, st, c := setup(t)
	ctx := context.Background()

	r.Write("main.go", "one\ntwo\nthree\nfour\n")
	cp, err := c.Capture(ctx, Request{File: "main.go", Author: attribution.AI("claude", "sonnet", "")})
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.NotEmpty(t, cp.PromptID)
	require.NotNil(t, cp.Prompt)
	assert.Equal(t, "claude", cp.Prompt.Tool)
	assert.False(t, cp.Prompt.Timestamp.IsZero())

	fa, ok := working(t, r, st).File("main.go")
	require.True(t, ok)
	authors := fa.PerLine()
	require.Len(t, authors, 4)
	assert.False(t, authors[0].IsAI())
	assert.False(t, authors[1].IsAI())
	assert.True(t, authors[2].IsAI())
	assert.Equal(t, cp.PromptID, authors[3].PromptID)
}

func TestCapture_HumanEditKeepsAILines(t *testing.T) {
	r, st, c := setup(t)
	ctx := context.Background()

	r.Write("main.go", "one\ntwo\nai\n")
	_, err := c.Capture(ctx, Request{File: "main.go", Author: attribution.AI("claude", "", "p1")})
	require.NoError(t, err)

	r.Write("main.go", "zero\none\ntwo\nai\n")
	cp, err := c.Capture(ctx, Request{File: "main.go", Author: attribution.Human("Dev")})
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Nil(t, cp.Prompt)

	fa, _ := working(t, r, st).File("main.go")
	authors := fa.PerLine()
	require.Len(t, authors, 4)
	assert.Equal(t, attribution.Human("Dev"), authors[0])
	assert.Equal(t, human, authors[1])
	assert.Equal(t, attribution.AI("claude", "", "p1"), authors[3])
}

func TestCapture_Unchanged(t *testing.T) {
	r, st, c := setup(t)
	cp, err := c.Capture(context.Background(), Request{File: "main.go", Author: attribution.AI("claude", "", "")})
	require.NoError(t, err)
	assert.Nil(t, cp)

	cps, err := st.Checkpoints(r.Head())
	require.NoError(t, err)
	assert.Empty(t, cps)
}

func TestCapture_ExplicitContent(t *testing.T) {
	r, st, c := setup(t)
	content := "one\ntwo\nthree\n"
	_, err := c.Capture(context.Background(), Request{File: "main.go", Author: attribution.AI("claude", "", ""), Content: &content})
	require.NoError(t, err)

	fa, _ := working(t, r, st).File("main.go")
	assert.Equal(t, 1, fa.AILines())
	assert.Equal(t, "one\ntwo\n", r.Read("main.go"))
}

func TestCapture_NewUntrackedFile(t *testing.T) {
	r, st, c := setup(t)
	r.Write("new.go", "a\nb\n")
	_, err := c.Capture(context.Background(), Request{File: "new.go", Author: attribution.AI("claude", "", "")})
	require.NoError(t, err)

	fa, ok := working(t, r, st).File("new.go")
	require.True(t, ok)
	assert.Equal(t, 2, fa.AILines())
}

func TestCapture_Deleted(t *testing.T) {
	r, st, c := setup(t)
	ctx := context.Background()

	r.Write("main.go", "one\ntwo\nai\n")
	_, err := c.Capture(ctx, Request{File: "main.go", Author: attribution.AI("claude", "", "")})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(r.Dir, "main.go")))
	cp, err := c.Capture(ctx, Request{File: "main.go", Author: human})
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.True(t, cp.Deleted)
	_, ok := working(t, r, st).File("main.go")
	assert.False(t, ok)

	cp, err = c.Capture(ctx, Request{File: "never.go", Author: human})
	require.NoError(t, err)
	assert.Nil(t, cp)
}

func TestCapture_ReusesKnownPrompt(t *testing.T) {
	r, _, c := setup(t)
	ctx := context.Background()
	author := attribution.AI("claude", "", "p1")

	r.Write("main.go", "one\ntwo\nthree\n")
	first, err := c.Capture(ctx, Request{File: "main.go", Author: author})
	require.NoError(t, err)
	assert.NotNil(t, first.Prompt)

	r.Write("main.go", "one\ntwo\nthree\nfour\n")
	second, err := c.Capture(ctx, Request{File: "main.go", Author: author})
	require.NoError(t, err)
	assert.Nil(t, second.Prompt)
	assert.Equal(t, "p1", second.PromptID)
}

func TestCapture_RecoversFromCorruptLog(t *testing.T) {
	r, st, c := setup(t)
	dir := st.Paths().WorkingLogDir(r.Head())
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkpoints.jsonl"), []byte("garbage\n"), 0o644))

	r.Write("main.go", "one\ntwo\nthree\n")
	cp, err := c.Capture(context.Background(), Request{File: "main.go", Author: attribution.AI("claude", "", "")})
	require.NoError(t, err)
	require.NotNil(t, cp)

	fa, _ := working(t, r, st).File("main.go")
	assert.Equal(t, 1, fa.AILines())
}

func TestCapture_RejectsInvalidAuthor(t *testing.T) {
	_, _, c := setup(t)
	_, err := c.Capture(context.Background(), Request{File: "main.go", Author: attribution.Author{Kind: "robot"}})
	assert.Error(t, err)
}
