package notes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/gittest"
)

func TestWriteRead(t *testing.T) {
	r := gittest.New(t)
	r.Write("a.txt", "a\n")
	head := r.Commit("first")
	ctx := context.Background()
	n := New(r.Open(), "")

	assert.False(t, n.Exists(ctx))
	_, err := n.Read(ctx, head)
	assert.True(t, errors.Is(err, attribution.ErrNotFound))

	require.NoError(t, n.Write(ctx, head, []byte("payload\n")))
	assert.True(t, n.Exists(ctx))

	got, err := n.Read(ctx, head)
	require.NoError(t, err)
	assert.Equal(t, "payload\n", string(got))

	require.NoError(t, n.Write(ctx, head, []byte("replaced\n")))
	got, err = n.Read(ctx, head)
	require.NoError(t, err)
	assert.Equal(t, "replaced\n", string(got))

	require.NoError(t, n.Remove(ctx, head))
	_, err = n.Read(ctx, head)
	assert.True(t, errors.Is(err, attribution.ErrNotFound))
}

func TestListAndReadBlobs(t *testing.T) {
	r := gittest.New(t)
	r.Write("a.txt", "a\n")
	first := r.Commit("first")
	r.Write("a.txt", "a\nb\n")
	second := r.Commit("second")
	ctx := context.Background()
	n := New(r.Open(), DefaultRef)

	empty, err := n.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, n.Write(ctx, first, []byte("one")))
	require.NoError(t, n.Write(ctx, second, []byte("two\nlines\n")))

	listed, err := n.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	blobs, err := n.ReadBlobs(ctx, []string{listed[first], listed[second], "0123456789012345678901234567890123456789"})
	require.NoError(t, err)
	assert.Equal(t, "one", string(blobs[listed[first]]))
	assert.Equal(t, "two\nlines\n", string(blobs[listed[second]]))
	assert.Len(t, blobs, 2)
}

func TestParseCatFileBatch(t *testing.T) {
	data := []byte("aaa blob 3\nxyz\nbbb missing\nccc blob 0\n\n")
	got, err := parseCatFileBatch(data, map[string][]byte{})
	require.NoError(t, err)
	assert.Equal(t, "xyz", string(got["aaa"]))
	assert.Equal(t, "", string(got["ccc"]))
	assert.NotContains(t, got, "bbb")

	_, err = parseCatFileBatch([]byte("aaa blob 10\nshort"), map[string][]byte{})
	assert.Error(t, err)
}
