package notes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jensroland/git-attrib/internal/attribution"
	"github.com/jensroland/git-attrib/internal/git"
	"github.com/jensroland/git-attrib/internal/gittest"
)

// setupRemote returns a bare remote plus two clones sharing one commit.
func setupRemote(t *testing.T) (alice, bob *gittest.Repo, commit string) {
	t.Helper()
	bare := gittest.NewBare(t)
	alice = gittest.Clone(t, bare)
	alice.Write("a.txt", "hello\n")
	commit = alice.Commit("first")
	alice.Git("push", "-q", "origin", "HEAD:main")
	bob = gittest.Clone(t, bare)
	return alice, bob, commit
}

func TestPushThenFetch(t *testing.T) {
	alice, bob, commit := setupRemote(t)
	ctx := context.Background()

	aliceRepo := alice.Open()
	require.NoError(t, New(aliceRepo, "").Write(ctx, commit, []byte("from alice")))
	require.NoError(t, PushAuthorshipNotes(ctx, aliceRepo, "", "origin", 3))

	bobRepo := bob.Open()
	require.NoError(t, FetchAuthorshipNotes(ctx, bobRepo, "", "origin"))

	got, err := New(bobRepo, "").Read(ctx, commit)
	require.NoError(t, err)
	assert.Equal(t, "from alice", string(got))
}

func TestFetch_NoRemoteNotes(t *testing.T) {
	_, bob, _ := setupRemote(t)
	ctx := context.Background()
	repo := bob.Open()

	require.NoError(t, FetchAuthorshipNotes(ctx, repo, "", "origin"))
	assert.False(t, New(repo, "").Exists(ctx))
}

func TestFetch_MergesKeepingLocal(t *testing.T) {
	alice, bob, commit := setupRemote(t)
	ctx := context.Background()

	bob.Write("b.txt", "bob\n")
	bobCommit := bob.Commit("bob's commit")

	aliceRepo := alice.Open()
	require.NoError(t, New(aliceRepo, "").Write(ctx, commit, []byte("alice says")))
	require.NoError(t, PushAuthorshipNotes(ctx, aliceRepo, "", "origin", 1))

	bobRepo := bob.Open()
	bobNotes := New(bobRepo, "")
	require.NoError(t, bobNotes.Write(ctx, commit, []byte("bob says")))
	require.NoError(t, bobNotes.Write(ctx, bobCommit, []byte("bob only")))

	require.NoError(t, FetchAuthorshipNotes(ctx, bobRepo, "", "origin"))

	got, err := bobNotes.Read(ctx, commit)
	require.NoError(t, err)
	assert.Equal(t, "bob says", string(got))
	got, err = bobNotes.Read(ctx, bobCommit)
	require.NoError(t, err)
	assert.Equal(t, "bob only", string(got))
}

func TestPush_RetriesAfterRejection(t *testing.T) {
	alice, bob, commit := setupRemote(t)
	ctx := context.Background()

	bob.Write("b.txt", "bob\n")
	bobCommit := bob.Commit("bob's commit")

	aliceRepo := alice.Open()
	require.NoError(t, New(aliceRepo, "").Write(ctx, commit, []byte("alice")))
	require.NoError(t, PushAuthorshipNotes(ctx, aliceRepo, "", "origin", 1))

	bobRepo := bob.Open()
	require.NoError(t, New(bobRepo, "").Write(ctx, bobCommit, []byte("bob")))
	require.NoError(t, PushAuthorshipNotes(ctx, bobRepo, "", "origin", 3))

	require.NoError(t, FetchAuthorshipNotes(ctx, aliceRepo, "", "origin"))
	aliceNotes := New(aliceRepo, "")
	got, err := aliceNotes.Read(ctx, commit)
	require.NoError(t, err)
	assert.Equal(t, "alice", string(got))
	listed, err := aliceNotes.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, listed, bobCommit)
}

func TestFetch_BadRemoteIsSyncFailure(t *testing.T) {
	r := gittest.New(t)
	r.Write("a.txt", "a\n")
	r.Commit("first")

	err := FetchAuthorshipNotes(context.Background(), r.Open(), "", "nowhere")
	require.Error(t, err)
	assert.True(t, errors.Is(err, attribution.ErrSyncFailure))
}

func TestPush_NoRemoteIsNoop(t *testing.T) {
	r := gittest.New(t)
	r.Write("a.txt", "a\n")
	r.Commit("first")
	assert.NoError(t, PushAuthorshipNotes(context.Background(), r.Open(), "", "origin", 3))
}

func TestFetchRemoteFromArgs(t *testing.T) {
	_, bob, _ := setupRemote(t)
	bob.Git("remote", "add", "upstream", bob.Dir)
	ctx := context.Background()
	repo := bob.Open()

	pick := func(args ...string) string {
		return FetchRemoteFromArgs(ctx, repo, git.ParseInvocation(args), "origin")
	}
	assert.Equal(t, "upstream", pick("fetch", "--prune", "upstream", "main"))
	assert.Equal(t, "origin", pick("pull", "--rebase"))
	assert.Equal(t, "origin", pick("fetch", "not-a-remote"))
}

func TestTrackingRef(t *testing.T) {
	assert.Equal(t, "refs/notes/attrib-remote/origin", TrackingRef(DefaultRef, "origin"))
}
