package replica

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chronicle/internal/model"
	"github.com/roach88/chronicle/internal/store"
)

func newTestStore(t *testing.T, start int64) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "replica.db")
	next := start - 1
	s, err := store.Open(path, store.WithClock(func() int64 {
		next++
		return next
	}))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testPost(slug, title string) *model.Post {
	return &model.Post{
		Slug:    slug,
		Title:   title,
		Author:  "sync-tester",
		Tags:    []string{"sync"},
		Content: json.RawMessage(`{"blocks":[]}`),
	}
}

func TestSynchronize_BothEmpty(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t, 1000)
	dst := newTestStore(t, 2000)

	delta, err := Synchronize(ctx, src, dst)
	require.NoError(t, err)
	assert.True(t, delta.Empty())

	tail, err := dst.LatestCommit(ctx)
	require.NoError(t, err)
	assert.Nil(t, tail)
}

func TestSynchronize_FreshDestination(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t, 1000)
	dst := newTestStore(t, 2000)

	require.NoError(t, src.InsertPost(ctx, testPost("one", "First"), nil))
	require.NoError(t, src.InsertPost(ctx, testPost("two", "Second"), nil))

	delta, err := Synchronize(ctx, src, dst)
	require.NoError(t, err)
	assert.Len(t, delta.AddedPosts, 2)
	assert.Len(t, delta.Commits, 2)
	assert.Empty(t, delta.DeletedPostSlugs)

	got, err := dst.GetPost(ctx, "one")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "First", got.Title)

	srcTail, err := src.LatestCommit(ctx)
	require.NoError(t, err)
	dstTail, err := dst.LatestCommit(ctx)
	require.NoError(t, err)
	require.NotNil(t, dstTail)
	assert.Equal(t, srcTail.ID, dstTail.ID)
}

func TestSynchronize_UpToDateIsNoop(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t, 1000)
	dst := newTestStore(t, 2000)

	require.NoError(t, src.InsertPost(ctx, testPost("steady", "Steady"), nil))

	_, err := Synchronize(ctx, src, dst)
	require.NoError(t, err)

	delta, err := Synchronize(ctx, src, dst)
	require.NoError(t, err)
	assert.True(t, delta.Empty())
}

func TestSynchronize_Incremental(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t, 1000)
	dst := newTestStore(t, 2000)

	require.NoError(t, src.InsertPost(ctx, testPost("base", "Base"), nil))
	_, err := Synchronize(ctx, src, dst)
	require.NoError(t, err)

	require.NoError(t, src.InsertPost(ctx, testPost("next", "Next"), nil))
	require.NoError(t, src.DeletePost(ctx, "base"))

	delta, err := Synchronize(ctx, src, dst)
	require.NoError(t, err)
	require.Len(t, delta.AddedPosts, 1)
	assert.Equal(t, "next", delta.AddedPosts[0].Post.Slug)
	assert.Equal(t, []string{"base"}, delta.DeletedPostSlugs)

	gone, err := dst.GetPost(ctx, "base")
	require.NoError(t, err)
	assert.Nil(t, gone)
	kept, err := dst.GetPost(ctx, "next")
	require.NoError(t, err)
	require.NotNil(t, kept)
}

func TestSynchronize_UpdateRefetchesPost(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t, 1000)
	dst := newTestStore(t, 2000)

	require.NoError(t, src.InsertPost(ctx, testPost("draft", "Draft"), nil))
	_, err := Synchronize(ctx, src, dst)
	require.NoError(t, err)

	require.NoError(t, src.UpdatePost(ctx, testPost("draft", "Published"), nil))

	delta, err := Synchronize(ctx, src, dst)
	require.NoError(t, err)
	require.Len(t, delta.AddedPosts, 1)
	assert.Empty(t, delta.DeletedPostSlugs)

	got, err := dst.GetPost(ctx, "draft")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Published", got.Title)
}

func TestSynchronize_CreateAndDeleteInWindowFoldsAway(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t, 1000)
	dst := newTestStore(t, 2000)

	require.NoError(t, src.InsertPost(ctx, testPost("ephemeral", "Blink"), nil))
	require.NoError(t, src.DeletePost(ctx, "ephemeral"))

	delta, err := Synchronize(ctx, src, dst)
	require.NoError(t, err)
	assert.Empty(t, delta.AddedPosts)
	assert.Empty(t, delta.DeletedPostSlugs)
	// The folded-away pair still travels in the chain.
	assert.Len(t, delta.Commits, 2)

	commits, err := dst.CommitsSince(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, commits, 2)
}

func TestSynchronize_ResourceLifecycle(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t, 1000)
	dst := newTestStore(t, 2000)

	res := &model.Resource{
		ID:   uuid.MustParse("7d9f7c2e-54a1-4a8d-9f2c-1b3e5d7f9a0b"),
		Name: "logo.svg",
		Type: "image/svg+xml",
		Data: []byte("<svg/>"),
	}
	require.NoError(t, src.InsertResource(ctx, res))

	delta, err := Synchronize(ctx, src, dst)
	require.NoError(t, err)
	require.Len(t, delta.AddedResources, 1)

	got, err := dst.GetResource(ctx, res.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, res.Data, got.Data)

	require.NoError(t, src.DeleteResource(ctx, res.ID))
	delta, err = Synchronize(ctx, src, dst)
	require.NoError(t, err)
	assert.Empty(t, delta.DeletedPostSlugs)
	require.Len(t, delta.DeletedResourceIDs, 1)

	gone, err := dst.GetResource(ctx, res.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestSynchronize_DivergedHistories(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t, 1000)
	// Destination clock runs earlier so the source's since() query is
	// guaranteed to return commits that mismatch the destination tail.
	dst := newTestStore(t, 500)

	require.NoError(t, src.InsertPost(ctx, testPost("theirs", "Theirs"), nil))
	require.NoError(t, dst.InsertPost(ctx, testPost("mine", "Mine"), nil))

	_, err := Synchronize(ctx, src, dst)
	require.ErrorIs(t, err, ErrDivergedHistory)

	// Divergence must leave the destination untouched.
	got, err := dst.GetPost(ctx, "mine")
	require.NoError(t, err)
	require.NotNil(t, got)
	stranger, err := dst.GetPost(ctx, "theirs")
	require.NoError(t, err)
	assert.Nil(t, stranger)
	commits, err := dst.CommitsSince(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, commits, 1)
}

func TestSynchronize_DestinationAheadIsDiverged(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t, 1000)
	// Destination's only commit is newer than everything at the source,
	// so the source's since() window comes back empty.
	dst := newTestStore(t, 9000)

	require.NoError(t, src.InsertPost(ctx, testPost("old", "Old"), nil))
	require.NoError(t, dst.InsertPost(ctx, testPost("new", "New"), nil))

	_, err := Synchronize(ctx, src, dst)
	require.ErrorIs(t, err, ErrDivergedHistory)
}
