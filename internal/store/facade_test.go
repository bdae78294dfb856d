package store

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/roach88/chronicle/internal/model"
)

func TestApplyDelta_BringsStoresToSameContent(t *testing.T) {
	ctx := context.Background()
	src := createTestStore(t, 1000)
	dst := createTestStore(t, 5000)

	res := createTestResource("photo.png")
	if err := src.InsertPost(ctx, createTestPost("shared"), []model.Resource{*res}); err != nil {
		t.Fatalf("InsertPost() failed: %v", err)
	}
	free := createTestResource("free.bin")
	if err := src.InsertResource(ctx, free); err != nil {
		t.Fatalf("InsertResource() failed: %v", err)
	}

	commits, err := src.CommitsSince(ctx, 0)
	if err != nil {
		t.Fatalf("CommitsSince() failed: %v", err)
	}
	post, resources, err := src.GetPostWithResources(ctx, "shared")
	if err != nil {
		t.Fatalf("GetPostWithResources() failed: %v", err)
	}
	freeRes, err := src.GetResource(ctx, free.ID)
	if err != nil {
		t.Fatalf("GetResource() failed: %v", err)
	}

	delta := &model.Delta{
		AddedPosts:     []model.PostWithResources{{Post: *post, Resources: resources}},
		AddedResources: []model.Resource{*freeRes},
		Commits:        commits,
	}
	if err := dst.ApplyDelta(ctx, delta); err != nil {
		t.Fatalf("ApplyDelta() failed: %v", err)
	}

	got, gotRes, err := dst.GetPostWithResources(ctx, "shared")
	if err != nil {
		t.Fatalf("GetPostWithResources() failed: %v", err)
	}
	if got == nil {
		t.Fatal("post missing at destination")
	}
	if got.Title != post.Title || got.CreateTimestamp != post.CreateTimestamp {
		t.Errorf("destination post = %+v, want %+v", got, post)
	}
	if len(gotRes) != 1 || gotRes[0].ID != res.ID {
		t.Errorf("destination attached resources = %+v", gotRes)
	}
	gotFree, err := dst.GetResource(ctx, free.ID)
	if err != nil {
		t.Fatalf("GetResource() failed: %v", err)
	}
	if gotFree == nil {
		t.Fatal("free resource missing at destination")
	}

	// The source's commits land verbatim, so both logs have the same tail.
	srcTail, err := src.LatestCommit(ctx)
	if err != nil {
		t.Fatalf("LatestCommit() failed: %v", err)
	}
	dstTail, err := dst.LatestCommit(ctx)
	if err != nil {
		t.Fatalf("LatestCommit() failed: %v", err)
	}
	if !bytes.Equal(srcTail.ID, dstTail.ID) {
		t.Errorf("tails differ: src %x, dst %x", srcTail.ID, dstTail.ID)
	}
}

func TestApplyDelta_ReplacesExistingPost(t *testing.T) {
	ctx := context.Background()
	dst := createTestStore(t, 1000)

	// Destination already has an older rendition of the post, as after
	// an update at the source.
	stale := createTestPost("article")
	stale.Title = "Stale Title"
	if err := dst.InsertPost(ctx, stale, nil); err != nil {
		t.Fatalf("InsertPost() failed: %v", err)
	}

	fresh := *createTestPost("article")
	fresh.Title = "Fresh Title"
	fresh.CreateTimestamp = 1000
	fresh.UpdateTimestamp = 1500

	commit, err := model.NewCommit(nil, model.UpdatePostPayload{Slug: "article"}, 1500)
	if err != nil {
		t.Fatalf("NewCommit() failed: %v", err)
	}
	delta := &model.Delta{
		AddedPosts: []model.PostWithResources{{Post: fresh}},
		Commits:    []model.Commit{commit},
	}
	if err := dst.ApplyDelta(ctx, delta); err != nil {
		t.Fatalf("ApplyDelta() failed: %v", err)
	}

	got, err := dst.GetPost(ctx, "article")
	if err != nil {
		t.Fatalf("GetPost() failed: %v", err)
	}
	if got.Title != "Fresh Title" {
		t.Errorf("title = %q, want %q", got.Title, "Fresh Title")
	}
	if got.UpdateTimestamp != 1500 {
		t.Errorf("update_timestamp = %d, want 1500", got.UpdateTimestamp)
	}
}

func TestApplyDelta_Deletions(t *testing.T) {
	ctx := context.Background()
	dst := createTestStore(t, 1000)

	if err := dst.InsertPost(ctx, createTestPost("removed"), nil); err != nil {
		t.Fatalf("InsertPost() failed: %v", err)
	}
	res := createTestResource("removed.bin")
	if err := dst.InsertResource(ctx, res); err != nil {
		t.Fatalf("InsertResource() failed: %v", err)
	}

	delta := &model.Delta{
		DeletedPostSlugs:   []string{"removed"},
		DeletedResourceIDs: []uuid.UUID{res.ID},
	}
	if err := dst.ApplyDelta(ctx, delta); err != nil {
		t.Fatalf("ApplyDelta() failed: %v", err)
	}

	post, err := dst.GetPost(ctx, "removed")
	if err != nil {
		t.Fatalf("GetPost() failed: %v", err)
	}
	if post != nil {
		t.Error("post still present after delta deletion")
	}
	gotRes, err := dst.GetResource(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetResource() failed: %v", err)
	}
	if gotRes != nil {
		t.Error("resource still present after delta deletion")
	}
}

func TestApplyDelta_ReplayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dst := createTestStore(t, 1000)

	post := *createTestPost("replayed")
	post.CreateTimestamp = 1000
	post.UpdateTimestamp = 1000
	delta := &model.Delta{
		AddedPosts: []model.PostWithResources{{Post: post}},
	}

	if err := dst.ApplyDelta(ctx, delta); err != nil {
		t.Fatalf("first ApplyDelta() failed: %v", err)
	}
	if err := dst.ApplyDelta(ctx, delta); err != nil {
		t.Fatalf("second ApplyDelta() failed: %v", err)
	}

	got, err := dst.GetPost(ctx, "replayed")
	if err != nil {
		t.Fatalf("GetPost() failed: %v", err)
	}
	if got == nil {
		t.Fatal("post missing after replay")
	}
}
