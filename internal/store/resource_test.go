package store

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestInsertResource_Basic(t *testing.T) {
	s := createTestStore(t, 1000)
	ctx := context.Background()

	res := createTestResource("avatar.png")
	if err := s.InsertResource(ctx, res); err != nil {
		t.Fatalf("InsertResource() failed: %v", err)
	}

	got, err := s.GetResource(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetResource() failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetResource() returned nil for existing resource")
	}
	if got.Name != res.Name {
		t.Errorf("name = %q, want %q", got.Name, res.Name)
	}
	if got.Type != res.Type {
		t.Errorf("type = %q, want %q", got.Type, res.Type)
	}
	if got.PostSlug != "" {
		t.Errorf("post_slug = %q, want empty for free-standing resource", got.PostSlug)
	}
	if !bytes.Equal(got.Data, res.Data) {
		t.Errorf("data = %v, want %v", got.Data, res.Data)
	}
}

func TestInsertResource_DuplicateIDConflicts(t *testing.T) {
	s := createTestStore(t, 1000)
	ctx := context.Background()

	res := createTestResource("once.png")
	if err := s.InsertResource(ctx, res); err != nil {
		t.Fatalf("first InsertResource() failed: %v", err)
	}

	dup := createTestResource("twice.png")
	dup.ID = res.ID
	err := s.InsertResource(ctx, dup)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("second InsertResource() = %v, want ErrConflict", err)
	}
}

func TestGetResource_Missing(t *testing.T) {
	s := createTestStore(t, 1000)

	got, err := s.GetResource(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetResource() failed: %v", err)
	}
	if got != nil {
		t.Errorf("GetResource() = %+v, want nil for missing resource", got)
	}
}

func TestListResources_SkipsPayload(t *testing.T) {
	s := createTestStore(t, 1000)
	ctx := context.Background()

	a := createTestResource("a.png")
	b := createTestResource("b.png")
	if err := s.InsertResource(ctx, a); err != nil {
		t.Fatalf("InsertResource() failed: %v", err)
	}
	if err := s.InsertResource(ctx, b); err != nil {
		t.Fatalf("InsertResource() failed: %v", err)
	}

	got, err := s.ListResources(ctx)
	if err != nil {
		t.Fatalf("ListResources() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("resource count = %d, want 2", len(got))
	}
	for _, res := range got {
		if res.Data != nil {
			t.Errorf("resource %s listing carries payload data", res.ID)
		}
	}
}

func TestDeleteResource_Basic(t *testing.T) {
	s := createTestStore(t, 1000)
	ctx := context.Background()

	res := createTestResource("gone.png")
	if err := s.InsertResource(ctx, res); err != nil {
		t.Fatalf("InsertResource() failed: %v", err)
	}
	if err := s.DeleteResource(ctx, res.ID); err != nil {
		t.Fatalf("DeleteResource() failed: %v", err)
	}

	got, err := s.GetResource(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetResource() failed: %v", err)
	}
	if got != nil {
		t.Error("resource still present after delete")
	}
}

func TestDeleteResource_MissingIsNoop(t *testing.T) {
	s := createTestStore(t, 1000)

	if err := s.DeleteResource(context.Background(), uuid.New()); err != nil {
		t.Fatalf("DeleteResource() on missing id failed: %v", err)
	}
}
