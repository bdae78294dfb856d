package store

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/roach88/chronicle/internal/model"
)

// createTestStore creates a store backed by a throwaway database with a
// deterministic clock starting at the given timestamp. Each clock read
// advances one second, so every commit gets a distinct timestamp.
func createTestStore(t *testing.T, start int64) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithClock(testClock(start)))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testClock returns a monotonic clock whose first reading is start.
func testClock(start int64) func() int64 {
	next := start - 1
	return func() int64 {
		next++
		return next
	}
}

// createTestPost creates a test post with minimal required fields. Tags
// are alphabetical because reads return them sorted.
func createTestPost(slug string) *model.Post {
	return &model.Post{
		Slug:     slug,
		Title:    "Title of " + slug,
		Author:   "tester",
		Category: "testing",
		Tags:     []string{"alpha", "beta"},
		Content:  json.RawMessage(`{"blocks":[]}`),
	}
}

// createTestResource creates a free-standing test resource.
func createTestResource(name string) *model.Resource {
	return &model.Resource{
		ID:   uuid.New(),
		Name: name,
		Type: "image/png",
		Data: []byte{0x89, 0x50, 0x4e, 0x47},
	}
}
