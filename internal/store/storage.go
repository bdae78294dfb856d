package store

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/roach88/chronicle/internal/model"
)

// Storage is the full capability surface of a chronicle content store.
// It is implemented by *Store locally and by remote.Client over a byte
// channel; the synchronizer and the HTTP layer only ever see this
// interface.
//
// Get-style calls report a missing entity with a nil result and nil
// error. Mutating calls are atomic: either the content change and its
// commit both persist, or neither does.
type Storage interface {
	// InsertPost stores a new post together with its attached
	// resources. Fails with ErrConflict if the slug is taken.
	InsertPost(ctx context.Context, post *model.Post, resources []model.Resource) error

	// UpdatePost fully replaces an existing post and its attached
	// resources. Fails with ErrNotFound if the slug does not exist.
	UpdatePost(ctx context.Context, post *model.Post, resources []model.Resource) error

	// DeletePost removes a post and, by cascade, its attached
	// resources. Deleting a missing slug is a no-op.
	DeletePost(ctx context.Context, slug string) error

	// GetPost returns the post with the given slug, or nil.
	GetPost(ctx context.Context, slug string) (*model.Post, error)

	// GetPostWithResources returns the post and its attached resources,
	// or (nil, nil, nil) if the slug does not exist.
	GetPostWithResources(ctx context.Context, slug string) (*model.Post, []model.Resource, error)

	// ListPosts returns one page of posts ordered by creation timestamp
	// descending (slug ascending on ties) plus the total post count.
	ListPosts(ctx context.Context, page Pagination) (*PostPage, error)

	// InsertResource stores a new free-standing resource. Fails with
	// ErrConflict if the ID is taken.
	InsertResource(ctx context.Context, res *model.Resource) error

	// DeleteResource removes a free-standing resource. Deleting a
	// missing ID is a no-op.
	DeleteResource(ctx context.Context, id uuid.UUID) error

	// GetResource returns the resource with the given ID, or nil.
	// Post-attached resources are addressable here as well.
	GetResource(ctx context.Context, id uuid.UUID) (*model.Resource, error)

	// ListResources returns all resources without their payloads.
	ListResources(ctx context.Context) ([]model.Resource, error)

	// CommitsSince returns all commits with timestamp >= since, oldest
	// first, insertion order on equal timestamps.
	CommitsSince(ctx context.Context, since int64) ([]model.Commit, error)

	// LatestCommit returns the chain tail, or nil if the log is empty.
	LatestCommit(ctx context.Context) (*model.Commit, error)

	// ApplyDelta applies a replication delta in one transaction:
	// deletions first, then additions, then the delta's commits
	// verbatim. Used only by the synchronizer.
	ApplyDelta(ctx context.Context, delta *model.Delta) error
}

var _ Storage = (*Store)(nil)

// Pagination selects one page of a listing. Page numbers start at 1.
type Pagination struct {
	page     int
	pageSize int
}

// NewPagination validates page and pageSize and returns a Pagination.
// Both must be at least 1 and their product must not overflow.
func NewPagination(page, pageSize int) (Pagination, error) {
	if page < 1 {
		return Pagination{}, fmt.Errorf("pagination: page %d out of range", page)
	}
	if pageSize < 1 {
		return Pagination{}, fmt.Errorf("pagination: page size %d out of range", pageSize)
	}
	if page-1 > math.MaxInt/pageSize {
		return Pagination{}, fmt.Errorf("pagination: page %d x size %d overflows", page, pageSize)
	}
	return Pagination{page: page, pageSize: pageSize}, nil
}

// Page returns the 1-based page number.
func (p Pagination) Page() int { return p.page }

// PageSize returns the number of items per page.
func (p Pagination) PageSize() int { return p.pageSize }

// Offset returns the number of items before the first item of the page.
func (p Pagination) Offset() int { return (p.page - 1) * p.pageSize }

// PostPage is one page of a post listing. TotalCount is the number of
// posts in the store regardless of pagination, so callers can compute
// page counts.
type PostPage struct {
	Posts      []model.Post `json:"posts"`
	TotalCount int          `json:"totalCount"`
}
