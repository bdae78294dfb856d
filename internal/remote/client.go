package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/chronicle/internal/model"
	"github.com/roach88/chronicle/internal/store"
)

// Client is a Storage whose operations run on the peer at the other end
// of the channel. A mutex keeps at most one call in flight, matching
// the one-request-one-reply protocol.
type Client struct {
	mu sync.Mutex
	rw io.ReadWriter
}

var _ store.Storage = (*Client)(nil)

// NewClient returns a Client speaking over the given channel. The
// caller owns the channel's lifetime.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{rw: rw}
}

// call performs one request/reply exchange. A non-nil result is filled
// from the reply body; conflict and not-found replies come back as the
// storage sentinel errors so errors.Is works across the wire.
func (c *Client) call(ctx context.Context, req *request, result any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := writeMessage(c.rw, req); err != nil {
		return fmt.Errorf("%s: %w", req.Op, err)
	}

	var resp response
	if err := readMessage(c.rw, &resp); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: channel closed: %w", req.Op, io.ErrUnexpectedEOF)
		}
		return fmt.Errorf("%s: %w", req.Op, err)
	}

	switch resp.Code {
	case codeOK:
	case codeConflict:
		return fmt.Errorf("%s: %w", req.Op, store.ErrConflict)
	case codeNotFound:
		return fmt.Errorf("%s: %w", req.Op, store.ErrNotFound)
	default:
		return fmt.Errorf("%s: remote: %s", req.Op, resp.Error)
	}

	if result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("%s: decode result: %w", req.Op, err)
		}
	}
	return nil
}

// InsertPost implements store.Storage.
func (c *Client) InsertPost(ctx context.Context, post *model.Post, resources []model.Resource) error {
	return c.call(ctx, &request{Op: opInsertPost, Post: post, Resources: resources}, nil)
}

// UpdatePost implements store.Storage.
func (c *Client) UpdatePost(ctx context.Context, post *model.Post, resources []model.Resource) error {
	return c.call(ctx, &request{Op: opUpdatePost, Post: post, Resources: resources}, nil)
}

// DeletePost implements store.Storage.
func (c *Client) DeletePost(ctx context.Context, slug string) error {
	return c.call(ctx, &request{Op: opDeletePost, Slug: slug}, nil)
}

// GetPost implements store.Storage.
func (c *Client) GetPost(ctx context.Context, slug string) (*model.Post, error) {
	var post *model.Post
	if err := c.call(ctx, &request{Op: opGetPost, Slug: slug}, &post); err != nil {
		return nil, err
	}
	return post, nil
}

// GetPostWithResources implements store.Storage.
func (c *Client) GetPostWithResources(ctx context.Context, slug string) (*model.Post, []model.Resource, error) {
	var result postWithResourcesResult
	if err := c.call(ctx, &request{Op: opGetPostWithResources, Slug: slug}, &result); err != nil {
		return nil, nil, err
	}
	if result.Post == nil {
		return nil, nil, nil
	}
	return result.Post, result.Resources, nil
}

// ListPosts implements store.Storage.
func (c *Client) ListPosts(ctx context.Context, page store.Pagination) (*store.PostPage, error) {
	req := &request{Op: opListPosts, Page: page.Page(), PageSize: page.PageSize()}
	var result store.PostPage
	if err := c.call(ctx, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// InsertResource implements store.Storage.
func (c *Client) InsertResource(ctx context.Context, res *model.Resource) error {
	return c.call(ctx, &request{Op: opInsertResource, Resource: res}, nil)
}

// DeleteResource implements store.Storage.
func (c *Client) DeleteResource(ctx context.Context, id uuid.UUID) error {
	return c.call(ctx, &request{Op: opDeleteResource, ResourceID: id.String()}, nil)
}

// GetResource implements store.Storage.
func (c *Client) GetResource(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	var res *model.Resource
	if err := c.call(ctx, &request{Op: opGetResource, ResourceID: id.String()}, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// ListResources implements store.Storage.
func (c *Client) ListResources(ctx context.Context) ([]model.Resource, error) {
	var resources []model.Resource
	if err := c.call(ctx, &request{Op: opListResources}, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// CommitsSince implements store.Storage.
func (c *Client) CommitsSince(ctx context.Context, since int64) ([]model.Commit, error) {
	var commits []model.Commit
	if err := c.call(ctx, &request{Op: opCommitsSince, Since: since}, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

// LatestCommit implements store.Storage.
func (c *Client) LatestCommit(ctx context.Context) (*model.Commit, error) {
	var commit *model.Commit
	if err := c.call(ctx, &request{Op: opLatestCommit}, &commit); err != nil {
		return nil, err
	}
	return commit, nil
}

// ApplyDelta implements store.Storage.
func (c *Client) ApplyDelta(ctx context.Context, delta *model.Delta) error {
	return c.call(ctx, &request{Op: opApplyDelta, Delta: delta}, nil)
}
