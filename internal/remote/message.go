// Package remote exposes a Storage over a byte stream. Each call is one
// length-prefixed JSON message and one reply on the same channel, so
// the protocol runs over anything that looks like a connection: a TCP
// socket, an SSH channel, or an in-process pipe in tests.
package remote

import (
	"encoding/json"

	"github.com/roach88/chronicle/internal/model"
)

// Operation names carried in the request envelope.
const (
	opInsertPost           = "insert_post"
	opUpdatePost           = "update_post"
	opDeletePost           = "delete_post"
	opGetPost              = "get_post"
	opGetPostWithResources = "get_post_with_resources"
	opListPosts            = "list_posts"
	opInsertResource       = "insert_resource"
	opDeleteResource       = "delete_resource"
	opGetResource          = "get_resource"
	opListResources        = "list_resources"
	opCommitsSince         = "commits_since"
	opLatestCommit         = "latest_commit"
	opApplyDelta           = "apply_delta"
)

// Response status codes. Conflict and not-found travel as codes rather
// than strings so the client can restore the matching sentinel errors.
const (
	codeOK       = "ok"
	codeConflict = "conflict"
	codeNotFound = "not_found"
	codeError    = "error"
)

// request is the wire form of one storage call. Only the fields the
// named operation uses are populated.
type request struct {
	Op         string           `json:"op"`
	Slug       string           `json:"slug,omitempty"`
	Post       *model.Post      `json:"post,omitempty"`
	Resources  []model.Resource `json:"resources,omitempty"`
	Resource   *model.Resource  `json:"resource,omitempty"`
	ResourceID string           `json:"resourceId,omitempty"`
	Page       int              `json:"page,omitempty"`
	PageSize   int              `json:"pageSize,omitempty"`
	Since      int64            `json:"since,omitempty"`
	Delta      *model.Delta     `json:"delta,omitempty"`
}

// response is the wire form of one storage reply.
type response struct {
	Code   string          `json:"code"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// postWithResourcesResult carries a getPostWithResources reply. The
// post pointer is null when the post does not exist.
type postWithResourcesResult struct {
	Post      *model.Post      `json:"post"`
	Resources []model.Resource `json:"resources,omitempty"`
}
