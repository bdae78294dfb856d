package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roach88/chronicle/internal/store"
)

// Server serves a local Storage to a single remote peer over a byte
// stream. Calls on one channel are strictly sequential: one request,
// one reply. Serve one connection per Server invocation; the listener
// loop lives with the caller.
type Server struct {
	storage store.Storage
	logger  *zap.Logger
}

// NewServer returns a Server backed by the given storage. A nil logger
// disables logging.
func NewServer(storage store.Storage, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{storage: storage, logger: logger}
}

// Serve answers requests on the channel until it closes or the context
// is cancelled. A cleanly closed channel is not an error.
func (s *Server) Serve(ctx context.Context, rw io.ReadWriter) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var req request
		if err := readMessage(rw, &req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read request: %w", err)
		}

		resp := s.handle(ctx, &req)
		if resp.Code != codeOK {
			s.logger.Warn("remote call failed",
				zap.String("op", req.Op),
				zap.String("code", resp.Code),
				zap.String("error", resp.Error))
		} else {
			s.logger.Debug("remote call", zap.String("op", req.Op))
		}

		if err := writeMessage(rw, resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}

// handle dispatches one request against the storage and shapes the
// reply. Storage errors become response codes, never transport errors;
// the channel stays usable after a failed call.
func (s *Server) handle(ctx context.Context, req *request) *response {
	switch req.Op {
	case opInsertPost:
		if req.Post == nil {
			return errorResponse(errors.New("insert_post: missing post"))
		}
		return statusResponse(s.storage.InsertPost(ctx, req.Post, req.Resources))

	case opUpdatePost:
		if req.Post == nil {
			return errorResponse(errors.New("update_post: missing post"))
		}
		return statusResponse(s.storage.UpdatePost(ctx, req.Post, req.Resources))

	case opDeletePost:
		return statusResponse(s.storage.DeletePost(ctx, req.Slug))

	case opGetPost:
		post, err := s.storage.GetPost(ctx, req.Slug)
		return resultResponse(post, err)

	case opGetPostWithResources:
		post, resources, err := s.storage.GetPostWithResources(ctx, req.Slug)
		return resultResponse(&postWithResourcesResult{Post: post, Resources: resources}, err)

	case opListPosts:
		page, err := store.NewPagination(req.Page, req.PageSize)
		if err != nil {
			return errorResponse(err)
		}
		posts, err := s.storage.ListPosts(ctx, page)
		return resultResponse(posts, err)

	case opInsertResource:
		if req.Resource == nil {
			return errorResponse(errors.New("insert_resource: missing resource"))
		}
		return statusResponse(s.storage.InsertResource(ctx, req.Resource))

	case opDeleteResource:
		id, err := uuid.Parse(req.ResourceID)
		if err != nil {
			return errorResponse(fmt.Errorf("delete_resource: %w", err))
		}
		return statusResponse(s.storage.DeleteResource(ctx, id))

	case opGetResource:
		id, err := uuid.Parse(req.ResourceID)
		if err != nil {
			return errorResponse(fmt.Errorf("get_resource: %w", err))
		}
		res, err := s.storage.GetResource(ctx, id)
		return resultResponse(res, err)

	case opListResources:
		resources, err := s.storage.ListResources(ctx)
		return resultResponse(resources, err)

	case opCommitsSince:
		commits, err := s.storage.CommitsSince(ctx, req.Since)
		return resultResponse(commits, err)

	case opLatestCommit:
		commit, err := s.storage.LatestCommit(ctx)
		return resultResponse(commit, err)

	case opApplyDelta:
		if req.Delta == nil {
			return errorResponse(errors.New("apply_delta: missing delta"))
		}
		return statusResponse(s.storage.ApplyDelta(ctx, req.Delta))

	default:
		return errorResponse(fmt.Errorf("unknown operation %q", req.Op))
	}
}

func statusResponse(err error) *response {
	if err != nil {
		return errorResponse(err)
	}
	return &response{Code: codeOK}
}

func resultResponse(result any, err error) *response {
	if err != nil {
		return errorResponse(err)
	}
	body, err := json.Marshal(result)
	if err != nil {
		return errorResponse(fmt.Errorf("encode result: %w", err))
	}
	return &response{Code: codeOK, Result: body}
}

func errorResponse(err error) *response {
	code := codeError
	switch {
	case errors.Is(err, store.ErrConflict):
		code = codeConflict
	case errors.Is(err, store.ErrNotFound):
		code = codeNotFound
	}
	return &response{Code: code, Error: err.Error()}
}
