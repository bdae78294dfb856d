// Package replica synchronizes two content stores by shipping the
// source's recent commits to the destination and replaying their
// effects. Synchronization is one-directional and refuses to run when
// the two commit histories have diverged.
package replica

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/chronicle/internal/model"
	"github.com/roach88/chronicle/internal/store"
)

// Synchronize brings dst up to date with src and returns the delta that
// was applied. Either store can sit behind a remote channel; the
// returned errors distinguish which side failed (SourceError,
// DestinationError) so the operator knows where to look.
//
// The destination's chain must be a prefix of the source's. When it is
// not, Synchronize returns ErrDivergedHistory without touching the
// destination.
func Synchronize(ctx context.Context, src, dst store.Storage) (*model.Delta, error) {
	dstTail, err := dst.LatestCommit(ctx)
	if err != nil {
		return nil, &DestinationError{Err: err}
	}

	var since int64
	if dstTail != nil {
		since = dstTail.Timestamp
	}
	commits, err := src.CommitsSince(ctx, since)
	if err != nil {
		return nil, &SourceError{Err: err}
	}

	if len(commits) == 0 {
		if dstTail != nil {
			// The source does not even have the destination's tail.
			return nil, ErrDivergedHistory
		}
		return &model.Delta{}, nil
	}

	if dstTail != nil {
		// since() is inclusive, so the first returned commit must be the
		// destination's tail itself. Anything else means the chains split
		// before the destination's tail was written.
		if !bytes.Equal(commits[0].ID, dstTail.ID) {
			return nil, ErrDivergedHistory
		}
		commits = commits[1:]
	}

	delta, err := collectDelta(ctx, src, commits)
	if err != nil {
		return nil, err
	}
	if delta.Empty() {
		return delta, nil
	}

	if err := dst.ApplyDelta(ctx, delta); err != nil {
		return nil, &DestinationError{Err: err}
	}
	return delta, nil
}

// collectDelta folds a window of commits into the net set of changes
// they produce, fetching the current content of every touched post and
// resource from src. All commits stay in the delta even when their
// effects fold away, so the destination's chain remains a full copy.
func collectDelta(ctx context.Context, src store.Storage, commits []model.Commit) (*model.Delta, error) {
	var (
		fetchPosts   = newOrderedSet[string]()
		createdPosts = map[string]bool{}
		deletedPosts = newOrderedSet[string]()
		fetchRes     = newOrderedSet[uuid.UUID]()
		createdRes   = map[uuid.UUID]bool{}
		deletedRes   = newOrderedSet[uuid.UUID]()
	)

	for _, c := range commits {
		switch p := c.Payload.(type) {
		case model.CreatePostPayload:
			createdPosts[p.Slug] = true
			fetchPosts.add(p.Slug)
			deletedPosts.remove(p.Slug)
		case model.UpdatePostPayload:
			// An update never cancels anything; the post's current
			// rendition just has to be fetched.
			fetchPosts.add(p.Slug)
		case model.DeletePostPayload:
			fetchPosts.remove(p.Slug)
			if createdPosts[p.Slug] {
				// Created and deleted inside the window: nothing to ship.
				delete(createdPosts, p.Slug)
			} else {
				deletedPosts.add(p.Slug)
			}
		case model.CreateResourcePayload:
			createdRes[p.ID] = true
			fetchRes.add(p.ID)
			deletedRes.remove(p.ID)
		case model.DeleteResourcePayload:
			fetchRes.remove(p.ID)
			if createdRes[p.ID] {
				delete(createdRes, p.ID)
			} else {
				deletedRes.add(p.ID)
			}
		default:
			return nil, fmt.Errorf("collect delta: unknown commit payload %T", c.Payload)
		}
	}

	delta := &model.Delta{
		DeletedPostSlugs:   deletedPosts.items(),
		DeletedResourceIDs: deletedRes.items(),
		Commits:            commits,
	}

	for _, slug := range fetchPosts.items() {
		post, resources, err := src.GetPostWithResources(ctx, slug)
		if err != nil {
			return nil, &SourceError{Err: err}
		}
		if post == nil {
			// Deleted at the source after the window was read. The
			// deletion's commit will arrive on the next run.
			continue
		}
		delta.AddedPosts = append(delta.AddedPosts, model.PostWithResources{
			Post:      *post,
			Resources: resources,
		})
	}
	for _, id := range fetchRes.items() {
		res, err := src.GetResource(ctx, id)
		if err != nil {
			return nil, &SourceError{Err: err}
		}
		if res == nil {
			continue
		}
		delta.AddedResources = append(delta.AddedResources, *res)
	}

	return delta, nil
}

// orderedSet is a set that remembers first-insertion order, keeping
// delta contents deterministic for a given commit window.
type orderedSet[T comparable] struct {
	seen  map[T]bool
	order []T
}

func newOrderedSet[T comparable]() *orderedSet[T] {
	return &orderedSet[T]{seen: map[T]bool{}}
}

func (s *orderedSet[T]) add(v T) {
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.order = append(s.order, v)
}

func (s *orderedSet[T]) remove(v T) {
	if !s.seen[v] {
		return
	}
	delete(s.seen, v)
	for i, o := range s.order {
		if o == v {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *orderedSet[T]) items() []T {
	return s.order
}
