package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/chronicle/internal/model"
)

// withCommit runs one mutation inside one transaction and appends one
// commit for it:
//
//  1. begin a transaction
//  2. read the chain tail to obtain the parent commit ID
//  3. run the content mutation
//  4. build and append a commit chained to the tail
//  5. commit; any failure rolls the whole thing back
//
// The store mutex is held throughout, so read-tail-then-append is
// atomic with respect to every other writer on this store.
func (s *Store) withCommit(ctx context.Context, payload model.CommitPayload, mutate func(tx dbtx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	tail, err := latestCommit(ctx, tx)
	if err != nil {
		return err
	}
	var prev []byte
	if tail != nil {
		prev = tail.ID
	}

	if err := mutate(tx); err != nil {
		return err
	}

	commit, err := model.NewCommit(prev, payload, s.now())
	if err != nil {
		return err
	}
	if err := insertCommit(ctx, tx, commit); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// InsertPost implements Storage.
//
// Zero timestamps are assigned from the store clock; non-zero
// timestamps are honored so replication and content ingestion can carry
// source times through. Views always start at zero.
func (s *Store) InsertPost(ctx context.Context, post *model.Post, resources []model.Resource) error {
	now := s.now()
	if post.CreateTimestamp == 0 {
		post.CreateTimestamp = now
	}
	if post.UpdateTimestamp < post.CreateTimestamp {
		post.UpdateTimestamp = post.CreateTimestamp
	}
	post.Views = 0

	return s.withCommit(ctx, model.CreatePostPayload{Slug: post.Slug}, func(tx dbtx) error {
		return insertPost(ctx, tx, post, resources)
	})
}

// UpdatePost implements Storage. The replacement is modeled as delete
// plus reinsert inside the transaction, under a single UpdatePost
// commit. The creation timestamp and view counter of the stored post
// survive the replacement.
func (s *Store) UpdatePost(ctx context.Context, post *model.Post, resources []model.Resource) error {
	return s.withCommit(ctx, model.UpdatePostPayload{Slug: post.Slug}, func(tx dbtx) error {
		existing, err := getPost(ctx, tx, post.Slug)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("update post %q: %w", post.Slug, ErrNotFound)
		}

		post.CreateTimestamp = existing.CreateTimestamp
		post.UpdateTimestamp = s.now()
		if post.UpdateTimestamp < post.CreateTimestamp {
			post.UpdateTimestamp = post.CreateTimestamp
		}
		post.Views = existing.Views

		if err := deletePost(ctx, tx, post.Slug); err != nil {
			return err
		}
		return insertPost(ctx, tx, post, resources)
	})
}

// DeletePost implements Storage. Deleting a missing slug still appends
// a commit: the caller asked for a state transition and got one, and
// replicas replaying the commit perform the same no-op.
func (s *Store) DeletePost(ctx context.Context, slug string) error {
	return s.withCommit(ctx, model.DeletePostPayload{Slug: slug}, func(tx dbtx) error {
		return deletePost(ctx, tx, slug)
	})
}

// GetPost implements Storage.
func (s *Store) GetPost(ctx context.Context, slug string) (*model.Post, error) {
	return getPost(ctx, s.db, slug)
}

// GetPostWithResources implements Storage.
func (s *Store) GetPostWithResources(ctx context.Context, slug string) (*model.Post, []model.Resource, error) {
	return getPostWithResources(ctx, s.db, slug)
}

// ListPosts implements Storage.
func (s *Store) ListPosts(ctx context.Context, page Pagination) (*PostPage, error) {
	return listPosts(ctx, s.db, page)
}

// InsertResource implements Storage.
func (s *Store) InsertResource(ctx context.Context, res *model.Resource) error {
	return s.withCommit(ctx, model.CreateResourcePayload{ID: res.ID}, func(tx dbtx) error {
		return insertResource(ctx, tx, res)
	})
}

// DeleteResource implements Storage.
func (s *Store) DeleteResource(ctx context.Context, id uuid.UUID) error {
	return s.withCommit(ctx, model.DeleteResourcePayload{ID: id}, func(tx dbtx) error {
		return deleteResource(ctx, tx, id)
	})
}

// GetResource implements Storage.
func (s *Store) GetResource(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	return getResource(ctx, s.db, id)
}

// ListResources implements Storage.
func (s *Store) ListResources(ctx context.Context) ([]model.Resource, error) {
	return listResources(ctx, s.db)
}

// CommitsSince implements Storage.
func (s *Store) CommitsSince(ctx context.Context, since int64) ([]model.Commit, error) {
	return commitsSince(ctx, s.db, since)
}

// LatestCommit implements Storage.
func (s *Store) LatestCommit(ctx context.Context) (*model.Commit, error) {
	return latestCommit(ctx, s.db)
}

// ApplyDelta implements Storage. The delta's commits already carry
// their parent linkage from the source store, so they are appended
// verbatim instead of being rebuilt here.
//
// Additions delete before inserting: a post refetched because of an
// UpdatePost commit usually already exists at the destination, and
// replaying a delta twice must not fail on its own leftovers.
func (s *Store) ApplyDelta(ctx context.Context, delta *model.Delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, slug := range delta.DeletedPostSlugs {
		if err := deletePost(ctx, tx, slug); err != nil {
			return err
		}
	}
	for _, id := range delta.DeletedResourceIDs {
		if err := deleteResource(ctx, tx, id); err != nil {
			return err
		}
	}

	for _, pw := range delta.AddedPosts {
		if err := deletePost(ctx, tx, pw.Post.Slug); err != nil {
			return err
		}
		post := pw.Post
		if err := insertPost(ctx, tx, &post, pw.Resources); err != nil {
			return err
		}
	}
	for _, res := range delta.AddedResources {
		if err := deleteResource(ctx, tx, res.ID); err != nil {
			return err
		}
		r := res
		if err := insertResource(ctx, tx, &r); err != nil {
			return err
		}
	}

	for _, c := range delta.Commits {
		if err := insertCommit(ctx, tx, c); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
