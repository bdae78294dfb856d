package store

import (
	"context"
	"fmt"

	"github.com/roach88/chronicle/internal/model"
)

// Row-level post operations. These run against either the connection or
// an open transaction; the facade in facade.go owns transaction
// boundaries and commit appending.

func insertPost(ctx context.Context, q dbtx, post *model.Post, resources []model.Resource) error {
	// Absent content is the empty document, not NULL.
	content := []byte(post.Content)
	if content == nil {
		content = []byte{}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO posts (slug, title, author, create_timestamp, update_timestamp, category, views, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		post.Slug,
		post.Title,
		post.Author,
		post.CreateTimestamp,
		post.UpdateTimestamp,
		post.Category,
		post.Views,
		content,
	)
	if err != nil {
		return fmt.Errorf("insert post %q: %w", post.Slug, asConflict(err))
	}

	for _, tag := range post.Tags {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO posts_tags (post_slug, tag_name) VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, post.Slug, tag); err != nil {
			return fmt.Errorf("insert post %q tag %q: %w", post.Slug, tag, err)
		}
	}

	for i := range resources {
		res := resources[i]
		res.PostSlug = post.Slug
		if err := insertResource(ctx, q, &res); err != nil {
			return fmt.Errorf("insert post %q resources: %w", post.Slug, err)
		}
	}

	return nil
}

func getPost(ctx context.Context, q dbtx, slug string) (*model.Post, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT slug, title, author, create_timestamp, update_timestamp, category, views, content
		FROM posts
		WHERE slug = ?
	`, slug)
	if err != nil {
		return nil, fmt.Errorf("query post %q: %w", slug, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query post %q: %w", slug, err)
		}
		return nil, nil
	}

	post, err := scanPost(rows)
	if err != nil {
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("query post %q: %w", slug, err)
	}

	if err := populatePostTags(ctx, q, post); err != nil {
		return nil, err
	}
	return post, nil
}

func getPostWithResources(ctx context.Context, q dbtx, slug string) (*model.Post, []model.Resource, error) {
	post, err := getPost(ctx, q, slug)
	if err != nil || post == nil {
		return nil, nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, name, post_slug, mime_type, data
		FROM resources
		WHERE post_slug = ?
		ORDER BY id
	`, slug)
	if err != nil {
		return nil, nil, fmt.Errorf("query post %q resources: %w", slug, err)
	}
	defer rows.Close()

	var resources []model.Resource
	for rows.Next() {
		res, err := scanResource(rows, true)
		if err != nil {
			return nil, nil, err
		}
		resources = append(resources, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("query post %q resources: %w", slug, err)
	}

	return post, resources, nil
}

func listPosts(ctx context.Context, q dbtx, page Pagination) (*PostPage, error) {
	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	// Content is metadata-heavy and never shown in listings, so the
	// page query skips it. Slug breaks creation-timestamp ties to keep
	// pages deterministic.
	rows, err := q.QueryContext(ctx, `
		SELECT slug, title, author, create_timestamp, update_timestamp, category, views
		FROM posts
		ORDER BY create_timestamp DESC, slug ASC
		LIMIT ? OFFSET ?
	`, page.PageSize(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("query posts page: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(
			&p.Slug, &p.Title, &p.Author,
			&p.CreateTimestamp, &p.UpdateTimestamp,
			&p.Category, &p.Views,
		); err != nil {
			return nil, fmt.Errorf("scan post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts page: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("query posts page: %w", err)
	}

	for i := range posts {
		if err := populatePostTags(ctx, q, &posts[i]); err != nil {
			return nil, err
		}
	}

	return &PostPage{Posts: posts, TotalCount: total}, nil
}

func deletePost(ctx context.Context, q dbtx, slug string) error {
	// Tags and attached resources go with the post via cascade.
	if _, err := q.ExecContext(ctx, `DELETE FROM posts WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("delete post %q: %w", slug, err)
	}
	return nil
}

func populatePostTags(ctx context.Context, q dbtx, post *model.Post) error {
	rows, err := q.QueryContext(ctx, `
		SELECT tag_name FROM posts_tags
		WHERE post_slug = ?
		ORDER BY tag_name
	`, post.Slug)
	if err != nil {
		return fmt.Errorf("query post %q tags: %w", post.Slug, err)
	}
	defer rows.Close()

	post.Tags = nil
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return fmt.Errorf("scan post %q tag: %w", post.Slug, err)
		}
		post.Tags = append(post.Tags, tag)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate post %q tags: %w", post.Slug, err)
	}
	return nil
}

func scanPost(rows interface{ Scan(dest ...any) error }) (*model.Post, error) {
	var (
		p       model.Post
		content []byte
	)
	if err := rows.Scan(
		&p.Slug, &p.Title, &p.Author,
		&p.CreateTimestamp, &p.UpdateTimestamp,
		&p.Category, &p.Views, &content,
	); err != nil {
		return nil, fmt.Errorf("scan post row: %w", err)
	}
	p.Content = content
	return &p, nil
}
