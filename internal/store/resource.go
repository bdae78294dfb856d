package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/chronicle/internal/model"
)

// Row-level resource operations. Resources are addressed by UUID;
// post-attached resources additionally carry their owning post's slug
// and disappear with it through the schema's cascade.

func insertResource(ctx context.Context, q dbtx, res *model.Resource) error {
	postSlug := sql.NullString{String: res.PostSlug, Valid: res.PostSlug != ""}
	data := res.Data
	if data == nil {
		data = []byte{}
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO resources (id, name, post_slug, mime_type, data)
		VALUES (?, ?, ?, ?, ?)
	`,
		res.ID.String(),
		res.Name,
		postSlug,
		res.Type,
		data,
	)
	if err != nil {
		return fmt.Errorf("insert resource %s: %w", res.ID, asConflict(err))
	}
	return nil
}

func getResource(ctx context.Context, q dbtx, id uuid.UUID) (*model.Resource, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, post_slug, mime_type, data
		FROM resources
		WHERE id = ?
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query resource %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query resource %s: %w", id, err)
		}
		return nil, nil
	}
	return scanResource(rows, true)
}

func listResources(ctx context.Context, q dbtx) ([]model.Resource, error) {
	// Listings skip the payload: a resource can be megabytes of image
	// data and the listing only needs identity and type.
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, post_slug, mime_type
		FROM resources
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query resources: %w", err)
	}
	defer rows.Close()

	resources := []model.Resource{}
	for rows.Next() {
		res, err := scanResource(rows, false)
		if err != nil {
			return nil, err
		}
		resources = append(resources, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resources: %w", err)
	}
	return resources, nil
}

func deleteResource(ctx context.Context, q dbtx, id uuid.UUID) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("delete resource %s: %w", id, err)
	}
	return nil
}

func scanResource(rows interface{ Scan(dest ...any) error }, withData bool) (*model.Resource, error) {
	var (
		res      model.Resource
		idStr    string
		postSlug sql.NullString
	)

	dest := []any{&idStr, &res.Name, &postSlug, &res.Type}
	if withData {
		dest = append(dest, &res.Data)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan resource row: %w", err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("scan resource row: id: %w", err)
	}
	res.ID = id
	res.PostSlug = postSlug.String
	return &res, nil
}
