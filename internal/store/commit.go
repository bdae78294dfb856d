package store

import (
	"context"
	"fmt"

	"github.com/roach88/chronicle/internal/model"
)

// Row-level commit log operations. The log is append-only: nothing here
// updates or deletes. Insertion order (rowid) breaks timestamp ties so
// the chain reads back in exactly the order it was written.

func insertCommit(ctx context.Context, q dbtx, c model.Commit) error {
	payload, err := model.EncodePayload(c.Payload)
	if err != nil {
		return err
	}

	// A nil slice would bind as NULL; the chain root's parent is the
	// empty byte sequence, not NULL.
	prev := c.PrevCommitID
	if prev == nil {
		prev = []byte{}
	}

	// Duplicate IDs are not rejected here: identifiers are SHA-256
	// digests and collisions are not a handled failure mode.
	_, err = q.ExecContext(ctx, `
		INSERT INTO commits (id, timestamp, prev_commit_id, payload)
		VALUES (?, ?, ?, ?)
	`,
		c.ID,
		c.Timestamp,
		prev,
		payload,
	)
	if err != nil {
		return fmt.Errorf("insert commit: %w", err)
	}
	return nil
}

func latestCommit(ctx context.Context, q dbtx) (*model.Commit, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, timestamp, prev_commit_id, payload
		FROM commits
		ORDER BY timestamp DESC, rowid DESC
		LIMIT 1
	`)
	if err != nil {
		return nil, fmt.Errorf("query latest commit: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query latest commit: %w", err)
		}
		return nil, nil
	}
	return scanCommit(rows)
}

func commitsSince(ctx context.Context, q dbtx, since int64) ([]model.Commit, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, timestamp, prev_commit_id, payload
		FROM commits
		WHERE timestamp >= ?
		ORDER BY timestamp ASC, rowid ASC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("query commits since %d: %w", since, err)
	}
	defer rows.Close()

	commits := []model.Commit{}
	for rows.Next() {
		c, err := scanCommit(rows)
		if err != nil {
			return nil, err
		}
		commits = append(commits, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commits since %d: %w", since, err)
	}
	return commits, nil
}

func scanCommit(rows interface{ Scan(dest ...any) error }) (*model.Commit, error) {
	var (
		c       model.Commit
		payload []byte
	)
	if err := rows.Scan(&c.ID, &c.Timestamp, &c.PrevCommitID, &payload); err != nil {
		return nil, fmt.Errorf("scan commit row: %w", err)
	}

	decoded, err := model.DecodePayload(payload)
	if err != nil {
		return nil, err
	}
	c.Payload = decoded
	return &c, nil
}
