package storage

import (
	"context"
	"fmt"
	"time"
)

// ActivityEntry is a row of the activity feed persisted by the worker.
type ActivityEntry struct {
	ID         int64
	Username   string
	Kind       string
	Detail     string
	OccurredAt time.Time
}

// RecordActivity appends a feed entry.
func (r *SQLiteRepository) RecordActivity(ctx context.Context, e ActivityEntry) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO activity_log (username, kind, detail, occurred_at) VALUES (?, ?, ?, ?)",
		e.Username, e.Kind, e.Detail, e.OccurredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListRecentActivity returns the newest feed entries for a user, newest first.
func (r *SQLiteRepository) ListRecentActivity(ctx context.Context, username string, limit int) ([]ActivityEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, kind, detail, occurred_at
		FROM activity_log
		WHERE username = ?
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?`,
		username, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var out []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		if err := rows.Scan(&e.ID, &e.Username, &e.Kind, &e.Detail, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return out, nil
}
