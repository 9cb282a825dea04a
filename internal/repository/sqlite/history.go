package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shossain/streamtube/internal/model"
	"github.com/shossain/streamtube/internal/repository"
)

// HistoryDB implements repository.HistoryRepository.
type HistoryDB struct {
	conn *sql.DB
}

var _ repository.HistoryRepository = (*HistoryDB)(nil)

// RecordWatch upserts on (user_id, video_id): watching a video again just
// refreshes watched_at, which moves it to the front of the listing instead
// of duplicating the row.
func (h *HistoryDB) RecordWatch(ctx context.Context, userID, videoID string) error {
	_, err := h.conn.ExecContext(ctx,
		`INSERT INTO watch_history (user_id, video_id, watched_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = excluded.watched_at`,
		userID, videoID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sqlite: recording watch %s/%s: %w", userID, videoID, err)
	}
	return nil
}

// List returns the user's watch history newest first, each entry joined
// with the video and a summary of the channel that owns it.
func (h *HistoryDB) List(ctx context.Context, userID string, opts repository.ListOptions) ([]model.WatchEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := h.conn.QueryContext(ctx,
		`SELECT v.id, v.owner_id, v.title, v.url, v.thumbnail_url, v.duration_secs, v.created_at,
			u.id, u.username, u.full_name, u.avatar_url,
			w.watched_at
		 FROM watch_history w
		 JOIN videos v ON v.id = w.video_id
		 JOIN users u ON u.id = v.owner_id
		 WHERE w.user_id = ?
		 ORDER BY w.watched_at DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing watch history for %s: %w", userID, err)
	}
	defer rows.Close()

	// Non-nil so an empty history serializes as [] rather than null.
	entries := []model.WatchEntry{}
	for rows.Next() {
		var e model.WatchEntry
		if err := rows.Scan(
			&e.Video.ID,
			&e.Video.OwnerID,
			&e.Video.Title,
			&e.Video.URL,
			&e.Video.ThumbnailURL,
			&e.Video.DurationSecs,
			&e.Video.CreatedAt,
			&e.Owner.ID,
			&e.Owner.Username,
			&e.Owner.FullName,
			&e.Owner.Avatar,
			&e.WatchedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning watch entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating watch history: %w", err)
	}

	return entries, nil
}
