package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/shossain/streamtube/internal/apperror"
	"github.com/shossain/streamtube/internal/model"
	"github.com/shossain/streamtube/internal/repository"
)

// VideoDB implements repository.VideoRepository.
type VideoDB struct {
	conn *sql.DB
}

var _ repository.VideoRepository = (*VideoDB)(nil)

func (v *VideoDB) Create(ctx context.Context, video *model.Video) error {
	video.ID = xid.New().String()
	video.CreatedAt = time.Now().UTC()

	_, err := v.conn.ExecContext(ctx,
		`INSERT INTO videos (id, owner_id, title, url, thumbnail_url, duration_secs, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		video.ID,
		video.OwnerID,
		video.Title,
		video.URL,
		video.ThumbnailURL,
		video.DurationSecs,
		video.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting video %q: %w", video.Title, err)
	}
	return nil
}

func (v *VideoDB) GetByID(ctx context.Context, id string) (*model.Video, error) {
	var vid model.Video
	err := v.conn.QueryRowContext(ctx,
		`SELECT id, owner_id, title, url, thumbnail_url, duration_secs, created_at
		 FROM videos WHERE id = ?`, id,
	).Scan(
		&vid.ID,
		&vid.OwnerID,
		&vid.Title,
		&vid.URL,
		&vid.ThumbnailURL,
		&vid.DurationSecs,
		&vid.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("video", id)
		}
		return nil, fmt.Errorf("sqlite: getting video %s: %w", id, err)
	}
	return &vid, nil
}
