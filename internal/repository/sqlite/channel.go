package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shossain/streamtube/internal/apperror"
	"github.com/shossain/streamtube/internal/model"
	"github.com/shossain/streamtube/internal/repository"
)

// SubscriptionDB implements repository.SubscriptionRepository.
type SubscriptionDB struct {
	conn *sql.DB
}

var _ repository.SubscriptionRepository = (*SubscriptionDB)(nil)

// Toggle flips the viewer's subscription to a channel. The composite
// primary key (subscriber_id, channel_id) makes the insert naturally
// idempotent-per-state: a second subscribe attempt hits the DELETE branch.
func (s *SubscriptionDB) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE subscriber_id = ? AND channel_id = ?`,
		subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("sqlite: unsubscribing %s from %s: %w", subscriberID, channelID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n > 0 {
		// Row existed — this call was an unsubscribe.
		return false, nil
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO subscriptions (subscriber_id, channel_id, created_at) VALUES (?, ?, ?)`,
		subscriberID, channelID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("sqlite: subscribing %s to %s: %w", subscriberID, channelID, err)
	}
	return true, nil
}

// ChannelProfile aggregates a user's channel view in one query:
// subscriber count, count of channels they subscribe to, and whether the
// viewer is among the subscribers. This mirrors the aggregation pipeline
// the API exposes at GET /c/{username}.
func (s *SubscriptionDB) ChannelProfile(ctx context.Context, username, viewerID string) (*model.ChannelProfile, error) {
	var p model.ChannelProfile
	err := s.conn.QueryRowContext(ctx,
		`SELECT u.id, u.username, u.full_name, u.email, u.avatar_url, u.cover_image_url,
			(SELECT COUNT(*) FROM subscriptions WHERE channel_id = u.id),
			(SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = u.id),
			EXISTS(SELECT 1 FROM subscriptions WHERE channel_id = u.id AND subscriber_id = ?)
		 FROM users u WHERE u.username = ?`,
		viewerID, strings.ToLower(username),
	).Scan(
		&p.ID,
		&p.Username,
		&p.FullName,
		&p.Email,
		&p.AvatarURL,
		&p.CoverImageURL,
		&p.SubscriberCount,
		&p.SubscribedTo,
		&p.IsSubscribed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("channel", username)
		}
		return nil, fmt.Errorf("sqlite: channel profile for %s: %w", username, err)
	}
	return &p, nil
}
