package repository

import (
	"context"

	"github.com/shossain/streamtube/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository is the credential-store contract the services depend on.
// Implementations return apperror.NotFound when a lookup misses; the
// uniqueness of username and email is enforced at the storage layer.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByUsernameOrEmail resolves a login identifier: either field may be
	// empty, and the first user matching the non-empty one is returned.
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)
	// UpdateRefreshToken overwrites the stored refresh token in a single
	// field update. An empty token clears the column to NULL.
	UpdateRefreshToken(ctx context.Context, id, token string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAccount(ctx context.Context, id, fullName, email string) error
	UpdateAvatar(ctx context.Context, id, url, key string) error
	UpdateCoverImage(ctx context.Context, id, url, key string) error
}

type VideoRepository interface {
	Create(ctx context.Context, video *model.Video) error
	GetByID(ctx context.Context, id string) (*model.Video, error)
}

// SubscriptionRepository backs the channel aggregation.
type SubscriptionRepository interface {
	// Toggle subscribes the viewer to the channel, or unsubscribes if
	// already subscribed. Returns the resulting subscribed state.
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	// ChannelProfile aggregates the channel's counts and whether viewerID
	// is currently subscribed.
	ChannelProfile(ctx context.Context, username, viewerID string) (*model.ChannelProfile, error)
}

type HistoryRepository interface {
	// RecordWatch appends a watch event; re-watching moves the video to
	// the front of the history rather than duplicating it.
	RecordWatch(ctx context.Context, userID, videoID string) error
	List(ctx context.Context, userID string, opts ListOptions) ([]model.WatchEntry, error)
}
