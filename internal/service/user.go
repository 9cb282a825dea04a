package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shossain/streamtube/internal/apperror"
	"github.com/shossain/streamtube/internal/auth"
	"github.com/shossain/streamtube/internal/model"
	"github.com/shossain/streamtube/internal/repository"
	"github.com/shossain/streamtube/internal/storage"
)

// UserService covers everything about a user besides the session itself:
// registration, password change, profile and image updates, the channel
// aggregation, and watch history.
type UserService struct {
	users     repository.UserRepository
	videos    repository.VideoRepository
	subs      repository.SubscriptionRepository
	history   repository.HistoryRepository
	passwords *auth.PasswordService
	blobs     storage.BlobStorage
	logger    *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	videos repository.VideoRepository,
	subs repository.SubscriptionRepository,
	history repository.HistoryRepository,
	passwords *auth.PasswordService,
	blobs storage.BlobStorage,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		videos:    videos,
		subs:      subs,
		history:   history,
		passwords: passwords,
		blobs:     blobs,
		logger:    logger,
	}
}

// RegisterInput carries the registration form. The image paths point at
// files the handler already staged to local disk.
type RegisterInput struct {
	FullName       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string // required
	CoverImagePath string // optional
}

// Register creates a new account.
//
// ORDER OF CHECKS:
//  1. all text fields present (400)
//  2. username/email not taken (409) — the DB UNIQUE constraint backs
//     this up against races
//  3. avatar file present (400) and its upload succeeded (400)
//  4. cover upload is best-effort: a missing or failed cover never blocks
//     registration
//
// The password is hashed before the user struct is ever handed to the
// repository; the plaintext never leaves this function.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"fullName", in.FullName},
		{"email", in.Email},
		{"username", in.Username},
		{"password", in.Password},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name+" is required")
		}
	}
	if len(missing) > 0 {
		return nil, apperror.ValidationFailed("All fields are required", missing...)
	}

	if _, err := s.users.GetByUsernameOrEmail(ctx, in.Username, in.Email); err == nil {
		return nil, apperror.Conflict("User with email or username already exists")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("user: checking existing user: %w", err)
	}

	if in.AvatarPath == "" {
		return nil, apperror.ValidationFailed("Avatar file is required")
	}

	avatar, err := s.blobs.Upload(ctx, in.AvatarPath)
	if err != nil {
		s.logger.Error("avatar upload failed", slog.String("error", err.Error()))
		return nil, apperror.ValidationFailed("Avatar upload failed")
	}

	var coverURL, coverKey string
	if in.CoverImagePath != "" {
		if cover, err := s.blobs.Upload(ctx, in.CoverImagePath); err == nil {
			coverURL, coverKey = cover.URL, cover.Key
		} else {
			s.logger.Warn("cover image upload failed", slog.String("error", err.Error()))
		}
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("user: hashing password: %w", err)
	}

	user := &model.User{
		Username:      in.Username,
		Email:         in.Email,
		FullName:      in.FullName,
		PasswordHash:  hash,
		AvatarURL:     avatar.URL,
		AvatarKey:     avatar.Key,
		CoverImageURL: coverURL,
		CoverImageKey: coverKey,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("user: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// GetByID returns the user record for an already-authenticated identity.
// Read-only; calling it any number of times has no side effects.
func (s *UserService) GetByID(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user: fetching %s: %w", userID, err)
	}
	return user, nil
}

// ChangePassword verifies the old password before storing a hash of the
// new one. The identity comes from the validated access token, so this is
// not a reset flow — the caller must know the current password.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return apperror.ValidationFailed("newPassword is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("user: fetching %s: %w", userID, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, oldPassword); err != nil {
		return apperror.Unauthorized("Invalid old password")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("user: hashing new password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("user: storing new password: %w", err)
	}

	s.logger.Info("password changed", slog.String("userID", userID))
	return nil
}

// UpdateAccount changes the display name and email.
func (s *UserService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*model.User, error) {
	if strings.TrimSpace(fullName) == "" || strings.TrimSpace(email) == "" {
		return nil, apperror.ValidationFailed("All fields are required")
	}

	if err := s.users.UpdateAccount(ctx, userID, fullName, email); err != nil {
		return nil, fmt.Errorf("user: updating account %s: %w", userID, err)
	}
	return s.GetByID(ctx, userID)
}

// UpdateAvatar replaces the user's avatar image.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, localPath string) (*model.User, error) {
	return s.replaceImage(ctx, userID, localPath, "Avatar",
		func(u *model.User) string { return u.AvatarKey },
		s.users.UpdateAvatar)
}

// UpdateCoverImage replaces the user's cover image.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID, localPath string) (*model.User, error) {
	return s.replaceImage(ctx, userID, localPath, "Cover image",
		func(u *model.User) string { return u.CoverImageKey },
		s.users.UpdateCoverImage)
}

// replaceImage is the shared replace flow: delete the old blob first, then
// upload the new one and persist its location. A failed delete surfaces as
// a server error (the old object would otherwise leak forever); a failed
// upload is the client's 400.
func (s *UserService) replaceImage(
	ctx context.Context,
	userID, localPath, label string,
	oldKey func(*model.User) string,
	persist func(ctx context.Context, id, url, key string) error,
) (*model.User, error) {
	if localPath == "" {
		return nil, apperror.ValidationFailed(label + " file is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user: fetching %s: %w", userID, err)
	}

	if key := oldKey(user); key != "" {
		if err := s.blobs.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("user: deleting old blob %s: %w", key, err)
		}
	}

	up, err := s.blobs.Upload(ctx, localPath)
	if err != nil {
		s.logger.Error("image upload failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, apperror.ValidationFailed(label + " upload failed")
	}

	if err := persist(ctx, userID, up.URL, up.Key); err != nil {
		return nil, fmt.Errorf("user: persisting %s: %w", strings.ToLower(label), err)
	}

	return s.GetByID(ctx, userID)
}

// ChannelProfile returns the aggregated channel view of a user, as seen by
// viewerID.
func (s *UserService) ChannelProfile(ctx context.Context, username, viewerID string) (*model.ChannelProfile, error) {
	if strings.TrimSpace(username) == "" {
		return nil, apperror.ValidationFailed("username is missing")
	}
	profile, err := s.subs.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		return nil, fmt.Errorf("user: channel profile %s: %w", username, err)
	}
	return profile, nil
}

// ToggleSubscription subscribes viewerID to the channel, or unsubscribes
// on a second call. Subscribing to yourself is rejected.
func (s *UserService) ToggleSubscription(ctx context.Context, viewerID, channelID string) (bool, error) {
	if viewerID == channelID {
		return false, apperror.ValidationFailed("cannot subscribe to your own channel")
	}
	if _, err := s.users.GetByID(ctx, channelID); err != nil {
		return false, fmt.Errorf("user: fetching channel %s: %w", channelID, err)
	}

	subscribed, err := s.subs.Toggle(ctx, viewerID, channelID)
	if err != nil {
		return false, fmt.Errorf("user: toggling subscription: %w", err)
	}
	return subscribed, nil
}

// PublishVideo creates a video owned by the caller.
func (s *UserService) PublishVideo(ctx context.Context, ownerID string, video *model.Video) (*model.Video, error) {
	if strings.TrimSpace(video.Title) == "" || strings.TrimSpace(video.URL) == "" {
		return nil, apperror.ValidationFailed("title and url are required")
	}
	video.OwnerID = ownerID
	if err := s.videos.Create(ctx, video); err != nil {
		return nil, fmt.Errorf("user: publishing video: %w", err)
	}
	return video, nil
}

// WatchVideo fetches a video for the viewer and records the watch in
// their history.
func (s *UserService) WatchVideo(ctx context.Context, viewerID, videoID string) (*model.Video, error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("user: fetching video %s: %w", videoID, err)
	}
	if err := s.history.RecordWatch(ctx, viewerID, videoID); err != nil {
		return nil, fmt.Errorf("user: recording watch: %w", err)
	}
	return video, nil
}

// WatchHistory lists the viewer's history, newest first.
func (s *UserService) WatchHistory(ctx context.Context, userID string, opts repository.ListOptions) ([]model.WatchEntry, error) {
	entries, err := s.history.List(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("user: listing watch history: %w", err)
	}
	return entries, nil
}
