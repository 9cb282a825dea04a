// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// WHY json:"-" ON PasswordHash AND RefreshToken?
// Neither value may ever reach a client. Every handler serializes a *User
// directly, so the exclusion lives on the type rather than relying on each
// call site to strip the fields.
//
// RefreshToken holds the one refresh token currently valid for this user.
// A presented refresh token is accepted only if it compares equal to this
// value; rotation overwrites it and logout clears it to NULL. The field is
// a plain string in memory — an empty string means "no session", and the
// repository persists that as NULL so an empty presented token can never
// compare equal to a stored one.
type User struct {
	ID            string    `json:"id"            db:"id"`
	Username      string    `json:"username"      db:"username"` // unique, stored lower-cased
	Email         string    `json:"email"         db:"email"`    // unique
	FullName      string    `json:"fullName"      db:"full_name"`
	PasswordHash  string    `json:"-"             db:"password_hash"`
	AvatarURL     string    `json:"avatar"        db:"avatar_url"`
	AvatarKey     string    `json:"-"             db:"avatar_key"` // blob identifier, needed for deletes
	CoverImageURL string    `json:"coverImage"    db:"cover_image_url"`
	CoverImageKey string    `json:"-"             db:"cover_image_key"`
	RefreshToken  string    `json:"-"             db:"refresh_token"`
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`
}

// ChannelProfile is the aggregated public view of a user as a channel:
// the user's profile fields plus subscription counts and whether the
// requesting viewer is subscribed.
type ChannelProfile struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	AvatarURL       string `json:"avatar"`
	CoverImageURL   string `json:"coverImage"`
	SubscriberCount int64  `json:"subscribersCount"`
	SubscribedTo    int64  `json:"channelsSubscribedToCount"`
	IsSubscribed    bool   `json:"isSubscribed"`
}
