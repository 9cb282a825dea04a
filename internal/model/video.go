package model

import "time"

// Video is a piece of content a channel owns. Only the fields the watch
// history and channel aggregation need are modelled here.
type Video struct {
	ID           string    `json:"id"           db:"id"`
	OwnerID      string    `json:"ownerId"      db:"owner_id"`
	Title        string    `json:"title"        db:"title"`
	URL          string    `json:"url"          db:"url"`
	ThumbnailURL string    `json:"thumbnail"    db:"thumbnail_url"`
	DurationSecs int64     `json:"duration"     db:"duration_secs"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
}

// WatchEntry is one row of a user's watch history: the video joined with
// a summary of its owner, newest watch first.
type WatchEntry struct {
	Video     Video        `json:"video"`
	Owner     OwnerSummary `json:"owner"`
	WatchedAt time.Time    `json:"watchedAt"`
}

// OwnerSummary is the slice of a channel shown inline in history listings.
type OwnerSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}
