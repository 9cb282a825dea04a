package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/shossain/streamtube/internal/apperror"
	"github.com/shossain/streamtube/internal/model"
	"github.com/shossain/streamtube/internal/repository"
)

// =========================================================================
// SUBSCRIPTION TOGGLE TESTS
// =========================================================================

func TestSubscriptionToggle(t *testing.T) {
	db := newTestDB(t)
	users, subs := db.Users(), db.Subscriptions()

	viewer := createTestUser(t, users, "viewer")
	channel := createTestUser(t, users, "channel")

	subscribed, err := subs.Toggle(context.Background(), viewer.ID, channel.ID)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !subscribed {
		t.Error("first Toggle() should subscribe")
	}

	subscribed, err = subs.Toggle(context.Background(), viewer.ID, channel.ID)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if subscribed {
		t.Error("second Toggle() should unsubscribe")
	}
}

// =========================================================================
// CHANNEL PROFILE AGGREGATION TESTS
// =========================================================================

func TestChannelProfile_Counts(t *testing.T) {
	db := newTestDB(t)
	users, subs := db.Users(), db.Subscriptions()

	channel := createTestUser(t, users, "thechannel")
	fan1 := createTestUser(t, users, "fanone")
	fan2 := createTestUser(t, users, "fantwo")

	// Two fans subscribe to the channel; the channel subscribes to fan1.
	mustToggle(t, subs, fan1.ID, channel.ID)
	mustToggle(t, subs, fan2.ID, channel.ID)
	mustToggle(t, subs, channel.ID, fan1.ID)

	// Viewed by fan1: subscribed.
	p, err := subs.ChannelProfile(context.Background(), "TheChannel", fan1.ID)
	if err != nil {
		t.Fatalf("ChannelProfile() error = %v", err)
	}
	if p.SubscriberCount != 2 {
		t.Errorf("SubscriberCount = %d, want 2", p.SubscriberCount)
	}
	if p.SubscribedTo != 1 {
		t.Errorf("SubscribedTo = %d, want 1", p.SubscribedTo)
	}
	if !p.IsSubscribed {
		t.Error("IsSubscribed = false for a subscribed viewer")
	}

	// Viewed by an unrelated user: not subscribed.
	stranger := createTestUser(t, users, "stranger")
	p, err = subs.ChannelProfile(context.Background(), "thechannel", stranger.ID)
	if err != nil {
		t.Fatalf("ChannelProfile() error = %v", err)
	}
	if p.IsSubscribed {
		t.Error("IsSubscribed = true for a non-subscribed viewer")
	}
}

func TestChannelProfile_UnknownUsername(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Subscriptions().ChannelProfile(context.Background(), "ghost", "viewer")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("ChannelProfile() error = %v, want ErrNotFound", err)
	}
}

func mustToggle(t *testing.T, subs *SubscriptionDB, subscriberID, channelID string) {
	t.Helper()
	if _, err := subs.Toggle(context.Background(), subscriberID, channelID); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
}

// =========================================================================
// WATCH HISTORY TESTS
// =========================================================================

func TestWatchHistory_OrderAndRewatch(t *testing.T) {
	db := newTestDB(t)
	users, videos, history := db.Users(), db.Videos(), db.History()

	owner := createTestUser(t, users, "creator")
	watcher := createTestUser(t, users, "watcher")

	v1 := &model.Video{OwnerID: owner.ID, Title: "first", URL: "https://cdn/v1"}
	v2 := &model.Video{OwnerID: owner.ID, Title: "second", URL: "https://cdn/v2"}
	if err := videos.Create(context.Background(), v1); err != nil {
		t.Fatalf("Create(v1) error = %v", err)
	}
	if err := videos.Create(context.Background(), v2); err != nil {
		t.Fatalf("Create(v2) error = %v", err)
	}

	mustWatch(t, history, watcher.ID, v1.ID)
	mustWatch(t, history, watcher.ID, v2.ID)
	// Re-watch v1 — it should move to the front without duplicating.
	mustWatch(t, history, watcher.ID, v1.ID)

	entries, err := history.List(context.Background(), watcher.ID, repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2 (re-watch must not duplicate)", len(entries))
	}
	if entries[0].Video.ID != v1.ID {
		t.Errorf("entries[0] = %q, want the re-watched video first", entries[0].Video.Title)
	}
	if entries[0].Owner.Username != "creator" {
		t.Errorf("Owner.Username = %q, want %q", entries[0].Owner.Username, "creator")
	}
}

func TestWatchHistory_EmptyIsSliceNotNil(t *testing.T) {
	db := newTestDB(t)
	watcher := createTestUser(t, db.Users(), "nohistory")

	entries, err := db.History().List(context.Background(), watcher.ID, repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if entries == nil {
		t.Error("List() returned nil, want empty slice (serializes as [])")
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
}

func mustWatch(t *testing.T, h *HistoryDB, userID, videoID string) {
	t.Helper()
	if err := h.RecordWatch(context.Background(), userID, videoID); err != nil {
		t.Fatalf("RecordWatch() error = %v", err)
	}
}
