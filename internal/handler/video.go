package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shossain/streamtube/internal/apperror"
	"github.com/shossain/streamtube/internal/auth"
	"github.com/shossain/streamtube/internal/model"
	"github.com/shossain/streamtube/internal/service"
)

// VideoHandler covers publishing, watching (which feeds the watch
// history) and the subscription toggle.
type VideoHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewVideoHandler(users *service.UserService, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{users: users, logger: logger}
}

type publishVideoRequest struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail"`
	DurationSecs int64  `json:"duration"`
}

// HandlePublish creates a video owned by the caller.
//
// HTTP: POST /api/v1/videos
func (h *VideoHandler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req publishVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("invalid JSON body"))
		return
	}

	video, err := h.users.PublishVideo(r.Context(), userID, &model.Video{
		Title:        req.Title,
		URL:          req.URL,
		ThumbnailURL: req.ThumbnailURL,
		DurationSecs: req.DurationSecs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, video, "Video published successfully")
}

// HandleWatch fetches a video and records the watch in the viewer's
// history.
//
// HTTP: GET /api/v1/videos/{videoID}
func (h *VideoHandler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	videoID := chi.URLParam(r, "videoID")

	video, err := h.users.WatchVideo(r.Context(), userID, videoID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, video, "Video fetched successfully")
}

type toggleSubscriptionResponse struct {
	Subscribed bool `json:"subscribed"`
}

// HandleToggleSubscription subscribes the caller to a channel, or
// unsubscribes on a second call.
//
// HTTP: POST /api/v1/subscriptions/{channelID}
func (h *VideoHandler) HandleToggleSubscription(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	channelID := chi.URLParam(r, "channelID")

	subscribed, err := h.users.ToggleSubscription(r.Context(), userID, channelID)
	if err != nil {
		writeError(w, err)
		return
	}

	message := "Subscribed successfully"
	if !subscribed {
		message = "Unsubscribed successfully"
	}
	writeJSON(w, http.StatusOK, toggleSubscriptionResponse{Subscribed: subscribed}, message)
}
