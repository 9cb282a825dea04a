package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"

	"github.com/shossain/streamtube/internal/apperror"
	"github.com/shossain/streamtube/internal/auth"
	"github.com/shossain/streamtube/internal/model"
	"github.com/shossain/streamtube/internal/repository"
	"github.com/shossain/streamtube/internal/service"
)

// maxUploadBytes caps a single multipart request (avatar + cover).
const maxUploadBytes = 20 << 20 // 20 MiB

// UserHandler covers account and profile endpoints. Image uploads are
// staged to local disk first; the service hands them to blob storage and
// the staged file is removed after the upload attempt.
type UserHandler struct {
	users     *service.UserService
	uploadDir string
	logger    *slog.Logger
}

func NewUserHandler(users *service.UserService, uploadDir string, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, uploadDir: uploadDir, logger: logger}
}

// stageUpload copies the named multipart file to the upload directory and
// returns its local path. Returns "" with no error when the field is
// absent; required-ness is the caller's decision.
func (h *UserHandler) stageUpload(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", apperror.ValidationFailed(fmt.Sprintf("reading %s upload", field))
	}
	defer file.Close()

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("handler: creating upload dir: %w", err)
	}

	// Never trust the client's filename; keep only its extension.
	dst := filepath.Join(h.uploadDir, xid.New().String()+filepath.Ext(header.Filename))
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("handler: staging upload: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("handler: staging upload: %w", err)
	}
	return dst, nil
}

// HandleRegister creates an account from a multipart form: the text
// fields plus an avatar file (required) and a cover image (optional).
//
// HTTP: POST /api/v1/users/register
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, apperror.ValidationFailed("invalid multipart form"))
		return
	}

	avatarPath, err := h.stageUpload(r, "avatar")
	if err != nil {
		writeError(w, err)
		return
	}
	coverPath, err := h.stageUpload(r, "coverImage")
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		FullName:       r.FormValue("fullName"),
		Email:          r.FormValue("email"),
		Username:       r.FormValue("username"),
		Password:       r.FormValue("password"),
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user, "User registered Successfully")
}

// HandleCurrentUser returns the authenticated user's own record.
//
// HTTP: GET /api/v1/users/current-user
func (h *UserHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user, "User fetched successfully")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// HandleChangePassword verifies the old password and stores the new one.
//
// HTTP: POST /api/v1/users/change-password
func (h *UserHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("invalid JSON body"))
		return
	}

	if err := h.users.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{}, "Password changed successfully")
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// HandleUpdateAccount changes the display name and email.
//
// HTTP: PATCH /api/v1/users/update-account
func (h *UserHandler) HandleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("invalid JSON body"))
		return
	}

	user, err := h.users.UpdateAccount(r.Context(), userID, req.FullName, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user, "Account details updated successfully")
}

// HandleUpdateAvatar replaces the avatar image.
//
// HTTP: PATCH /api/v1/users/avatar
func (h *UserHandler) HandleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.handleImageUpdate(w, r, "avatar", h.users.UpdateAvatar, "Avatar image updated successfully")
}

// HandleUpdateCoverImage replaces the cover image.
//
// HTTP: PATCH /api/v1/users/cover-image
func (h *UserHandler) HandleUpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.handleImageUpdate(w, r, "coverImage", h.users.UpdateCoverImage, "Cover image updated successfully")
}

func (h *UserHandler) handleImageUpdate(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	update func(ctx context.Context, userID, localPath string) (*model.User, error),
	message string,
) {
	userID, _ := auth.UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, apperror.ValidationFailed("invalid multipart form"))
		return
	}

	path, err := h.stageUpload(r, field)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := update(r.Context(), userID, path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user, message)
}

// HandleChannel returns a channel profile with subscriber counts, as seen
// by the authenticated viewer.
//
// HTTP: GET /api/v1/users/c/{username}
func (h *UserHandler) HandleChannel(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	username := chi.URLParam(r, "username")

	profile, err := h.users.ChannelProfile(r.Context(), username, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile, "User channel fetched successfully")
}

// HandleWatchHistory lists the viewer's watch history, newest first.
//
// HTTP: GET /api/v1/users/history?limit=&offset=
func (h *UserHandler) HandleWatchHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	opts := repository.ListOptions{}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			opts.Offset = n
		}
	}

	entries, err := h.users.WatchHistory(r.Context(), userID, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries, "Watch history fetched successfully")
}
