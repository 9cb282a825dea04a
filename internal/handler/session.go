package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shossain/streamtube/internal/apperror"
	"github.com/shossain/streamtube/internal/auth"
	"github.com/shossain/streamtube/internal/model"
	"github.com/shossain/streamtube/internal/service"
)

// SessionHandler owns the credential endpoints: login, logout and the
// refresh rotation. Tokens travel both in the response body and in
// HttpOnly cookies, so browser clients never touch them from script while
// non-browser clients can still use the Authorization header.
type SessionHandler struct {
	sessions *service.SessionService
	logger   *slog.Logger
}

func NewSessionHandler(sessions *service.SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

// setTokenCookies installs both tokens as HttpOnly cookies. They are
// always set (and cleared) together.
func setTokenCookies(w http.ResponseWriter, pair *service.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     auth.RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{auth.AccessTokenCookie, auth.RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// HandleLogin authenticates by username or email plus password.
//
// HTTP: POST /api/v1/users/login
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("invalid JSON body"))
		return
	}

	user, pair, err := h.sessions.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	setTokenCookies(w, pair)
	writeJSON(w, http.StatusOK, loginResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "User logged In Successfully")
}

// HandleLogout invalidates the stored refresh token and clears both
// cookies. Requires a valid access token; the identity comes from it, not
// from the body.
//
// HTTP: POST /api/v1/users/logout
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Unauthorized request"))
		return
	}

	if err := h.sessions.Logout(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	clearTokenCookies(w)
	writeJSON(w, http.StatusOK, struct{}{}, "User logged Out")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// HandleRefresh rotates the refresh token. The presented token comes from
// the cookie when available, otherwise from the JSON body — the same
// precedence the auth middleware uses for access tokens.
//
// HTTP: POST /api/v1/users/refresh-token
func (h *SessionHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var presented string
	if c, err := r.Cookie(auth.RefreshTokenCookie); err == nil && c.Value != "" {
		presented = c.Value
	} else {
		var req refreshRequest
		// A missing body is fine; the service rejects the empty token.
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	pair, err := h.sessions.Refresh(r.Context(), presented)
	if err != nil {
		writeError(w, err)
		return
	}

	setTokenCookies(w, pair)
	writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "Access token refreshed")
}
