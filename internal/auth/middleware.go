package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys in this package.
// Using a package-private type means only this package can read or write
// the userID value — no other package can collide with or shadow it.
type contextKey string

const userIDKey contextKey = "userID"

// Cookie names shared with the user handlers, which set and clear them.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// RequireAuth enforces authentication on protected routes.
//
// CREDENTIAL PRESENTATION:
// The access token is read from the HttpOnly "accessToken" cookie first;
// if no cookie is present we fall back to "Authorization: Bearer <token>"
// for non-browser clients. A request with neither, or with a token that
// fails validation, is rejected with 401 before any business logic runs.
//
// On success the userID is stored in the request context for downstream
// handlers via UserIDFromContext.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"statusCode":401,"message":"Unauthorized request","success":false,"errors":[]}`))
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) on an unauthenticated request — which on a
// RequireAuth-protected route should never happen.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractUserID pulls the access token from cookie or header and validates it.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	tokenStr := ""

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		tokenStr = cookie.Value
	} else if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		tokenStr = strings.TrimPrefix(h, "Bearer ")
	}

	if tokenStr == "" {
		return "", http.ErrNoCookie
	}

	return tokens.ValidateAccess(tokenStr)
}
