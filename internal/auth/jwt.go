package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors for token validation failures. The session layer maps
// both to 401; they are distinct so logs can tell an expired token from a
// tampered or garbled one.
var (
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenMalformed = errors.New("auth: token malformed")
)

const issuer = "streamtube"

// TokenService issues and validates the access/refresh token pair.
//
// TWO SECRETS, TWO LIFETIMES:
// Access tokens are short-lived and presented on every request; refresh
// tokens are long-lived and presented only to mint a new pair. Each kind is
// signed with its own HMAC secret, so a leaked access-token secret cannot
// be used to forge refresh tokens (or vice versa). An access token can
// never pass validation as a refresh token — the signature won't match.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenService creates a TokenService. Both secrets must be at least 16
// characters and must differ; generate them with e.g. `openssl rand -hex 32`.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(accessSecret) < 16 || len(refreshSecret) < 16 {
		return nil, errors.New("auth: token secrets must be at least 16 characters")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// claims is the JWT payload. The standard "sub" claim carries the user ID.
type claims struct {
	jwt.RegisteredClaims
}

// IssueAccessToken signs a short-lived access token for the given user.
func (s *TokenService) IssueAccessToken(userID string) (string, error) {
	return sign(userID, s.accessSecret, s.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for the given user.
// The caller (the session service) persists the returned string onto the
// user record; that stored value is the single valid instance.
func (s *TokenService) IssueRefreshToken(userID string) (string, error) {
	return sign(userID, s.refreshSecret, s.refreshTTL)
}

// ValidateAccess verifies an access token and returns the user ID it carries.
func (s *TokenService) ValidateAccess(tokenStr string) (string, error) {
	return validate(tokenStr, s.accessSecret)
}

// ValidateRefresh verifies a refresh token and returns the user ID it
// carries. Note this only proves the token is well-formed and unexpired;
// whether it is the CURRENT token for that user is the session service's
// equality check, not ours.
func (s *TokenService) ValidateRefresh(tokenStr string) (string, error) {
	return validate(tokenStr, s.refreshSecret)
}

func sign(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// validate parses and verifies a JWT against the given secret.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - signature matches (token wasn't tampered with)
//   - not expired
//   - issuer matches (tokens from other apps sharing a secret are rejected)
//   - algorithm is HS256 — jwt.WithValidMethods closes the classic
//     algorithm-confusion hole where an attacker submits alg=none
func validate(tokenStr string, secret []byte) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", ErrTokenMalformed
	}

	if c.Subject == "" {
		return "", fmt.Errorf("%w: no subject", ErrTokenMalformed)
	}

	return c.Subject, nil
}
