// Package service holds the business logic between the HTTP handlers and
// the repositories.
//
// SESSION LIFECYCLE OVERVIEW:
//
//	Login    → verify credentials → mint access+refresh pair
//	           → persist refresh token on the user row → hand pair to caller
//	Request  → middleware validates the access token, nothing stored
//	Refresh  → validate refresh token → compare against the stored value
//	           → mint new pair → persist the new refresh token (rotation)
//	Logout   → clear the stored refresh token
//
// The stored refresh token is the single source of truth for whether a
// session exists. Rotation overwrites it, so each refresh token is usable
// exactly once: a replayed or superseded token no longer compares equal
// and is rejected, forcing a fresh login.
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
)

// SessionService coordinates login, refresh rotation, and logout.
// All dependencies are injected; the service holds no global state.
type SessionService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewSessionService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// TokenPair is one minted access+refresh pair. The handler writes both as
// cookies and echoes them in the response body for non-cookie clients.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginInput identifies a user by username or email (at least one set).
type LoginInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a user and establishes a session.
//
// NO EXISTENCE LEAKAGE:
// An unknown identifier and a wrong password both return the same
// Unauthorized error, so the response shape never confirms whether an
// account exists.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (*model.User, *TokenPair, error) {
	if strings.TrimSpace(in.Username) == "" && strings.TrimSpace(in.Email) == "" {
		return nil, nil, apperror.ValidationFailed("username or email is required")
	}
	if in.Password == "" {
		return nil, nil, apperror.ValidationFailed("password is required")
	}

	user, err := s.users.GetByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil, apperror.Unauthorized("Invalid user credentials")
		}
		return nil, nil, fmt.Errorf("session: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, in.Password); err != nil {
		return nil, nil, apperror.Unauthorized("Invalid user credentials")
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID), slog.String("username", user.Username))

	user.RefreshToken = pair.RefreshToken
	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair (rotation).
//
// A presented token must clear three gates, in order:
//  1. cryptographically valid and unexpired (signature + expiry)
//  2. its subject resolves to an existing user
//  3. it compares EQUAL to the refresh token stored on that user
//
// Gate 3 is the single-use guarantee: once a rotation lands, the previous
// string no longer matches storage and is permanently rejected. A late
// duplicate of an in-flight refresh fails the same way — the comparison
// against the stored value is the concurrency defense, no locking needed.
func (s *SessionService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		return nil, apperror.Unauthorized("Unauthorized request")
	}

	userID, err := s.tokens.ValidateRefresh(presented)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid refresh token")
		}
		return nil, fmt.Errorf("session: looking up user %s: %w", userID, err)
	}

	if user.RefreshToken == "" || user.RefreshToken != presented {
		s.logger.Warn("stale refresh token rejected", slog.String("userID", userID))
		return nil, apperror.Unauthorized("Refresh Token is expired or used")
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("session refreshed", slog.String("userID", user.ID))
	return pair, nil
}

// Logout revokes the user's session by removing the stored refresh token.
// The column is set to NULL, not "": an empty presented token must never
// compare equal to anything stored.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	if err := s.users.UpdateRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("session: clearing refresh token for %s: %w", userID, err)
	}
	s.logger.Info("user logged out", slog.String("userID", userID))
	return nil
}

// issuePair mints an access+refresh pair and persists the refresh token.
// The SAME string goes to storage and to the caller — the persisted token
// and the returned token must never diverge, or the next refresh would be
// rejected as stale.
func (s *SessionService) issuePair(ctx context.Context, userID string) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return nil, fmt.Errorf("session: issuing access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return nil, fmt.Errorf("session: issuing refresh token: %w", err)
	}

	// Single atomic field update; no read-modify-write.
	if err := s.users.UpdateRefreshToken(ctx, userID, refresh); err != nil {
		return nil, fmt.Errorf("session: persisting refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
