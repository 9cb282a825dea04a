package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/shossain/streamtube/internal/apperror"
	"github.com/shossain/streamtube/internal/model"
	"github.com/shossain/streamtube/internal/repository"
)

// UserDB implements repository.UserRepository.
type UserDB struct {
	conn *sql.DB
}

var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, username, email, full_name, password_hash,
	avatar_url, avatar_key, cover_image_url, cover_image_key,
	COALESCE(refresh_token, ''), created_at, updated_at`

// Create inserts a new user. The username is lower-cased here so the
// uniqueness constraint is case-insensitive in practice, and the ID and
// timestamps are filled in on the caller's struct.
//
// A UNIQUE violation on username or email surfaces as apperror.Conflict —
// the service layer race-checks first, but the constraint is the authority.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.Username = strings.ToLower(user.Username)
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, full_name, password_hash,
			avatar_url, avatar_key, cover_image_url, cover_image_key,
			created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.AvatarURL,
		user.AvatarKey,
		user.CoverImageURL,
		user.CoverImageKey,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("User with email or username already exists")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByUsernameOrEmail resolves a login identifier. Either argument may be
// empty; the query matches whichever is set. The username comparison is
// against the stored lower-cased form.
func (u *UserDB) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	row := u.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE (username = ? AND ? != '') OR (email = ? AND ? != '')
		 LIMIT 1`,
		strings.ToLower(username), username, email, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username+email)
		}
		return nil, fmt.Errorf("sqlite: getting user by username/email: %w", err)
	}
	return user, nil
}

// UpdateRefreshToken overwrites the stored refresh token in one UPDATE.
// This single atomic field write is the session rotation point: the moment
// it lands, the previously stored token no longer compares equal and is
// dead. An empty token stores NULL, which removes the session entirely.
func (u *UserDB) UpdateRefreshToken(ctx context.Context, id, token string) error {
	var value any
	if token != "" {
		value = token
	}
	return u.updateField(ctx, id,
		`UPDATE users SET refresh_token = ?, updated_at = ? WHERE id = ?`,
		value)
}

func (u *UserDB) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return u.updateField(ctx, id,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash)
}

func (u *UserDB) UpdateAccount(ctx context.Context, id, fullName, email string) error {
	res, err := u.conn.ExecContext(ctx,
		`UPDATE users SET full_name = ?, email = ?, updated_at = ? WHERE id = ?`,
		fullName, email, time.Now().UTC(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("User with email or username already exists")
		}
		return fmt.Errorf("sqlite: updating account %s: %w", id, err)
	}
	return requireRow(res, id)
}

func (u *UserDB) UpdateAvatar(ctx context.Context, id, url, key string) error {
	res, err := u.conn.ExecContext(ctx,
		`UPDATE users SET avatar_url = ?, avatar_key = ?, updated_at = ? WHERE id = ?`,
		url, key, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: updating avatar for %s: %w", id, err)
	}
	return requireRow(res, id)
}

func (u *UserDB) UpdateCoverImage(ctx context.Context, id, url, key string) error {
	res, err := u.conn.ExecContext(ctx,
		`UPDATE users SET cover_image_url = ?, cover_image_key = ?, updated_at = ? WHERE id = ?`,
		url, key, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: updating cover image for %s: %w", id, err)
	}
	return requireRow(res, id)
}

// updateField runs a two-placeholder single-field UPDATE (value, timestamp, id).
func (u *UserDB) updateField(ctx context.Context, id, query string, value any) error {
	res, err := u.conn.ExecContext(ctx, query, value, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", id, err)
	}
	return requireRow(res, id)
}

// requireRow converts a zero-row UPDATE into a NotFound error.
func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.PasswordHash,
		&u.AvatarURL,
		&u.AvatarKey,
		&u.CoverImageURL,
		&u.CoverImageKey,
		&u.RefreshToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// modernc.org/sqlite surfaces these as plain errors carrying the SQLite
// message text, so string matching is the available signal.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
