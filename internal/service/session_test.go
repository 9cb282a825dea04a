package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shossain/streamtube/internal/apperror"
	"github.com/shossain/streamtube/internal/auth"
	"github.com/shossain/streamtube/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository. A hand-written
// fake (not a mock framework) keeps the tests dependency-free and legible.
type fakeUserRepo struct {
	users  map[string]*model.User // keyed by ID
	nextID int

	// set to simulate store failures
	updateErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Username == strings.ToLower(user.Username) || u.Email == user.Email {
			return apperror.Conflict("User with email or username already exists")
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%03d", f.nextID)
	user.Username = strings.ToLower(user.Username)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	for _, u := range f.users {
		if (username != "" && u.Username == strings.ToLower(username)) ||
			(email != "" && u.Email == email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", username+email)
}

func (f *fakeUserRepo) UpdateRefreshToken(ctx context.Context, id, token string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.RefreshToken = token
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) UpdateAccount(ctx context.Context, id, fullName, email string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.FullName, u.Email = fullName, email
	return nil
}

func (f *fakeUserRepo) UpdateAvatar(ctx context.Context, id, url, key string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.AvatarURL, u.AvatarKey = url, key
	return nil
}

func (f *fakeUserRepo) UpdateCoverImage(ctx context.Context, id, url, key string) error {
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.CoverImageURL, u.CoverImageKey = url, key
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTokenService(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService(
		"access-secret-at-least-16-chars",
		"refresh-secret-at-least-16-chars",
		time.Hour, 240*time.Hour,
	)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// newTestSession wires a SessionService with fake storage and fast bcrypt,
// and seeds one user "ray" with password "secret1".
func newTestSession(t *testing.T) (*SessionService, *fakeUserRepo, *model.User) {
	t.Helper()
	repo := newFakeUserRepo()
	passwords := auth.NewPasswordServiceWithCost(bcrypt.MinCost)

	hash, err := passwords.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	seeded := &model.User{
		Username:     "ray",
		Email:        "ray@example.com",
		FullName:     "Ray Lee",
		PasswordHash: hash,
	}
	if err := repo.Create(context.Background(), seeded); err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	svc := NewSessionService(repo, testTokenService(t), passwords, discardLogger())
	return svc, repo, seeded
}

// =========================================================================
// LOGIN TESTS
// =========================================================================

func TestLogin_ByUsername(t *testing.T) {
	svc, repo, seeded := newTestSession(t)

	user, pair, err := svc.Login(context.Background(), LoginInput{Username: "ray", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if user.ID != seeded.ID {
		t.Errorf("user.ID = %q, want %q", user.ID, seeded.ID)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("Login() returned an empty token in the pair")
	}

	// The refresh token handed to the caller must be exactly what was
	// persisted.
	stored, _ := repo.GetByID(context.Background(), seeded.ID)
	if stored.RefreshToken != pair.RefreshToken {
		t.Error("persisted refresh token differs from the returned one")
	}
}

func TestLogin_ByEmail(t *testing.T) {
	svc, _, _ := newTestSession(t)

	_, pair, err := svc.Login(context.Background(), LoginInput{Email: "ray@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if pair == nil {
		t.Fatal("Login() returned nil pair")
	}
}

// Wrong password and unknown user must be indistinguishable.
func TestLogin_NoExistenceLeakage(t *testing.T) {
	svc, _, _ := newTestSession(t)

	_, _, errWrongPassword := svc.Login(context.Background(), LoginInput{Username: "ray", Password: "wrong"})
	_, _, errNoSuchUser := svc.Login(context.Background(), LoginInput{Username: "nobody", Password: "wrong"})

	for name, err := range map[string]error{"wrong password": errWrongPassword, "unknown user": errNoSuchUser} {
		if !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("%s: error = %v, want ErrUnauthorized", name, err)
		}
	}
	if errWrongPassword.Error() != errNoSuchUser.Error() {
		t.Errorf("messages differ: %q vs %q — leaks account existence",
			errWrongPassword.Error(), errNoSuchUser.Error())
	}
}

func TestLogin_MissingFields(t *testing.T) {
	svc, _, _ := newTestSession(t)

	if _, _, err := svc.Login(context.Background(), LoginInput{Password: "secret1"}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Login(no identifier) error = %v, want ErrValidation", err)
	}
	if _, _, err := svc.Login(context.Background(), LoginInput{Username: "ray"}); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Login(no password) error = %v, want ErrValidation", err)
	}
}

// A second login replaces the stored refresh token, killing the first
// session's refresh capability.
func TestLogin_SupersedesPriorSession(t *testing.T) {
	svc, _, _ := newTestSession(t)

	_, first, err := svc.Login(context.Background(), LoginInput{Username: "ray", Password: "secret1"})
	if err != nil {
		t.Fatalf("first Login() error = %v", err)
	}
	if _, _, err := svc.Login(context.Background(), LoginInput{Username: "ray", Password: "secret1"}); err != nil {
		t.Fatalf("second Login() error = %v", err)
	}

	_, err = svc.Refresh(context.Background(), first.RefreshToken)
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Refresh(superseded token) error = %v, want ErrUnauthorized", err)
	}
}

// =========================================================================
// REFRESH ROTATION TESTS
// =========================================================================

func TestRefresh_RotationIsSingleUse(t *testing.T) {
	svc, _, _ := newTestSession(t)

	_, pair, err := svc.Login(context.Background(), LoginInput{Username: "ray", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// First refresh succeeds and rotates.
	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Error("Refresh() did not rotate the refresh token")
	}

	// Replaying the prior token must fail.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("Refresh(replayed) error = %v, want ErrUnauthorized", err)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Message != "Refresh Token is expired or used" {
		t.Errorf("message = %q, want %q", appErr.Message, "Refresh Token is expired or used")
	}

	// The newly issued token works exactly once more.
	if _, err := svc.Refresh(context.Background(), next.RefreshToken); err != nil {
		t.Errorf("Refresh(new token) error = %v", err)
	}
	if _, err := svc.Refresh(context.Background(), next.RefreshToken); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Refresh(new token again) error = %v, want ErrUnauthorized", err)
	}
}

func TestRefresh_EmptyAndGarbageTokens(t *testing.T) {
	svc, _, _ := newTestSession(t)

	if _, err := svc.Refresh(context.Background(), ""); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Refresh(empty) error = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.Refresh(context.Background(), "not.a.jwt"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Refresh(garbage) error = %v, want ErrUnauthorized", err)
	}
}

// A well-formed refresh token whose user no longer exists is rejected.
func TestRefresh_UnknownSubject(t *testing.T) {
	svc, repo, seeded := newTestSession(t)

	_, pair, err := svc.Login(context.Background(), LoginInput{Username: "ray", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	delete(repo.users, seeded.ID)

	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Refresh() error = %v, want ErrUnauthorized", err)
	}
}

// =========================================================================
// LOGOUT TESTS
// =========================================================================

func TestLogout_InvalidatesRefreshToken(t *testing.T) {
	svc, repo, seeded := newTestSession(t)

	_, pair, err := svc.Login(context.Background(), LoginInput{Username: "ray", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := svc.Logout(context.Background(), seeded.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	stored, _ := repo.GetByID(context.Background(), seeded.ID)
	if stored.RefreshToken != "" {
		t.Errorf("stored refresh token = %q after logout, want cleared", stored.RefreshToken)
	}

	// The still-unexpired token must now be rejected.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Refresh(after logout) error = %v, want ErrUnauthorized", err)
	}
}

func TestIssuePair_StoreFailurePropagates(t *testing.T) {
	svc, repo, _ := newTestSession(t)

	repo.updateErr = errors.New("disk on fire")
	_, _, err := svc.Login(context.Background(), LoginInput{Username: "ray", Password: "secret1"})
	if err == nil {
		t.Fatal("Login() should fail when the refresh token cannot be persisted")
	}
	if errors.Is(err, apperror.ErrUnauthorized) {
		t.Error("store failure must not masquerade as ErrUnauthorized")
	}
}
