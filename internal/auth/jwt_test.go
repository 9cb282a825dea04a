package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// newTestTokenService creates a TokenService with fixed, known secrets so
// tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(
		"access-secret-at-least-16-chars",
		"refresh-secret-at-least-16-chars",
		time.Hour,
		240*time.Hour,
	)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

// =========================================================================
// CONSTRUCTION TESTS
// =========================================================================

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short", "refresh-secret-at-least-16-chars", time.Hour, time.Hour)
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestNewTokenService_IdenticalSecrets(t *testing.T) {
	same := "identical-secret-16-chars-plus"
	_, err := NewTokenService(same, same, time.Hour, time.Hour)
	if err == nil {
		t.Fatal("NewTokenService() should reject identical access and refresh secrets")
	}
}

func TestNewTokenService_NonPositiveTTL(t *testing.T) {
	_, err := NewTokenService(
		"access-secret-at-least-16-chars",
		"refresh-secret-at-least-16-chars",
		0, time.Hour,
	)
	if err == nil {
		t.Fatal("NewTokenService() should reject a zero access TTL")
	}
}

// =========================================================================
// ISSUE TESTS
// =========================================================================

func TestIssueAccessToken_LooksLikeJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.IssueAccessToken("user-123")
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}
	// header.payload.signature
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("IssueAccessToken() token has %d dot-separated parts, want 3", len(parts))
	}
}

func TestIssue_DifferentUsersGetDifferentTokens(t *testing.T) {
	ts := newTestTokenService(t)

	t1, _ := ts.IssueAccessToken("user-aaa")
	t2, _ := ts.IssueAccessToken("user-bbb")
	if t1 == t2 {
		t.Error("identical tokens issued for different user IDs")
	}
}

// =========================================================================
// VALIDATE TESTS
// =========================================================================

func TestValidateAccess_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)
	userID := "user-abc-123"

	token, err := ts.IssueAccessToken(userID)
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	got, err := ts.ValidateAccess(token)
	if err != nil {
		t.Fatalf("ValidateAccess() error = %v", err)
	}
	if got != userID {
		t.Errorf("ValidateAccess() userID = %q, want %q", got, userID)
	}
}

func TestValidateRefresh_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.IssueRefreshToken("user-xyz")
	if err != nil {
		t.Fatalf("IssueRefreshToken() error = %v", err)
	}

	got, err := ts.ValidateRefresh(token)
	if err != nil {
		t.Fatalf("ValidateRefresh() error = %v", err)
	}
	if got != "user-xyz" {
		t.Errorf("ValidateRefresh() userID = %q, want %q", got, "user-xyz")
	}
}

// The core cross-kind guarantee: a token signed with one secret must never
// validate against the other kind.
func TestValidate_KindsAreNotInterchangeable(t *testing.T) {
	ts := newTestTokenService(t)

	access, _ := ts.IssueAccessToken("user-123")
	refresh, _ := ts.IssueRefreshToken("user-123")

	if _, err := ts.ValidateRefresh(access); err == nil {
		t.Error("ValidateRefresh() accepted an access token")
	}
	if _, err := ts.ValidateAccess(refresh); err == nil {
		t.Error("ValidateAccess() accepted a refresh token")
	}
}

func TestValidateAccess_Expired(t *testing.T) {
	ts, err := NewTokenService(
		"access-secret-at-least-16-chars",
		"refresh-secret-at-least-16-chars",
		time.Nanosecond,
		240*time.Hour,
	)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, err := ts.IssueAccessToken("user-123")
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	_, err = ts.ValidateAccess(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("ValidateAccess() error = %v, want ErrTokenExpired", err)
	}
}

func TestValidateAccess_Tampered(t *testing.T) {
	ts := newTestTokenService(t)

	token, _ := ts.IssueAccessToken("user-123")

	// Flip a character in the signature segment.
	tampered := token[:len(token)-2] + "xx"
	_, err := ts.ValidateAccess(tampered)
	if !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("ValidateAccess() error = %v, want ErrTokenMalformed", err)
	}
}

func TestValidateAccess_Garbage(t *testing.T) {
	ts := newTestTokenService(t)

	for _, bad := range []string{"", "not-a-jwt", "a.b", "a.b.c.d"} {
		if _, err := ts.ValidateAccess(bad); !errors.Is(err, ErrTokenMalformed) {
			t.Errorf("ValidateAccess(%q) error = %v, want ErrTokenMalformed", bad, err)
		}
	}
}
