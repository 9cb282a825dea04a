package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// newTestPasswordService returns a PasswordService with bcrypt cost 4 (the
// library minimum), so each hash takes milliseconds instead of ~250ms.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceWithCost(bcrypt.MinCost)
}

// =========================================================================
// Hash TESTS
// =========================================================================

func TestHash_OutputLooksBcrypt(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	// bcrypt hashes always start with $2a$ or $2b$
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
}

func TestHash_SamePasswordProducesDifferentHashes(t *testing.T) {
	ps := newTestPasswordService()

	// The salt is random per hash; identical outputs would mean rainbow
	// tables work again.
	hash1, _ := ps.Hash("same-password")
	hash2, _ := ps.Hash("same-password")
	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password")
	}
}

func TestHash_RejectsPasswordOver72Bytes(t *testing.T) {
	ps := newTestPasswordService()

	if _, err := ps.Hash(strings.Repeat("a", 73)); err == nil {
		t.Fatal("Hash() should return an error for passwords longer than 72 bytes")
	}
}

// =========================================================================
// Verify TESTS
// =========================================================================

func TestVerify_CorrectPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if err := ps.Verify(hash, "correct horse battery staple"); err != nil {
		t.Errorf("Verify() error = %v for the correct password", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	ps := newTestPasswordService()

	hash, _ := ps.Hash("secret1")
	if err := ps.Verify(hash, "wrong"); err == nil {
		t.Error("Verify() should fail for a wrong password")
	}
}

func TestVerify_MalformedStoredHash(t *testing.T) {
	ps := newTestPasswordService()

	// A corrupted stored hash must be a verification failure, not a panic.
	for _, bad := range []string{"", "not-a-hash", "$2a$garbage"} {
		if err := ps.Verify(bad, "anything"); err == nil {
			t.Errorf("Verify() accepted a malformed stored hash %q", bad)
		}
	}
}
