// Package auth provides password hashing, JWT issuance/validation, and the
// HTTP middleware that guards protected routes.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, which is the point: a stolen database of
// hashes is expensive to brute-force. It also generates and embeds a random
// salt per hash, so no separate salt column is needed and two users with
// the same password get different hashes.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly ~250ms on a
// modern server — negligible for a login, brutal for an attacker.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so the cost can be injected in tests:
// cost 4 makes each hash take milliseconds instead of ~250ms.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost creates a PasswordService with a custom cost.
// Use bcrypt.MinCost (4) in tests; never in production.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt. The output embeds
// the salt and cost, so it is stored directly as the user's password_hash.
//
// Returns an error for plaintexts over 72 bytes — bcrypt silently truncates
// beyond that, so we reject instead.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil on match. A malformed stored hash is a verification failure,
// never a panic — bcrypt reports it as an error and we fold it into the
// same mismatch result, so callers can't distinguish the two.
//
// bcrypt.CompareHashAndPassword compares in constant time, so response
// timing doesn't reveal how close a guess was.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		// Malformed hash, wrong version prefix, etc. Same outcome for the caller.
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
