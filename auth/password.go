package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier checks a presented secret against a stored verifier.
type CredentialVerifier interface {
	Verify(presented, stored string) bool
}

// BcryptVerifier hashes and verifies passwords with bcrypt.
type BcryptVerifier struct {
	cost int
}

// NewBcryptVerifier creates a verifier that hashes at cost.
// Costs outside bcrypt's accepted range fall back to bcrypt.DefaultCost.
func NewBcryptVerifier(cost int) *BcryptVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptVerifier{cost: cost}
}

// Cost returns the work factor used by Hash
func (v *BcryptVerifier) Cost() int {
	return v.cost
}

// Verify reports whether presented matches the stored bcrypt hash.
// A malformed stored hash is treated as a mismatch.
func (v *BcryptVerifier) Verify(presented, stored string) bool {
	if stored == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(presented)) == nil
}

// Hash returns the bcrypt encoding of secret.
func (v *BcryptVerifier) Hash(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), v.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
