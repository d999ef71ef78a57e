package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// GenerateSecureToken creates a cryptographically secure random token.
// Returns a base64 URL-encoded string suitable for use as OAuth state
// parameters, attempt IDs, etc.
func GenerateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// HashAdminToken hashes an admin bearer token using bcrypt.
// This should be used before storing the token in config.
func HashAdminToken(token string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
}

// VerifyAdminToken compares a presented admin token against its bcrypt hash.
func VerifyAdminToken(hash []byte, token string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(token)) == nil
}
