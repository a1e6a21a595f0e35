package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const DefaultBcryptCost = 12

// HashCredential hashes an API credential for storage in the environment.
func HashCredential(secret string) (string, error) {
	trimmed := strings.TrimSpace(secret)
	if trimmed == "" {
		return "", fmt.Errorf("credential is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(trimmed), DefaultBcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash credential: %w", err)
	}
	return string(hash), nil
}

// VerifyCredential checks a presented secret against a stored bcrypt hash.
func VerifyCredential(secret, hash string) bool {
	trimmedSecret := strings.TrimSpace(secret)
	trimmedHash := strings.TrimSpace(hash)
	if trimmedSecret == "" || trimmedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(trimmedHash), []byte(trimmedSecret)) == nil
}

// NormalizeUser lowercases and trims an API user name.
func NormalizeUser(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
