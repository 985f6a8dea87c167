// Package auth holds the API token helpers used by the controller.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// HashKey returns the hex SHA-256 of the trimmed key.
func HashKey(key string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(hash[:])
}

// TokenMatches reports whether token hashes to expectedHash, comparing in
// constant time. An empty expectedHash never matches.
func TokenMatches(token, expectedHash string) bool {
	if expectedHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashKey(token)), []byte(expectedHash)) == 1
}
