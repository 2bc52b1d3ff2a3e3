// internal/core/auth/hmac.go
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	keyPrefix     = "xr"
	keyVersion    = "v1"
	secretIDLen   = 32 // hex of a UUIDv7 without hyphens
	randomDataLen = 64 // hex of 256 random bits
)

// ParseAPIKey splits an xr-v1-<secret_id>-<random_data> key.
func ParseAPIKey(key string) (secretID, randomData string, err error) {
	parts := strings.Split(key, "-")
	if len(parts) != 4 || parts[0] != keyPrefix || parts[1] != keyVersion {
		return "", "", ErrInvalidKeyFormat
	}

	secretID, randomData = parts[2], parts[3]
	if len(secretID) != secretIDLen || len(randomData) != randomDataLen {
		return "", "", ErrInvalidKeyFormat
	}
	if !isLowerHex(secretID) || !isLowerHex(randomData) {
		return "", "", ErrInvalidKeyFormat
	}

	return secretID, randomData, nil
}

func isLowerHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// ComputeHMAC returns HMAC-SHA256 of apiKey under secret. Only this hash
// is stored.
func ComputeHMAC(secret []byte, apiKey string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(apiKey))
	return h.Sum(nil)
}

// VerifyHMAC compares two hashes in constant time.
func VerifyHMAC(expectedHash, computedHash []byte) bool {
	return hmac.Equal(expectedHash, computedHash)
}

// FormatAPIKey assembles a key from its parts.
func FormatAPIKey(secretID, randomData string) string {
	return fmt.Sprintf("%s-%s-%s-%s", keyPrefix, keyVersion, secretID, randomData)
}

// GenerateAPIKey creates a new key bound to secretID and returns it with
// the hash to store. The key itself is shown once and never persisted.
func GenerateAPIKey(secretID string, secret []byte) (apiKey string, keyHash []byte, err error) {
	if len(secretID) != secretIDLen || !isLowerHex(secretID) {
		return "", nil, fmt.Errorf("secret_id must be %d lowercase hex chars", secretIDLen)
	}

	random := make([]byte, randomDataLen/2)
	if _, err := rand.Read(random); err != nil {
		return "", nil, fmt.Errorf("failed to read random bytes: %w", err)
	}

	apiKey = FormatAPIKey(secretID, hex.EncodeToString(random))
	return apiKey, ComputeHMAC(secret, apiKey), nil
}
