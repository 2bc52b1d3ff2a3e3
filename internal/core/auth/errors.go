// internal/core/auth/errors.go
package auth

import "errors"

// Missing, malformed and unknown keys all map to Unauthenticated so a caller
// cannot probe which keys exist; a revoked key maps to PermissionDenied.
var (
	ErrMissingKey       = errors.New("API key required in x-api-key metadata")
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	ErrUnknownKey       = errors.New("unknown secret ID")
	ErrInvalidKey       = errors.New("invalid API key")
	ErrKeyRevoked       = errors.New("API key has been revoked")
	ErrKeyStore         = errors.New("api key store unavailable")
)
