// internal/core/db/apikeys.go
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/solatis/xpathrewriter/internal/types"
)

// APIKeyStore writes administrative API key records. Lookups during
// authentication go through Queries directly (see auth.Authenticator).
type APIKeyStore struct {
	queries *Queries
	now     func() time.Time
}

// NewAPIKeyStore creates a store over loaded queries.
func NewAPIKeyStore(queries *Queries) (*APIKeyStore, error) {
	if queries == nil {
		return nil, fmt.Errorf("queries cannot be nil")
	}
	return &APIKeyStore{queries: queries, now: time.Now}, nil
}

// Create stores the HMAC of a new key for operatorID.
func (s *APIKeyStore) Create(ctx context.Context, operatorID string, keyHash []byte) (*types.APIKey, error) {
	if operatorID == "" {
		return nil, fmt.Errorf("operator id cannot be empty")
	}
	key := &types.APIKey{
		APIKeyID:   types.NewAPIKeyID(),
		OperatorID: operatorID,
		KeyHash:    keyHash,
		CreatedAt:  s.now().UTC(),
	}
	if _, err := s.queries.ExecContext(ctx, "insert-api-key",
		key.APIKeyID, key.OperatorID, key.KeyHash, key.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert api key: %w", err)
	}
	return key, nil
}

// Revoke marks a key revoked. Revoking an unknown or already revoked key
// is an error.
func (s *APIKeyStore) Revoke(ctx context.Context, apiKeyID string) error {
	res, err := s.queries.ExecContext(ctx, "revoke-api-key", s.now().UTC(), apiKeyID)
	if err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("api key %s not found or already revoked", apiKeyID)
	}
	return nil
}
