// internal/types/rules.go
package types

import "time"

/*
 * Domain types for stored XPath replacement rules.
 *
 * StoredRule is the persisted form of one raw rule string. Compilation into a
 * matcher happens in internal/rules; this package only carries the record so
 * the db and api packages can share it without importing the compiler.
 *
 * Key types:
 *   - StoredRule: raw expression plus ordering and lifecycle fields
 *   - APIKey: administrative credential record
 */

// StoredRule is one persisted raw rule string.
type StoredRule struct {
	RuleID     RuleID    `db:"rule_id" json:"rule_id"`
	Position   int       `db:"position" json:"position"`     // table order, ascending
	Expression string    `db:"expression" json:"expression"` // "<pattern>":"<replacement>"
	Enabled    bool      `db:"enabled" json:"enabled"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// APIKey is an administrative credential. Only the HMAC of the key is stored.
type APIKey struct {
	APIKeyID   string     `db:"api_key_id"`
	OperatorID string     `db:"operator_id"`
	KeyHash    []byte     `db:"key_hash"`
	CreatedAt  time.Time  `db:"created_at"`
	LastUsedAt *time.Time `db:"last_used_at"`
	RevokedAt  *time.Time `db:"revoked_at"`
}
