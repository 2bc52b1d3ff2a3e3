// Package types provides domain models shared across the rewriter components.
//
// Zero-dependency design: types.go, rules.go and errors.go use only the
// standard library so the filter and rules packages stay light. ID utilities
// in ids.go import uuid but are isolated from the core.
package types

import "time"

// Limits enforced on rule ingestion and request decoding.
const (
	// MaxRuleLength bounds a raw rule string. 4KB fits long namespaced
	// XPath alternations without letting a config entry compile into a
	// pathological automaton.
	MaxRuleLength = 4 * 1024

	// MaxRules bounds the active rule table. Lookup is a linear scan per
	// XPath node, so the table must stay small.
	MaxRules = 10000

	// MaxFilterDepth bounds nesting of filter trees decoded from untrusted
	// JSON. Trees built in process are not bounded.
	MaxFilterDepth = 64
)

// DefaultRequestTimeout is the default server.request_timeout.
const DefaultRequestTimeout = 30 * time.Second
