// internal/types/errors.go
package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for rewrite engine operations.
var (
	// ErrMalformedRule indicates a raw rule string does not have the
	// "<pattern>":"<replacement>" shape or its pattern does not compile.
	ErrMalformedRule = errors.New("malformed xpath replacement rule")

	// ErrEmptyRule indicates an empty raw rule string.
	ErrEmptyRule = fmt.Errorf("%w: empty rule", ErrMalformedRule)

	// ErrInvalidPattern indicates the pattern segment is not a valid regular expression.
	ErrInvalidPattern = fmt.Errorf("%w: invalid pattern", ErrMalformedRule)

	// ErrRuleTooLong indicates a raw rule exceeds MaxRuleLength.
	ErrRuleTooLong = fmt.Errorf("%w: rule exceeds maximum length", ErrMalformedRule)

	// ErrUnsupportedPredicate indicates a predicate shape the translator does not rewrite.
	ErrUnsupportedPredicate = errors.New("unsupported predicate")

	// ErrRewriteFailed indicates a query request could not be rewritten.
	ErrRewriteFailed = errors.New("query rewrite failed")

	// ErrNilFilter indicates a nil node inside a filter tree.
	ErrNilFilter = errors.New("nil filter node")

	// ErrUnknownFilter indicates a filter node type outside the known set.
	ErrUnknownFilter = errors.New("unknown filter node")

	// ErrMalformedFilter indicates a filter payload that does not decode into a tree.
	ErrMalformedFilter = errors.New("malformed filter")

	// ErrFilterTooDeep indicates a filter tree nested beyond MaxFilterDepth.
	ErrFilterTooDeep = fmt.Errorf("%w: nesting exceeds maximum depth", ErrMalformedFilter)

	// ErrInvalidGeometry indicates a spatial literal is not well-known text.
	ErrInvalidGeometry = fmt.Errorf("%w: invalid WKT geometry", ErrMalformedFilter)

	// ErrRuleNotFound indicates a stored rule id does not exist.
	ErrRuleNotFound = errors.New("rule not found")
)

// UnsupportedPredicateError identifies the predicate kind and argument types
// the translator refused to rewrite.
type UnsupportedPredicateError struct {
	Kind   string // predicate kind, e.g. "greaterThan"
	Detail string // argument types, e.g. "(attribute, text)"
}

func (e *UnsupportedPredicateError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", ErrUnsupportedPredicate, e.Kind)
	}
	return fmt.Sprintf("%s: %s%s", ErrUnsupportedPredicate, e.Kind, e.Detail)
}

// Is reports ErrUnsupportedPredicate so callers can use errors.Is.
func (e *UnsupportedPredicateError) Is(target error) bool {
	return target == ErrUnsupportedPredicate
}

// Unsupported builds an UnsupportedPredicateError.
func Unsupported(kind, detail string) error {
	return &UnsupportedPredicateError{Kind: kind, Detail: detail}
}
