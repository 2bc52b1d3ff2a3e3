// internal/core/auth/auth.go

// Package auth guards the administrative gRPC methods with HMAC API keys.
//
// Keys look like xr-v1-<secret_id>-<random>. The secret_id selects one of
// the XR_HMAC_SECRET values; the database stores only HMAC-SHA256 of the
// key under that secret, bound to the operator who owns it.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const operatorIDKey = contextKey("operator_id")

// lastUsedThrottle bounds how often a busy key rewrites last_used_at.
const lastUsedThrottle = time.Minute

// Queries is the slice of *db.Queries the authenticator needs.
type Queries interface {
	Get(name string, dest interface{}, args ...interface{}) error
	Exec(name string, args ...interface{}) (sql.Result, error)
}

// Authenticator checks API keys and guards a fixed set of gRPC methods.
type Authenticator struct {
	secrets   map[string][]byte
	queries   Queries
	protected map[string]bool
	now       func() time.Time
}

// NewAuthenticator creates an authenticator that requires a key on each of
// the protected full method names. Other methods pass through.
func NewAuthenticator(secrets map[string][]byte, queries Queries, protected ...string) *Authenticator {
	p := make(map[string]bool, len(protected))
	for _, m := range protected {
		p[m] = true
	}
	return &Authenticator{
		secrets:   secrets,
		queries:   queries,
		protected: p,
		now:       time.Now,
	}
}

// Authenticate validates apiKey and returns the owning operator id.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (string, error) {
	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	secret, ok := a.secrets[secretID]
	if !ok {
		return "", ErrUnknownKey
	}

	var record struct {
		APIKeyID   string       `db:"api_key_id"`
		OperatorID string       `db:"operator_id"`
		RevokedAt  sql.NullTime `db:"revoked_at"`
		LastUsedAt sql.NullTime `db:"last_used_at"`
	}

	err = a.queries.Get("get-api-key-by-hash", &record, ComputeHMAC(secret, apiKey))
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidKey
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrKeyStore, err)
	}

	if record.RevokedAt.Valid {
		return "", ErrKeyRevoked
	}

	if a.shouldUpdateLastUsed(record.LastUsedAt) {
		// Best effort; a failed touch does not fail the request.
		_, _ = a.queries.Exec("update-last-used", a.now().UTC(), record.APIKeyID)
	}

	return record.OperatorID, nil
}

func (a *Authenticator) shouldUpdateLastUsed(lastUsed sql.NullTime) bool {
	if !lastUsed.Valid {
		return true
	}
	return a.now().Sub(lastUsed.Time) > lastUsedThrottle
}

// Protects reports whether fullMethod requires a key.
func (a *Authenticator) Protects(fullMethod string) bool {
	return a.protected[fullMethod]
}

// UnaryInterceptor authenticates protected methods and stores the operator
// id in the handler context.
func (a *Authenticator) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !a.Protects(info.FullMethod) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}
		apiKeys := md.Get("x-api-key")
		if len(apiKeys) == 0 {
			return nil, status.Error(codes.Unauthenticated, ErrMissingKey.Error())
		}

		operatorID, err := a.Authenticate(ctx, apiKeys[0])
		if err != nil {
			return nil, status.Error(statusCode(err), err.Error())
		}

		return handler(WithOperatorID(ctx, operatorID), req)
	}
}

func statusCode(err error) codes.Code {
	switch {
	case errors.Is(err, ErrKeyRevoked):
		return codes.PermissionDenied
	case errors.Is(err, ErrKeyStore):
		return codes.Unavailable
	default:
		return codes.Unauthenticated
	}
}

// WithOperatorID returns ctx carrying operatorID.
func WithOperatorID(ctx context.Context, operatorID string) context.Context {
	return context.WithValue(ctx, operatorIDKey, operatorID)
}

// OperatorIDFromContext returns the authenticated operator, or "" when the
// request was not authenticated.
func OperatorIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(operatorIDKey).(string); ok {
		return id
	}
	return ""
}
