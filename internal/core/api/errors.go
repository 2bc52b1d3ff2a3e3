// internal/core/api/errors.go
package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/xpathrewriter/internal/types"
)

// statusFromError maps engine and storage errors onto gRPC codes.
// Authentication errors are mapped by the auth interceptor.
func statusFromError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var code codes.Code
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return status.FromContextError(err).Err()
	case errors.Is(err, types.ErrMalformedFilter), errors.Is(err, types.ErrMalformedRule):
		code = codes.InvalidArgument
	case errors.Is(err, types.ErrRewriteFailed), errors.Is(err, types.ErrUnsupportedPredicate):
		code = codes.FailedPrecondition
	case errors.Is(err, types.ErrRuleNotFound):
		code = codes.NotFound
	default:
		code = codes.Unavailable
	}
	return status.Error(code, err.Error())
}

func invalidArgument(err error) error {
	return status.Error(codes.InvalidArgument, err.Error())
}
