// internal/core/server/interceptors.go
package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// loggingInterceptor records one line per call.
func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		level := slog.LevelDebug
		if code != codes.OK {
			level = slog.LevelWarn
		}
		attrs := []any{
			"method", info.FullMethod,
			"code", code.String(),
			"duration", time.Since(start),
		}
		if err != nil {
			attrs = append(attrs, "error", status.Convert(err).Message())
		}
		logger.Log(ctx, level, "grpc call", attrs...)
		return resp, err
	}
}

// timeoutInterceptor bounds every call by d unless the caller's deadline
// is earlier.
func timeoutInterceptor(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if d <= 0 {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return handler(ctx, req)
	}
}

// denyMethods rejects the given methods outright. It stands in for the
// authenticator when no HMAC secrets are configured.
func denyMethods(methods ...string) grpc.UnaryServerInterceptor {
	denied := make(map[string]bool, len(methods))
	for _, m := range methods {
		denied[m] = true
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if denied[info.FullMethod] {
			return nil, status.Error(codes.PermissionDenied, "administrative methods are disabled (no XR_HMAC_SECRET configured)")
		}
		return handler(ctx, req)
	}
}
