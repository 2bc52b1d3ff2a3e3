// internal/core/server/grpc.go

// Package server runs the rewrite service on a gRPC server with health
// reporting, request deadlines and admin authentication.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/solatis/xpathrewriter/internal/core/api"
	"github.com/solatis/xpathrewriter/internal/core/auth"
	"github.com/solatis/xpathrewriter/internal/core/config"
)

const shutdownGrace = 30 * time.Second

// GRPCServer owns the grpc.Server and its listener.
type GRPCServer struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	config   config.ServerConfig
	logger   *slog.Logger
}

// NewGRPCServer builds the server and registers the rewrite and health
// services. A nil authenticator leaves the admin methods closed.
func NewGRPCServer(cfg config.ServerConfig, service api.RewriteServer, authenticator *auth.Authenticator, logger *slog.Logger) (*GRPCServer, error) {
	if service == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	guard := denyMethods(api.AdminMethods()...)
	if authenticator != nil {
		guard = authenticator.UnaryInterceptor()
	}

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			loggingInterceptor(logger),
			timeoutInterceptor(cfg.RequestTimeout),
			guard,
		),
	}
	if cfg.MaxMessageSize > 0 {
		opts = append(opts,
			grpc.MaxRecvMsgSize(cfg.MaxMessageSize),
			grpc.MaxSendMsgSize(cfg.MaxMessageSize),
		)
	}

	server := grpc.NewServer(opts...)
	api.RegisterRewriteServer(server, service)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(api.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return &GRPCServer{
		server: server,
		health: healthServer,
		config: cfg,
		logger: logger,
	}, nil
}

// Start binds the configured address and serves until Shutdown.
func (s *GRPCServer) Start(ctx context.Context) error {
	addr := s.config.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener until Shutdown.
func (s *GRPCServer) Serve(listener net.Listener) error {
	s.listener = listener
	s.logger.Info("grpc server listening", "addr", listener.Addr().String())
	return s.server.Serve(listener)
}

// Shutdown marks the service NOT_SERVING, then stops gracefully, forcing a
// stop when ctx ends or the grace period runs out.
func (s *GRPCServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return fmt.Errorf("shutdown cancelled by context: %w", ctx.Err())
	case <-time.After(shutdownGrace):
		s.server.Stop()
		return fmt.Errorf("graceful shutdown timeout, forced stop")
	}
}
