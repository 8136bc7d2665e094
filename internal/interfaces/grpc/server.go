// Package grpc exposes the gRPC health endpoint that orchestration
// platforms probe for liveness and readiness.  Servers start in
// NOT_SERVING state and flip to SERVING only after their backing
// infrastructure is connected.
package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"

	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

const defaultGracefulTimeout = 10 * time.Second

var defaultKeepaliveParams = keepalive.ServerParameters{
	MaxConnectionIdle:     15 * time.Minute,
	MaxConnectionAge:      30 * time.Minute,
	MaxConnectionAgeGrace: 5 * time.Second,
	Time:                  5 * time.Minute,
	Timeout:               1 * time.Second,
}

// HealthServer serves grpc_health_v1 on a dedicated port.
type HealthServer struct {
	grpcServer      *grpc.Server
	health          *health.Server
	listener        net.Listener
	logger          logging.Logger
	gracefulTimeout time.Duration
}

// NewHealthServer binds the health service to the given port.  Port zero
// selects a free port; the bound address is available through Addr.
func NewHealthServer(port int, logger logging.Logger) (*HealthServer, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeInternal, "failed to listen on port %d", port)
	}

	srv := grpc.NewServer(grpc.KeepaliveParams(defaultKeepaliveParams))
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return &HealthServer{
		grpcServer:      srv,
		health:          hs,
		listener:        lis,
		logger:          logger.Named("grpc_health"),
		gracefulTimeout: defaultGracefulTimeout,
	}, nil
}

// SetReady flips the overall serving status reported to health checks.
func (s *HealthServer) SetReady(ready bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Start serves health checks until Stop is called or the listener fails.
func (s *HealthServer) Start() error {
	s.logger.Info("grpc health server listening",
		logging.String("addr", s.listener.Addr().String()))
	if err := s.grpcServer.Serve(s.listener); err != nil && err != grpc.ErrServerStopped {
		return errors.Wrap(err, errors.ErrCodeInternal, "grpc health server failed")
	}
	return nil
}

// Stop announces NOT_SERVING, then drains connections gracefully.  When the
// graceful stop outlasts the timeout or ctx, the server is stopped hard.
func (s *HealthServer) Stop(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("grpc health server stopped")
	case <-time.After(s.gracefulTimeout):
		s.logger.Warn("graceful stop timed out, forcing shutdown")
		s.grpcServer.Stop()
	case <-ctx.Done():
		s.grpcServer.Stop()
	}
}

// Addr returns the bound listen address.
func (s *HealthServer) Addr() string {
	return s.listener.Addr().String()
}
