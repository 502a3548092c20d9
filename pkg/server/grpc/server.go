// Package grpc_server exposes the standard grpc.health.v1 service so
// orchestrators can probe readiness over gRPC.
package grpc_server

import (
	"context"
	"net"
	"sync/atomic"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const _defaultAddr = ":9090"

type Option func(*Server)

// Port sets the listen port; "0" picks a free one.
func Port(port string) Option {
	return func(s *Server) {
		s.address = net.JoinHostPort("", port)
	}
}

type Server struct {
	server *grpc.Server
	health *health.Server
	notify chan error

	address string
	bound   atomic.Value // string
}

func New(opts ...Option) *Server {
	s := &Server{
		notify:  make(chan error, 1),
		address: _defaultAddr,
		health:  health.NewServer(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = grpc.NewServer()
	healthpb.RegisterHealthServer(s.server, s.health)
	s.SetServing(false)
	return s
}

// Start -.
func (s *Server) Start() {
	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		s.notify <- err
		close(s.notify)
		return
	}
	s.bound.Store(ln.Addr().String())
	zap.L().Info("gRPC server listening", zap.String("address", s.Addr()))

	go func() {
		if err := s.server.Serve(ln); err != nil {
			s.notify <- err
		}
		close(s.notify)
	}()
}

// Addr is the bound address, empty until Start succeeded.
func (s *Server) Addr() string {
	addr, _ := s.bound.Load().(string)
	return addr
}

// SetServing updates the overall ("") health status.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Notify -.
func (s *Server) Notify() <-chan error {
	return s.notify
}

// Shutdown drains in-flight RPCs and forces the stop once ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return ctx.Err()
	}
}
