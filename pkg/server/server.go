package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	grpc_server "github.com/duccv/movie-rating-api/pkg/server/grpc"
	http_server "github.com/duccv/movie-rating-api/pkg/server/http"
)

const healthProbeInterval = 10 * time.Second

type HealthChecker interface {
	Healthy(ctx context.Context) error
}

// Servers groups what Serve runs. GRPC may be nil.
type Servers struct {
	HTTP            *http_server.Server
	GRPC            *grpc_server.Server
	Health          HealthChecker
	ShutdownTimeout time.Duration
}

// Serve starts the servers and blocks until ctx is cancelled or a server
// fails, then shuts both down within ShutdownTimeout.
func Serve(ctx context.Context, s Servers) error {
	s.HTTP.Start()

	var grpcNotify <-chan error
	if s.GRPC != nil {
		s.GRPC.Start()
		grpcNotify = s.GRPC.Notify()

		probeCtx, stopProbe := context.WithCancel(ctx)
		defer stopProbe()
		go watchHealth(probeCtx, s.GRPC, s.Health)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		zap.L().Info("Shutdown signal received")
	case err, ok := <-s.HTTP.Notify():
		if ok {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	case err, ok := <-grpcNotify:
		if ok {
			serveErr = fmt.Errorf("grpc server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.ShutdownTimeout)
	defer cancel()

	var errs []error
	if serveErr != nil {
		errs = append(errs, serveErr)
	}
	if err := s.HTTP.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if s.GRPC != nil {
		if err := s.GRPC.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("grpc shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// watchHealth mirrors the database health into the gRPC health service.
func watchHealth(ctx context.Context, grpc *grpc_server.Server, checker HealthChecker) {
	probe := func() {
		err := checker.Healthy(ctx)
		if err != nil && ctx.Err() == nil {
			zap.L().Warn("Health probe failed", zap.Error(err))
		}
		grpc.SetServing(err == nil)
	}

	probe()
	ticker := time.NewTicker(healthProbeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}
