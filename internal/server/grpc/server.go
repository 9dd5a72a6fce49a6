// Package grpc serves the standard grpc.health.v1 service so orchestrators
// can probe whether plantops can reach its stores.
package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/plantops/internal/logging"
)

const (
	defaultProbeInterval = 15 * time.Second
	probeTimeout         = 3 * time.Second
)

// Probe checks one dependency; a nil error means it is reachable.
type Probe func(ctx context.Context) error

type GRPCServer struct {
	address       string
	logger        logging.Logger
	health        *health.Server
	probes        map[string]Probe
	probeInterval time.Duration
}

// NewGRPCServer builds a health server. Each probe is exposed as its own
// service name; the empty service name reports the aggregate.
func NewGRPCServer(address string, l logging.Logger, probes map[string]Probe) *GRPCServer {
	return &GRPCServer{
		address:       address,
		logger:        l.With("module", "grpc_server"),
		health:        health.NewServer(),
		probes:        probes,
		probeInterval: defaultProbeInterval,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)
	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(s.logger)))
	healthpb.RegisterHealthServer(srv, s.health)

	s.refresh(ctx)

	go func() {
		ticker := time.NewTicker(s.probeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info(ctx, "Stopping gRPC server...")
				s.health.Shutdown()
				srv.GracefulStop()
				return
			case <-ticker.C:
				s.refresh(ctx)
			}
		}
	}()

	return srv.Serve(listen)
}

// refresh runs every probe and publishes the resulting statuses.
func (s *GRPCServer) refresh(ctx context.Context) {
	overall := healthpb.HealthCheckResponse_SERVING

	for name, probe := range s.probes {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := probe(pctx)
		cancel()

		st := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			overall = st
			s.logger.Warn(ctx, "health probe failed", "probe", name, "error", err)
		}
		s.health.SetServingStatus(name, st)
	}

	s.health.SetServingStatus("", overall)
}
