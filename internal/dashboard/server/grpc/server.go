// Package grpc serves the standard gRPC health protocol for the engine, so
// orchestrators and grpc_health_probe can tell whether ticks are running.
package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"k8s.io/apimachinery/pkg/util/wait"

	grpcmw "github.com/autopeer-io/ridertrack/internal/pkg/middleware/grpc"
	"github.com/autopeer-io/ridertrack/pkg/log"
	"github.com/autopeer-io/ridertrack/pkg/options"
)

// EngineService is the health service name reported for the tick engine.
const EngineService = "ridertrack.fleet.Engine"

// Fleet reports whether the tick loop is running.
type Fleet interface {
	Running() bool
}

type Server struct {
	server   *grpc.Server
	health   *health.Server
	fleet    Fleet
	options  *options.GrpcOptions
	interval time.Duration
	log      log.Logger
}

func NewServer(opts *options.GrpcOptions, fleet Fleet, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus(EngineService, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s) // Enable grpc_cli support

	return &Server{
		server:   s,
		health:   hs,
		fleet:    fleet,
		options:  opts,
		interval: opts.ProbeInterval,
		log:      logger,
	}
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen(s.options.Network, s.options.Addr)
	if err != nil {
		return err
	}
	s.log.Info("Starting gRPC Server", "addr", lis.Addr().String())
	return s.serve(ctx, lis)
}

func (s *Server) serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	interval := s.interval
	if interval <= 0 {
		interval = time.Second
	}
	go wait.UntilWithContext(ctx, s.probe, interval)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.health.Shutdown()
		s.server.GracefulStop()
		return nil
	}
}

func (s *Server) probe(context.Context) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if s.fleet.Running() {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(EngineService, status)
}

// Check asks the health service at addr for the engine status. Calls without
// a deadline are bounded by timeout.
func Check(ctx context.Context, addr string, timeout time.Duration, dialOpts ...grpc.DialOption) (healthpb.HealthCheckResponse_ServingStatus, error) {
	dialOpts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(grpcmw.UnaryTimeout(timeout)),
	}, dialOpts...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: EngineService})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}
