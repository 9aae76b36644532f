package grpc

import (
	"context"
	"fmt"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"clinic-service/internal/observability"
)

// Services reported by the health endpoint besides the overall "" entry.
const (
	ChatService  = "clinic.chat"
	QueueService = "clinic.queue"
)

// Checker probes a dependency. A nil error means serving.
type Checker func(ctx context.Context) error

// HealthServer exposes grpc.health.v1 for the clinic service.
type HealthServer struct {
	server   *grpclib.Server
	health   *health.Server
	checkers map[string]Checker
}

// NewHealthServer builds a gRPC server with tracing and metrics interceptors
// and registers the health service on it.
func NewHealthServer(checkers map[string]Checker) *HealthServer {
	srv := grpclib.NewServer(
		grpclib.StatsHandler(otelgrpc.NewServerHandler()),
		grpclib.ChainUnaryInterceptor(observability.GRPCServerMetricsUnaryInterceptor()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	h := &HealthServer{server: srv, health: hs, checkers: checkers}
	for name := range checkers {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return h
}

// Refresh runs every checker and publishes the result. The overall status is
// serving only when every checker passes.
func (h *HealthServer) Refresh(ctx context.Context) {
	overall := healthpb.HealthCheckResponse_SERVING
	for name, check := range h.checkers {
		status := healthpb.HealthCheckResponse_SERVING
		if err := check(ctx); err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			overall = healthpb.HealthCheckResponse_NOT_SERVING
			zap.S().Warnw("health check failed", "service", name, "error", err)
		}
		h.health.SetServingStatus(name, status)
	}
	h.health.SetServingStatus("", overall)
}

// Serve blocks serving on addr until Stop is called.
func (h *HealthServer) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen grpc %s: %w", addr, err)
	}
	zap.S().Infow("grpc health server listening", "addr", addr)
	return h.server.Serve(lis)
}

// Stop marks every service as not serving and drains the server.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
