package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/example/foodhub/pkg/config"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const probeTimeout = 2 * time.Second

// Prober is a backing store whose reachability is reported over gRPC health.
type Prober interface {
	Ping(ctx context.Context) error
}

// HealthServer serves grpc.health.v1 on the admin port. Each prober is a
// named service; the empty service name is SERVING only while all are up.
type HealthServer struct {
	config   *config.GRPCConfig
	logger   *zap.Logger
	probes   map[string]Prober
	server   *grpc.Server
	health   *health.Server
	stopOnce sync.Once
	done     chan struct{}
}

func NewHealthServer(cfg *config.GRPCConfig, probes map[string]Prober, logger *zap.Logger) *HealthServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	for name := range probes {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}

	return &HealthServer{
		config: cfg,
		logger: logger,
		probes: probes,
		server: srv,
		health: hs,
		done:   make(chan struct{}),
	}
}

// Probe pings every dependency once and publishes the result.
func (s *HealthServer) Probe(ctx context.Context) {
	overall := healthpb.HealthCheckResponse_SERVING
	for name, p := range s.probes {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := p.Ping(pctx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			s.logger.Warn("Dependency probe failed", zap.String("dependency", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
			overall = healthpb.HealthCheckResponse_NOT_SERVING
		}
		s.health.SetServingStatus(name, status)
	}
	s.health.SetServingStatus("", overall)
}

func (s *HealthServer) Start() error {
	addr := s.config.Addr()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.logger.Info("gRPC health server started", zap.String("address", addr))
	return s.Serve(lis)
}

// Serve probes once, keeps probing every ProbeInterval, and blocks serving lis.
func (s *HealthServer) Serve(lis net.Listener) error {
	s.Probe(context.Background())
	go s.probeLoop()
	return s.server.Serve(lis)
}

func (s *HealthServer) probeLoop() {
	interval := s.config.ProbeInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Probe(context.Background())
		}
	}
}

func (s *HealthServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.health.Shutdown()
		s.server.GracefulStop()
	})
}
