package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/cvtoletter/backend/internal/config"
	"github.com/cvtoletter/backend/pkg/logger"
)

const (
	// LedgerService is the name health is reported under, next to the overall "".
	LedgerService = "cvtoletter.ledger"
	probeInterval = 10 * time.Second
	probeTimeout  = 2 * time.Second
)

// Pinger reports whether the ledger store is reachable.
type Pinger func(ctx context.Context) error

// Server exposes grpc.health.v1 for the ledger. Status follows the database.
type Server struct {
	config config.GRPCConfig
	logger *zap.Logger
	server *grpc.Server
	health *health.Server
	ping   Pinger
	stop   chan struct{}
}

func NewServer(cfg config.GRPCConfig, ping Pinger, log *zap.Logger) *Server {
	s := &Server{
		config: cfg,
		logger: log,
		health: health.NewServer(),
		ping:   ping,
		stop:   make(chan struct{}),
	}

	s.server = grpc.NewServer(
		grpc.ChainUnaryInterceptor(logger.NewGrpcUnaryServerInterceptor(log)),
		grpc.ChainStreamInterceptor(logger.NewGrpcStreamServerInterceptor(log)),
	)
	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)

	return s
}

// Start listens and blocks until the server stops.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(listener)
}

// Serve runs on an existing listener.
func (s *Server) Serve(listener net.Listener) error {
	s.Probe(context.Background())
	go s.probeLoop()

	s.logger.Info("Starting gRPC server", zap.String("address", listener.Addr().String()))
	return s.server.Serve(listener)
}

// Probe pings the database once and updates the reported status.
func (s *Server) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.ping(ctx); err != nil {
		s.logger.Warn("Database health probe failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(LedgerService, status)
	return status
}

func (s *Server) probeLoop() {
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Probe(context.Background())
		}
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stop)
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
