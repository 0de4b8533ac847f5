package health

import (
	"context"
	"time"

	"github.com/fjod/go_cart/storefront/internal/storage"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Checker tracks whether cart storage is reachable and mirrors the answer
// into a standard gRPC health service.
type Checker struct {
	pinger   storage.Pinger
	server   *grpchealth.Server
	interval time.Duration
	logger   *zap.Logger
}

func NewChecker(pinger storage.Pinger, interval time.Duration, logger *zap.Logger) *Checker {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		pinger:   pinger,
		server:   grpchealth.NewServer(),
		interval: interval,
		logger:   logger,
	}
}

// Check pings storage. Backends without a Ping are always healthy.
func (c *Checker) Check(ctx context.Context) error {
	if c.pinger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.pinger.Ping(ctx)
}

func (c *Checker) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, c.server)
}

// Run probes storage until ctx is done, then marks the service as not
// serving.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.update(ctx)
	for {
		select {
		case <-ticker.C:
			c.update(ctx)
		case <-ctx.Done():
			c.server.Shutdown()
			return
		}
	}
}

func (c *Checker) update(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if err := c.Check(ctx); err != nil {
		c.logger.Warn("storage health check failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.server.SetServingStatus("", status)
}
