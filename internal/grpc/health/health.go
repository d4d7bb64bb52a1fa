package health

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"honeytrap-lab/internal/infrastructure/cache"
	"honeytrap-lab/internal/infrastructure/database"
)

const checkInterval = 10 * time.Second

// serviceName is the health-check identifier probes may query in addition to
// the empty overall service.
const serviceName = "honeytrap.v1.DetectionService"

// Register attaches the standard gRPC health service and starts a background
// checker that tracks Redis and Postgres availability. Backends that are nil
// are treated as healthy since they are optional.
func Register(ctx context.Context, grpcServer *grpc.Server, db *database.PostgresDB, c *cache.RedisCache) {
	healthServer := health.NewServer()

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_SERVING)

	go func() {
		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				healthServer.Shutdown()
				return
			case <-ticker.C:
			}

			status := grpc_health_v1.HealthCheckResponse_SERVING
			if !backendsHealthy(ctx, db, c) {
				status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			}
			healthServer.SetServingStatus("", status)
			healthServer.SetServingStatus(serviceName, status)
		}
	}()

	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
}

func backendsHealthy(ctx context.Context, db *database.PostgresDB, c *cache.RedisCache) bool {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if db != nil {
		if err := db.Ping(checkCtx); err != nil {
			return false
		}
	}
	if c != nil {
		if _, err := c.Client().Ping(checkCtx).Result(); err != nil {
			return false
		}
	}
	return true
}
