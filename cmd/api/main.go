package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"honeytrap-lab/internal/api"
	"honeytrap-lab/internal/api/handlers"
	"honeytrap-lab/internal/config"
	"honeytrap-lab/internal/detection"
	"honeytrap-lab/internal/domain/services"
	grpchealth "honeytrap-lab/internal/grpc/health"
	"honeytrap-lab/internal/infrastructure/cache"
	"honeytrap-lab/internal/infrastructure/database"
	"honeytrap-lab/internal/infrastructure/database/repository"
	"honeytrap-lab/internal/streaming"
	"honeytrap-lab/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var log *logger.Logger
	if cfg.App.Environment == "production" {
		log = logger.NewProduction()
	} else {
		log = logger.NewDevelopment()
	}
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting HoneyTrap Lab")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure. Both backends are optional: without Redis
	// sessions live in memory, without Postgres failed reports are not
	// persisted across restarts.
	db, redisCache := initInfrastructure(ctx, cfg, log)
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	var reportRepo *repository.ReportRepository
	var failedStore services.FailedReportStore
	if db != nil {
		reportRepo = repository.NewReportRepository(db.Pool())
		failedStore = reportRepo
		log.Info().Msg("report repository initialized with database")
	} else {
		log.Warn().Msg("running without database - failed reports are not persisted")
	}

	// Initialize streaming infrastructure
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		var err error
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing without event streaming")
		} else {
			defer natsPublisher.Close()
			log.Info().Str("url", cfg.NATS.URL).Msg("connected to NATS")
		}
	}

	// Initialize the detection engine and pipeline services
	detector := detection.NewDetector(log)

	var store services.SessionStore
	if redisCache != nil {
		store = services.NewRedisSessionStore(redisCache, cfg.Session.TTL)
		log.Info().Dur("ttl", cfg.Session.TTL).Msg("sessions backed by Redis")
	} else {
		store = services.NewMemorySessionStore()
		log.Warn().Msg("running without Redis - sessions held in memory")
	}
	sessions := services.NewSessionManager(store, log)

	var agent *services.AgentEngine
	if cfg.Agent.Enabled {
		agent = services.NewAgentEngine(time.Duration(cfg.Agent.BaseDelayMs)*time.Millisecond, log)
	}

	extractor := services.NewIntelExtractor(cfg.Session.IntelMessageThreshold, log)

	var reporter *services.Reporter
	if cfg.Evaluation.Enabled {
		reporter = services.NewReporter(cfg.Evaluation, redisCache, failedStore, log)
		log.Info().Str("callback_url", cfg.Evaluation.CallbackURL).Msg("evaluation reporter initialized")
	} else {
		log.Warn().Msg("evaluation reporting disabled - sessions will not be reported")
	}

	var publisher services.EventPublisher
	if natsPublisher != nil {
		publisher = natsPublisher
	}

	engagement := services.NewEngagementService(detector, sessions, agent, extractor, reporter, publisher, log)

	// Initialize handlers
	h := handlers.NewHandlers(handlers.Dependencies{
		Detector:   detector,
		Engagement: engagement,
		Sessions:   sessions,
		Cache:      redisCache,
		DB:         db,
		Logger:     log,
		Version:    cfg.App.Version,
	})

	// Create router
	router := api.NewRouter(*cfg, h, redisCache, log)
	httpHandler := router.Setup()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start gRPC server (health checks only)
	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gRPC listener")
	}

	grpcServer := grpc.NewServer()
	grpchealth.Register(ctx, grpcServer, db, redisCache)

	go func() {
		log.Info().
			Str("addr", grpcListener.Addr().String()).
			Msg("starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Fatal().Err(err).Msg("gRPC server failed")
		}
	}()

	// Retry failed report deliveries in the background
	if reporter != nil {
		go retryPendingReports(ctx, reporter, reportRepo, log)
	}

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	// Cancel context to stop background work
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Stop gRPC server
	grpcServer.GracefulStop()

	// Stop HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// initInfrastructure connects to PostgreSQL and Redis. Neither is required;
// a failed connection degrades the deployment rather than aborting it.
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache) {
	var db *database.PostgresDB
	if cfg.Database.Enabled {
		var err error
		db, err = database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to PostgreSQL, continuing without database")
			db = nil
		}
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		var err error
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without cache")
			redisCache = nil
		}
	}

	return db, redisCache
}

// retryPendingReports periodically re-attempts report deliveries that
// exhausted their initial retries, including the dead-lettered reports
// persisted across restarts.
func retryPendingReports(ctx context.Context, reporter *services.Reporter, repo *repository.ReportRepository, log *logger.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			delivered := reporter.RetryPending(ctx)
			if delivered > 0 {
				log.Info().Int("delivered", delivered).Msg("retried pending session reports")
			}
			if repo != nil {
				replayFailedReports(ctx, reporter, repo, log)
			}
		}
	}
}

// replayFailedReports drains the dead letter queue: each stored report is
// re-sent, archived on success, and removed from the queue.
func replayFailedReports(ctx context.Context, reporter *services.Reporter, repo *repository.ReportRepository, log *logger.Logger) {
	failed, err := repo.ListFailedReports(ctx, 100)
	if err != nil {
		log.Error().Err(err).Msg("failed to load dead-lettered reports")
		return
	}

	for _, f := range failed {
		delivered, err := reporter.Send(ctx, f.Report)
		if err != nil || !delivered {
			continue
		}
		if err := repo.SaveReport(ctx, f.Report); err != nil {
			log.Warn().Err(err).Str("session_id", f.SessionID).Msg("failed to archive replayed report")
		}
		if err := repo.DeleteFailedReport(ctx, f.SessionID); err != nil {
			log.Warn().Err(err).Str("session_id", f.SessionID).Msg("failed to dequeue replayed report")
		}
		log.Info().Str("session_id", f.SessionID).Msg("replayed dead-lettered session report")
	}
}
