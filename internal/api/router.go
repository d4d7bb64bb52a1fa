package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"honeytrap-lab/internal/api/handlers"
	apimiddleware "honeytrap-lab/internal/api/middleware"
	"honeytrap-lab/internal/config"
	"honeytrap-lab/internal/infrastructure/cache"
	"honeytrap-lab/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	cache    *cache.RedisCache
	logger   *logger.Logger
}

// NewRouter creates a new Router instance
func NewRouter(cfg config.Config, h *handlers.Handlers, c *cache.RedisCache, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		cache:    c,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Rate limiting
	if r.config.RateLimit.Enabled {
		router.Use(apimiddleware.RateLimiter(r.cache, r.config.RateLimit))
	}

	// Public routes
	router.Group(func(pub chi.Router) {
		pub.Get("/health", r.handlers.Health.Check)
		pub.Get("/ready", r.handlers.Health.Ready)
	})

	// API v1 routes (authenticated)
	router.Route("/api/v1", func(api chi.Router) {
		api.Use(apimiddleware.APIKeyAuth(r.config.Auth.APIKeys))

		// Detection endpoints
		api.Post("/detect", r.handlers.Detect.Analyze)
		api.Post("/detect/batch", r.handlers.Detect.AnalyzeBatch)

		// Honeypot pipeline
		api.Post("/ingest-message", r.handlers.Engage.Ingest)

		// Session inspection and lifecycle
		api.Route("/sessions", func(sessions chi.Router) {
			sessions.Get("/", r.handlers.Sessions.List)
			sessions.Get("/{id}", r.handlers.Sessions.Get)
			sessions.Post("/{id}/finalize", r.handlers.Sessions.Finalize)
			sessions.Delete("/{id}", r.handlers.Sessions.Delete)
		})
	})

	return router
}
