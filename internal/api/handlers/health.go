package handlers

import (
	"net/http"
	"time"

	"honeytrap-lab/internal/detection"
	"honeytrap-lab/internal/infrastructure/cache"
	"honeytrap-lab/internal/infrastructure/database"
	"honeytrap-lab/pkg/logger"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	detector  *detection.Detector
	cache     *cache.RedisCache
	db        *database.PostgresDB
	version   string
	logger    *logger.Logger
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(d *detection.Detector, c *cache.RedisCache, db *database.PostgresDB, version string, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		detector:  d,
		cache:     c,
		db:        db,
		version:   version,
		logger:    log.WithComponent("health"),
		startTime: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
	Stats     map[string]int64  `json:"stats,omitempty"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	total, scams := h.detector.Stats()

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Stats: map[string]int64{
			"messages_analyzed": total,
			"scams_detected":    scams,
		},
	})
}

// Ready handles GET /ready - checks all dependencies
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := http.StatusOK
	overallStatus := "ready"

	if h.cache != nil {
		if err := h.cache.Client().Ping(r.Context()).Err(); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
			overallStatus = "not ready"
		} else {
			checks["redis"] = "healthy"
		}
	} else {
		checks["redis"] = "not configured"
	}

	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			checks["postgres"] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
			overallStatus = "not ready"
		} else {
			checks["postgres"] = "healthy"
		}
	} else {
		checks["postgres"] = "not configured"
	}

	respondJSON(w, status, HealthResponse{
		Status:    overallStatus,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}
