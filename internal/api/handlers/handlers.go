package handlers

import (
	"encoding/json"
	"net/http"

	"honeytrap-lab/internal/detection"
	"honeytrap-lab/internal/domain/services"
	"honeytrap-lab/internal/infrastructure/cache"
	"honeytrap-lab/internal/infrastructure/database"
	"honeytrap-lab/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health   *HealthHandler
	Detect   *DetectHandler
	Engage   *EngageHandler
	Sessions *SessionsHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Detector   *detection.Detector
	Engagement *services.EngagementService
	Sessions   *services.SessionManager
	Cache      *cache.RedisCache
	DB         *database.PostgresDB
	Logger     *logger.Logger
	Version    string
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Detector, deps.Cache, deps.DB, deps.Version, deps.Logger),
		Detect:   NewDetectHandler(deps.Detector, deps.Logger),
		Engage:   NewEngageHandler(deps.Engagement, deps.Logger),
		Sessions: NewSessionsHandler(deps.Sessions, deps.Engagement, deps.Logger),
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
