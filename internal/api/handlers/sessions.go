package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"honeytrap-lab/internal/domain/services"
	"honeytrap-lab/pkg/logger"
)

// SessionsHandler exposes session inspection and lifecycle endpoints.
type SessionsHandler struct {
	sessions   *services.SessionManager
	engagement *services.EngagementService
	logger     *logger.Logger
}

// NewSessionsHandler creates a sessions handler.
func NewSessionsHandler(sm *services.SessionManager, e *services.EngagementService, log *logger.Logger) *SessionsHandler {
	return &SessionsHandler{
		sessions:   sm,
		engagement: e,
		logger:     log.WithComponent("sessions-handler"),
	}
}

// List handles GET /api/v1/sessions
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.sessions.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list sessions")
		respondError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(summaries),
		"sessions": summaries,
	})
}

// Get handles GET /api/v1/sessions/{id}
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error().Err(err).Str("session_id", id).Msg("failed to load session")
		respondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// Finalize handles POST /api/v1/sessions/{id}/finalize. It forces report
// delivery for a session whose conversation ended before intelligence
// collection completed.
func (h *SessionsHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	delivered, err := h.engagement.Finalize(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error().Err(err).Str("session_id", id).Msg("failed to finalize session")
		respondError(w, http.StatusInternalServerError, "failed to finalize session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"reported":   delivered,
	})
}

// Delete handles DELETE /api/v1/sessions/{id}
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.sessions.Get(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	if err := h.sessions.Delete(r.Context(), id); err != nil {
		h.logger.Error().Err(err).Str("session_id", id).Msg("failed to delete session")
		respondError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
