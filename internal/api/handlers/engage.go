package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"honeytrap-lab/internal/detection"
	"honeytrap-lab/internal/domain/services"
	"honeytrap-lab/pkg/logger"
)

// EngageHandler exposes the honeypot message-ingestion pipeline.
type EngageHandler struct {
	engagement *services.EngagementService
	logger     *logger.Logger
}

// NewEngageHandler creates an engage handler.
func NewEngageHandler(e *services.EngagementService, log *logger.Logger) *EngageHandler {
	return &EngageHandler{
		engagement: e,
		logger:     log.WithComponent("engage-handler"),
	}
}

// IngestMessage is one message within an ingest payload.
type IngestMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// IngestRequest is the request body for POST /api/v1/ingest-message.
type IngestRequest struct {
	SessionID           string            `json:"sessionId"`
	Message             IngestMessage     `json:"message"`
	ConversationHistory json.RawMessage   `json:"conversationHistory,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

// IngestResponse wraps the pipeline result.
type IngestResponse struct {
	Status string                     `json:"status"`
	Reply  string                     `json:"reply"`
	Result *services.EngagementResult `json:"result"`
}

// Ingest handles POST /api/v1/ingest-message. It runs the full pipeline:
// detection, session state transitions, agent reply, intelligence extraction,
// and the final report when collection completes.
func (h *EngageHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("invalid request body")
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	history := decodeHistory(req.ConversationHistory)

	result, err := h.engagement.ProcessMessage(r.Context(), req.SessionID, req.Message.Text, history, req.Metadata)
	if err != nil {
		if errors.Is(err, detection.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("pipeline failed")
		respondError(w, http.StatusInternalServerError, "failed to process message")
		return
	}

	respondJSON(w, http.StatusOK, IngestResponse{
		Status: "success",
		Reply:  result.Reply,
		Result: result,
	})
}
