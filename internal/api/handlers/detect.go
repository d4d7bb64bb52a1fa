package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"honeytrap-lab/internal/detection"
	"honeytrap-lab/pkg/logger"
)

// DetectHandler exposes the message-level detection engine.
type DetectHandler struct {
	detector *detection.Detector
	logger   *logger.Logger
}

// NewDetectHandler creates a detect handler.
func NewDetectHandler(d *detection.Detector, log *logger.Logger) *DetectHandler {
	return &DetectHandler{
		detector: d,
		logger:   log.WithComponent("detect-handler"),
	}
}

// DetectRequest is the request body for single-message detection. The history
// field is decoded leniently: a malformed value degrades to no history instead
// of failing the request.
type DetectRequest struct {
	Text                string          `json:"text"`
	ConversationHistory json.RawMessage `json:"conversationHistory,omitempty"`
	Metadata            map[string]any  `json:"metadata,omitempty"`
}

// BatchDetectRequest is the request body for batch detection.
type BatchDetectRequest struct {
	Messages []DetectRequest `json:"messages"`
}

// decodeHistory tolerates malformed conversation history. Entries that do not
// fit the expected shape are dropped; a history that is not a list at all is
// treated as absent.
func decodeHistory(raw json.RawMessage) []detection.ConversationEntry {
	if len(raw) == 0 {
		return nil
	}
	var entries []detection.ConversationEntry
	if err := json.Unmarshal(raw, &entries); err == nil {
		return entries
	}

	// Mixed lists may still hold some usable entries.
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	entries = make([]detection.ConversationEntry, 0, len(items))
	for _, item := range items {
		var entry detection.ConversationEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func (r DetectRequest) toInput() detection.Input {
	return detection.Input{
		Text:                r.Text,
		ConversationHistory: decodeHistory(r.ConversationHistory),
		Metadata:            r.Metadata,
	}
}

// Analyze handles POST /api/v1/detect
func (h *DetectHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("invalid request body")
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.detector.Analyze(r.Context(), req.toInput())
	if err != nil {
		if errors.Is(err, detection.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("analysis failed")
		respondError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// AnalyzeBatch handles POST /api/v1/detect/batch
func (h *DetectHandler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchDetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("invalid request body")
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inputs := make([]detection.Input, len(req.Messages))
	for i, m := range req.Messages {
		inputs[i] = m.toInput()
	}

	items, err := h.detector.AnalyzeBatch(r.Context(), inputs)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"results": items})
}
