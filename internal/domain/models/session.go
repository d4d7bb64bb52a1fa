package models

import (
	"time"

	"honeytrap-lab/internal/detection"
)

// SessionState is one stage of the honeypot session lifecycle.
type SessionState string

const (
	// StateInit is a fresh session with no scam evidence yet.
	StateInit SessionState = "INIT"
	// StateSuspected means detection flagged at least one message.
	StateSuspected SessionState = "SUSPECTED"
	// StateEngaging means the agent is actively conversing with the actor.
	StateEngaging SessionState = "ENGAGING"
	// StateIntelComplete means enough intelligence has been extracted.
	StateIntelComplete SessionState = "INTEL_COMPLETE"
	// StateReported means the final report was delivered.
	StateReported SessionState = "REPORTED"
)

// ConfidenceSnapshot records the detection confidence at one turn.
type ConfidenceSnapshot struct {
	Turn       int       `json:"turn"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Session tracks one conversation with a suspected fraud actor.
type Session struct {
	ID           string                        `json:"session_id"`
	State        SessionState                  `json:"state"`
	History      []detection.ConversationEntry `json:"conversation_history"`
	MessageCount int                           `json:"message_count"`
	ScamDetected bool                          `json:"scam_detected"`

	// ConfidenceTimeline tracks how detection confidence evolved per turn.
	ConfidenceTimeline []ConfidenceSnapshot `json:"confidence_timeline,omitempty"`
	// Signals accumulates distinct signal identifiers seen across the session.
	Signals []string `json:"signals,omitempty"`

	Intelligence      Intelligence `json:"intelligence"`
	IntelligenceReady bool         `json:"intelligence_ready"`
	AgentNotes        string       `json:"agent_notes,omitempty"`
	Persona           string       `json:"persona,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a session in the INIT state.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		State:     StateInit,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddMessage appends one message to the conversation history.
func (s *Session) AddMessage(entry detection.ConversationEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	s.History = append(s.History, entry)
	s.MessageCount++
	s.UpdatedAt = time.Now().UTC()
}

// AddConfidenceSnapshot records the confidence for the given turn.
func (s *Session) AddConfidenceSnapshot(confidence float64, turn int) {
	s.ConfidenceTimeline = append(s.ConfidenceTimeline, ConfidenceSnapshot{
		Turn:       turn,
		Confidence: confidence,
		Timestamp:  time.Now().UTC(),
	})
}

// AddSignals merges new signal identifiers into the accumulated set,
// preserving first-seen order.
func (s *Session) AddSignals(signals []string) {
	seen := make(map[string]struct{}, len(s.Signals))
	for _, sig := range s.Signals {
		seen[sig] = struct{}{}
	}
	for _, sig := range signals {
		if _, ok := seen[sig]; ok {
			continue
		}
		seen[sig] = struct{}{}
		s.Signals = append(s.Signals, sig)
	}
}

// TransitionTo moves the session to a new state.
func (s *Session) TransitionTo(state SessionState) {
	s.State = state
	s.UpdatedAt = time.Now().UTC()
}

// SessionSummary is the compact listing shape for session inspection.
type SessionSummary struct {
	ID                string       `json:"session_id"`
	State             SessionState `json:"state"`
	MessageCount      int          `json:"message_count"`
	ScamDetected      bool         `json:"scam_detected"`
	IntelligenceReady bool         `json:"intelligence_ready"`
	CreatedAt         time.Time    `json:"created_at"`
}

// Summary returns the compact view of the session.
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:                s.ID,
		State:             s.State,
		MessageCount:      s.MessageCount,
		ScamDetected:      s.ScamDetected,
		IntelligenceReady: s.IntelligenceReady,
		CreatedAt:         s.CreatedAt,
	}
}
