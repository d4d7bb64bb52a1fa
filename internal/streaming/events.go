package streaming

import (
	"time"

	"github.com/google/uuid"

	"honeytrap-lab/internal/detection"
	"honeytrap-lab/internal/domain/models"
)

// EventType represents the type of honeypot event
type EventType string

const (
	// EventTypeMessageScored is emitted after every analyzed message.
	EventTypeMessageScored EventType = "message.scored"
	// EventTypeSessionReported is emitted once the final report for a session
	// is delivered.
	EventTypeSessionReported EventType = "session.reported"
)

// MessageScoredEvent carries the detection outcome for one message.
type MessageScoredEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	SessionID    string   `json:"session_id"`
	ScamDetected bool     `json:"scam_detected"`
	Confidence   float64  `json:"confidence"`
	Signals      []string `json:"signals"`
}

// NewMessageScoredEvent builds the event for one detection result.
func NewMessageScoredEvent(sessionID string, result detection.Result) *MessageScoredEvent {
	return &MessageScoredEvent{
		ID:           uuid.New().String(),
		Type:         EventTypeMessageScored,
		Timestamp:    time.Now().UTC(),
		SessionID:    sessionID,
		ScamDetected: result.ScamDetected,
		Confidence:   result.Confidence,
		Signals:      result.Signals,
	}
}

// SessionReportedEvent carries the delivered final report for a session.
type SessionReportedEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	SessionID     string               `json:"session_id"`
	ScamDetected  bool                 `json:"scam_detected"`
	TotalMessages int                  `json:"total_messages"`
	Report        models.SessionReport `json:"report"`
}

// NewSessionReportedEvent builds the event for a delivered report.
func NewSessionReportedEvent(report models.SessionReport) *SessionReportedEvent {
	return &SessionReportedEvent{
		ID:            uuid.New().String(),
		Type:          EventTypeSessionReported,
		Timestamp:     time.Now().UTC(),
		SessionID:     report.SessionID,
		ScamDetected:  report.ScamDetected,
		TotalMessages: report.TotalMessagesExchanged,
		Report:        report,
	}
}
