package models

import "time"

// IntelligencePayload is the wire shape of extracted intelligence expected by
// the evaluation endpoint.
type IntelligencePayload struct {
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhishingLinks      []string `json:"phishingLinks"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// SessionReport is the final callback payload for one completed session.
type SessionReport struct {
	SessionID              string              `json:"sessionId"`
	ScamDetected           bool                `json:"scamDetected"`
	TotalMessagesExchanged int                 `json:"totalMessagesExchanged"`
	ExtractedIntelligence  IntelligencePayload `json:"extractedIntelligence"`
	AgentNotes             string              `json:"agentNotes"`
}

// BuildReport assembles the callback payload from a session.
func BuildReport(s *Session) SessionReport {
	return SessionReport{
		SessionID:              s.ID,
		ScamDetected:           s.ScamDetected,
		TotalMessagesExchanged: s.MessageCount,
		ExtractedIntelligence: IntelligencePayload{
			BankAccounts:       emptyIfNil(s.Intelligence.BankAccounts),
			UPIIDs:             emptyIfNil(s.Intelligence.UPIIDs),
			PhishingLinks:      emptyIfNil(s.Intelligence.PhishingLinks),
			PhoneNumbers:       emptyIfNil(s.Intelligence.PhoneNumbers),
			SuspiciousKeywords: emptyIfNil(s.Intelligence.Keywords),
		},
		AgentNotes: s.AgentNotes,
	}
}

// FailedReport is a report whose delivery exhausted all retries; it is
// persisted for later replay.
type FailedReport struct {
	SessionID string        `json:"session_id"`
	Report    SessionReport `json:"report"`
	LastError string        `json:"last_error"`
	Attempts  int           `json:"attempts"`
	FailedAt  time.Time     `json:"failed_at"`
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
