package services

import (
	"context"
	"time"

	"honeytrap-lab/internal/detection"
	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

// fallbackReply is sent when the agent is disabled or errors out.
const fallbackReply = "Please wait, I'm checking this."

// EventPublisher receives pipeline events for downstream consumers. A nil
// publisher disables event emission.
type EventPublisher interface {
	PublishMessageScored(ctx context.Context, sessionID string, result detection.Result) error
	PublishSessionReported(ctx context.Context, report models.SessionReport) error
}

// EngagementService runs the full pipeline for one inbound message: detect,
// transition session state, generate the agent reply, extract intelligence,
// and fire the final report once collection is complete.
type EngagementService struct {
	detector  *detection.Detector
	sessions  *SessionManager
	agent     *AgentEngine
	extractor *IntelExtractor
	reporter  *Reporter
	publisher EventPublisher
	logger    *logger.Logger
}

// NewEngagementService wires the pipeline. agent, reporter, and publisher may
// be nil; the corresponding stages are then skipped.
func NewEngagementService(
	detector *detection.Detector,
	sessions *SessionManager,
	agent *AgentEngine,
	extractor *IntelExtractor,
	reporter *Reporter,
	publisher EventPublisher,
	log *logger.Logger,
) *EngagementService {
	return &EngagementService{
		detector:  detector,
		sessions:  sessions,
		agent:     agent,
		extractor: extractor,
		reporter:  reporter,
		publisher: publisher,
		logger:    log.WithComponent("engagement"),
	}
}

// EngagementResult is the pipeline outcome for one inbound message.
type EngagementResult struct {
	SessionID         string              `json:"session_id"`
	State             models.SessionState `json:"state"`
	Reply             string              `json:"reply"`
	ReplyDelayMs      int64               `json:"reply_delay_ms,omitempty"`
	Detection         detection.Result    `json:"detection"`
	IntelligenceReady bool                `json:"intelligence_ready"`
	Reported          bool                `json:"reported"`
}

// ProcessMessage runs one scammer message through the pipeline.
func (s *EngagementService) ProcessMessage(ctx context.Context, sessionID, text string, history []detection.ConversationEntry, metadata map[string]string) (*EngagementResult, error) {
	session, err := s.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Caller-supplied history replaces what we have; otherwise the session's
	// own history is used.
	if len(history) > 0 {
		session.History = history
		session.MessageCount = len(history)
	}

	detResult, err := s.detector.Analyze(ctx, detection.Input{
		Text:                text,
		ConversationHistory: session.History,
	})
	if err != nil {
		return nil, err
	}

	session.AddMessage(detection.ConversationEntry{
		Sender:    detection.SenderScammer,
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
	session.AddConfidenceSnapshot(detResult.Confidence, session.MessageCount)
	session.AddSignals(detResult.Signals)

	if s.publisher != nil {
		if err := s.publisher.PublishMessageScored(ctx, sessionID, detResult); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to publish scored event")
		}
	}

	if detResult.ScamDetected && session.State == models.StateInit {
		session.ScamDetected = true
		if err := s.sessions.Transition(ctx, session, models.StateSuspected); err != nil {
			return nil, err
		}
	}
	if session.ScamDetected && session.State == models.StateSuspected {
		if err := s.sessions.Transition(ctx, session, models.StateEngaging); err != nil {
			return nil, err
		}
	}

	reply := fallbackReply
	var replyDelayMs int64
	if s.agent != nil {
		agentReply := s.agent.GenerateReply(session, text, detResult.Signals, detResult.Confidence)
		reply = agentReply.Text
		replyDelayMs = agentReply.DelayMs
	}

	reported := false
	if session.ScamDetected && s.extractor != nil {
		intel, complete := s.extractor.AnalyzeConversation(session.History)
		session.Intelligence = intel
		session.AgentNotes = s.extractor.BehaviorSummary(intel, session.MessageCount)

		if complete && session.State == models.StateEngaging {
			session.IntelligenceReady = true
			if err := s.sessions.Transition(ctx, session, models.StateIntelComplete); err != nil {
				return nil, err
			}
			reported = s.finalize(ctx, session)
		}
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	return &EngagementResult{
		SessionID:         sessionID,
		State:             session.State,
		Reply:             reply,
		ReplyDelayMs:      replyDelayMs,
		Detection:         detResult,
		IntelligenceReady: session.IntelligenceReady,
		Reported:          reported,
	}, nil
}

// Finalize delivers the final report for a session regardless of its intel
// state. Used when a conversation ends before collection completes.
func (s *EngagementService) Finalize(ctx context.Context, sessionID string) (bool, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return s.finalize(ctx, session), s.sessions.Save(ctx, session)
}

func (s *EngagementService) finalize(ctx context.Context, session *models.Session) bool {
	if s.reporter == nil {
		return false
	}

	report := models.BuildReport(session)
	delivered, err := s.reporter.Send(ctx, report)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", session.ID).Msg("final report delivery failed")
	}
	if !delivered {
		return false
	}

	session.TransitionTo(models.StateReported)
	if s.agent != nil {
		s.agent.ForgetSession(session.ID)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishSessionReported(ctx, report); err != nil {
			s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("failed to publish reported event")
		}
	}
	return true
}
