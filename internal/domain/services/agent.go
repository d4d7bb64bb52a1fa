package services

import (
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"honeytrap-lab/internal/detection"
	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

// safeFallbackReply is used whenever a generated reply trips the safety filter.
const safeFallbackReply = "Sorry, I didn't understand that. Can you explain again?"

// forbiddenReplyPatterns are things the agent must never say: anything that
// looks like real credentials, confirmations, accusations, or a tell that the
// conversation is monitored.
var forbiddenReplyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{6}\b`),
	regexp.MustCompile(`\b\d{12,16}\b`),
	regexp.MustCompile(`password\s*[:=]`),
	regexp.MustCompile(`\bi confirm\b`),
	regexp.MustCompile(`\bscam\b`),
	regexp.MustCompile(`\bfraud\b`),
	regexp.MustCompile(`\bhoneypot\b`),
	regexp.MustCompile(`\bgo away\b`),
	regexp.MustCompile(`\bleave me alone\b`),
}

var probeSuffixes = []string{
	" Can you verify your employee ID first?",
	" Which office are you calling from?",
	" I need to check with my bank first.",
	" Can you give me a reference number?",
}

var concernPrefixes = []string{
	"Oh no. ",
	"I'm worried about this. ",
	"This sounds serious. ",
}

// AgentEngine generates persona-consistent replies to keep a suspected fraud
// actor engaged while intelligence is collected. It never detects or extracts
// anything itself.
type AgentEngine struct {
	baseDelay time.Duration
	logger    *logger.Logger

	mu   sync.Mutex
	rng  *rand.Rand
	// recentReplies tracks the last phrases used per session so the agent
	// does not repeat itself back to back.
	recentReplies map[string][]string
}

// NewAgentEngine creates an agent engine. baseDelay <= 0 falls back to 800ms.
func NewAgentEngine(baseDelay time.Duration, log *logger.Logger) *AgentEngine {
	if baseDelay <= 0 {
		baseDelay = 800 * time.Millisecond
	}
	return &AgentEngine{
		baseDelay:     baseDelay,
		logger:        log.WithComponent("agent"),
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
		recentReplies: make(map[string][]string),
	}
}

// Reply is the agent's generated response plus pacing metadata.
type Reply struct {
	Text     string        `json:"text"`
	Strategy Strategy      `json:"strategy"`
	Delay    time.Duration `json:"-"`
	DelayMs  int64         `json:"delay_ms"`
}

// GenerateReply produces the next message for a session. The session's persona
// is assigned on first use and stays fixed for its lifetime.
func (a *AgentEngine) GenerateReply(session *models.Session, latestMessage string, signals []string, confidence float64) Reply {
	a.mu.Lock()
	defer a.mu.Unlock()

	if session.Persona == "" {
		names := PersonaNames()
		session.Persona = names[a.rng.Intn(len(names))]
	}
	persona := PersonaByName(session.Persona)

	strategy := SelectStrategy(confidence, session.MessageCount, signals)
	category := a.pickCategory(latestMessage, signals, session.MessageCount)

	text := a.pickPhrase(session.ID, persona.Phrases[category])
	text = a.applyStrategyTone(text, strategy)

	if !replyIsSafe(text) {
		a.logger.Warn().
			Str("session_id", session.ID).
			Msg("generated reply failed safety check, using fallback")
		text = safeFallbackReply
	}

	delay := ResponseDelay(a.baseDelay, strategy, len(latestMessage))

	a.logger.Debug().
		Str("session_id", session.ID).
		Str("persona", persona.Name).
		Str("strategy", string(strategy)).
		Str("category", string(category)).
		Msg("reply generated")

	return Reply{
		Text:     text,
		Strategy: strategy,
		Delay:    delay,
		DelayMs:  delay.Milliseconds(),
	}
}

// pickCategory chooses the phrase pool from message content and signals.
// Link trouble takes priority: feigning a broken link invites the actor to
// resend the URL.
func (a *AgentEngine) pickCategory(latestMessage string, signals []string, messageCount int) PhraseCategory {
	lower := strings.ToLower(latestMessage)

	hasLink := strings.Contains(lower, "http") || strings.Contains(lower, "link") ||
		strings.Contains(lower, "click") || strings.Contains(lower, "visit") ||
		containsSignal(signals, detection.SignalSuspiciousLink) ||
		containsSignal(signals, detection.SignalShortenedURL) ||
		containsSignal(signals, detection.SignalVerifyLink)
	if hasLink {
		return PhraseLinkIssue
	}

	threatened := containsSignal(signals, detection.SignalUrgency) ||
		containsSignal(signals, detection.SignalAccountThreat) ||
		containsSignal(signals, detection.SignalAccountSuspension) ||
		containsSignal(signals, detection.SignalDeadline)
	if threatened {
		return PhraseConcern
	}

	pressured := containsSignal(signals, detection.SignalRepetition) ||
		containsSignal(signals, detection.SignalCopyPaste) ||
		containsSignal(signals, detection.SignalPaymentRequest) ||
		containsSignal(signals, detection.SignalUPIRequest)
	if messageCount > 2 || pressured {
		return PhraseVerification
	}

	return PhraseConfusion
}

// pickPhrase selects a phrase not used in the session's last three replies.
func (a *AgentEngine) pickPhrase(sessionID string, phrases []string) string {
	if len(phrases) == 0 {
		return safeFallbackReply
	}

	recent := a.recentReplies[sessionID]
	available := make([]string, 0, len(phrases))
	for _, p := range phrases {
		used := false
		for _, r := range recent {
			if p == r {
				used = true
				break
			}
		}
		if !used {
			available = append(available, p)
		}
	}
	if len(available) == 0 {
		available = phrases
	}

	choice := available[a.rng.Intn(len(available))]

	recent = append(recent, choice)
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	a.recentReplies[sessionID] = recent

	return choice
}

func (a *AgentEngine) applyStrategyTone(text string, strategy Strategy) string {
	traits := strategyTraits[strategy]
	if traits.concernPrefix && a.rng.Float64() < 0.5 {
		return concernPrefixes[a.rng.Intn(len(concernPrefixes))] + text
	}
	if traits.probeSuffix && a.rng.Float64() < 0.7 {
		return text + probeSuffixes[a.rng.Intn(len(probeSuffixes))]
	}
	return text
}

// ForgetSession drops the per-session reply memory once a session ends.
func (a *AgentEngine) ForgetSession(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.recentReplies, sessionID)
}

func replyIsSafe(reply string) bool {
	lower := strings.ToLower(reply)
	for _, p := range forbiddenReplyPatterns {
		if p.MatchString(lower) {
			return false
		}
	}
	return true
}
