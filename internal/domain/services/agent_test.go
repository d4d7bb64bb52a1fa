package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeytrap-lab/internal/detection"
	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

func newTestAgent() *AgentEngine {
	return NewAgentEngine(100*time.Millisecond, logger.NewDefault())
}

func TestGenerateReplyAssignsPersona(t *testing.T) {
	a := newTestAgent()
	session := models.NewSession("sess-1")

	reply := a.GenerateReply(session, "Your account is blocked", nil, 0.5)

	assert.NotEmpty(t, reply.Text)
	assert.NotEmpty(t, session.Persona)
	assert.Contains(t, PersonaNames(), session.Persona)
	assert.Positive(t, reply.DelayMs)
}

func TestGenerateReplyPersonaStable(t *testing.T) {
	a := newTestAgent()
	session := models.NewSession("sess-2")

	a.GenerateReply(session, "hello", nil, 0.0)
	assigned := session.Persona
	for i := 0; i < 5; i++ {
		a.GenerateReply(session, "hello again", nil, 0.0)
		assert.Equal(t, assigned, session.Persona)
	}
}

func TestGenerateReplyNeverUnsafe(t *testing.T) {
	a := newTestAgent()
	session := models.NewSession("sess-3")

	for i := 0; i < 50; i++ {
		reply := a.GenerateReply(session, "Send your OTP immediately", []string{
			string(detection.SignalOTPRequest),
			string(detection.SignalUrgency),
		}, 0.9)
		assert.True(t, replyIsSafe(reply.Text), "unsafe reply: %q", reply.Text)
	}
}

func TestPickCategoryLinkTrouble(t *testing.T) {
	a := newTestAgent()

	cat := a.pickCategory("Click this link to verify", nil, 1)
	assert.Equal(t, PhraseLinkIssue, cat)

	cat = a.pickCategory("anything", []string{string(detection.SignalShortenedURL)}, 1)
	assert.Equal(t, PhraseLinkIssue, cat)
}

func TestPickCategoryConcernOnThreats(t *testing.T) {
	a := newTestAgent()

	cat := a.pickCategory("pay the fee", []string{string(detection.SignalAccountThreat)}, 1)
	assert.Equal(t, PhraseConcern, cat)
}

func TestPickCategoryVerificationWhenPressured(t *testing.T) {
	a := newTestAgent()

	cat := a.pickCategory("send it", []string{string(detection.SignalUPIRequest)}, 1)
	assert.Equal(t, PhraseVerification, cat)

	cat = a.pickCategory("hello there", nil, 5)
	assert.Equal(t, PhraseVerification, cat)
}

func TestPickCategoryDefaultsToConfusion(t *testing.T) {
	a := newTestAgent()

	cat := a.pickCategory("hello", nil, 1)
	assert.Equal(t, PhraseConfusion, cat)
}

func TestPickPhraseAvoidsRecentRepeats(t *testing.T) {
	a := newTestAgent()
	pool := []string{"one", "two", "three", "four", "five"}

	var prev string
	for i := 0; i < 10; i++ {
		p := a.pickPhrase("sess-4", pool)
		require.Contains(t, pool, p)
		assert.NotEqual(t, prev, p)
		prev = p
	}
}

func TestReplyIsSafe(t *testing.T) {
	assert.True(t, replyIsSafe("Sorry, which bank is this?"))
	assert.True(t, replyIsSafe("Can you give me a reference number?"))

	assert.False(t, replyIsSafe("My OTP is 123456"))
	assert.False(t, replyIsSafe("This is a scam"))
	assert.False(t, replyIsSafe("I confirm the transfer"))
	assert.False(t, replyIsSafe("go away"))
}

func TestPersonaByNameFallback(t *testing.T) {
	p := PersonaByName("no_such_persona")
	assert.Equal(t, DefaultPersona, p.Name)

	p = PersonaByName("busy_employee")
	assert.Equal(t, "busy_employee", p.Name)
	assert.NotEmpty(t, p.Phrases[PhraseConfusion])
}

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name         string
		confidence   float64
		messageCount int
		signals      []string
		want         Strategy
	}{
		{"early conversation", 0.9, 1, []string{string(detection.SignalOTPRequest)}, StrategyPassiveVerify},
		{
			"high-confidence urgency",
			0.85, 3,
			[]string{string(detection.SignalUrgency), string(detection.SignalAccountThreat)},
			StrategyAnxiousComply,
		},
		{
			"payment pusher late in conversation",
			0.5, 5,
			[]string{string(detection.SignalUPIRequest)},
			StrategyStallAndProbe,
		},
		{
			"authority impersonation",
			0.5, 3,
			[]string{string(detection.SignalBankImpersonation)},
			StrategyAnxiousComply,
		},
		{"no signals", 0.2, 4, nil, StrategyPassiveVerify},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectStrategy(tt.confidence, tt.messageCount, tt.signals))
		})
	}
}

func TestResponseDelay(t *testing.T) {
	base := time.Second

	// Passive verification, empty message: 1.2x multiplier only.
	d := ResponseDelay(base, StrategyPassiveVerify, 0)
	assert.Equal(t, 1200*time.Millisecond, d)

	// Stalling on a 200-char message doubles the complexity factor.
	d = ResponseDelay(base, StrategyStallAndProbe, 200)
	assert.Equal(t, 3600*time.Millisecond, d)

	// Anxious compliance replies faster.
	fast := ResponseDelay(base, StrategyAnxiousComply, 0)
	slow := ResponseDelay(base, StrategyStallAndProbe, 0)
	assert.Less(t, fast, slow)
}
