package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeytrap-lab/internal/config"
	"honeytrap-lab/internal/detection"
	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

func newTestEngagement(t *testing.T, reporter *Reporter) *EngagementService {
	t.Helper()
	log := logger.NewDefault()
	return NewEngagementService(
		detection.NewDetector(log),
		NewSessionManager(NewMemorySessionStore(), log),
		NewAgentEngine(time.Millisecond, log),
		NewIntelExtractor(10, log),
		reporter,
		nil,
		log,
	)
}

func TestProcessMessageBenign(t *testing.T) {
	svc := newTestEngagement(t, nil)

	res, err := svc.ProcessMessage(context.Background(), "sess-1", "Your statement is ready", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, models.StateInit, res.State)
	assert.False(t, res.Detection.ScamDetected)
	assert.False(t, res.Reported)
	assert.NotEmpty(t, res.Reply)
}

func TestProcessMessageScamTransitionsToEngaging(t *testing.T) {
	svc := newTestEngagement(t, nil)

	res, err := svc.ProcessMessage(context.Background(), "sess-2",
		"Share your OTP now or account will be suspended immediately", nil, nil)
	require.NoError(t, err)

	assert.True(t, res.Detection.ScamDetected)
	assert.Equal(t, models.StateEngaging, res.State)
	assert.False(t, res.IntelligenceReady)
	assert.NotEmpty(t, res.Reply)
}

func TestProcessMessageFullPipelineToReported(t *testing.T) {
	var callbacks atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		callbacks.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reporter := NewReporter(config.EvaluationConfig{
		CallbackURL: srv.URL,
		Timeout:     time.Second,
		MaxRetries:  3,
	}, nil, nil, logger.NewDefault())

	svc := newTestEngagement(t, reporter)

	// Payment routing details in the message make intelligence collection
	// complete on the spot.
	res, err := svc.ProcessMessage(context.Background(), "sess-3",
		"Share your OTP now or account will be suspended, send money to fraudster@ybl", nil, nil)
	require.NoError(t, err)

	assert.True(t, res.Detection.ScamDetected)
	assert.True(t, res.IntelligenceReady)
	assert.True(t, res.Reported)
	assert.Equal(t, models.StateReported, res.State)
	assert.Equal(t, int32(1), callbacks.Load())
}

func TestProcessMessageAccumulatesHistory(t *testing.T) {
	svc := newTestEngagement(t, nil)
	ctx := context.Background()

	turns := []string{
		"Hello, I am calling from your bank",
		"Your account will be suspended today",
		"Share your OTP immediately",
	}
	for _, text := range turns {
		_, err := svc.ProcessMessage(ctx, "sess-4", text, nil, nil)
		require.NoError(t, err)
	}

	session, err := svc.sessions.Get(ctx, "sess-4")
	require.NoError(t, err)
	assert.Equal(t, 3, session.MessageCount)
	assert.Len(t, session.History, 3)
	assert.Len(t, session.ConfidenceTimeline, 3)
	assert.True(t, session.ScamDetected)
	assert.Contains(t, session.Signals, string(detection.SignalOTPRequest))
}

func TestProcessMessageRejectsBlankText(t *testing.T) {
	svc := newTestEngagement(t, nil)

	_, err := svc.ProcessMessage(context.Background(), "sess-5", "   ", nil, nil)
	assert.ErrorIs(t, err, detection.ErrInvalidInput)
}

func TestFinalizeDeliversPartialIntel(t *testing.T) {
	var callbacks atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		callbacks.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reporter := NewReporter(config.EvaluationConfig{
		CallbackURL: srv.URL,
		Timeout:     time.Second,
		MaxRetries:  3,
	}, nil, nil, logger.NewDefault())

	svc := newTestEngagement(t, reporter)
	ctx := context.Background()

	_, err := svc.ProcessMessage(ctx, "sess-6",
		"Your account will be suspended, share your OTP", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(0), callbacks.Load())

	// Conversation ends before collection completes; report goes out anyway.
	delivered, err := svc.Finalize(ctx, "sess-6")
	require.NoError(t, err)
	assert.True(t, delivered)
	assert.Equal(t, int32(1), callbacks.Load())
}
