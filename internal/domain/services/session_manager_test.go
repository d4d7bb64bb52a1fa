package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeytrap-lab/internal/detection"
	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/pkg/logger"
)

func newTestSessionManager() *SessionManager {
	return NewSessionManager(NewMemorySessionStore(), logger.NewDefault())
}

func TestGetOrCreateSession(t *testing.T) {
	m := newTestSessionManager()
	ctx := context.Background()

	session, err := m.GetOrCreate(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", session.ID)
	assert.Equal(t, models.StateInit, session.State)
	assert.Zero(t, session.MessageCount)

	// Second call returns the same session.
	session.AddMessage(detection.ConversationEntry{
		Sender: detection.SenderScammer,
		Text:   "hello",
	})
	require.NoError(t, m.Save(ctx, session))

	again, err := m.GetOrCreate(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.MessageCount)
}

func TestGetMissingSession(t *testing.T) {
	m := newTestSessionManager()

	_, err := m.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteSession(t *testing.T) {
	m := newTestSessionManager()
	ctx := context.Background()

	_, err := m.GetOrCreate(ctx, "sess-2")
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, "sess-2"))

	_, err = m.Get(ctx, "sess-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestListAndActiveCount(t *testing.T) {
	m := newTestSessionManager()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := m.GetOrCreate(ctx, id)
		require.NoError(t, err)
	}

	summaries, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 3)

	count, err := m.ActiveCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestTransitionPersists(t *testing.T) {
	m := newTestSessionManager()
	ctx := context.Background()

	session, err := m.GetOrCreate(ctx, "sess-3")
	require.NoError(t, err)

	require.NoError(t, m.Transition(ctx, session, models.StateSuspected))
	require.NoError(t, m.Transition(ctx, session, models.StateEngaging))

	stored, err := m.Get(ctx, "sess-3")
	require.NoError(t, err)
	assert.Equal(t, models.StateEngaging, stored.State)
}

func TestSessionSignalAccumulation(t *testing.T) {
	session := models.NewSession("sess-4")

	session.AddSignals([]string{"otp_request", "urgency"})
	session.AddSignals([]string{"urgency", "upi_request"})

	assert.Equal(t, []string{"otp_request", "urgency", "upi_request"}, session.Signals)
}

func TestSessionConfidenceTimeline(t *testing.T) {
	session := models.NewSession("sess-5")

	session.AddConfidenceSnapshot(0.4, 1)
	session.AddConfidenceSnapshot(0.75, 2)

	require.Len(t, session.ConfidenceTimeline, 2)
	assert.Equal(t, 1, session.ConfidenceTimeline[0].Turn)
	assert.Equal(t, 0.75, session.ConfidenceTimeline[1].Confidence)
}
