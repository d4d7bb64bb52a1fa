package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeytrap-lab/internal/domain/models"
)

func TestIngestRequiresSessionID(t *testing.T) {
	router := testRouter(newTestHandlers(t, nil))

	rec := doJSON(t, router, http.MethodPost, "/ingest-message", map[string]any{
		"message": map[string]string{"sender": "scammer", "text": "hello"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestInvalidBody(t *testing.T) {
	router := testRouter(newTestHandlers(t, nil))

	rec := doRaw(router, http.MethodPost, "/ingest-message", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestBlankMessage(t *testing.T) {
	router := testRouter(newTestHandlers(t, nil))

	rec := doJSON(t, router, http.MethodPost, "/ingest-message", map[string]any{
		"sessionId": "sess-http-1",
		"message":   map[string]string{"sender": "scammer", "text": "   "},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestRunsFullPipeline(t *testing.T) {
	router := testRouter(newTestHandlers(t, nil))

	rec := doJSON(t, router, http.MethodPost, "/ingest-message", map[string]any{
		"sessionId": "sess-http-2",
		"message": map[string]string{
			"sender": "scammer",
			"text":   "Share your OTP now or account will be suspended, send money to fraudster@ybl",
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp IngestResponse
	decodeBody(t, rec, &resp)

	assert.Equal(t, "success", resp.Status)
	assert.NotEmpty(t, resp.Reply)
	require.NotNil(t, resp.Result)
	assert.True(t, resp.Result.Detection.ScamDetected)
	assert.True(t, resp.Result.IntelligenceReady)
	// No reporter is wired, so the session holds its intel until finalized.
	assert.False(t, resp.Result.Reported)
	assert.Equal(t, models.StateIntelComplete, resp.Result.State)
}

func TestIngestBenignStaysInit(t *testing.T) {
	router := testRouter(newTestHandlers(t, nil))

	rec := doJSON(t, router, http.MethodPost, "/ingest-message", map[string]any{
		"sessionId": "sess-http-3",
		"message":   map[string]string{"sender": "scammer", "text": "Your statement is ready"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp IngestResponse
	decodeBody(t, rec, &resp)

	assert.False(t, resp.Result.Detection.ScamDetected)
	assert.Equal(t, models.StateInit, resp.Result.State)
}
