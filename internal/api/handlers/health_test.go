package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	router := testRouter(newTestHandlers(t, nil))

	rec := doJSON(t, router, http.MethodPost, "/detect", map[string]any{
		"text": "Share your OTP immediately",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	decodeBody(t, rec, &resp)

	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, int64(1), resp.Stats["messages_analyzed"])
	assert.Equal(t, int64(1), resp.Stats["scams_detected"])
}

func TestReadyWithoutBackends(t *testing.T) {
	router := testRouter(newTestHandlers(t, nil))

	rec := doJSON(t, router, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	decodeBody(t, rec, &resp)

	assert.Equal(t, "ready", resp.Status)
	assert.Equal(t, "not configured", resp.Checks["redis"])
	assert.Equal(t, "not configured", resp.Checks["postgres"])
}
