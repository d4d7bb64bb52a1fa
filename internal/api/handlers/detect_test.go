package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeytrap-lab/internal/detection"
)

func TestDetectAnalyzeScam(t *testing.T) {
	router := testRouter(newTestHandlers(t, nil))

	rec := doJSON(t, router, http.MethodPost, "/detect", map[string]any{
		"text": "Your account will be suspended. Share your OTP immediately to verify.",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result detection.Result
	decodeBody(t, rec, &result)

	assert.True(t, result.ScamDetected)
	assert.GreaterOrEqual(t, result.Confidence, 0.7)
	assert.Contains(t, result.Signals, string(detection.SignalOTPRequest))
	assert.NotEmpty(t, result.Explanation)
}

func TestDetectAnalyzeBenign(t *testing.T) {
	router := testRouter(newTestHandlers(t, nil))

	rec := doJSON(t, router, http.MethodPost, "/detect", map[string]any{
		"text": "Are we still meeting for lunch tomorrow?",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result detection.Result
	decodeBody(t, rec, &result)

	assert.False(t, result.ScamDetected)
	assert.Empty(t, result.Signals)
}

func TestDetectAnalyzeBlankText(t *testing.T) {
	router := testRouter(newTestHandlers(t, nil))

	rec := doJSON(t, router, http.MethodPost, "/detect", map[string]any{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectAnalyzeInvalidBody(t *testing.T) {
	router := testRouter(newTestHandlers(t, nil))

	rec := doRaw(router, http.MethodPost, "/detect", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectAnalyzeMalformedHistoryIgnored(t *testing.T) {
	router := testRouter(newTestHandlers(t, nil))

	// History that is not a list degrades to no history rather than an error.
	rec := doRaw(router, http.MethodPost, "/detect",
		`{"text":"Share your OTP now","conversationHistory":"garbage"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result detection.Result
	decodeBody(t, rec, &result)
	assert.Contains(t, result.Signals, string(detection.SignalOTPRequest))
}

func TestDetectAnalyzeMixedHistoryEntries(t *testing.T) {
	router := testRouter(newTestHandlers(t, nil))

	// Usable entries survive a list holding malformed items.
	rec := doRaw(router, http.MethodPost, "/detect",
		`{"text":"Send the code now","conversationHistory":[{"sender":"scammer","text":"I am from your bank"},42]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDetectAnalyzeBatch(t *testing.T) {
	router := testRouter(newTestHandlers(t, nil))

	rec := doJSON(t, router, http.MethodPost, "/detect/batch", map[string]any{
		"messages": []map[string]any{
			{"text": "Share your OTP immediately or your account will be suspended"},
			{"text": "See you at the gym tonight"},
			{"text": "   "},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []detection.BatchItem `json:"results"`
	}
	decodeBody(t, rec, &resp)

	require.Len(t, resp.Results, 3)
	assert.True(t, resp.Results[0].ScamDetected)
	assert.False(t, resp.Results[1].ScamDetected)
	assert.Empty(t, resp.Results[1].Error)
	assert.NotEmpty(t, resp.Results[2].Error)
	assert.False(t, resp.Results[2].ScamDetected)
}

func TestDetectAnalyzeBatchEmpty(t *testing.T) {
	router := testRouter(newTestHandlers(t, nil))

	rec := doJSON(t, router, http.MethodPost, "/detect/batch", map[string]any{
		"messages": []map[string]any{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectAnalyzeBatchTooLarge(t *testing.T) {
	router := testRouter(newTestHandlers(t, nil))

	messages := make([]map[string]any, 101)
	for i := range messages {
		messages[i] = map[string]any{"text": "hello"}
	}

	rec := doJSON(t, router, http.MethodPost, "/detect/batch", map[string]any{
		"messages": messages,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
