package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"honeytrap-lab/internal/config"
)

func TestAPIKeyAuth(t *testing.T) {
	var seenKey string
	handler := APIKeyAuth([]string{"key-one", "key-two"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenKey = GetAPIKey(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

	tests := []struct {
		name       string
		method     string
		key        string
		wantStatus int
	}{
		{name: "missing key", method: http.MethodPost, key: "", wantStatus: http.StatusUnauthorized},
		{name: "invalid key", method: http.MethodPost, key: "wrong", wantStatus: http.StatusUnauthorized},
		{name: "valid key", method: http.MethodPost, key: "key-two", wantStatus: http.StatusOK},
		{name: "preflight skips auth", method: http.MethodOptions, key: "", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenKey = ""
			req := httptest.NewRequest(tt.method, "/api/v1/detect", nil)
			if tt.key != "" {
				req.Header.Set("x-api-key", tt.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK && tt.key != "" {
				assert.Equal(t, tt.key, seenKey)
			}
		})
	}
}

func TestRateLimiterWithoutCachePassesThrough(t *testing.T) {
	handler := RateLimiter(nil, config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
