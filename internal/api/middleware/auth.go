package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
)

// ContextKey is a type for context keys
type ContextKey string

// ContextKeyAPIKey is the context key for the authenticated API key
const ContextKeyAPIKey ContextKey = "api_key"

// APIKeyAuth returns middleware that validates the x-api-key header against
// the configured key set.
func APIKeyAuth(apiKeys []string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for OPTIONS requests (CORS preflight)
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get("x-api-key")
			if apiKey == "" {
				http.Error(w, `{"error":"missing x-api-key header"}`, http.StatusUnauthorized)
				return
			}

			valid := false
			for _, k := range apiKeys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(k)) == 1 {
					valid = true
				}
			}
			if !valid {
				http.Error(w, `{"error":"invalid API key"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyAPIKey, apiKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAPIKey returns the API key from context
func GetAPIKey(ctx context.Context) string {
	if key, ok := ctx.Value(ContextKeyAPIKey).(string); ok {
		return key
	}
	return ""
}
