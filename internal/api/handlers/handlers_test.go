package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"honeytrap-lab/internal/detection"
	"honeytrap-lab/internal/domain/services"
	"honeytrap-lab/pkg/logger"
)

func newTestHandlers(t *testing.T, reporter *services.Reporter) *Handlers {
	t.Helper()
	log := logger.NewDefault()
	detector := detection.NewDetector(log)
	sessions := services.NewSessionManager(services.NewMemorySessionStore(), log)
	engagement := services.NewEngagementService(
		detector,
		sessions,
		services.NewAgentEngine(time.Millisecond, log),
		services.NewIntelExtractor(10, log),
		reporter,
		nil,
		log,
	)

	return NewHandlers(Dependencies{
		Detector:   detector,
		Engagement: engagement,
		Sessions:   sessions,
		Logger:     log,
		Version:    "test",
	})
}

func testRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", h.Health.Check)
	r.Get("/ready", h.Health.Ready)
	r.Post("/detect", h.Detect.Analyze)
	r.Post("/detect/batch", h.Detect.AnalyzeBatch)
	r.Post("/ingest-message", h.Engage.Ingest)
	r.Route("/sessions", func(sr chi.Router) {
		sr.Get("/", h.Sessions.List)
		sr.Get("/{id}", h.Sessions.Get)
		sr.Post("/{id}/finalize", h.Sessions.Finalize)
		sr.Delete("/{id}", h.Sessions.Delete)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	return doRaw(router, method, path, buf.String())
}

func doRaw(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}
