package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"honeytrap-lab/internal/config"
	"honeytrap-lab/internal/domain/models"
	"honeytrap-lab/internal/infrastructure/cache"
	"honeytrap-lab/pkg/logger"
)

// defaultRetryBackoff is the wait between delivery attempts.
var defaultRetryBackoff = []time.Duration{time.Second, 3 * time.Second, 5 * time.Second}

// FailedReportStore persists reports whose delivery exhausted all retries.
type FailedReportStore interface {
	SaveFailedReport(ctx context.Context, report models.FailedReport) error
}

// Reporter delivers final session reports to the evaluation endpoint with
// retry, per-session dedup, and failed-delivery persistence.
type Reporter struct {
	callbackURL string
	maxRetries  int
	backoff     []time.Duration
	httpClient  *http.Client
	cache       *cache.RedisCache
	failedStore FailedReportStore
	logger      *logger.Logger

	mu      sync.Mutex
	sent    map[string]struct{}
	pending map[string]models.SessionReport
}

// NewReporter creates a reporter. cache and failedStore may be nil; dedup then
// falls back to process memory and failed reports stay in the pending queue
// only.
func NewReporter(cfg config.EvaluationConfig, c *cache.RedisCache, failedStore FailedReportStore, log *logger.Logger) *Reporter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = len(defaultRetryBackoff)
	}

	return &Reporter{
		callbackURL: cfg.CallbackURL,
		maxRetries:  retries,
		backoff:     defaultRetryBackoff,
		httpClient:  &http.Client{Timeout: timeout},
		cache:       c,
		failedStore: failedStore,
		logger:      log.WithComponent("reporter"),
		sent:        make(map[string]struct{}),
		pending:     make(map[string]models.SessionReport),
	}
}

// Send delivers the report, retrying on failure. A report that was already
// delivered for the same session is skipped. Returns whether delivery
// ultimately succeeded.
func (r *Reporter) Send(ctx context.Context, report models.SessionReport) (bool, error) {
	if r.callbackURL == "" {
		return false, fmt.Errorf("no callback URL configured")
	}

	already, err := r.alreadySent(ctx, report.SessionID)
	if err != nil {
		r.logger.Warn().Err(err).Str("session_id", report.SessionID).Msg("dedup check failed, proceeding")
	}
	if already {
		r.logger.Warn().Str("session_id", report.SessionID).Msg("report already delivered, skipping")
		return true, nil
	}

	var lastErr error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		if err := r.post(ctx, report); err != nil {
			lastErr = err
			r.logger.Warn().
				Err(err).
				Str("session_id", report.SessionID).
				Int("attempt", attempt).
				Msg("report delivery failed")
		} else {
			r.markSent(ctx, report.SessionID)
			r.mu.Lock()
			delete(r.pending, report.SessionID)
			r.mu.Unlock()
			r.logger.Info().
				Str("session_id", report.SessionID).
				Int("attempt", attempt).
				Msg("report delivered")
			return true, nil
		}

		if attempt < r.maxRetries {
			wait := r.backoff[min(attempt-1, len(r.backoff)-1)]
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	r.persistFailure(ctx, report, lastErr)
	return false, lastErr
}

// RetryPending re-attempts every queued report once. Returns the number that
// went through.
func (r *Reporter) RetryPending(ctx context.Context) int {
	r.mu.Lock()
	queued := make([]models.SessionReport, 0, len(r.pending))
	for _, report := range r.pending {
		queued = append(queued, report)
	}
	r.mu.Unlock()

	if len(queued) == 0 {
		return 0
	}
	r.logger.Info().Int("count", len(queued)).Msg("retrying pending reports")

	delivered := 0
	for _, report := range queued {
		if err := r.post(ctx, report); err != nil {
			r.logger.Warn().Err(err).Str("session_id", report.SessionID).Msg("pending retry failed")
			continue
		}
		r.markSent(ctx, report.SessionID)
		r.mu.Lock()
		delete(r.pending, report.SessionID)
		r.mu.Unlock()
		delivered++
	}
	return delivered
}

// HasSent reports whether a delivery already went out for the session.
func (r *Reporter) HasSent(ctx context.Context, sessionID string) bool {
	sent, _ := r.alreadySent(ctx, sessionID)
	return sent
}

func (r *Reporter) post(ctx context.Context, report models.SessionReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("callback request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	return nil
}

func (r *Reporter) alreadySent(ctx context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	_, ok := r.sent[sessionID]
	r.mu.Unlock()
	if ok {
		return true, nil
	}
	if r.cache != nil {
		return r.cache.ReportAlreadySent(ctx, sessionID)
	}
	return false, nil
}

func (r *Reporter) markSent(ctx context.Context, sessionID string) {
	r.mu.Lock()
	r.sent[sessionID] = struct{}{}
	r.mu.Unlock()
	if r.cache != nil {
		if _, err := r.cache.MarkReportSent(ctx, sessionID, 7*24*time.Hour); err != nil {
			r.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to mark report sent in cache")
		}
	}
}

func (r *Reporter) persistFailure(ctx context.Context, report models.SessionReport, cause error) {
	r.mu.Lock()
	r.pending[report.SessionID] = report
	r.mu.Unlock()

	r.logger.Error().
		Err(cause).
		Str("session_id", report.SessionID).
		Int("attempts", r.maxRetries).
		Msg("all delivery attempts failed, report queued")

	if r.failedStore == nil {
		return
	}

	failed := models.FailedReport{
		SessionID: report.SessionID,
		Report:    report,
		Attempts:  r.maxRetries,
		FailedAt:  time.Now().UTC(),
	}
	if cause != nil {
		failed.LastError = cause.Error()
	}
	if err := r.failedStore.SaveFailedReport(ctx, failed); err != nil {
		r.logger.Error().Err(err).Str("session_id", report.SessionID).Msg("failed to persist report")
	}
}
