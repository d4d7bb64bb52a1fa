package detection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"honeytrap-lab/pkg/logger"
)

// Sender labels for conversation entries.
const (
	SenderScammer = "scammer"
	SenderUser    = "user"
)

// ErrInvalidInput is returned when the message text is missing or blank.
// Callers must reject the request outright.
var ErrInvalidInput = errors.New("text is required and must be non-empty")

// ConversationEntry is one prior message supplied by the caller.
type ConversationEntry struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Input carries one message to score plus optional context. Metadata is
// passed through unused.
type Input struct {
	Text                string              `json:"text"`
	ConversationHistory []ConversationEntry `json:"conversationHistory,omitempty"`
	Metadata            map[string]any      `json:"metadata,omitempty"`
}

// Result is the public detection output for one message.
type Result struct {
	ScamDetected bool              `json:"scamDetected"`
	Confidence   float64           `json:"confidence"`
	Signals      []string          `json:"signals"`
	Explanation  map[string]string `json:"explanation"`
	// ScoreExplanation is a qualitative summary of the confidence bucket.
	ScoreExplanation string `json:"scoreExplanation,omitempty"`
}

// BatchItem is one positional entry of a batch response. Error is set only
// for items whose input failed validation; such items carry the zero result.
type BatchItem struct {
	Result
	Error string `json:"error,omitempty"`
}

const (
	maxBatchSize   = 100
	maxConcurrency = 5
)

// Detector drives the rule matcher and scorer. It holds no per-call state;
// the rule and weight tables are read-only after startup, so one Detector is
// safe for concurrent use.
type Detector struct {
	logger *logger.Logger

	mu            sync.RWMutex
	totalAnalyzed int64
	scamsDetected int64
}

// NewDetector creates a detector.
func NewDetector(log *logger.Logger) *Detector {
	return &Detector{
		logger: log.WithComponent("detector"),
	}
}

// Analyze validates the input, matches signals, scores them, and assembles
// the public result.
func (d *Detector) Analyze(ctx context.Context, input Input) (Result, error) {
	if strings.TrimSpace(input.Text) == "" {
		return Result{}, ErrInvalidInput
	}

	history := sanitizeHistory(input.ConversationHistory)

	match := MatchSignals(input.Text, history)
	confidence := Score(match.Signals, len(history))
	detected := IsScam(confidence)

	signals := make([]string, len(match.Signals))
	for i, sig := range match.Signals {
		signals[i] = string(sig)
	}

	result := Result{
		ScamDetected:     detected,
		Confidence:       confidence,
		Signals:          signals,
		Explanation:      match.Explanations,
		ScoreExplanation: ExplainConfidence(confidence, match.Signals),
	}

	d.recordStats(detected)

	d.logger.Debug().
		Bool("scam_detected", detected).
		Float64("confidence", confidence).
		Int("signals", len(signals)).
		Int("history_len", len(history)).
		Msg("message analyzed")

	return result, nil
}

// AnalyzeBatch applies the single-message path independently per item with
// bounded concurrency. Input order is preserved; a failed item yields an
// error-marked zero result without aborting the rest.
func (d *Detector) AnalyzeBatch(ctx context.Context, inputs []Input) ([]BatchItem, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("batch must contain at least one message")
	}
	if len(inputs) > maxBatchSize {
		return nil, fmt.Errorf("batch exceeds maximum of %d messages", maxBatchSize)
	}

	items := make([]BatchItem, len(inputs))

	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	for i, input := range inputs {
		wg.Add(1)
		go func(idx int, in Input) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := d.Analyze(ctx, in)
			if err != nil {
				items[idx] = BatchItem{
					Result: errorResult(),
					Error:  err.Error(),
				}
				return
			}
			items[idx] = BatchItem{Result: result}
		}(i, input)
	}

	wg.Wait()
	return items, nil
}

// Stats returns cumulative analysis counters.
func (d *Detector) Stats() (totalAnalyzed, scamsDetected int64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.totalAnalyzed, d.scamsDetected
}

func (d *Detector) recordStats(detected bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.totalAnalyzed++
	if detected {
		d.scamsDetected++
	}
}

// sanitizeHistory drops malformed entries rather than failing the call.
func sanitizeHistory(history []ConversationEntry) []ConversationEntry {
	if len(history) == 0 {
		return nil
	}
	clean := make([]ConversationEntry, 0, len(history))
	for _, entry := range history {
		if strings.TrimSpace(entry.Text) == "" {
			continue
		}
		clean = append(clean, entry)
	}
	return clean
}

// errorResult is the substitute shape for a failed batch position.
func errorResult() Result {
	return Result{
		ScamDetected: false,
		Confidence:   0,
		Signals:      []string{},
		Explanation:  map[string]string{},
	}
}
