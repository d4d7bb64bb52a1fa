package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"honeytrap-lab/internal/domain/models"
)

// ReportRepository persists final session reports and failed deliveries.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a report repository.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// SaveReport archives a delivered session report.
func (r *ReportRepository) SaveReport(ctx context.Context, report models.SessionReport) error {
	intel, err := json.Marshal(report.ExtractedIntelligence)
	if err != nil {
		return fmt.Errorf("failed to marshal intelligence: %w", err)
	}

	query := `
		INSERT INTO session_reports (
			id, session_id, scam_detected, total_messages,
			extracted_intelligence, agent_notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query,
		uuid.New(), report.SessionID, report.ScamDetected,
		report.TotalMessagesExchanged, intel, report.AgentNotes, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// SaveFailedReport stores a report whose delivery exhausted all retries so it
// can be replayed later.
func (r *ReportRepository) SaveFailedReport(ctx context.Context, failed models.FailedReport) error {
	payload, err := json.Marshal(failed.Report)
	if err != nil {
		return fmt.Errorf("failed to marshal report payload: %w", err)
	}

	query := `
		INSERT INTO failed_reports (
			id, session_id, payload, last_error, attempts, failed_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			last_error = EXCLUDED.last_error,
			attempts = EXCLUDED.attempts,
			failed_at = EXCLUDED.failed_at`

	if _, err := r.pool.Exec(ctx, query,
		uuid.New(), failed.SessionID, payload, failed.LastError,
		failed.Attempts, failed.FailedAt,
	); err != nil {
		return fmt.Errorf("failed to save failed report: %w", err)
	}
	return nil
}

// ListFailedReports returns undelivered reports, oldest first.
func (r *ReportRepository) ListFailedReports(ctx context.Context, limit int) ([]models.FailedReport, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT session_id, payload, last_error, attempts, failed_at
		FROM failed_reports
		ORDER BY failed_at ASC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed reports: %w", err)
	}
	defer rows.Close()

	var out []models.FailedReport
	for rows.Next() {
		var (
			failed  models.FailedReport
			payload []byte
		)
		if err := rows.Scan(&failed.SessionID, &payload, &failed.LastError, &failed.Attempts, &failed.FailedAt); err != nil {
			return nil, fmt.Errorf("failed to scan failed report: %w", err)
		}
		if err := json.Unmarshal(payload, &failed.Report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report payload: %w", err)
		}
		out = append(out, failed)
	}
	return out, rows.Err()
}

// DeleteFailedReport removes a failed report after successful replay.
func (r *ReportRepository) DeleteFailedReport(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM failed_reports WHERE session_id = $1`, sessionID)
	return err
}
