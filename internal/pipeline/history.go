package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fitops/reportpipe/internal/database"
)

// RunRecord is one row of run history.
type RunRecord struct {
	ID            string
	ReportID      string
	StartedAt     time.Time
	Duration      time.Duration
	Status        string
	ArtifactBytes int
	DownloadURL   string
	EmailSent     bool
	Error         string
}

// HistoryStore persists pipeline run outcomes for operators.
type HistoryStore struct {
	db *database.DB
}

// NewHistoryStore creates a run history store.
func NewHistoryStore(db *database.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Record inserts one run record.
func (s *HistoryStore) Record(ctx context.Context, r *RunRecord) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	query := `
		INSERT INTO report_runs (id, report_id, started_at, duration_ms, status, artifact_bytes, download_url, email_sent, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	emailSent := 0
	if r.EmailSent {
		emailSent = 1
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.ReportID,
		r.StartedAt.UTC().Format(time.RFC3339),
		r.Duration.Milliseconds(),
		r.Status,
		r.ArtifactBytes,
		r.DownloadURL,
		emailSent,
		r.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting run record: %w", err)
	}

	return nil
}

// ListByReport retrieves run history for one report, newest first.
func (s *HistoryStore) ListByReport(ctx context.Context, reportID string, limit int) ([]*RunRecord, error) {
	query := `
		SELECT id, report_id, started_at, duration_ms, status, artifact_bytes, download_url, email_sent, error
		FROM report_runs
		WHERE report_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, reportID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying run history: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		r, err := scanRunRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

func scanRunRecord(rows *sql.Rows) (*RunRecord, error) {
	var r RunRecord
	var startedAt string
	var durationMs int64
	var emailSent int

	err := rows.Scan(
		&r.ID,
		&r.ReportID,
		&startedAt,
		&durationMs,
		&r.Status,
		&r.ArtifactBytes,
		&r.DownloadURL,
		&emailSent,
		&r.Error,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning run record: %w", err)
	}

	t, parseErr := time.Parse(time.RFC3339, startedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing started_at: %w", parseErr)
	}
	r.StartedAt = t
	r.Duration = time.Duration(durationMs) * time.Millisecond
	r.EmailSent = emailSent == 1

	return &r, nil
}
