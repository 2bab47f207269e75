package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fitops/reportpipe/internal/database"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("report not found")

const reportColumns = `id, name, report_type, format, frequency, time_of_day, cron_expr, recipients, filters, is_active, last_run_at, next_run_at, created_at, updated_at`

// Store handles database operations for scheduled reports.
type Store struct {
	db *database.DB
}

// NewStore creates a new report store.
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new scheduled report.
func (s *Store) Create(ctx context.Context, r *ScheduledReport) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}

	recipientsJSON, filtersJSON, err := marshalLists(r)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO scheduled_reports (` + reportColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		r.ID,
		r.Name,
		string(r.Type),
		string(r.Format),
		string(r.Schedule.Frequency),
		r.Schedule.TimeOfDay,
		r.Schedule.Cron,
		recipientsJSON,
		filtersJSON,
		boolToInt(r.IsActive),
		nullableTime(r.LastRunAt),
		nullableTime(r.NextRunAt),
		r.CreatedAt.UTC().Format(time.RFC3339),
		r.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting report: %w", err)
	}

	return nil
}

// Update replaces an existing report's definition.
func (s *Store) Update(ctx context.Context, r *ScheduledReport) error {
	r.UpdatedAt = time.Now().UTC()

	recipientsJSON, filtersJSON, err := marshalLists(r)
	if err != nil {
		return err
	}

	query := `
		UPDATE scheduled_reports
		SET name = ?, report_type = ?, format = ?, frequency = ?, time_of_day = ?, cron_expr = ?, recipients = ?, filters = ?, is_active = ?, last_run_at = ?, next_run_at = ?, updated_at = ?
		WHERE id = ?
	`

	_, err = s.db.ExecContext(ctx, query,
		r.Name,
		string(r.Type),
		string(r.Format),
		string(r.Schedule.Frequency),
		r.Schedule.TimeOfDay,
		r.Schedule.Cron,
		recipientsJSON,
		filtersJSON,
		boolToInt(r.IsActive),
		nullableTime(r.LastRunAt),
		nullableTime(r.NextRunAt),
		r.UpdatedAt.UTC().Format(time.RFC3339),
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("updating report: %w", err)
	}

	return nil
}

// TouchLastRun marks a report as picked up for execution.
func (s *Store) TouchLastRun(ctx context.Context, reportID string, ts time.Time) error {
	query := `
		UPDATE scheduled_reports
		SET last_run_at = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := s.db.ExecContext(ctx, query,
		ts.UTC().Format(time.RFC3339),
		database.Now(),
		reportID,
	)
	if err != nil {
		return fmt.Errorf("updating last_run_at: %w", err)
	}

	return nil
}

// UpdateNextRun persists a report's next scheduled run time.
func (s *Store) UpdateNextRun(ctx context.Context, reportID string, nextRun *time.Time) error {
	query := `
		UPDATE scheduled_reports
		SET next_run_at = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := s.db.ExecContext(ctx, query,
		nullableTime(nextRun),
		database.Now(),
		reportID,
	)
	if err != nil {
		return fmt.Errorf("updating next_run_at: %w", err)
	}

	return nil
}

// Delete removes a report.
func (s *Store) Delete(ctx context.Context, reportID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_reports WHERE id = ?`, reportID)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
	}

	return nil
}

// Get retrieves a report by ID.
func (s *Store) Get(ctx context.Context, reportID string) (*ScheduledReport, error) {
	query := `SELECT ` + reportColumns + ` FROM scheduled_reports WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, reportID)

	r, err := scanReport(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, reportID)
		}
		return nil, fmt.Errorf("getting report: %w", err)
	}

	return r, nil
}

// List retrieves all reports.
func (s *Store) List(ctx context.Context) ([]*ScheduledReport, error) {
	query := `SELECT ` + reportColumns + ` FROM scheduled_reports ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

// ListDue retrieves active reports that are due at the given time. A null
// next_run_at counts as due (first run or unknown schedule).
func (s *Store) ListDue(ctx context.Context, now time.Time) ([]*ScheduledReport, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM scheduled_reports
		WHERE is_active = 1
		  AND (next_run_at IS NULL OR next_run_at <= ?)
		ORDER BY next_run_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, now.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("querying due reports: %w", err)
	}
	defer rows.Close()

	return scanReports(rows)
}

func marshalLists(r *ScheduledReport) (recipientsJSON, filtersJSON string, err error) {
	recipients := r.Recipients
	if recipients == nil {
		recipients = []string{}
	}
	rb, err := json.Marshal(recipients)
	if err != nil {
		return "", "", fmt.Errorf("marshaling recipients: %w", err)
	}

	filters := r.Filters
	if filters == nil {
		filters = map[string]string{}
	}
	fb, err := json.Marshal(filters)
	if err != nil {
		return "", "", fmt.Errorf("marshaling filters: %w", err)
	}

	return string(rb), string(fb), nil
}

func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scanReport(scan func(dest ...any) error) (*ScheduledReport, error) {
	var r ScheduledReport
	var reportType, format, frequency string
	var recipientsJSON, filtersJSON string
	var lastRun, nextRun sql.NullString
	var createdAt, updatedAt string
	var isActive int

	err := scan(
		&r.ID,
		&r.Name,
		&reportType,
		&format,
		&frequency,
		&r.Schedule.TimeOfDay,
		&r.Schedule.Cron,
		&recipientsJSON,
		&filtersJSON,
		&isActive,
		&lastRun,
		&nextRun,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Type = Type(reportType)
	r.Format = Format(format)
	r.Schedule.Frequency = Frequency(frequency)
	r.IsActive = isActive == 1

	if err := json.Unmarshal([]byte(recipientsJSON), &r.Recipients); err != nil {
		return nil, fmt.Errorf("unmarshaling recipients: %w", err)
	}
	if err := json.Unmarshal([]byte(filtersJSON), &r.Filters); err != nil {
		return nil, fmt.Errorf("unmarshaling filters: %w", err)
	}

	if lastRun.Valid {
		t, parseErr := time.Parse(time.RFC3339, lastRun.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parsing last_run_at: %w", parseErr)
		}
		r.LastRunAt = &t
	}
	if nextRun.Valid {
		t, parseErr := time.Parse(time.RFC3339, nextRun.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parsing next_run_at: %w", parseErr)
		}
		r.NextRunAt = &t
	}

	createdAtTime, parseErr := time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	r.CreatedAt = createdAtTime

	updatedAtTime, parseErr := time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	r.UpdatedAt = updatedAtTime

	return &r, nil
}

func scanReports(rows *sql.Rows) ([]*ScheduledReport, error) {
	var reports []*ScheduledReport

	for rows.Next() {
		r, err := scanReport(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating report rows: %w", err)
	}

	return reports, nil
}
