// Package pipeline runs the fetch, render, store, deliver sequence for one
// scheduled report.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fitops/reportpipe/internal/aggregator"
	"github.com/fitops/reportpipe/internal/delivery"
	"github.com/fitops/reportpipe/internal/metrics"
	"github.com/fitops/reportpipe/internal/render"
	"github.com/fitops/reportpipe/internal/report"
)

// DataFetcher aggregates domain data for a report request.
type DataFetcher interface {
	Fetch(ctx context.Context, typ report.Type, filters map[string]string) (*aggregator.Dataset, error)
}

// ArtifactRenderer turns aggregated data into a byte artifact.
type ArtifactRenderer interface {
	Render(typ report.Type, ds *aggregator.Dataset, opts render.Options, format report.Format) ([]byte, error)
}

// Uploader persists an artifact and returns a download URL, or "" when
// storage is unavailable.
type Uploader interface {
	Upload(ctx context.Context, data []byte, reportID string, format report.Format, typ report.Type) (string, error)
}

// Sender delivers the artifact to the report's recipients.
type Sender interface {
	Send(req delivery.SendRequest) delivery.SendResult
}

// ScheduleStore persists schedule mutations after a run attempt.
type ScheduleStore interface {
	UpdateNextRun(ctx context.Context, reportID string, nextRun *time.Time) error
}

// RunResult summarizes one pipeline run for callers (the scheduler, or a
// manual trigger surfacing the outcome to an operator).
type RunResult struct {
	ReportID      string
	GeneratedAt   time.Time
	Duration      time.Duration
	ArtifactBytes int
	DownloadURL   string
	EmailSent     bool
	DeliveryError string
}

// Orchestrator sequences the four pipeline steps and always leaves the
// report's schedule in a consistent state.
type Orchestrator struct {
	fetcher  DataFetcher
	renderer ArtifactRenderer
	uploader Uploader
	sender   Sender
	store    ScheduleStore
	history  *HistoryStore

	// now is injectable for tests.
	now func() time.Time
}

// NewOrchestrator wires the pipeline. uploader and history may be nil
// (degraded storage, no run history).
func NewOrchestrator(fetcher DataFetcher, renderer ArtifactRenderer, uploader Uploader, sender Sender, store ScheduleStore, history *HistoryStore) *Orchestrator {
	return &Orchestrator{
		fetcher:  fetcher,
		renderer: renderer,
		uploader: uploader,
		sender:   sender,
		store:    store,
		history:  history,
		now:      time.Now,
	}
}

// Run executes the pipeline for one report. Aggregation and render failures
// abort the run; storage and delivery failures degrade it. In every case
// the report's next_run_at is advanced before Run returns, so one failing
// report cannot be re-selected each poll cycle.
func (o *Orchestrator) Run(ctx context.Context, r *report.ScheduledReport) (result *RunResult, err error) {
	start := o.now()
	result = &RunResult{ReportID: r.ID, GeneratedAt: start.UTC()}

	defer func() {
		result.Duration = o.now().Sub(start)

		o.advanceSchedule(r)

		status := "completed"
		var errText string
		if err != nil {
			status = "failed"
			errText = err.Error()
		} else if !result.EmailSent {
			errText = result.DeliveryError
		}
		metrics.RecordRun(string(r.Type), string(r.Format), status, result.Duration, result.ArtifactBytes)
		o.recordHistory(result, start, status, errText)
	}()

	// Step 1: fetch. A failed fetch aborts the run; no partial artifact
	// is produced or delivered.
	ds, err := o.fetcher.Fetch(ctx, r.Type, r.Filters)
	if err != nil {
		log.Error().Err(err).Str("report_id", r.ID).Str("report_type", string(r.Type)).Msg("Report data aggregation failed")
		return result, fmt.Errorf("aggregating %s data: %w", r.Type, err)
	}

	// Step 2: render. An unsupported format is a configuration error and
	// is not retried.
	data, err := o.renderer.Render(r.Type, ds, render.Options{Title: r.Name, Filters: r.Filters}, r.Format)
	if err != nil {
		log.Error().Err(err).Str("report_id", r.ID).Str("format", string(r.Format)).Msg("Report render failed")
		return result, fmt.Errorf("rendering report: %w", err)
	}
	result.ArtifactBytes = len(data)

	// Step 3: store, best-effort. Storage is never allowed to block
	// delivery.
	if o.uploader != nil {
		url, uploadErr := o.uploader.Upload(ctx, data, r.ID, r.Format, r.Type)
		if uploadErr != nil {
			log.Warn().Err(uploadErr).Str("report_id", r.ID).Msg("Artifact upload failed, continuing without download URL")
		} else {
			result.DownloadURL = url
		}
	}

	// Step 4: deliver, best-effort. Failure is recorded, not raised.
	sendResult := o.sender.Send(delivery.SendRequest{
		Recipients:  r.Recipients,
		ReportName:  r.Name,
		ReportType:  r.Type,
		Format:      r.Format,
		Artifact:    data,
		DownloadURL: result.DownloadURL,
		GeneratedAt: result.GeneratedAt,
	})
	result.EmailSent = sendResult.Success
	result.DeliveryError = sendResult.Error
	metrics.RecordDelivery(sendResult.Success)

	if !sendResult.Success {
		log.Warn().
			Str("report_id", r.ID).
			Str("error", sendResult.Error).
			Msg("Report delivery failed")
	} else {
		log.Info().
			Str("report_id", r.ID).
			Str("report_type", string(r.Type)).
			Str("format", string(r.Format)).
			Int("artifact_bytes", result.ArtifactBytes).
			Strs("recipients", sendResult.Recipients).
			Msg("Report delivered")
	}

	return result, nil
}

// advanceSchedule recomputes next_run_at after a run attempt, success or
// failure. An unrecognized schedule leaves the existing value untouched.
func (o *Orchestrator) advanceSchedule(r *report.ScheduledReport) {
	next := report.ComputeNextRun(o.now().UTC(), r.Schedule)
	if next == nil {
		log.Warn().
			Str("report_id", r.ID).
			Str("frequency", string(r.Schedule.Frequency)).
			Msg("Unrecognized schedule, keeping existing next_run_at")
		return
	}

	if err := o.store.UpdateNextRun(context.Background(), r.ID, next); err != nil {
		log.Error().Err(err).Str("report_id", r.ID).Msg("Failed to persist next_run_at")
		return
	}
	r.NextRunAt = next
}

func (o *Orchestrator) recordHistory(result *RunResult, start time.Time, status, errText string) {
	if o.history == nil {
		return
	}

	record := &RunRecord{
		ReportID:      result.ReportID,
		StartedAt:     start.UTC(),
		Duration:      result.Duration,
		Status:        status,
		ArtifactBytes: result.ArtifactBytes,
		DownloadURL:   result.DownloadURL,
		EmailSent:     result.EmailSent,
		Error:         errText,
	}
	if err := o.history.Record(context.Background(), record); err != nil {
		log.Error().Err(err).Str("report_id", result.ReportID).Msg("Failed to record run history")
	}
}
