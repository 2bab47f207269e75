// Package scheduler polls for due reports and dispatches them to the
// pipeline without letting poll cycles overlap or block on report runs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fitops/reportpipe/internal/metrics"
	"github.com/fitops/reportpipe/internal/pipeline"
	"github.com/fitops/reportpipe/internal/report"
)

// ReportRunner executes the pipeline for one report.
type ReportRunner interface {
	Run(ctx context.Context, r *report.ScheduledReport) (*pipeline.RunResult, error)
}

// ReportSource is the slice of the record store the scheduler reads and
// marks.
type ReportSource interface {
	ListDue(ctx context.Context, now time.Time) ([]*report.ScheduledReport, error)
	TouchLastRun(ctx context.Context, reportID string, ts time.Time) error
	Get(ctx context.Context, reportID string) (*report.ScheduledReport, error)
}

// Config holds scheduler settings.
type Config struct {
	// PollInterval is how often to poll for due reports (default: 60 seconds).
	PollInterval time.Duration

	// RunTimeout bounds each dispatched run (0 = unbounded).
	RunTimeout time.Duration
}

// Scheduler is the due-report poller. One timer, one guarded critical
// section; dispatched runs execute concurrently and are never awaited by
// the poll that started them.
type Scheduler struct {
	store  ReportSource
	runner ReportRunner

	pollInterval time.Duration
	runTimeout   time.Duration

	// polling guards against overlapping poll cycles; an overlapping
	// tick is skipped, not queued.
	polling atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	runWG  sync.WaitGroup

	now func() time.Time
}

// New creates a scheduler.
func New(store ReportSource, runner ReportRunner, cfg Config) *Scheduler {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 60 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		store:        store,
		runner:       runner,
		pollInterval: cfg.PollInterval,
		runTimeout:   cfg.RunTimeout,
		ctx:          ctx,
		cancel:       cancel,
		now:          time.Now,
	}
}

// Start begins background polling. One poll fires immediately, then every
// poll interval.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.pollLoop()

	log.Info().
		Dur("poll_interval", s.pollInterval).
		Msg("Report scheduler started")
}

// Stop cancels the poll loop. In-flight report runs are not cancelled; they
// are waited for so shutdown doesn't orphan a delivery mid-send.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.runWG.Wait()
	log.Info().Msg("Report scheduler stopped")
}

func (s *Scheduler) pollLoop() {
	defer s.wg.Done()

	s.Poll(s.ctx)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Poll(s.ctx)
		}
	}
}

// Poll runs one guarded poll cycle: list due reports, mark each as picked
// up, and dispatch its run without waiting for completion. Store errors are
// logged and swallowed; the next tick retries.
func (s *Scheduler) Poll(ctx context.Context) {
	if !s.polling.CompareAndSwap(false, true) {
		log.Debug().Msg("Previous poll still in progress, skipping tick")
		metrics.RecordPoll("skipped")
		return
	}
	defer s.polling.Store(false)

	now := s.now().UTC()

	due, err := s.store.ListDue(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list due reports")
		metrics.RecordPoll("failed")
		return
	}
	metrics.RecordPoll("ok")

	if len(due) == 0 {
		return
	}

	log.Info().Int("count", len(due)).Msg("Dispatching due reports")

	for _, r := range due {
		if err := s.store.TouchLastRun(ctx, r.ID, now); err != nil {
			log.Error().Err(err).Str("report_id", r.ID).Msg("Failed to mark report as picked up")
		}
		r.LastRunAt = &now

		s.dispatch(r)
	}
}

// dispatch starts one report run in its own goroutine. Failures are
// captured and logged here so a slow or failing report cannot affect its
// siblings from the same cycle.
func (s *Scheduler) dispatch(r *report.ScheduledReport) {
	s.runWG.Add(1)

	go func() {
		defer s.runWG.Done()
		defer func() {
			if p := recover(); p != nil {
				log.Error().
					Str("report_id", r.ID).
					Interface("panic", p).
					Msg("Report run panicked")
			}
		}()

		// Runs deliberately outlive the poll context: Stop cancels
		// future polls, not in-flight runs.
		ctx := context.Background()
		if s.runTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
			defer cancel()
		}

		if _, err := s.runner.Run(ctx, r); err != nil {
			log.Error().Err(err).Str("report_id", r.ID).Msg("Report run failed")
		}
	}()
}

// RunNow executes one report immediately, bypassing the poll guard. A
// manual run may race a poll-triggered run of the same report; duplicate
// delivery is the accepted worst case.
func (s *Scheduler) RunNow(ctx context.Context, reportID string) (*pipeline.RunResult, error) {
	r, err := s.store.Get(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("loading report: %w", err)
	}

	now := s.now().UTC()
	if err := s.store.TouchLastRun(ctx, r.ID, now); err != nil {
		log.Error().Err(err).Str("report_id", r.ID).Msg("Failed to mark report as picked up")
	}
	r.LastRunAt = &now

	return s.runner.Run(ctx, r)
}
