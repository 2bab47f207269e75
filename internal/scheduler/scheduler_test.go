package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fitops/reportpipe/internal/pipeline"
	"github.com/fitops/reportpipe/internal/report"
)

type fakeSource struct {
	mu      sync.Mutex
	due     []*report.ScheduledReport
	listErr error
	touched []string

	// block, when set, holds ListDue until released. Used to simulate a
	// poll that outlives the next tick.
	block chan struct{}
}

func (f *fakeSource) ListDue(ctx context.Context, now time.Time) ([]*report.ScheduledReport, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	due := f.due
	f.due = nil
	return due, nil
}

func (f *fakeSource) TouchLastRun(ctx context.Context, reportID string, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, reportID)
	return nil
}

func (f *fakeSource) Get(ctx context.Context, reportID string) (*report.ScheduledReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.due {
		if r.ID == reportID {
			return r, nil
		}
	}
	return nil, fmt.Errorf("report not found: %s", reportID)
}

func (f *fakeSource) touchedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.touched...)
}

type fakeRunner struct {
	mu   sync.Mutex
	runs []string
	err  error
	done chan string
}

func (f *fakeRunner) Run(ctx context.Context, r *report.ScheduledReport) (*pipeline.RunResult, error) {
	f.mu.Lock()
	f.runs = append(f.runs, r.ID)
	f.mu.Unlock()
	if f.done != nil {
		f.done <- r.ID
	}
	return &pipeline.RunResult{ReportID: r.ID}, f.err
}

func (f *fakeRunner) runIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.runs...)
}

func dueReport(id string) *report.ScheduledReport {
	return &report.ScheduledReport{
		ID:       id,
		Name:     "Report " + id,
		Type:     report.TypeMembers,
		Format:   report.FormatCSV,
		Schedule: report.Schedule{Frequency: report.FrequencyDaily},
		IsActive: true,
	}
}

func TestPoll_DispatchesEachDueReportOnce(t *testing.T) {
	source := &fakeSource{due: []*report.ScheduledReport{dueReport("a"), dueReport("b")}}
	runner := &fakeRunner{done: make(chan string, 2)}
	s := New(source, runner, Config{PollInterval: time.Hour})

	s.Poll(context.Background())

	for i := 0; i < 2; i++ {
		select {
		case <-runner.done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for dispatched runs")
		}
	}
	s.runWG.Wait()

	runs := runner.runIDs()
	if len(runs) != 2 {
		t.Fatalf("runner saw %d runs, want 2: %v", len(runs), runs)
	}
	seen := map[string]int{}
	for _, id := range runs {
		seen[id]++
	}
	if seen["a"] != 1 || seen["b"] != 1 {
		t.Errorf("runs = %v, want exactly one per report", runs)
	}

	touched := source.touchedIDs()
	if len(touched) != 2 {
		t.Errorf("TouchLastRun calls = %v, want one per report", touched)
	}

	// The source already drained its due list; a second poll dispatches
	// nothing new.
	s.Poll(context.Background())
	s.runWG.Wait()
	if got := runner.runIDs(); len(got) != 2 {
		t.Errorf("second poll re-dispatched: %v", got)
	}
}

func TestPoll_SkipsWhileInProgress(t *testing.T) {
	source := &fakeSource{block: make(chan struct{})}
	runner := &fakeRunner{}
	s := New(source, runner, Config{PollInterval: time.Hour})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Poll(context.Background())
	}()

	// Wait for the first poll to take the guard and park in ListDue.
	deadline := time.Now().Add(2 * time.Second)
	for !s.polling.Load() {
		if time.Now().After(deadline) {
			t.Fatal("first poll never started")
		}
		time.Sleep(time.Millisecond)
	}

	// An overlapping poll returns immediately without touching the store.
	overlapDone := make(chan struct{})
	go func() {
		s.Poll(context.Background())
		close(overlapDone)
	}()
	select {
	case <-overlapDone:
	case <-time.After(2 * time.Second):
		t.Fatal("overlapping poll blocked instead of skipping")
	}

	close(source.block)
	wg.Wait()

	if got := runner.runIDs(); len(got) != 0 {
		t.Errorf("runs = %v, want none", got)
	}
}

func TestPoll_ListErrorIsSwallowed(t *testing.T) {
	source := &fakeSource{listErr: errors.New("db locked")}
	runner := &fakeRunner{}
	s := New(source, runner, Config{PollInterval: time.Hour})

	s.Poll(context.Background())

	if got := runner.runIDs(); len(got) != 0 {
		t.Errorf("runs = %v after list failure, want none", got)
	}
	if !s.polling.CompareAndSwap(false, true) {
		t.Error("poll guard not released after list failure")
	}
	s.polling.Store(false)
}

func TestPoll_RunnerFailureDoesNotAffectSiblings(t *testing.T) {
	source := &fakeSource{due: []*report.ScheduledReport{dueReport("a"), dueReport("b"), dueReport("c")}}
	runner := &fakeRunner{err: errors.New("render failed"), done: make(chan string, 3)}
	s := New(source, runner, Config{PollInterval: time.Hour})

	s.Poll(context.Background())

	for i := 0; i < 3; i++ {
		select {
		case <-runner.done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for dispatched runs")
		}
	}
	s.runWG.Wait()

	if got := runner.runIDs(); len(got) != 3 {
		t.Errorf("runner saw %d runs, want all 3 despite failures", len(got))
	}
}

func TestRunNow(t *testing.T) {
	source := &fakeSource{due: []*report.ScheduledReport{dueReport("a")}}
	runner := &fakeRunner{}
	s := New(source, runner, Config{PollInterval: time.Hour})

	// RunNow bypasses the poll guard even while it is held.
	s.polling.Store(true)
	defer s.polling.Store(false)

	result, err := s.RunNow(context.Background(), "a")
	if err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	if result.ReportID != "a" {
		t.Errorf("RunNow() report = %q, want a", result.ReportID)
	}
	if touched := source.touchedIDs(); len(touched) != 1 || touched[0] != "a" {
		t.Errorf("TouchLastRun calls = %v, want [a]", touched)
	}
}

func TestRunNow_MissingReport(t *testing.T) {
	s := New(&fakeSource{}, &fakeRunner{}, Config{PollInterval: time.Hour})

	if _, err := s.RunNow(context.Background(), "nope"); err == nil {
		t.Error("RunNow() expected error for missing report")
	}
}

func TestStartStop(t *testing.T) {
	source := &fakeSource{due: []*report.ScheduledReport{dueReport("a")}}
	runner := &fakeRunner{done: make(chan string, 1)}
	s := New(source, runner, Config{PollInterval: time.Hour})

	s.Start()

	// The immediate poll dispatches the due report.
	select {
	case <-runner.done:
	case <-time.After(2 * time.Second):
		t.Fatal("immediate poll did not dispatch")
	}

	// Stop waits for the run that is already in flight.
	s.Stop()
	if got := runner.runIDs(); len(got) != 1 {
		t.Errorf("runs = %v, want [a]", got)
	}
}
