package scheduler_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/scheduler"
)

// fakeGateway is an in-memory stand-in for store.Gateway, sized to exactly
// the methods scheduler.Gateway needs.
type fakeGateway struct {
	mu       sync.Mutex
	waiting   []*job.Job
	started   map[int64]bool
	finished  map[int64]job.Status
	finishMsg map[int64]string
	aborted   map[int64]bool
	abortMsg  map[int64]string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		started:   make(map[int64]bool),
		finished:  make(map[int64]job.Status),
		finishMsg: make(map[int64]string),
		aborted:   make(map[int64]bool),
		abortMsg:  make(map[int64]string),
	}
}

func (g *fakeGateway) NextJobs(ctx context.Context, limit int) ([]*job.Job, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if limit > len(g.waiting) {
		limit = len(g.waiting)
	}
	ret := g.waiting[:limit]
	g.waiting = g.waiting[limit:]
	return ret, nil
}

func (g *fakeGateway) SetStarted(ctx context.Context, jobID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.started[jobID] = true
	return nil
}

func (g *fakeGateway) SetFinished(ctx context.Context, jobID int64, status job.Status, stdout, errMsg string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.finished[jobID] = status
	g.finishMsg[jobID] = errMsg
	return nil
}

func (g *fakeGateway) AbortWaiting(ctx context.Context, jobID int64, msg string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.aborted[jobID] = true
	g.abortMsg[jobID] = msg
	return true, nil
}

func (g *fakeGateway) status(jobID int64) (job.Status, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.finished[jobID]
	return s, ok
}

func TestSchedulerDispatchesAndReapsSuccess(t *testing.T) {
	gw := newFakeGateway()
	gw.waiting = []*job.Job{{JobID: 1, UserID: 1, Status: job.Waiting}}

	s := scheduler.New(gw, scheduler.Config{
		ExecPath:     "/bin/true",
		ProcessLimit: 2,
		Sleep:        20 * time.Millisecond,
	}, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer s.Stop(false, time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if status, ok := gw.status(1); ok {
			if status != job.Success {
				t.Fatalf("expected Success, got %v", status)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job was never reaped as finished")
}

func TestSchedulerReapsNonZeroExitAsFailed(t *testing.T) {
	gw := newFakeGateway()
	gw.waiting = []*job.Job{{JobID: 2, UserID: 1, Status: job.Waiting}}

	s := scheduler.New(gw, scheduler.Config{
		ExecPath:     "/bin/false",
		ProcessLimit: 1,
		Sleep:        20 * time.Millisecond,
	}, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer s.Stop(false, time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if status, ok := gw.status(2); ok {
			if status != job.Failed {
				t.Fatalf("expected Failed, got %v", status)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job was never reaped as finished")
}

// sleepScript writes an executable that sleeps long enough to stay live
// for the duration of a test, ignoring the job/user/db argv the scheduler
// appends.
func sleepScript(t *testing.T, seconds int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.sh")
	script := fmt.Sprintf("#!/bin/sh\nsleep %d\n", seconds)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSchedulerRespectsProcessLimit(t *testing.T) {
	gw := newFakeGateway()
	for i := int64(1); i <= 3; i++ {
		gw.waiting = append(gw.waiting, &job.Job{JobID: i, UserID: 1, Status: job.Waiting})
	}

	s := scheduler.New(gw, scheduler.Config{
		ExecPath:     sleepScript(t, 30),
		ProcessLimit: 1,
		Sleep:        10 * time.Millisecond,
	}, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer s.Stop(true, 5*time.Second)

	// With one long-lived child occupying the single slot, further ticks
	// must not dispatch the remaining two jobs.
	time.Sleep(100 * time.Millisecond)
	gw.mu.Lock()
	startedCount := len(gw.started)
	gw.mu.Unlock()
	if startedCount != 1 {
		t.Fatalf("expected exactly 1 job started under process limit 1, got %d", startedCount)
	}
}

func TestSchedulerTimesOutRunningJob(t *testing.T) {
	gw := newFakeGateway()
	gw.waiting = []*job.Job{{JobID: 3, UserID: 1, Status: job.Waiting}}

	s := scheduler.New(gw, scheduler.Config{
		ExecPath:     sleepScript(t, 30),
		ProcessLimit: 1,
		TimeLimitMs:  50,
		Sleep:        20 * time.Millisecond,
	}, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer s.Stop(true, 5*time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		gw.mu.Lock()
		status, ok := gw.finished[3]
		msg := gw.finishMsg[3]
		gw.mu.Unlock()
		if ok {
			if status != job.Aborted {
				t.Fatalf("expected Aborted on timeout, got %v", status)
			}
			if msg != "Timeout" {
				t.Fatalf("unexpected timeout message: %q", msg)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job was never timed out")
}

func TestSchedulerForcedStopAbortsLiveWorkers(t *testing.T) {
	gw := newFakeGateway()
	gw.waiting = []*job.Job{{JobID: 4, UserID: 1, Status: job.Waiting}}

	s := scheduler.New(gw, scheduler.Config{
		ExecPath:     sleepScript(t, 30),
		ProcessLimit: 1,
		Sleep:        10 * time.Millisecond,
	}, slog.Default())

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		gw.mu.Lock()
		started := gw.started[4]
		gw.mu.Unlock()
		if started {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := s.Stop(true, 5*time.Second); err != nil {
		t.Fatal(err)
	}
	gw.mu.Lock()
	status := gw.finished[4]
	msg := gw.finishMsg[4]
	gw.mu.Unlock()
	if status != job.Aborted {
		t.Fatalf("expected Aborted after forced stop, got %v", status)
	}
	if msg != "Global scheduler stop" {
		t.Fatalf("unexpected stop message: %q", msg)
	}
}

func TestSchedulerCancelWaitingJob(t *testing.T) {
	gw := newFakeGateway()

	s := scheduler.New(gw, scheduler.Config{
		ExecPath:     "/bin/true",
		ProcessLimit: 1,
		Sleep:        time.Second,
	}, slog.Default())

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer s.Stop(true, time.Second)

	if err := s.CancelJob(ctx, 42, 1); err != nil {
		t.Fatal(err)
	}
	gw.mu.Lock()
	aborted := gw.aborted[42]
	msg := gw.abortMsg[42]
	gw.mu.Unlock()
	if !aborted {
		t.Fatal("expected waiting-job cancel to abort via the gateway")
	}
	if msg != "Preemptive abort" {
		t.Fatalf("unexpected abort message: %q", msg)
	}
}
