package scheduler_test

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/scheduler"
)

type mockCleaner struct {
	count atomic.Int64
}

func (m *mockCleaner) Clean(ctx context.Context, status job.Status, before time.Time) (int64, error) {
	m.count.Add(1)
	return 1, nil
}

func TestRetentionWorkerBasic(t *testing.T) {
	cleaner := &mockCleaner{}
	logger := slog.Default()

	cfg := scheduler.RetentionConfig{
		Status:   job.Success,
		Interval: 50 * time.Millisecond,
		MaxAge:   time.Hour,
	}
	w := scheduler.NewRetentionWorker(cleaner, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	if err := w.Stop(time.Second); err != nil {
		t.Fatal(err)
	}

	if cleaner.count.Load() == 0 {
		t.Fatal("expected cleaner to run at least once")
	}
}

func TestRetentionWorkerLifecycleErrors(t *testing.T) {
	cleaner := &mockCleaner{}
	logger := slog.Default()

	cfg := scheduler.RetentionConfig{
		Status:   job.Success,
		Interval: time.Second,
		MaxAge:   time.Hour,
	}
	w := scheduler.NewRetentionWorker(cleaner, cfg, logger)

	ctx := context.Background()

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(ctx); err == nil {
		t.Fatal("expected double-start error")
	}
	if err := w.Stop(time.Second); err != nil {
		t.Fatal(err)
	}
	if err := w.Stop(time.Second); err == nil {
		t.Fatal("expected double-stop error")
	}
}
