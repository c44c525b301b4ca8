package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/internal"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"
)

// Cleaner is the slice of store.Cleaner the RetentionWorker depends on.
type Cleaner interface {
	Clean(ctx context.Context, status job.Status, before time.Time) (int64, error)
}

// RetentionConfig configures a RetentionWorker. This housekeeping sweep is
// opt-in: it is disabled unless explicitly enabled in configuration, and
// never touches a Waiting or Running job.
type RetentionConfig struct {
	// Status restricts the sweep to one terminal status; job.Unknown means
	// all three (Success, Failed, Aborted).
	Status job.Status
	// Interval is how often the sweep runs.
	Interval time.Duration
	// MaxAge is how long a terminal job is kept before it becomes eligible
	// for deletion.
	MaxAge time.Duration
}

// RetentionWorker periodically deletes terminal jobs older than its
// configured age, using a Cleaner. It never runs unless started explicitly
// by cmd/server, which only does so when retention is enabled in
// configuration.
type RetentionWorker struct {
	internal.LifecycleBase

	cleaner  Cleaner
	task     internal.TimerTask
	log      *slog.Logger
	status   job.Status
	interval time.Duration
	maxAge   time.Duration
}

// NewRetentionWorker creates a RetentionWorker. It is not started
// automatically; call Start.
func NewRetentionWorker(cleaner Cleaner, config RetentionConfig, log *slog.Logger) *RetentionWorker {
	return &RetentionWorker{
		cleaner:  cleaner,
		log:      log,
		status:   config.Status,
		interval: config.Interval,
		maxAge:   config.MaxAge,
	}
}

func (rw *RetentionWorker) sweep(ctx context.Context) {
	before := time.Now().Add(-rw.maxAge)
	count, err := rw.cleaner.Clean(ctx, rw.status, before)
	if err != nil {
		rw.log.Error("retention sweep failed", "err", err)
		return
	}
	if count > 0 {
		rw.log.Info("retention sweep deleted jobs", "count", count)
	}
}

// Start begins periodic execution of the retention sweep. It returns
// internal.ErrDoubleStarted if already running.
func (rw *RetentionWorker) Start(ctx context.Context) error {
	if err := rw.TryStart(); err != nil {
		return err
	}
	rw.task.Start(ctx, rw.sweep, rw.interval)
	return nil
}

// Stop terminates the background sweep, waiting up to timeout for the
// in-flight pass to finish.
func (rw *RetentionWorker) Stop(timeout time.Duration) error {
	return rw.TryStop(timeout, rw.task.Stop)
}
