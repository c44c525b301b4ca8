package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/internal"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"
)

// segfaultExitCode is the worker process's documented exit code for a
// caught crash. A worker killed by an actual SIGSEGV is classified the
// same way: classifyExit treats both as a segfault.
const segfaultExitCode = 11

// Gateway is the slice of store.Gateway the Scheduler depends on. It is
// defined here, not in store, so that tests can supply a fake without
// importing the database driver stack.
type Gateway interface {
	NextJobs(ctx context.Context, limit int) ([]*job.Job, error)
	SetStarted(ctx context.Context, jobID int64) error
	SetFinished(ctx context.Context, jobID int64, status job.Status, stdout, errMsg string) error
	AbortWaiting(ctx context.Context, jobID int64, msg string) (bool, error)
}

// liveJob tracks one in-flight worker process. A dedicated goroutine waits
// on the child and closes exited when it is gone, so the reap pass can poll
// without ever blocking on a subprocess.
type liveJob struct {
	jobID   int64
	userID  int64
	cmd     *exec.Cmd
	stdout  *limitedBuffer
	stderr  *limitedBuffer
	started time.Time
	exited  chan struct{}
}

func (lj *liveJob) done() bool {
	select {
	case <-lj.exited:
		return true
	default:
		return false
	}
}

// Config configures a Scheduler. All fields but ExecPath and DBConn may be
// changed at runtime via the Scheduler's setter methods.
type Config struct {
	// ExecPath is the worker executable launched for each dispatched job.
	ExecPath string
	// DBConn is the connection string forwarded to the worker process as
	// its third argv token; the worker opens its own connection rather
	// than sharing the Scheduler's.
	DBConn string

	ProcessLimit  int
	TimeLimitMs   int64
	ResourceLimit int64
	Sleep         time.Duration
}

// Scheduler is the process-wide job dispatcher. A single Scheduler must
// own a given database; running two against the same database races on
// NextJobs.
type Scheduler struct {
	internal.LifecycleBase

	gw  Gateway
	log *slog.Logger

	cancel context.CancelFunc
	done   internal.DoneChan

	mu            sync.Mutex
	execPath      string
	dbConn        string
	processLimit  int
	timeLimitMs   int64
	resourceLimit int64
	sleep         time.Duration
	stopFlag      bool

	liveMu sync.Mutex
	live   map[int64]*liveJob
}

// New creates a Scheduler bound to gw. The Scheduler is not started
// automatically; call Start.
func New(gw Gateway, config Config, log *slog.Logger) *Scheduler {
	return &Scheduler{
		gw:            gw,
		log:           log,
		execPath:      config.ExecPath,
		dbConn:        config.DBConn,
		processLimit:  config.ProcessLimit,
		timeLimitMs:   config.TimeLimitMs,
		resourceLimit: config.ResourceLimit,
		sleep:         config.Sleep,
		live:          make(map[int64]*liveJob),
	}
}

// SetTimeLimit updates the wall-clock timeout applied to running jobs;
// 0 disables it. It affects the next loop iteration, never a job already
// past its previous deadline check.
func (s *Scheduler) SetTimeLimit(ms int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeLimitMs = ms
}

// SetResourceLimit updates the memory cap passed to newly-spawned workers;
// 0 disables it. Already-running children keep their original cap.
func (s *Scheduler) SetResourceLimit(bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resourceLimit = bytes
}

// SetProcessLimit updates the maximum number of concurrently live workers.
// A lowered limit only takes effect lazily: workers already running above
// the new limit are not killed.
func (s *Scheduler) SetProcessLimit(limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processLimit = limit
}

// SetSleep updates the interval between scheduling passes. The loop reads
// the interval anew before each sleep, so a change takes effect at the next
// iteration.
func (s *Scheduler) SetSleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleep = d
}

// TimeLimit returns the currently configured per-job wall-clock timeout in
// milliseconds, 0 meaning disabled.
func (s *Scheduler) TimeLimit() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeLimitMs
}

// ResourceLimit returns the currently configured per-worker memory cap in
// bytes, 0 meaning disabled.
func (s *Scheduler) ResourceLimit() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resourceLimit
}

// ProcessLimit returns the currently configured maximum number of
// concurrently live workers.
func (s *Scheduler) ProcessLimit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processLimit
}

// Sleep returns the currently configured interval between scheduling
// passes.
func (s *Scheduler) Sleep() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sleep
}

func (s *Scheduler) snapshot() (execPath, dbConn string, processLimit int, timeLimitMs, resourceLimit int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.execPath, s.dbConn, s.processLimit, s.timeLimitMs, s.resourceLimit
}

// Start launches the background reap/dispatch loop. It returns
// internal.ErrDoubleStarted if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.TryStart(); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(internal.DoneChan)
	go s.loop(runCtx)
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	for {
		s.tick(ctx)
		timer := time.NewTimer(s.sleepDuration())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (s *Scheduler) sleepDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sleep
}

// Stop halts the background loop. If force is true, every live worker is
// killed and recorded Aborted before Stop returns. If false, no new jobs
// are dispatched but the loop keeps reaping until every live worker has
// finished; it exits only once the live set is empty.
func (s *Scheduler) Stop(force bool, timeout time.Duration) error {
	s.mu.Lock()
	s.stopFlag = true
	s.mu.Unlock()

	if force {
		s.killAll(context.Background())
	}
	return s.TryStop(timeout, func() internal.DoneChan {
		done := make(internal.DoneChan)
		go func() {
			defer close(done)
			for !s.idle() {
				time.Sleep(s.sleepDuration())
			}
			s.cancel()
			<-s.done
		}()
		return done
	})
}

func (s *Scheduler) idle() bool {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()
	return len(s.live) == 0
}

func (s *Scheduler) killAll(ctx context.Context) {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()
	for jobID, lj := range s.live {
		killChild(lj)
		if err := s.gw.SetFinished(ctx, jobID, job.Aborted, "", "Global scheduler stop"); err != nil {
			s.log.Error("set finished after forced stop", "job_id", jobID, "err", err)
		}
		delete(s.live, jobID)
	}
}

// tick is one reap-then-dispatch pass, run immediately on Start and then
// once per sleep interval.
func (s *Scheduler) tick(ctx context.Context) {
	execPath, dbConn, processLimit, timeLimitMs, resourceLimit := s.snapshot()
	s.reap(ctx, timeLimitMs)

	s.mu.Lock()
	stopped := s.stopFlag
	s.mu.Unlock()
	if stopped {
		return
	}

	s.liveMu.Lock()
	liveCount := len(s.live)
	s.liveMu.Unlock()
	if liveCount >= processLimit {
		return
	}
	s.dispatch(ctx, execPath, dbConn, resourceLimit, processLimit-liveCount)
}

func (s *Scheduler) reap(ctx context.Context, timeLimitMs int64) {
	now := time.Now()
	var finished []int64

	s.liveMu.Lock()
	for jobID, lj := range s.live {
		if lj.done() {
			status, errMsg := classifyExit(lj.cmd.ProcessState, lj.stderr.String())
			if err := s.gw.SetFinished(ctx, jobID, status, lj.stdout.String(), errMsg); err != nil {
				s.log.Error("set finished", "job_id", jobID, "err", err)
			}
			finished = append(finished, jobID)
			continue
		}
		if timeLimitMs > 0 && now.Sub(lj.started) > time.Duration(timeLimitMs)*time.Millisecond {
			killChild(lj)
			if err := s.gw.SetFinished(ctx, jobID, job.Aborted, "", "Timeout"); err != nil {
				s.log.Error("set finished after timeout", "job_id", jobID, "err", err)
			}
			finished = append(finished, jobID)
		}
	}
	for _, jobID := range finished {
		delete(s.live, jobID)
	}
	s.liveMu.Unlock()
}

func (s *Scheduler) dispatch(ctx context.Context, execPath, dbConn string, resourceLimit int64, slots int) {
	jobs, err := s.gw.NextJobs(ctx, slots)
	if err != nil {
		s.log.Error("next jobs", "err", err)
		return
	}
	for _, j := range jobs {
		if err := s.gw.SetStarted(ctx, j.JobID); err != nil {
			s.log.Warn("set started skipped (already claimed)", "job_id", j.JobID, "err", err)
			continue
		}
		lj, err := spawn(execPath, j.JobID, j.UserID, dbConn, resourceLimit)
		if err != nil {
			s.log.Error("spawn worker", "job_id", j.JobID, "err", err)
			if ferr := s.gw.SetFinished(ctx, j.JobID, job.Failed, "", err.Error()); ferr != nil {
				s.log.Error("set finished after spawn failure", "job_id", j.JobID, "err", ferr)
			}
			continue
		}
		s.liveMu.Lock()
		s.live[j.JobID] = lj
		s.liveMu.Unlock()
	}
}

// CancelJob stops execution of job_id/user_id. If the job is currently
// running, its child is terminated and recorded Aborted. If it is only
// Waiting, it is marked Aborted without ever being dispatched.
func (s *Scheduler) CancelJob(ctx context.Context, jobID, userID int64) error {
	s.liveMu.Lock()
	lj, ok := s.live[jobID]
	owned := ok && lj.userID == userID
	if owned {
		killChild(lj)
		delete(s.live, jobID)
	}
	s.liveMu.Unlock()

	if owned {
		return s.gw.SetFinished(ctx, jobID, job.Aborted, "", "Aborted by Request")
	}

	aborted, err := s.gw.AbortWaiting(ctx, jobID, "Preemptive abort")
	if err != nil {
		return err
	}
	if !aborted {
		// Already terminal, or running under a different user than
		// claimed; nothing further to do here.
		return nil
	}
	return nil
}

// CancelUserJobs terminates every live child owned by userID. It does not
// write to the database; callers (the Management Server's delete_user path)
// are expected to have already aborted that user's Waiting jobs via
// Gateway.AbortWaitingForUser.
func (s *Scheduler) CancelUserJobs(userID int64) {
	s.liveMu.Lock()
	defer s.liveMu.Unlock()
	for jobID, lj := range s.live {
		if lj.userID == userID {
			killChild(lj)
			delete(s.live, jobID)
		}
	}
}

func spawn(execPath string, jobID, userID int64, dbConn string, resourceLimit int64) (*liveJob, error) {
	cmd := exec.Command(execPath,
		strconv.FormatInt(jobID, 10),
		strconv.FormatInt(userID, 10),
		dbConn,
		strconv.FormatInt(resourceLimit, 10),
	)
	cmd.Stdin = nil
	// Run the worker in its own process group so killChild can stop it
	// together with anything it forked.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout := newLimitedBuffer(1 << 20)
	stderr := newLimitedBuffer(1 << 20)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker: %w", err)
	}
	lj := &liveJob{
		jobID:   jobID,
		userID:  userID,
		cmd:     cmd,
		stdout:  stdout,
		stderr:  stderr,
		started: time.Now(),
		exited:  make(chan struct{}),
	}
	go func() {
		_ = cmd.Wait()
		close(lj.exited)
	}()
	return lj, nil
}

// killChild terminates the child's process group and blocks until its
// waiter goroutine has reaped it, so cmd.ProcessState is final once
// killChild returns. The whole group is killed because a forked grandchild
// left alive would keep the stdout/stderr pipes open and hold up cmd.Wait.
func killChild(lj *liveJob) {
	if lj.cmd.Process == nil {
		return
	}
	if !lj.done() {
		_ = syscall.Kill(-lj.cmd.Process.Pid, syscall.SIGKILL)
	}
	<-lj.exited
}

// classifyExit maps a finished child's exit state to a terminal Status and
// an error message, per the worker process's documented contract: 0 is
// Success, 11 (or a raw SIGSEGV) is a segfault classified as Failed, and
// anything else is a general Failed with stderr attached.
func classifyExit(state *os.ProcessState, stderr string) (job.Status, string) {
	if state == nil {
		return job.Failed, stderr
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() && ws.Signal() == syscall.SIGSEGV {
		return job.Failed, "Segfault"
	}
	switch state.ExitCode() {
	case 0:
		return job.Success, ""
	case segfaultExitCode:
		return job.Failed, "Segfault"
	default:
		return job.Failed, stderr
	}
}
