// Package scheduler implements the Scheduler component: a process-wide
// singleton that dispatches Waiting jobs to isolated worker processes,
// supervises them, and applies time and resource limits.
//
// # Overview
//
// Scheduler periodically asks the Persistence Gateway for the oldest
// Waiting jobs, marks each Running, and launches the configured worker
// executable as a child process with the job id, user id, database
// connection string and memory limit as arguments. It then polls the set of
// live children on the same period: exited children are reaped and their
// terminal status recorded, children that exceeded the configured time
// limit are killed and marked Aborted.
//
// # State machine
//
//	Waiting -> Running                 (dispatch)
//	Running -> Success                 (worker exited 0)
//	Running -> Failed                  (worker exited non-zero, non-segfault)
//	Running -> Failed                  (worker segfaulted)
//	Running -> Aborted                 (time limit exceeded, or cancelled)
//	Waiting -> Aborted                 (cancelled pre-emptively)
//
// # Concurrency model
//
// Scheduler holds its live-process set behind a mutex; the reap/dispatch
// loop runs on a single background goroutine that re-reads the sleep
// interval before each pass, so SetSleep takes effect at the next
// iteration. Multiple
// concurrent API calls to CancelJob/CancelUserJobs/SetProcessLimit etc. are
// safe; Scheduler is not safe to share across database instances. A single
// Scheduler per database is assumed, matching the Persistence Gateway's own
// NextJobs caveat.
//
// # Exit code contract
//
// The worker process is expected to exit 0 on success, 1 on a caught
// general error, and either exit 11 or be killed by SIGSEGV on a crash.
// classifyExit interprets both forms identically as a segfault.
package scheduler
