package job

import "time"

// Job represents a row of the jobs table as a read-only snapshot.
//
// RequestID is set at enqueue time, in the same transaction as the Job
// row itself, and is therefore always non-nil once the Job is visible to
// readers. ResponseID is nil until the worker attaches a result.
//
// TimeReceived, StartingTime and EndTime satisfy
// TimeReceived <= StartingTime <= EndTime whenever the latter two are set.
type Job struct {
	JobID       int64
	UserID      int64
	HandlerType string
	JobName     string
	Status      Status
	RequestType DataType
	RequestID   *int64
	ResponseID  *int64

	TimeReceived time.Time
	StartingTime *time.Time
	EndTime      *time.Time

	// OGDFRuntimeMicros is the wall-clock time spent inside the handler,
	// in microseconds. It is only meaningful once ResponseID is set.
	OGDFRuntimeMicros int64

	StdoutMsg string
	ErrorMsg  string
}

// Dispatchable reports whether the job may currently be picked up by the
// Scheduler, i.e. whether it is Waiting.
func (j *Job) Dispatchable() bool {
	return j.Status == Waiting
}

// ResultReady reports whether RESULT may be served for this job, i.e.
// whether a response has been attached.
func (j *Job) ResultReady() bool {
	return j.ResponseID != nil
}
