package wire

import "github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"

// ResultRequest is the Container carried by RESULT, ABORT_JOB, DELETE_JOB
// and ORIGIN_GRAPH requests: all four name a single job by id.
type ResultRequest struct {
	JobID int64 `json:"jobid"`
}

// NewJobResponse is the Container a NEW_JOB_RESPONSE reply carries.
type NewJobResponse struct {
	JobID int64 `json:"jobid"`
}

// ResponseStatus is the coarse status field every reply Container echoes.
type ResponseStatus string

const (
	StatusOK    ResponseStatus = "OK"
	StatusError ResponseStatus = "ERROR"
)

// ResponseContainer is the generic acknowledgement shape used for AUTH,
// CREATE_USER, ABORT_JOB and DELETE_JOB replies that carry nothing beyond a
// status.
type ResponseContainer struct {
	Status ResponseStatus `json:"status"`
}

// ErrorMessage is the Container carried by an ERROR reply, classifying the
// failure by the same taxonomy apperr uses.
type ErrorMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// HandlerInfo describes one registered handler for the AVAILABLE_HANDLERS
// reply.
type HandlerInfo struct {
	Name           string   `json:"name"`
	RequiredFields []string `json:"required_fields"`
	ResultShape    string   `json:"result_shape"`
}

// AvailableHandlersResponse is the Container an AVAILABLE_HANDLERS reply
// carries.
type AvailableHandlersResponse struct {
	Handlers []HandlerInfo `json:"handlers"`
}

// StatusRecord summarizes one job for a STATUS or RESULT reply.
type StatusRecord struct {
	JobID       int64      `json:"job_id"`
	Status      job.Status `json:"status"`
	HandlerType string     `json:"handler_type"`
	JobName     string     `json:"job_name"`
	OGDFRuntime int64      `json:"ogdf_runtime_micros"`
	ErrorMsg    string     `json:"error_msg,omitempty"`
}

// StatusResponse is the Container a STATUS reply carries: every job
// belonging to the authenticated user.
type StatusResponse struct {
	Jobs []StatusRecord `json:"jobs"`
}

// ResultResponse is the Container a RESULT reply carries: the opaque
// response blob from persistence alongside the job's latest status record.
type ResultResponse struct {
	Record   StatusRecord `json:"record"`
	Response []byte       `json:"response"`
}
