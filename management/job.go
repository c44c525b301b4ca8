package management

import (
	"context"
	"fmt"
	"time"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/apperr"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"
)

// JobSummary is the JSON shape of a job returned over the management
// plane: its meta fields and the byte size of its request/response
// payloads, never the payloads or stdout/stderr text themselves.
type JobSummary struct {
	JobID        int64      `json:"job_id"`
	UserID       int64      `json:"user_id"`
	HandlerType  string     `json:"handler_type"`
	JobName      string     `json:"job_name"`
	Status       string     `json:"status"`
	TimeReceived time.Time  `json:"time_received"`
	StartingTime *time.Time `json:"starting_time,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	OGDFRuntime  int64      `json:"ogdf_runtime_micros"`
	RequestSize  int64      `json:"request_size,omitempty"`
	ResponseSize int64      `json:"response_size,omitempty"`
}

func toJobSummary(j *job.Job, requestSize, responseSize int64) JobSummary {
	s := JobSummary{
		JobID:        j.JobID,
		UserID:       j.UserID,
		HandlerType:  j.HandlerType,
		JobName:      j.JobName,
		Status:       j.Status.String(),
		TimeReceived: j.TimeReceived,
		StartingTime: j.StartingTime,
		EndTime:      j.EndTime,
		OGDFRuntime:  j.OGDFRuntimeMicros,
	}
	if requestSize >= 0 {
		s.RequestSize = requestSize
	}
	if responseSize >= 0 {
		s.ResponseSize = responseSize
	}
	return s
}

// JobDetail is the "job info" reply: a JobSummary plus the captured
// stdout and error text, which "job list" deliberately omits.
type JobDetail struct {
	JobSummary
	StdoutMsg string `json:"stdout_msg"`
	ErrorMsg  string `json:"error_msg"`
}

func (s *Server) dataSizes(ctx context.Context, j *job.Job) (requestSize, responseSize int64) {
	if req, err := s.gw.GetRequestData(ctx, j.JobID); err == nil {
		requestSize = int64(len(req))
	}
	if j.ResultReady() {
		if resp, err := s.gw.GetResponseDataRaw(ctx, j.JobID); err == nil {
			responseSize = int64(len(resp))
		}
	}
	return requestSize, responseSize
}

func (s *Server) handleJob(ctx context.Context, req Request) Response {
	switch req.Cmd {
	case "list":
		return s.jobList(ctx)
	case "info":
		return s.jobInfo(ctx, req)
	case "delete":
		return s.jobDelete(ctx, req)
	case "stop":
		return s.jobStop(ctx, req)
	default:
		return malformed(fmt.Errorf("unknown job cmd %q", req.Cmd))
	}
}

func (s *Server) jobList(ctx context.Context) Response {
	jobs, err := s.gw.GetAllJobEntries(ctx)
	if err != nil {
		return internal(err)
	}
	summaries := make([]JobSummary, len(jobs))
	for i, j := range jobs {
		reqSize, respSize := s.dataSizes(ctx, j)
		summaries[i] = toJobSummary(j, reqSize, respSize)
	}
	return ok(summaries)
}

func (s *Server) resolveJobArg(ctx context.Context, req Request) (*job.Job, Response, bool) {
	name, err := req.argString()
	if err != nil {
		return nil, invalidArgument(err), false
	}
	j, err := s.gw.ResolveJobByNameOrID(ctx, name)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return nil, invalidArgument(err), false
		}
		return nil, internal(err), false
	}
	return j, Response{}, true
}

func (s *Server) jobInfo(ctx context.Context, req Request) Response {
	j, resp, okResolved := s.resolveJobArg(ctx, req)
	if !okResolved {
		return resp
	}
	reqSize, respSize := s.dataSizes(ctx, j)
	return ok(JobDetail{
		JobSummary: toJobSummary(j, reqSize, respSize),
		StdoutMsg:  j.StdoutMsg,
		ErrorMsg:   j.ErrorMsg,
	})
}

func (s *Server) jobDelete(ctx context.Context, req Request) Response {
	j, resp, okResolved := s.resolveJobArg(ctx, req)
	if !okResolved {
		return resp
	}
	if err := s.sch.CancelJob(ctx, j.JobID, j.UserID); err != nil {
		s.log.Warn("cancel before delete", "job_id", j.JobID, "err", err)
	}
	if err := s.gw.DeleteJob(ctx, j.JobID); err != nil {
		return internal(err)
	}
	return ok(fmt.Sprintf("job %d deleted", j.JobID))
}

func (s *Server) jobStop(ctx context.Context, req Request) Response {
	j, resp, okResolved := s.resolveJobArg(ctx, req)
	if !okResolved {
		return resp
	}
	if err := s.sch.CancelJob(ctx, j.JobID, j.UserID); err != nil {
		return internal(err)
	}
	return ok(fmt.Sprintf("job %d stopped", j.JobID))
}
