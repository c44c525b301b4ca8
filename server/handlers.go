package server

import (
	"context"
	"log/slog"
	"net"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/apperr"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/handler"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/wire"
)

func toStatusRecord(j *job.Job) wire.StatusRecord {
	return wire.StatusRecord{
		JobID:       j.JobID,
		Status:      j.Status,
		HandlerType: j.HandlerType,
		JobName:     j.JobName,
		OGDFRuntime: j.OGDFRuntimeMicros,
		ErrorMsg:    j.ErrorMsg,
	}
}

func (s *Server) handleAvailableHandlers(conn net.Conn, log *slog.Logger) {
	descs := handler.List()
	resp := wire.AvailableHandlersResponse{Handlers: make([]wire.HandlerInfo, len(descs))}
	for i, d := range descs {
		resp.Handlers[i] = wire.HandlerInfo{
			Name:           d.Name,
			RequiredFields: d.RequiredFields,
			ResultShape:    d.ResultShape,
		}
	}
	s.writeContainer(conn, log, wire.AvailableHandlers, resp)
}

func (s *Server) handleStatus(ctx context.Context, conn net.Conn, log *slog.Logger, user *job.User) {
	jobs, err := s.gw.GetJobEntries(ctx, user.UserID)
	if err != nil {
		s.writeError(conn, log, err)
		return
	}
	resp := wire.StatusResponse{Jobs: make([]wire.StatusRecord, len(jobs))}
	for i, j := range jobs {
		resp.Jobs[i] = toStatusRecord(j)
	}
	s.writeContainer(conn, log, wire.Status, resp)
}

// resolveOwned fetches jobID and checks that it belongs to user, returning
// apperr.NotFound (never AUTH) if it does not exist or is owned by someone
// else, so a client cannot distinguish "not yours" from "does not exist".
func (s *Server) resolveOwned(ctx context.Context, jobID int64, user *job.User) (*job.Job, error) {
	j, err := s.gw.ResolveJobEntry(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.UserID != user.UserID {
		return nil, apperr.New(apperr.NotFound, "job not found")
	}
	return j, nil
}

func decodeResultRequest(body []byte) (wire.ResultRequest, error) {
	var req wire.ResultRequest
	if err := wire.DecodeContainer(body, &req); err != nil {
		return wire.ResultRequest{}, err
	}
	return req, nil
}

func (s *Server) handleResult(ctx context.Context, conn net.Conn, log *slog.Logger, body []byte, user *job.User) {
	req, err := decodeResultRequest(body)
	if err != nil {
		s.writeError(conn, log, err)
		return
	}
	j, err := s.resolveOwned(ctx, req.JobID, user)
	if err != nil {
		s.writeError(conn, log, err)
		return
	}
	if !j.ResultReady() {
		s.writeError(conn, log, apperr.New(apperr.InvalidRequest, "job has no result yet"))
		return
	}
	response, err := s.gw.GetResponseDataRaw(ctx, req.JobID)
	if err != nil {
		s.writeError(conn, log, err)
		return
	}
	s.writeContainer(conn, log, wire.Result, wire.ResultResponse{
		Record:   toStatusRecord(j),
		Response: response,
	})
}

func (s *Server) handleAbortJob(ctx context.Context, conn net.Conn, log *slog.Logger, body []byte, user *job.User) {
	req, err := decodeResultRequest(body)
	if err != nil {
		s.writeError(conn, log, err)
		return
	}
	if _, err := s.resolveOwned(ctx, req.JobID, user); err != nil {
		s.writeError(conn, log, err)
		return
	}
	if err := s.sch.CancelJob(ctx, req.JobID, user.UserID); err != nil {
		s.writeError(conn, log, err)
		return
	}
	s.writeOK(conn, log, wire.AbortJob)
}

func (s *Server) handleDeleteJob(ctx context.Context, conn net.Conn, log *slog.Logger, body []byte, user *job.User) {
	req, err := decodeResultRequest(body)
	if err != nil {
		s.writeError(conn, log, err)
		return
	}
	if _, err := s.resolveOwned(ctx, req.JobID, user); err != nil {
		s.writeError(conn, log, err)
		return
	}
	// Stop any live worker before the row disappears underneath the
	// Scheduler's next reap pass. Best-effort: a job that was only Waiting
	// or already terminal has nothing live to cancel.
	if err := s.sch.CancelJob(ctx, req.JobID, user.UserID); err != nil {
		log.Warn("cancel before delete", "job_id", req.JobID, "err", err)
	}
	if err := s.gw.DeleteJob(ctx, req.JobID); err != nil {
		s.writeError(conn, log, err)
		return
	}
	s.writeOK(conn, log, wire.DeleteJob)
}

func (s *Server) handleOriginGraph(ctx context.Context, conn net.Conn, log *slog.Logger, body []byte, user *job.User) {
	req, err := decodeResultRequest(body)
	if err != nil {
		s.writeError(conn, log, err)
		return
	}
	j, err := s.resolveOwned(ctx, req.JobID, user)
	if err != nil {
		s.writeError(conn, log, err)
		return
	}
	request, err := s.gw.GetRequestData(ctx, req.JobID)
	if err != nil {
		s.writeError(conn, log, err)
		return
	}
	s.writeContainer(conn, log, wire.OriginGraph, wire.ResultResponse{
		Record:   toStatusRecord(j),
		Response: request,
	})
}

func (s *Server) handleNewJob(ctx context.Context, conn net.Conn, log *slog.Logger, meta wire.MetaData, body []byte, user *job.User) {
	if meta.HandlerType == "" {
		s.writeError(conn, log, apperr.New(apperr.InvalidRequest, "missing handlertype"))
		return
	}
	if _, ok := handler.Get(meta.HandlerType); !ok {
		s.writeError(conn, log, apperr.New(apperr.InvalidRequest, "unknown handler type"))
		return
	}
	jobID, err := s.gw.AddJob(ctx, user.UserID, meta.HandlerType, meta.JobName, job.Generic, body)
	if err != nil {
		s.writeError(conn, log, err)
		return
	}
	s.writeContainer(conn, log, wire.NewJobResponseType, wire.NewJobResponse{JobID: jobID})
}
