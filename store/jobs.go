package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/uptrace/bun"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/apperr"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"
)

// AddJob inserts a new job in the Waiting state together with its request
// payload, in a single transaction. It returns the new job's id.
func (g *Gateway) AddJob(ctx context.Context, userID int64, handlerType, jobName string, reqType job.DataType, request []byte) (int64, error) {
	var jobID int64
	err := g.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		jm := &jobModel{
			UserID:       userID,
			HandlerType:  handlerType,
			JobName:      jobName,
			Status:       job.Waiting,
			RequestType:  reqType,
			TimeReceived: time.Now(),
		}
		if _, err := tx.NewInsert().Model(jm).Exec(ctx); err != nil {
			return err
		}
		dm := &dataModel{
			JobID:      jm.JobID,
			Type:       reqType,
			BinaryData: request,
		}
		if _, err := tx.NewInsert().Model(dm).Exec(ctx); err != nil {
			return err
		}
		jobID = jm.JobID
		_, err := tx.NewUpdate().
			Model((*jobModel)(nil)).
			Set("request_id = ?", dm.DataID).
			Where("job_id = ?", jm.JobID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return 0, apperr.Wrap(apperr.DBError, "add job", err)
	}
	return jobID, nil
}

// NextJobs returns up to limit jobs currently Waiting, oldest first. It does
// not itself transition status; the Scheduler follows up with SetStarted for
// each job it actually dispatches.
func (g *Gateway) NextJobs(ctx context.Context, limit int) ([]*job.Job, error) {
	var models []*jobModel
	query := g.db.NewSelect().
		Model(&models).
		Where("status = ?", job.Waiting).
		Order("time_received ASC")
	if limit > 0 {
		query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, apperr.Wrap(apperr.DBError, "next jobs", err)
	}
	ret := make([]*job.Job, len(models))
	for i, m := range models {
		ret[i] = m.toJob()
	}
	return ret, nil
}

// SetStarted transitions a Waiting job to Running and records its start
// time. It returns apperr.InvalidRequest if the job was not Waiting.
func (g *Gateway) SetStarted(ctx context.Context, jobID int64) error {
	now := time.Now()
	res, err := g.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", job.Running).
		Set("starting_time = ?", now).
		Where("job_id = ?", jobID).
		Where("status = ?", job.Waiting).
		Exec(ctx)
	if err != nil {
		return apperr.Wrap(apperr.DBError, "set started", err)
	}
	if !isAffected(res) {
		return apperr.New(apperr.InvalidRequest, "job not waiting")
	}
	return nil
}

// SetFinished transitions a Running job to a terminal status, recording its
// end time and the captured stdout/stderr text. status must be Success,
// Failed or Aborted.
func (g *Gateway) SetFinished(ctx context.Context, jobID int64, status job.Status, stdout, errMsg string) error {
	if !status.Terminal() {
		return apperr.New(apperr.InvalidRequest, "finish status must be terminal")
	}
	now := time.Now()
	res, err := g.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", status).
		Set("end_time = ?", now).
		Set("stdout_msg = ?", stdout).
		Set("error_msg = ?", errMsg).
		Where("job_id = ?", jobID).
		Where("status = ?", job.Running).
		Exec(ctx)
	if err != nil {
		return apperr.Wrap(apperr.DBError, "set finished", err)
	}
	if !isAffected(res) {
		return apperr.New(apperr.InvalidRequest, "job not running")
	}
	return nil
}

// AbortWaiting transitions a Waiting job directly to Aborted, skipping
// Running, recording msg as its error text. It reports whether a row was
// affected: false means the job was not Waiting (already running or
// terminal) or does not exist, and the two cases are not told apart. Its
// caller is Scheduler.CancelJob, for a job with no live worker.
func (g *Gateway) AbortWaiting(ctx context.Context, jobID int64, msg string) (bool, error) {
	res, err := g.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", job.Aborted).
		Set("end_time = ?", time.Now()).
		Set("error_msg = ?", msg).
		Where("job_id = ?", jobID).
		Where("status = ?", job.Waiting).
		Exec(ctx)
	if err != nil {
		return false, apperr.Wrap(apperr.DBError, "abort waiting job", err)
	}
	return isAffected(res), nil
}

// AbortWaitingForUser transitions every Waiting job owned by userID to
// Aborted, returning the number affected. It is run before deleting a user
// and before the Scheduler is asked to cancel that user's running jobs.
func (g *Gateway) AbortWaitingForUser(ctx context.Context, userID int64) (int64, error) {
	res, err := g.db.NewUpdate().
		Model((*jobModel)(nil)).
		Set("status = ?", job.Aborted).
		Set("end_time = ?", time.Now()).
		Where("user_id = ?", userID).
		Where("status = ?", job.Waiting).
		Exec(ctx)
	if err != nil {
		return 0, apperr.Wrap(apperr.DBError, "abort waiting jobs for user", err)
	}
	return getAffected(res), nil
}

// AddResponse attaches a response payload and the handler's measured
// wall-clock runtime to a job, returning the new data row's id. It must
// precede SetFinished(SUCCESS).
func (g *Gateway) AddResponse(ctx context.Context, jobID int64, respType job.DataType, response []byte, ogdfRuntimeMicros int64) (int64, error) {
	var dataID int64
	err := g.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		dm := &dataModel{
			JobID:      jobID,
			Type:       respType,
			BinaryData: response,
		}
		if _, err := tx.NewInsert().Model(dm).Exec(ctx); err != nil {
			return err
		}
		dataID = dm.DataID
		_, err := tx.NewUpdate().
			Model((*jobModel)(nil)).
			Set("response_id = ?", dataID).
			Set("ogdf_runtime = ?", ogdfRuntimeMicros).
			Where("job_id = ?", jobID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return 0, apperr.Wrap(apperr.DBError, "add response", err)
	}
	return dataID, nil
}

// ResolveJobEntry returns the job row for jobID, or apperr.NotFound if it
// does not exist.
func (g *Gateway) ResolveJobEntry(ctx context.Context, jobID int64) (*job.Job, error) {
	var jm jobModel
	err := g.db.NewSelect().Model(&jm).Where("job_id = ?", jobID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "job not found")
		}
		return nil, apperr.Wrap(apperr.DBError, "resolve job", err)
	}
	return jm.toJob(), nil
}

// GetJobEntries returns every job owned by userID, newest first.
func (g *Gateway) GetJobEntries(ctx context.Context, userID int64) ([]*job.Job, error) {
	var models []*jobModel
	err := g.db.NewSelect().
		Model(&models).
		Where("user_id = ?", userID).
		Order("time_received DESC").
		Scan(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.DBError, "get job entries", err)
	}
	ret := make([]*job.Job, len(models))
	for i, m := range models {
		ret[i] = m.toJob()
	}
	return ret, nil
}

// GetAllJobEntries returns every job in the system, newest first. Callers
// are responsible for restricting this to admin use.
func (g *Gateway) GetAllJobEntries(ctx context.Context) ([]*job.Job, error) {
	var models []*jobModel
	err := g.db.NewSelect().
		Model(&models).
		Order("time_received DESC").
		Scan(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.DBError, "get all job entries", err)
	}
	ret := make([]*job.Job, len(models))
	for i, m := range models {
		ret[i] = m.toJob()
	}
	return ret, nil
}

// GetStatusData returns the status and error/stdout text for jobID, without
// fetching the (potentially large) request/response payloads.
func (g *Gateway) GetStatusData(ctx context.Context, jobID int64) (job.Status, string, string, error) {
	var jm jobModel
	err := g.db.NewSelect().
		Model(&jm).
		Column("status", "stdout_msg", "error_msg").
		Where("job_id = ?", jobID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", "", apperr.New(apperr.NotFound, "job not found")
		}
		return 0, "", "", apperr.Wrap(apperr.DBError, "get status data", err)
	}
	return jm.Status, jm.StdoutMsg, jm.ErrorMsg, nil
}

func (g *Gateway) getDataBlob(ctx context.Context, dataID *int64, what string) ([]byte, error) {
	if dataID == nil {
		return nil, apperr.New(apperr.InvalidRequest, what+" not available")
	}
	var dm dataModel
	err := g.db.NewSelect().
		Model(&dm).
		Column("binary_data").
		Where("data_id = ?", *dataID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, what+" not found")
		}
		return nil, apperr.Wrap(apperr.DBError, "get "+what, err)
	}
	return dm.BinaryData, nil
}

// GetRequestData returns the raw request payload attached to jobID.
func (g *Gateway) GetRequestData(ctx context.Context, jobID int64) ([]byte, error) {
	j, err := g.ResolveJobEntry(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return g.getDataBlob(ctx, j.RequestID, "request data")
}

// GetResponseDataRaw returns the raw response payload attached to jobID.
// It returns apperr.InvalidRequest if the job has no response yet.
func (g *Gateway) GetResponseDataRaw(ctx context.Context, jobID int64) ([]byte, error) {
	j, err := g.ResolveJobEntry(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return g.getDataBlob(ctx, j.ResponseID, "response data")
}

// DeleteJob removes jobID and its data rows (request and response, if any)
// in one transaction. It returns apperr.NotFound if the job does not exist.
func (g *Gateway) DeleteJob(ctx context.Context, jobID int64) error {
	err := g.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*dataModel)(nil)).
			Where("job_id = ?", jobID).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().
			Model((*jobModel)(nil)).
			Where("job_id = ?", jobID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if !isAffected(res) {
			return apperr.New(apperr.NotFound, "job not found")
		}
		return nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return ae
		}
		return apperr.Wrap(apperr.DBError, "delete job", err)
	}
	return nil
}

// ResolveJobByNameOrID looks up a job first by treating s as a decimal job
// id, falling back to the most recently received job named s.
func (g *Gateway) ResolveJobByNameOrID(ctx context.Context, s string) (*job.Job, error) {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return g.ResolveJobEntry(ctx, id)
	}
	var jm jobModel
	err := g.db.NewSelect().
		Model(&jm).
		Where("job_name = ?", s).
		Order("time_received DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "job not found")
		}
		return nil, apperr.Wrap(apperr.DBError, "resolve job by name", err)
	}
	return jm.toJob(), nil
}

// GetMetaData returns the handler type, job name and request type recorded
// for jobID, without fetching the payloads; the worker process uses the
// handler type to pick the handler it runs.
func (g *Gateway) GetMetaData(ctx context.Context, jobID int64) (handlerType, jobName string, reqType job.DataType, err error) {
	var jm jobModel
	scanErr := g.db.NewSelect().
		Model(&jm).
		Column("handler_type", "job_name", "request_type").
		Where("job_id = ?", jobID).
		Scan(ctx)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return "", "", 0, apperr.New(apperr.NotFound, "job not found")
		}
		return "", "", 0, apperr.Wrap(apperr.DBError, "get metadata", scanErr)
	}
	return jm.HandlerType, jm.JobName, jm.RequestType, nil
}
