package store

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/apperr"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"
)

// Cleaner implements the optional retention sweep: deleting terminal jobs
// and their data rows once they are older than a configurable age. It is
// disabled by default and never deletes a Waiting or Running job.
//
// Cleaner does not itself run on a schedule; scheduler.RetentionWorker calls
// Clean periodically when retention is enabled in configuration.
type Cleaner struct {
	gw *Gateway
}

// NewCleaner wraps a Gateway's underlying database for retention sweeps.
func NewCleaner(gw *Gateway) *Cleaner {
	return &Cleaner{gw: gw}
}

// Clean deletes jobs in a terminal status with end_time <= before, along
// with their data rows (there is no database-level foreign key cascade, so
// this package deletes both in one transaction), returning the number of
// jobs deleted. If status is job.Unknown, all three terminal statuses are
// eligible. Clean returns apperr.InvalidRequest if asked to delete a
// non-terminal status.
func (c *Cleaner) Clean(ctx context.Context, status job.Status, before time.Time) (int64, error) {
	if status != job.Unknown && !status.Terminal() {
		return 0, apperr.New(apperr.InvalidRequest, "clean status must be terminal")
	}
	var deleted int64
	err := c.gw.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		dataQuery := tx.NewDelete().
			Model((*dataModel)(nil)).
			Where("job_id IN (?)", buildEligibleJobsQuery(tx, status, before))
		if _, err := dataQuery.Exec(ctx); err != nil {
			return err
		}
		jobQuery := tx.NewDelete().Model((*jobModel)(nil))
		addEligibleWhere(jobQuery, status, before)
		res, err := jobQuery.Exec(ctx)
		if err != nil {
			return err
		}
		deleted = getAffected(res)
		return nil
	})
	if err != nil {
		return 0, apperr.Wrap(apperr.DBError, "clean terminal jobs", err)
	}
	return deleted, nil
}

func buildEligibleJobsQuery(tx bun.Tx, status job.Status, before time.Time) *bun.SelectQuery {
	q := tx.NewSelect().Model((*jobModel)(nil)).Column("job_id")
	addEligibleSelectWhere(q, status, before)
	return q
}

func addEligibleSelectWhere(q *bun.SelectQuery, status job.Status, before time.Time) {
	if status != job.Unknown {
		q.Where("status = ?", status)
	} else {
		q.Where("status IN (?, ?, ?)", job.Success, job.Failed, job.Aborted)
	}
	q.Where("end_time <= ?", before)
}

func addEligibleWhere(q *bun.DeleteQuery, status job.Status, before time.Time) {
	if status != job.Unknown {
		q.Where("status = ?", status)
	} else {
		q.Where("status IN (?, ?, ?)", job.Success, job.Failed, job.Aborted)
	}
	q.Where("end_time <= ?", before)
}
