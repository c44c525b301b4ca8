package store

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
)

func createTables(ctx context.Context, db bun.IDB) error {
	models := []any{
		(*userModel)(nil),
		(*jobModel)(nil),
		(*dataModel)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// createDispatchIndex backs the Scheduler's dequeue query: waiting jobs in
// arrival order.
func createDispatchIndex(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateIndex().
		Model((*jobModel)(nil)).
		Index("idx_jobs_status_received").
		Column("status", "time_received").
		IfNotExists().
		Exec(ctx)
	return err
}

func createJobUserIndex(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateIndex().
		Model((*jobModel)(nil)).
		Index("idx_jobs_user").
		Column("user_id").
		IfNotExists().
		Exec(ctx)
	return err
}

func createDataJobIndex(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateIndex().
		Model((*dataModel)(nil)).
		Index("idx_data_job").
		Column("job_id").
		IfNotExists().
		Exec(ctx)
	return err
}

func initDB(ctx context.Context, db *bun.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := createTables(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := createDispatchIndex(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := createJobUserIndex(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := createDataJobIndex(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

// InitDB creates the users, jobs and data tables plus their indexes inside a
// single transaction. It is idempotent: existing tables and indexes are left
// untouched.
//
// The caller is responsible for providing a properly configured *bun.DB.
func InitDB(ctx context.Context, db *bun.DB) error {
	return initDB(ctx, db)
}

// MustInitDB behaves like InitDB but panics if initialization fails. It is
// intended for application bootstrap code, where a broken schema is
// unrecoverable.
func MustInitDB(ctx context.Context, db *bun.DB) {
	if err := initDB(ctx, db); err != nil {
		panic(err)
	}
}
