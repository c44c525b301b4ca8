// Command worker is the Worker Process: a short-lived child invoked by the
// Scheduler as "<exec> <job_id> <user_id> <db_conn> <mem_limit>". It
// fetches the request payload for that job, dispatches it to the named
// handler, writes the response back and exits 0 on success. Every failure
// propagates as a non-zero exit code; the Scheduler is the sole
// interpreter of it.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sys/unix"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/handler"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"
	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/store"

	_ "github.com/S-P-A-N-N-E-R-S/Backend-sub000/handler/builtin"
)

func main() {
	os.Exit(run())
}

func run() int {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if len(os.Args) != 5 {
		log.Error("malformed argv", "argc", len(os.Args))
		return 1
	}

	jobID, err := strconv.ParseInt(os.Args[1], 10, 64)
	if err != nil {
		log.Error("parse job_id", "err", err)
		return 1
	}
	userID, err := strconv.ParseInt(os.Args[2], 10, 64)
	if err != nil {
		log.Error("parse user_id", "err", err)
		return 1
	}
	dbConn := os.Args[3]
	memLimit, err := strconv.ParseInt(os.Args[4], 10, 64)
	if err != nil {
		log.Error("parse mem_limit", "err", err)
		return 1
	}

	if memLimit > 0 {
		if err := applyMemoryLimit(memLimit); err != nil {
			log.Error("apply memory limit", "err", err)
			return 1
		}
	}

	sqlDB, err := sql.Open("pgx", dbConn)
	if err != nil {
		log.Error("open database", "err", err)
		return 1
	}
	defer sqlDB.Close()
	db := bun.NewDB(sqlDB, pgdialect.New())
	gw := store.NewGateway(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := runJob(ctx, gw, jobID, userID); err != nil {
		log.Error("run job", "job_id", jobID, "err", err)
		return 1
	}
	return 0
}

// runJob implements the worker's contract: fetch the request, dispatch to
// the named handler, time the call, and attach the response.
func runJob(ctx context.Context, gw *store.Gateway, jobID, userID int64) error {
	handlerType, _, _, err := gw.GetMetaData(ctx, jobID)
	if err != nil {
		return fmt.Errorf("get metadata: %w", err)
	}
	owner, err := gw.ResolveJobEntry(ctx, jobID)
	if err != nil {
		return fmt.Errorf("resolve job: %w", err)
	}
	if owner.UserID != userID {
		return fmt.Errorf("job %d is not owned by user %d", jobID, userID)
	}

	request, err := gw.GetRequestData(ctx, jobID)
	if err != nil {
		return fmt.Errorf("get request data: %w", err)
	}

	desc, ok := handler.Get(handlerType)
	if !ok {
		return fmt.Errorf("unknown handler type %q", handlerType)
	}

	start := time.Now()
	response, err := desc.Invoke(ctx, request)
	elapsedMicros := time.Since(start).Microseconds()
	if err != nil {
		return fmt.Errorf("invoke handler %q: %w", handlerType, err)
	}

	if _, err := gw.AddResponse(ctx, jobID, job.Generic, response, elapsedMicros); err != nil {
		return fmt.Errorf("add response: %w", err)
	}
	return nil
}

// applyMemoryLimit self-applies a per-process address-space limit via
// RLIMIT_AS before doing any work. If the OS rejects the limit, the caller
// exits 1.
func applyMemoryLimit(bytes int64) error {
	limit := unix.Rlimit{Cur: uint64(bytes), Max: uint64(bytes)}
	return unix.Setrlimit(unix.RLIMIT_AS, &limit)
}
