package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/S-P-A-N-N-E-R-S/Backend-sub000/job"
	gstore "github.com/S-P-A-N-N-E-R-S/Backend-sub000/store"
)

func TestCleanerDeletesTerminalJobs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	gw := gstore.NewGateway(db)
	cleaner := gstore.NewCleaner(gw)

	jobID, err := gw.AddJob(ctx, 1, "h", "n", job.Generic, []byte("r"))
	if err != nil {
		t.Fatal(err)
	}
	if err := gw.SetStarted(ctx, jobID); err != nil {
		t.Fatal(err)
	}
	if err := gw.SetFinished(ctx, jobID, job.Success, "ok", ""); err != nil {
		t.Fatal(err)
	}

	count, err := cleaner.Clean(ctx, job.Unknown, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 deleted job, got %d", count)
	}
}

func TestCleanerRejectsNonTerminalStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	gw := gstore.NewGateway(db)
	cleaner := gstore.NewCleaner(gw)

	if _, err := cleaner.Clean(ctx, job.Waiting, time.Now()); err == nil {
		t.Fatal("expected error cleaning a non-terminal status")
	}
}

func TestCleanerRespectsAgeCutoff(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	gw := gstore.NewGateway(db)
	cleaner := gstore.NewCleaner(gw)

	jobID, err := gw.AddJob(ctx, 1, "h", "n", job.Generic, []byte("r"))
	if err != nil {
		t.Fatal(err)
	}
	if err := gw.SetStarted(ctx, jobID); err != nil {
		t.Fatal(err)
	}
	if err := gw.SetFinished(ctx, jobID, job.Success, "ok", ""); err != nil {
		t.Fatal(err)
	}

	count, err := cleaner.Clean(ctx, job.Unknown, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected no jobs deleted before their end_time, got %d", count)
	}
}
