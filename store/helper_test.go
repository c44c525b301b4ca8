package store_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	gstore "github.com/S-P-A-N-N-E-R-S/Backend-sub000/store"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", "file::memory:?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1) // important for sqlite
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	ctx := context.Background()
	if err := gstore.InitDB(ctx, db); err != nil {
		t.Fatal(err)
	}
	return db
}
