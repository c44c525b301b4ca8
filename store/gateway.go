package store

import (
	"github.com/uptrace/bun"
)

// Gateway is the Persistence Gateway: the single object through which
// every other component (the Client I/O Server, the Scheduler, the
// Management Server, the worker process) reads and writes users, jobs
// and data.
//
// A Gateway is safe for concurrent use; every method runs its own
// transaction (or a single statement where a transaction would add no
// safety).
type Gateway struct {
	db *bun.DB
}

// NewGateway wraps an already-configured *bun.DB. The caller must run
// InitDB (or MustInitDB) against the same db before first use.
func NewGateway(db *bun.DB) *Gateway {
	return &Gateway{db: db}
}

// DB exposes the underlying *bun.DB, for callers (migrations, health
// checks) that need it directly. Gateway methods never need this.
func (g *Gateway) DB() *bun.DB {
	return g.db
}
