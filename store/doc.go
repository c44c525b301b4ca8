// Package store implements the Persistence Gateway: the single choke
// point over a relational database holding the users, jobs and data
// tables.
//
// # Overview
//
// store provides durable persistence of users, jobs and the request/
// response payloads attached to them, using github.com/uptrace/bun. Each
// exported Gateway method is one transaction: it commits or returns an
// error, never a partial write.
//
// Gateway is compatible with any bun-supported dialect; this repo ships
// dialect/pgdialect for production deployments and dialect/sqlitedialect
// for tests.
//
// # Schema
//
// InitDB (or MustInitDB) creates the users, jobs and data tables plus the
// indexes needed for the Scheduler's dequeue query (status, time_received)
// and cascading deletes. InitDB is idempotent and runs inside a
// transaction; it performs no destructive migration.
//
// # Concurrency model
//
// NextJobs does not itself transition job status; callers (the Scheduler)
// are expected to follow up with SetStarted. This makes NextJobs racy if
// more than one Scheduler instance attaches to the same database; the
// design assumes a single Scheduler per database. A future multi-node
// deployment would need NextJobs to become a
// SELECT ... FOR UPDATE SKIP LOCKED or dialect equivalent.
//
// # Database lifecycle
//
// This package does not manage connection pooling or migrations beyond
// InitDB. The caller is responsible for constructing a properly
// configured *bun.DB (connection limits, TLS, timeouts) and running
// InitDB before first use.
package store
