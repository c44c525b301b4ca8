// Package server implements the Client I/O Server: a TCP listener,
// optionally TLS-wrapped, that accepts length-prefixed framed messages
// (wire.ReadFrame/WriteFrame), authenticates each one against the
// Persistence Gateway, and dispatches it to the Scheduler or Gateway per
// the per-connection state machine.
//
// Each accepted connection handles exactly one request/response pair and
// closes. Connections are handled by the goroutines of a bounded
// internal.WorkerPool, so a slow client or a slow database call on one
// connection does not hold up the others while a worker is free; once every
// worker is busy and the accept queue is full, the accept loop waits for
// room.
package server
