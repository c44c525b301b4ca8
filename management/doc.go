// Package management implements the Management Server: a local
// datagram-socket control plane, distinct from the client wire protocol,
// that accepts a single JSON request object per datagram and replies with
// a single JSON response object, routing "user", "job" and "scheduler"
// commands to the Persistence Gateway and Scheduler.
package management
